// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command dicom2json writes the normalized DICOM JSON of a DICOM file next to it, for use as a
// test fixture. To regenerate the JSON of every DICOM file in a directory:
//
//	find . -type f -name "*.dcm" -exec dicom2json {} \;
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dcmfx/dicom-to-json/dicomjson"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, errOut io.Writer) int {
	fs := flag.NewFlagSet("dicom2json", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { printUsage(errOut, fs) }

	var outPath string
	var exactWordSwap bool
	var fromJSON bool
	var verbose bool
	fs.StringVar(&outPath, "o", "", "Output path (default <file>.json)")
	fs.BoolVar(&exactWordSwap, "exact-word-swap", false, "Swap big endian OD/OF/OL/OV words by their full size instead of in 2 byte steps")
	fs.BoolVar(&fromJSON, "from-json", false, "Input is DICOM JSON to normalize again instead of a DICOM file")
	fs.BoolVar(&verbose, "v", false, "Log the transfer syntax and output path to stderr")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		printUsage(errOut, fs)
		return 2
	}
	in := fs.Arg(0)

	logger := log.New(io.Discard, "dicom2json: ", 0)
	if verbose {
		logger.SetOutput(errOut)
	}

	var normalizeOpts []dicomjson.NormalizeOption
	if exactWordSwap {
		normalizeOpts = append(normalizeOpts, dicomjson.ExactWordSwap())
	}

	if fromJSON {
		written, err := dicomjson.NormalizeJSONFile(in, outPath, normalizeOpts...)
		if err != nil {
			fmt.Fprintf(errOut, "dicom2json: %v\n", err)
			return 1
		}
		logger.Printf("wrote %v", written)
		return 0
	}

	f, err := dicomjson.ReadFile(in)
	if err != nil {
		fmt.Fprintf(errOut, "dicom2json: %v\n", err)
		return 1
	}
	if uid, ok := dicomjson.TransferSyntaxUID(f.Dataset); ok {
		logger.Printf("%v: transfer syntax %v (big endian: %v)", in, uid, dicomjson.IsBigEndian(uid))
	} else {
		logger.Printf("%v: no transfer syntax in file meta information", in)
	}

	converted, err := f.Convert(dicomjson.WithNormalizeOptions(normalizeOpts...))
	if err != nil {
		fmt.Fprintf(errOut, "dicom2json: converting %v: %v\n", in, err)
		return 1
	}
	written := dicomjson.OutputPath(in, outPath)
	if err := dicomjson.WriteFile(written, converted); err != nil {
		fmt.Fprintf(errOut, "dicom2json: %v\n", err)
		return 1
	}
	logger.Printf("wrote %v", written)
	return 0
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: dicom2json [-o <out.json>] [-exact-word-swap] [-from-json] [-v] <file>")
	fmt.Fprintln(w)
	fs.PrintDefaults()
}
