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

package dicomjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/suyashkumar/dicom"
)

type converter struct {
	encodeOpts    []EncodeOption
	normalizeOpts []NormalizeOption
}

// File is a decoded DICOM file together with its bytes.
type File struct {
	Dataset dicom.Dataset
	Data    []byte
}

// ReadFile parses the DICOM file at path. Native pixel data is kept as raw bytes so that it can
// be written out unchanged. Panics raised by the decoder are returned as errors.
func ReadFile(path string) (f *File, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %v: %v", path, err)
	}

	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("parsing %v: %v", path, r)
		}
	}()

	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil, dicom.SkipProcessingPixelDataValue())
	if err != nil {
		return nil, fmt.Errorf("parsing %v: %v", path, err)
	}
	return &File{Dataset: ds, Data: data}, nil
}

// Convert is Convert on the file's data set, with binary values read from the file's bytes.
func (f *File) Convert(opts ...Option) (DataSet, error) {
	return Convert(f.Dataset, append([]Option{WithEncodeOptions(SourceData(f.Data))}, opts...)...)
}

// Convert encodes ds as DICOM JSON and normalizes it. The Transfer Syntax UID from the file meta
// information is added as (0002,0010) and decides whether binary words are byte swapped.
func Convert(ds dicom.Dataset, opts ...Option) (DataSet, error) {
	c := &converter{}
	for _, opt := range opts {
		opt(c)
	}

	raw, err := Encode(ds, c.encodeOpts...)
	if err != nil {
		return nil, err
	}

	uid, ok := TransferSyntaxUID(ds)
	if ok {
		raw[TransferSyntaxUIDTag.String()] = &Element{VR: UIVR.Name, Value: []interface{}{uid}}
	}

	normalizeOpts := append([]NormalizeOption{BigEndian(IsBigEndian(uid))}, c.normalizeOpts...)
	return Normalize(raw, normalizeOpts...)
}

// OutputPath returns out, or the path of the JSON file written next to in when out is empty.
func OutputPath(in, out string) string {
	if out != "" {
		return out
	}
	return in + ".json"
}

// ConvertFile converts the DICOM file in to normalized DICOM JSON written to out, or to in with
// a ".json" suffix when out is empty. It returns the path written.
func ConvertFile(in, out string, opts ...Option) (string, error) {
	f, err := ReadFile(in)
	if err != nil {
		return "", err
	}
	converted, err := f.Convert(opts...)
	if err != nil {
		return "", fmt.Errorf("converting %v: %v", in, err)
	}

	out = OutputPath(in, out)
	if err := WriteFile(out, converted); err != nil {
		return "", err
	}
	return out, nil
}

// ReadJSON decodes a DICOM JSON data set.
func ReadJSON(r io.Reader) (DataSet, error) {
	var ds DataSet
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding DICOM JSON: %w", err)
	}
	return ds, nil
}

// NormalizeJSONFile normalizes an existing DICOM JSON file. InlineBinary in DICOM JSON is little
// endian, so words are only swapped when opts ask for it.
func NormalizeJSONFile(in, out string, opts ...NormalizeOption) (string, error) {
	f, err := os.Open(in)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ds, err := ReadJSON(f)
	if err != nil {
		return "", fmt.Errorf("reading %v: %w", in, err)
	}
	normalized, err := Normalize(ds, opts...)
	if err != nil {
		return "", fmt.Errorf("normalizing %v: %w", in, err)
	}

	out = OutputPath(in, out)
	if err := WriteFile(out, normalized); err != nil {
		return "", err
	}
	return out, nil
}

// WriteFile writes the JSON encoding of ds to path.
func WriteFile(path string, ds DataSet) error {
	b, err := Marshal(ds)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("writing %v: %v", path, err)
	}
	return nil
}
