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
	"encoding/binary"
	"math"
	"os"
	"strings"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestConvert(t *testing.T) {
	dataSet := func(uid string) dicom.Dataset {
		return dicom.Dataset{Elements: []*dicom.Element{
			mustElement(t, tag.TransferSyntaxUID, "UI", []string{uid + "\x00"}),
			mustElement(t, tag.Tag{Group: 0x0008, Element: 0x0000}, "UL", []int{4}),
			mustElement(t, tag.SpecificCharacterSet, "CS", []string{"ISO_IR 100"}),
			mustElement(t, tag.InstitutionName, "LO", []string{"Hospital  "}),
			mustElement(t, tag.Tag{Group: 0x0009, Element: 0x1005}, "OW", []byte{1, 2, 3, 4}),
			mustElement(t, tag.Tag{Group: 0x0009, Element: 0x1006}, "OF", []float64{1}),
		}}
	}

	tests := []struct {
		name string
		uid  string
		opts []Option
		want DataSet
	}{
		{
			name: "little endian",
			uid:  ExplicitVRLittleEndianUID,
			want: DataSet{
				"00020010": {VR: "UI", Value: []interface{}{ExplicitVRLittleEndianUID}},
				"00080080": {VR: "LO", Value: []interface{}{"Hospital"}},
				"00091005": {VR: "OW", InlineBinary: "AQIDBA=="},
				"00091006": {VR: "OF", InlineBinary: "AACAPw=="},
			},
		},
		{
			name: "big endian",
			uid:  ExplicitVRBigEndianUID,
			want: DataSet{
				"00020010": {VR: "UI", Value: []interface{}{ExplicitVRBigEndianUID}},
				"00080080": {VR: "LO", Value: []interface{}{"Hospital"}},
				"00091005": {VR: "OW", InlineBinary: "AQIDBA=="},
				"00091006": {VR: "OF", InlineBinary: "AACAPwAA"},
			},
		},
		{
			name: "big endian with exact word swap",
			uid:  ExplicitVRBigEndianUID,
			opts: []Option{WithNormalizeOptions(ExactWordSwap())},
			want: DataSet{
				"00020010": {VR: "UI", Value: []interface{}{ExplicitVRBigEndianUID}},
				"00080080": {VR: "LO", Value: []interface{}{"Hospital"}},
				"00091005": {VR: "OW", InlineBinary: "AQIDBA=="},
				"00091006": {VR: "OF", InlineBinary: "AACAPw=="},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(dataSet(tc.uid), tc.opts...)
			if err != nil {
				t.Fatalf("unexpected error converting: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", mustMarshal(t, got), mustMarshal(t, tc.want))
			}
		})
	}
}

func TestConvertWithoutTransferSyntax(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{mustElement(t, tag.PatientID, "LO", []string{"123 "})}}
	got, err := Convert(ds)
	if err != nil {
		t.Fatalf("unexpected error converting: %v", err)
	}
	want := DataSet{"00100020": {VR: "LO", Value: []interface{}{"123"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", mustMarshal(t, got), mustMarshal(t, want))
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, out, want string
	}{
		{"a/b.dcm", "", "a/b.dcm.json"},
		{"a/b", "", "a/b.json"},
		{"a/b.dcm", "c.json", "c.json"},
	}
	for _, tc := range tests {
		if got := OutputPath(tc.in, tc.out); got != tc.want {
			t.Errorf("OutputPath(%q, %q): got %v, want %v", tc.in, tc.out, got, tc.want)
		}
	}
}

func TestNormalizeJSONFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fixture.json")
	raw := `{
  "00080005": {"vr": "CS", "Value": ["ISO_IR 100"]},
  "00100010": {"vr": "PN", "Value": [{"Alphabetic": "Doe^John"}]},
  "00080080": {"vr": "LO", "Value": ["Hospital  ", ""]},
  "00091001": {"vr": "OB or OW", "InlineBinary": "AQID"},
  "00081115": {"vr": "SQ", "Value": []},
  "fffcfffc": {"vr": "OB", "InlineBinary": "AA=="}
}`
	if err := os.WriteFile(in, []byte(raw), 0644); err != nil {
		t.Fatalf("unexpected error writing input: %v", err)
	}

	written, err := NormalizeJSONFile(in, "")
	if err != nil {
		t.Fatalf("unexpected error normalizing: %v", err)
	}
	if want := in + ".json"; written != want {
		t.Fatalf("got %v, want %v", written, want)
	}

	got, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("unexpected error reading output: %v", err)
	}
	want := `{
  "00080080": {
    "Value": [
      "Hospital",
      null
    ],
    "vr": "LO"
  },
  "00081115": {
    "Value": [],
    "vr": "SQ"
  },
  "00091001": {
    "InlineBinary": "AQID",
    "vr": "UN"
  },
  "00100010": {
    "Value": [
      {
        "Alphabetic": "Doe^John"
      }
    ],
    "vr": "PN"
  },
  "fffcfffc": {
    "InlineBinary": "AA==",
    "vr": "OB"
  }
}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestNormalizeJSONFileErrors(t *testing.T) {
	dir := t.TempDir()
	noVR := filepath.Join(dir, "novr.json")
	if err := os.WriteFile(noVR, []byte(`{"00100020": {"Value": ["1"]}}`), 0644); err != nil {
		t.Fatalf("unexpected error writing input: %v", err)
	}

	for _, in := range []string{filepath.Join(dir, "missing.json"), noVR} {
		if _, err := NormalizeJSONFile(in, ""); err == nil {
			t.Errorf("NormalizeJSONFile(%v): expected error", in)
		}
	}
}

func TestConvertFile(t *testing.T) {
	var elems []*dicom.Element
	for _, e := range []struct {
		tg   tag.Tag
		data interface{}
	}{
		{tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.7"}},
		{tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4"}},
		{tag.TransferSyntaxUID, []string{ExplicitVRLittleEndianUID}},
		{tag.PatientID, []string{"ID "}},
	} {
		elem, err := dicom.NewElement(e.tg, e.data)
		if err != nil {
			t.Fatalf("unexpected error creating element %v: %v", e.tg, err)
		}
		elems = append(elems, elem)
	}

	in := filepath.Join(t.TempDir(), "in.dcm")
	f, err := os.Create(in)
	if err != nil {
		t.Fatalf("unexpected error creating %v: %v", in, err)
	}
	if err := dicom.Write(f, dicom.Dataset{Elements: elems}); err != nil {
		t.Fatalf("unexpected error writing DICOM: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error closing %v: %v", in, err)
	}

	written, err := ConvertFile(in, "")
	if err != nil {
		t.Fatalf("unexpected error converting: %v", err)
	}
	if written != in+".json" {
		t.Fatalf("got %v, want %v", written, in+".json")
	}

	r, err := os.Open(written)
	if err != nil {
		t.Fatalf("unexpected error opening output: %v", err)
	}
	defer r.Close()
	got, err := ReadJSON(r)
	if err != nil {
		t.Fatalf("unexpected error reading output: %v", err)
	}
	want := DataSet{
		"00020010": {VR: "UI", Value: []interface{}{ExplicitVRLittleEndianUID}},
		"00100020": {VR: "LO", Value: []interface{}{"ID"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", mustMarshal(t, got), mustMarshal(t, want))
	}
}

// explicitElement encodes a data element with an explicit VR.
func explicitElement(order binary.ByteOrder, group, element uint16, vr string, value []byte) []byte {
	b := make([]byte, 4, 12+len(value))
	order.PutUint16(b, group)
	order.PutUint16(b[2:], element)
	b = append(b, vr...)
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "SQ", "SV", "UC", "UN", "UR", "UT", "UV":
		var l [6]byte
		order.PutUint32(l[2:], uint32(len(value)))
		b = append(b, l[:]...)
	default:
		var l [2]byte
		order.PutUint16(l[:], uint16(len(value)))
		b = append(b, l[:]...)
	}
	return append(b, value...)
}

// p10File returns a DICOM file with the transfer syntax uid, made of the preamble, the file
// meta information and body.
func p10File(uid string, body []byte) []byte {
	if len(uid)%2 != 0 {
		uid += "\x00"
	}
	meta := explicitElement(binary.LittleEndian, 0x0002, 0x0010, "UI", []byte(uid))
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(meta)))

	b := append(make([]byte, 128), "DICM"...)
	b = append(b, explicitElement(binary.LittleEndian, 0x0002, 0x0000, "UL", length[:])...)
	b = append(b, meta...)
	return append(b, body...)
}

// binaryTestBody returns a data set with an institution name, an empty sequence, OW words
// 0102 and 0304 as stored in the file and OF values 1 and 2.
func binaryTestBody(order binary.ByteOrder) []byte {
	floats := make([]byte, 8)
	order.PutUint32(floats, math.Float32bits(1))
	order.PutUint32(floats[4:], math.Float32bits(2))

	var b []byte
	b = append(b, explicitElement(order, 0x0008, 0x0080, "LO", []byte("Hosp"))...)
	b = append(b, explicitElement(order, 0x0008, 0x1115, "SQ", nil)...)
	b = append(b, explicitElement(order, 0x0028, 0x1201, "OW", []byte{1, 2, 3, 4})...)
	b = append(b, explicitElement(order, 0x0066, 0x0016, "OF", floats)...)
	return b
}

func TestConvertFileByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		uid   string
		order binary.ByteOrder
		opts  []Option
		ow    string
		of    string
	}{
		{
			name:  "little endian is unchanged",
			uid:   ExplicitVRLittleEndianUID,
			order: binary.LittleEndian,
			ow:    "AQIDBA==",
			of:    "AACAPwAAAEA=",
		},
		{
			name:  "big endian is swapped in 2 byte steps",
			uid:   ExplicitVRBigEndianUID,
			order: binary.BigEndian,
			ow:    "AgEEAw==",
			of:    "AACAPwBAAAAAAABAAAA=",
		},
		{
			name:  "big endian with exact word swap",
			uid:   ExplicitVRBigEndianUID,
			order: binary.BigEndian,
			opts:  []Option{WithNormalizeOptions(ExactWordSwap())},
			ow:    "AgEEAw==",
			of:    "AACAPwAAAEA=",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := filepath.Join(t.TempDir(), "in.dcm")
			if err := os.WriteFile(in, p10File(tc.uid, binaryTestBody(tc.order)), 0644); err != nil {
				t.Fatalf("unexpected error writing input: %v", err)
			}

			written, err := ConvertFile(in, "", tc.opts...)
			if err != nil {
				t.Fatalf("unexpected error converting: %v", err)
			}
			b, err := os.ReadFile(written)
			if err != nil {
				t.Fatalf("unexpected error reading output: %v", err)
			}
			got, err := ReadJSON(strings.NewReader(string(b)))
			if err != nil {
				t.Fatalf("unexpected error decoding output: %v", err)
			}

			want := DataSet{
				"00020010": {VR: "UI", Value: []interface{}{tc.uid}},
				"00080080": {VR: "LO", Value: []interface{}{"Hosp"}},
				"00081115": {VR: "SQ", Value: []interface{}{}},
				"00281201": {VR: "OW", InlineBinary: tc.ow},
				"00660016": {VR: "OF", InlineBinary: tc.of},
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %s, want %v", b, mustMarshal(t, want))
			}
			if !strings.Contains(string(b), `"Value": []`) {
				t.Fatalf("empty sequence lost its Value in %s", b)
			}
		})
	}
}

func TestEncodeBinaryDecodedAsText(t *testing.T) {
	floats := []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0x40}
	body := explicitElement(binary.LittleEndian, 0x0066, 0x0016, "OF", floats)
	data := p10File(ExplicitVRLittleEndianUID, body)

	// the decoder splits text on backslashes and trims spaces and NULs
	elem := mustElement(t, tag.Tag{Group: 0x0066, Element: 0x0016}, "OF", []string{"\x80?", "@"})
	elem.ValueLength = uint32(len(floats))

	tests := []struct {
		name string
		opts []EncodeOption
		want string
	}{
		{"read from source data", []EncodeOption{SourceData(data)}, "AACAPwAAAEA="},
		{"joined without source data", nil, "gD9cQA=="},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(dicom.Dataset{Elements: []*dicom.Element{elem}}, tc.opts...)
			if err != nil {
				t.Fatalf("unexpected error encoding: %v", err)
			}
			if got["00660016"].InlineBinary != tc.want {
				t.Fatalf("got %v, want %v", got["00660016"].InlineBinary, tc.want)
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.dcm")); err == nil {
		t.Fatalf("expected error reading a missing file")
	}
}
