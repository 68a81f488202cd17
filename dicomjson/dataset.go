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
	"errors"
	"fmt"
	"sort"
)

// ErrMissingVR is returned for DICOM JSON elements without a "vr" attribute.
var ErrMissingVR = errors.New("data element has no vr")

// DataSet models a DICOM JSON data set: a mapping from 8 hex digit tags (e.g. "00100010") to
// data elements. encoding/json writes map keys in sorted order.
type DataSet map[string]*Element

// Element models a DICOM JSON data element
// http://dicom.nema.org/medical/dicom/current/output/html/part18.html#sect_F.2.2
//
// Fields are declared in the order their JSON names sort in.
type Element struct {
	// InlineBinary holds the base64 encoded value of binary VRs
	InlineBinary string `json:"InlineBinary,omitempty"`

	// Value holds the element's values. A nil Value is absent; a non-nil empty Value is present
	// but empty, which is kept in the output only for sequences without items. Entries can be
	// any of the following types:
	// nil,
	// string,
	// json.Number,
	// PersonName,
	// DataSet (when VR is SQ)
	Value []interface{} `json:"Value,omitempty"`

	// VR is the 2-character VR code
	VR string `json:"vr"`
}

// PersonName is the DICOM JSON representation of a PN value
// http://dicom.nema.org/medical/dicom/current/output/html/part18.html#sect_F.2.2
type PersonName struct {
	Alphabetic  string `json:",omitempty"`
	Ideographic string `json:",omitempty"`
	Phonetic    string `json:",omitempty"`
}

// SortedTags returns the keys of the DataSet in ascending order
func (ds DataSet) SortedTags() []string {
	keys := make([]string, 0, len(ds))
	for k := range ds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the element like encoding/json would, except that a sequence without
// items keeps its empty Value.
func (e Element) MarshalJSON() ([]byte, error) {
	type element Element
	if e.VR != SQVR.Name || e.Value == nil || len(e.Value) > 0 {
		return marshalCompact(element(e))
	}
	return marshalCompact(struct {
		InlineBinary string        `json:"InlineBinary,omitempty"`
		Value        []interface{} `json:"Value"`
		VR           string        `json:"vr"`
	}{e.InlineBinary, e.Value, e.VR})
}

// marshalCompact is json.Marshal without HTML escaping.
func marshalCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON decodes a DICOM JSON element. Values are decoded according to the element's VR:
// nested data sets for SQ, PersonName objects for PN, and strings or json.Number otherwise.
func (e *Element) UnmarshalJSON(b []byte) error {
	var raw struct {
		VR           *string           `json:"vr"`
		Value        []json.RawMessage `json:"Value"`
		InlineBinary string            `json:"InlineBinary"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.VR == nil {
		return ErrMissingVR
	}

	*e = Element{VR: *raw.VR, InlineBinary: raw.InlineBinary}
	if raw.Value == nil {
		return nil
	}
	e.Value = make([]interface{}, 0, len(raw.Value))
	for i, r := range raw.Value {
		v, err := decodeValue(e.VR, r)
		if err != nil {
			return fmt.Errorf("decoding value %d of %v element: %v", i, e.VR, err)
		}
		e.Value = append(e.Value, v)
	}
	return nil
}

func decodeValue(vr string, r json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(r)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch {
	case vr == SQVR.Name:
		var item DataSet
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, err
		}
		return item, nil
	case vr == PNVR.Name && len(trimmed) > 0 && trimmed[0] == '{':
		var name PersonName
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return nil, err
		}
		return name, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
