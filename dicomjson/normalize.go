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
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
)

// Rule rewrites a single data element during normalization. When matched is false the next rule
// is tried. Otherwise out replaces the element in the normalized DataSet and a nil out drops it.
// Rules must not modify elem.
type Rule func(key string, elem *Element) (out *Element, matched bool, err error)

type normalizer struct {
	bigEndian bool

	// stride used when swapping big endian words, 0 means the word size of the VR
	swapStep int

	extra []Rule
	rules []Rule
}

// Normalize returns a copy of ds rewritten into canonical fixture form. ds is not modified.
//
// For each data element the first matching rule applies:
//  1. group length elements (gggg,0000), Specific Character Set and Data Set Trailing Padding
//     are dropped
//  2. the "OB or OW" VR becomes UN
//  3. values of non-sequence elements lose trailing whitespace, empty strings become null, and
//     an empty Value is removed
//  4. when the input is big endian, InlineBinary of OW, OD, OF, OL and OV is byte swapped
//  5. items of sequences are normalized recursively with the same options
//
// Elements without a VR are rejected with ErrMissingVR.
func Normalize(ds DataSet, opts ...NormalizeOption) (DataSet, error) {
	n := &normalizer{swapStep: referenceSwapStep}
	for _, opt := range opts {
		opt(n)
	}
	n.rules = append([]Rule{dropExcluded, fixAmbiguousVR, cleanValues, n.swapInlineBinary, n.normalizeSequence}, n.extra...)

	return n.normalize(ds)
}

func (n *normalizer) normalize(ds DataSet) (DataSet, error) {
	out := make(DataSet, len(ds))
	for _, key := range ds.SortedTags() {
		elem := ds[key]
		if elem == nil || elem.VR == "" {
			return nil, fmt.Errorf("element %v: %w", key, ErrMissingVR)
		}

		result, err := n.apply(key, elem)
		if err != nil {
			return nil, fmt.Errorf("normalizing element %v: %w", key, err)
		}
		if result != nil {
			out[key] = result
		}
	}
	return out, nil
}

func (n *normalizer) apply(key string, elem *Element) (*Element, error) {
	for _, rule := range n.rules {
		out, matched, err := rule(key, elem)
		if err != nil {
			return nil, err
		}
		if matched {
			return out, nil
		}
	}
	return copyElement(elem), nil
}

func copyElement(elem *Element) *Element {
	c := *elem
	if elem.Value != nil {
		c.Value = append(make([]interface{}, 0, len(elem.Value)), elem.Value...)
	}
	return &c
}

func dropExcluded(key string, _ *Element) (*Element, bool, error) {
	if isDroppedKey(key) {
		return nil, true, nil
	}
	return nil, false, nil
}

// DICOM JSON does not permit the combined form
func fixAmbiguousVR(_ string, elem *Element) (*Element, bool, error) {
	if elem.VR != AmbiguousOBOrOW {
		return nil, false, nil
	}
	c := copyElement(elem)
	c.VR = UNVR.Name
	return c, true, nil
}

func cleanValues(_ string, elem *Element) (*Element, bool, error) {
	if elem.VR == SQVR.Name || elem.Value == nil {
		return nil, false, nil
	}

	values := make([]interface{}, 0, len(elem.Value))
	for _, v := range elem.Value {
		if s, ok := v.(string); ok {
			s = strings.TrimRightFunc(s, isTrailingSpace)
			if s == "" {
				values = append(values, nil)
				continue
			}
			v = s
		}
		values = append(values, v)
	}

	c := *elem
	c.Value = values
	if len(values) == 0 {
		c.Value = nil
	}
	return &c, true, nil
}

// isTrailingSpace also counts the ASCII information separators (0x1C-0x1F) as whitespace.
func isTrailingSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// InlineBinary in DICOM JSON is always little endian
func (n *normalizer) swapInlineBinary(_ string, elem *Element) (*Element, bool, error) {
	if !n.bigEndian || elem.InlineBinary == "" {
		return nil, false, nil
	}
	width, ok := wordSize(elem.VR)
	if !ok {
		return nil, false, nil
	}

	raw, err := base64.StdEncoding.DecodeString(elem.InlineBinary)
	if err != nil {
		return nil, false, fmt.Errorf("decoding InlineBinary: %v", err)
	}
	step := n.swapStep
	if step == 0 {
		step = width
	}

	c := copyElement(elem)
	c.InlineBinary = base64.StdEncoding.EncodeToString(swapWords(raw, width, step))
	return c, true, nil
}

func (n *normalizer) normalizeSequence(_ string, elem *Element) (*Element, bool, error) {
	if elem.VR != SQVR.Name || elem.Value == nil {
		return nil, false, nil
	}

	items := make([]interface{}, 0, len(elem.Value))
	for i, v := range elem.Value {
		item, ok := v.(DataSet)
		if !ok {
			return nil, false, fmt.Errorf("sequence item %d is %T, not a data set", i, v)
		}
		normalized, err := n.normalize(item)
		if err != nil {
			return nil, false, fmt.Errorf("sequence item %d: %w", i, err)
		}
		items = append(items, normalized)
	}

	c := *elem
	c.Value = items
	return &c, true, nil
}
