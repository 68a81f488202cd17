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
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// DataElementTag is a unique identifier for a Data Element composed of an unordered pair
// of numbers called the group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number.
type DataElementTag uint32

// Tags the converter treats specially.
const (
	TransferSyntaxUIDTag      DataElementTag = 0x00020010
	SpecificCharacterSetTag   DataElementTag = 0x00080005
	PixelRepresentationTag    DataElementTag = 0x00280103
	PixelDataTag              DataElementTag = 0x7FE00010
	DataSetTrailingPaddingTag DataElementTag = 0xFFFCFFFC
)

func newDataElementTag(t tag.Tag) DataElementTag {
	return DataElementTag(uint32(t.Group)<<16 | uint32(t.Element))
}

// ParseTag parses the 8 hex digit key used for data elements in DICOM JSON.
func ParseTag(key string) (DataElementTag, error) {
	if len(key) != 8 {
		return 0, fmt.Errorf("tag %q is not 8 hex digits", key)
	}
	v, err := strconv.ParseUint(key, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing tag %q: %v", key, err)
	}
	return DataElementTag(v), nil
}

// GroupNumber returns the group number component of the DataElementTag
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetadataElement is true if and only if the Data Element is a meta data element
func (t DataElementTag) IsMetadataElement() bool {
	return t.GroupNumber() == uint16(0x0002)
}

// IsGroupLength is true for the retired group length elements (gggg,0000)
func (t DataElementTag) IsGroupLength() bool {
	return t.ElementNumber() == 0
}

// String returns the DICOM JSON key for the tag, e.g. "00100010".
func (t DataElementTag) String() string {
	return fmt.Sprintf("%08X", uint32(t))
}

// isDroppedKey reports whether a data element is excluded from fixtures: group lengths, the
// Specific Character Set (output is always UTF-8) and the Data Set Trailing Padding.
// Keys are compared as given, so "fffcfffc" is kept.
func isDroppedKey(key string) bool {
	return strings.HasSuffix(key, "0000") ||
		key == SpecificCharacterSetTag.String() ||
		key == DataSetTrailingPaddingTag.String()
}
