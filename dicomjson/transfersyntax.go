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
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
)

// IsBigEndian reports whether data encoded with the transfer syntax is big endian. Only
// Explicit VR Big Endian is; any other syntax is little endian according to PS3.5 A.4
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func IsBigEndian(uid string) bool {
	return uid == ExplicitVRBigEndianUID
}

func byteOrder(uid string) binary.ByteOrder {
	if IsBigEndian(uid) {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// TransferSyntaxUID returns the Transfer Syntax UID from the file meta information of ds.
func TransferSyntaxUID(ds dicom.Dataset) (string, bool) {
	elem, err := ds.FindElementByTag(tag.TransferSyntaxUID)
	if err != nil || elem.Value == nil || elem.Value.ValueType() != dicom.Strings {
		return "", false
	}
	values := dicom.MustGetStrings(elem.Value)
	if len(values) == 0 {
		return "", false
	}
	uid := trimUID(values[0])
	return uid, uid != ""
}

func trimUID(s string) string {
	return strings.TrimRight(s, "\x00 ")
}
