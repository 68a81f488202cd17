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
	"strings"
)

// vrType groups VRs that share a DICOM JSON representation
type vrType int

const (
	// textVR is for backslash separated strings with space padding
	textVR vrType = iota

	// singleTextVR is for text that does not support multiplicity, so backslashes are kept
	singleTextVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// personNameVR is for VR: PN, encoded as objects of component groups
	personNameVR

	// integerStringVR is for VR: IS
	integerStringVR

	// decimalStringVR is for VR: DS
	decimalStringVR

	// numberBinaryVR is for value fields holding binary numbers, encoded as JSON numbers
	numberBinaryVR

	// bulkDataVR is for byte streams encoded as InlineBinary
	bulkDataVR

	// wordDataVR is for streams of multi-byte words encoded as InlineBinary. These are the only
	// VRs whose InlineBinary depends on the byte order of the source
	wordDataVR

	// tagVR is for VR: AT
	tagVR

	// sequenceVR is for VR: SQ
	sequenceVR
)

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind vrType

	// size of a single value in bytes, 0 for variable length values
	width int

	float  bool
	signed bool
}

var vrLookupMap = map[string]*VR{}

func newVR(text string, kind vrType, width int) *VR {
	vr := &VR{Name: text, kind: kind, width: width}
	vrLookupMap[vr.Name] = vr

	return vr
}

func (vr *VR) asFloat() *VR {
	vr.float = true
	return vr
}

func (vr *VR) asSigned() *VR {
	vr.signed = true
	return vr
}

func lookupVRByName(name string) (*VR, error) {
	r, ok := vrLookupMap[name]
	if !ok {
		return nil, fmt.Errorf("unknown vr name: %v", name)
	}
	return r, nil
}

// wordSize returns the size in bytes of a single word for VRs whose InlineBinary is byte order
// dependent.
func wordSize(name string) (int, bool) {
	vr, ok := vrLookupMap[name]
	if !ok || vr.kind != wordDataVR {
		return 0, false
	}
	return vr.width, true
}

// resolveAmbiguousVR picks a single VR from dictionary entries such as "US or SS". "OB or OW" is
// left as is. Signed candidates are used when the pixel representation is 1.
func resolveAmbiguousVR(name string, pixelRepresentation int) string {
	if !strings.Contains(name, " or ") || name == AmbiguousOBOrOW {
		return name
	}
	candidates := strings.Split(name, " or ")
	if pixelRepresentation == 1 {
		for _, c := range candidates {
			if vr, err := lookupVRByName(c); err == nil && vr.signed {
				return c
			}
		}
	}
	return candidates[0]
}

// AmbiguousOBOrOW is the VR decoders report for elements that may be either OB or OW. It is not
// a valid DICOM JSON VR.
const AmbiguousOBOrOW = "OB or OW"

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = newVR("CS", textVR, 0)
	SHVR = newVR("SH", textVR, 0)
	LOVR = newVR("LO", textVR, 0)
	STVR = newVR("ST", singleTextVR, 0)
	LTVR = newVR("LT", singleTextVR, 0)
	ASVR = newVR("AS", textVR, 0)

	// person name
	PNVR = newVR("PN", personNameVR, 0)

	// application entity
	AEVR = newVR("AE", textVR, 0)

	// dates/time VR
	DAVR = newVR("DA", textVR, 0)
	TMVR = newVR("TM", textVR, 0)
	DTVR = newVR("DT", textVR, 0)

	// textual numbers
	ISVR = newVR("IS", integerStringVR, 0)
	DSVR = newVR("DS", decimalStringVR, 0)

	// binary numbers
	SSVR = newVR("SS", numberBinaryVR, 2).asSigned()
	USVR = newVR("US", numberBinaryVR, 2)
	SLVR = newVR("SL", numberBinaryVR, 4).asSigned()
	ULVR = newVR("UL", numberBinaryVR, 4)
	SVVR = newVR("SV", numberBinaryVR, 8).asSigned()
	UVVR = newVR("UV", numberBinaryVR, 8)
	FLVR = newVR("FL", numberBinaryVR, 4).asFloat()
	FDVR = newVR("FD", numberBinaryVR, 8).asFloat()

	// large binary sequences
	OBVR = newVR("OB", bulkDataVR, 1)
	ODVR = newVR("OD", wordDataVR, 8).asFloat()
	OFVR = newVR("OF", wordDataVR, 4).asFloat()
	OLVR = newVR("OL", wordDataVR, 4)
	OVVR = newVR("OV", wordDataVR, 8)
	OWVR = newVR("OW", wordDataVR, 2)

	// unlimited char
	UCVR = newVR("UC", textVR, 0)

	// unknown
	UNVR = newVR("UN", bulkDataVR, 1)

	// URL
	URVR = newVR("UR", singleTextVR, 0)

	// unlimited text
	UTVR = newVR("UT", singleTextVR, 0)

	// attribute tag
	ATVR = newVR("AT", tagVR, 4)

	// unique identifier
	UIVR = newVR("UI", uniqueIdentifierVR, 0)

	// sequence
	SQVR = newVR("SQ", sequenceVR, 0)
)
