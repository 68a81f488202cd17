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
	"encoding/binary"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// sourceData finds data element values in the bytes of the file a data set was decoded from.
// Values are looked up by their element header, in the order the elements appear in the file.
type sourceData struct {
	data     []byte
	order    binary.ByteOrder
	implicit bool

	// offset just past the last value found
	pos int
}

// newSourceData returns nil when data is empty or deflated, as headers cannot be matched then.
func newSourceData(data []byte, order binary.ByteOrder, transferSyntaxUID string) *sourceData {
	if len(data) == 0 || transferSyntaxUID == DeflatedExplicitVRLittleEndianUID {
		return nil
	}
	return &sourceData{
		data:     data,
		order:    order,
		implicit: transferSyntaxUID == ImplicitVRLittleEndianUID,
	}
}

// find returns the value of the next element with tag t, VR vr and the given value length.
// Only VRs with a 4 byte length in explicit VR encoding can be found.
func (s *sourceData) find(t tag.Tag, vr string, length uint32) ([]byte, bool) {
	if s == nil || len(vr) != 2 {
		return nil, false
	}

	header := s.header(t, vr, length)
	i := bytes.Index(s.data[s.pos:], header)
	if i < 0 {
		return nil, false
	}
	start := s.pos + i + len(header)
	end := start + int(length)
	if end > len(s.data) {
		return nil, false
	}
	s.pos = end
	return s.data[start:end], true
}

func (s *sourceData) header(t tag.Tag, vr string, length uint32) []byte {
	var h [12]byte
	s.order.PutUint16(h[0:], t.Group)
	s.order.PutUint16(h[2:], t.Element)
	if s.implicit {
		s.order.PutUint32(h[4:], length)
		return h[:8]
	}
	// VR, 2 reserved bytes, 32 bit length
	copy(h[4:], vr)
	s.order.PutUint32(h[8:], length)
	return h[:]
}
