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
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// maxSafeInteger is the largest integer a JSON reader using IEEE doubles represents exactly.
// Integers outside +-maxSafeInteger are written as strings.
const maxSafeInteger = 1<<53 - 1

type encoder struct {
	order        binary.ByteOrder
	keepFileMeta bool

	text    *textDecoder
	textErr error

	sourceData []byte
	source     *sourceData

	pixelRepresentation int
}

// Encode converts a data set decoded by github.com/suyashkumar/dicom into a DICOM JSON DataSet
// without any normalization. InlineBinary values keep the byte order of the source transfer
// syntax and the file meta information group is left out unless KeepFileMeta is given.
//
// Values are represented as follows:
//   - text VRs: strings, split on backslash except for LT, ST, UT and UR
//   - PN: PersonName objects
//   - IS, DS, binary integers and floats: numbers, with NaN and infinities as strings
//   - AT: 8 hex digit tag strings
//   - OB, OD, OF, OL, OV, OW, UN and pixel data: InlineBinary
//   - SQ: nested DataSets
//
// Empty elements have neither Value nor InlineBinary, except sequences, which always have a
// Value.
func Encode(ds dicom.Dataset, opts ...EncodeOption) (DataSet, error) {
	uid, _ := TransferSyntaxUID(ds)
	e := &encoder{order: byteOrder(uid)}
	for _, opt := range opts {
		opt(e)
	}
	e.source = newSourceData(e.sourceData, e.order, uid)

	var terms []string
	if elem, err := ds.FindElementByTag(tag.SpecificCharacterSet); err == nil && elem.Value != nil &&
		elem.Value.ValueType() == dicom.Strings {
		terms = dicom.MustGetStrings(elem.Value)
	}
	e.text, e.textErr = newTextDecoder(terms)

	if elem, err := ds.FindElementByTag(tag.PixelRepresentation); err == nil && elem.Value != nil &&
		elem.Value.ValueType() == dicom.Ints {
		if ints := dicom.MustGetInts(elem.Value); len(ints) > 0 {
			e.pixelRepresentation = ints[0]
		}
	}

	return e.encodeElements(ds.Elements, true)
}

func (e *encoder) bigEndian() bool {
	return e.order == binary.BigEndian
}

func (e *encoder) encodeElements(elems []*dicom.Element, topLevel bool) (DataSet, error) {
	out := make(DataSet, len(elems))
	for _, elem := range elems {
		if elem == nil {
			continue
		}
		t := newDataElementTag(elem.Tag)
		if topLevel && t.IsMetadataElement() && !e.keepFileMeta {
			continue
		}

		encoded, err := e.encodeElement(elem)
		if err != nil {
			return nil, fmt.Errorf("encoding element %v: %v", t, err)
		}
		out[t.String()] = encoded
	}
	return out, nil
}

func (e *encoder) encodeElement(elem *dicom.Element) (*Element, error) {
	name := resolveAmbiguousVR(elem.RawValueRepresentation, e.pixelRepresentation)
	if name == "" {
		name = UNVR.Name
	}
	out := &Element{VR: name}
	if name == SQVR.Name {
		out.Value = []interface{}{}
	}

	if elem.Value == nil {
		return out, nil
	}

	vr, err := lookupVRByName(name)
	if name == AmbiguousOBOrOW {
		vr, err = OBVR, nil
	}
	if err != nil {
		return nil, err
	}

	switch vr.kind {
	case sequenceVR:
		out.Value, err = e.sequenceValues(elem.Value)
	case personNameVR:
		out.Value, err = e.personNameValues(elem.Value)
	case textVR, singleTextVR, uniqueIdentifierVR:
		out.Value, err = e.textValues(elem.Value, vr)
	case integerStringVR, decimalStringVR:
		out.Value, err = e.numberStringValues(elem.Value, vr)
	case numberBinaryVR:
		out.Value, err = e.numberValues(elem, vr)
	case tagVR:
		out.Value, err = e.tagValues(elem.Value)
	case bulkDataVR, wordDataVR:
		var b []byte
		if b, err = e.binaryBytes(elem, vr); len(b) > 0 {
			out.InlineBinary = base64.StdEncoding.EncodeToString(b)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%v value: %v", name, err)
	}
	// sequences without items keep an empty Value
	if len(out.Value) == 0 && vr.kind != sequenceVR {
		out.Value = nil
	}
	return out, nil
}

// stringsOf returns the strings of v, or nil when v is a zero length value. PS3.18 F.2.5: zero
// length values have no Value.
func stringsOf(v dicom.Value) ([]string, error) {
	if v.ValueType() != dicom.Strings {
		return nil, fmt.Errorf("expected a string value, got value type %v", v.ValueType())
	}
	strs := dicom.MustGetStrings(v)
	if len(strs) == 1 && strings.Trim(strs[0], " \x00") == "" {
		return nil, nil
	}
	return strs, nil
}

func (e *encoder) decodeText(s string) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.text.decode(s)
}

func (e *encoder) textValues(v dicom.Value, vr *VR) ([]interface{}, error) {
	strs, err := stringsOf(v)
	if err != nil {
		return nil, err
	}
	if vr.kind == singleTextVR && len(strs) > 1 {
		strs = []string{strings.Join(strs, `\`)}
	}

	values := make([]interface{}, 0, len(strs))
	for _, s := range strs {
		if vr.kind == uniqueIdentifierVR {
			s = trimUID(s)
		}
		if s, err = e.decodeText(s); err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, nil
}

func (e *encoder) personNameValues(v dicom.Value) ([]interface{}, error) {
	strs, err := stringsOf(v)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(strs))
	for _, s := range strs {
		if s, err = e.decodeText(s); err != nil {
			return nil, err
		}
		name, err := parsePersonName(s)
		if err != nil {
			return nil, err
		}
		if name == (PersonName{}) {
			values = append(values, nil)
			continue
		}
		values = append(values, name)
	}
	return values, nil
}

// parsePersonName splits a PN value into its alphabetic, ideographic and phonetic component
// groups, trimming trailing spaces from each.
func parsePersonName(s string) (PersonName, error) {
	groups := strings.Split(s, "=")
	if len(groups) > 3 {
		return PersonName{}, fmt.Errorf("person name %q has %d component groups", s, len(groups))
	}

	var name PersonName
	fields := []*string{&name.Alphabetic, &name.Ideographic, &name.Phonetic}
	for i, g := range groups {
		*fields[i] = strings.TrimRight(g, " ")
	}
	return name, nil
}

func (e *encoder) numberStringValues(v dicom.Value, vr *VR) ([]interface{}, error) {
	strs, err := stringsOf(v)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, len(strs))
	for _, s := range strs {
		s = strings.TrimSpace(s)
		if s == "" {
			values = append(values, nil)
			continue
		}
		if vr.kind == integerStringVR {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				values = append(values, intNumber(i))
				continue
			}
		}

		// integer strings that are not integers are accepted when they are finite decimals
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || (vr.kind == integerStringVR && (math.IsNaN(f) || math.IsInf(f, 0))) {
			return nil, fmt.Errorf("invalid %v string %q", vr.Name, s)
		}
		values = append(values, floatNumber(f))
	}
	return values, nil
}

func (e *encoder) numberValues(elem *dicom.Element, vr *VR) ([]interface{}, error) {
	v := elem.Value
	switch v.ValueType() {
	case dicom.Ints:
		ints := dicom.MustGetInts(v)
		values := make([]interface{}, 0, len(ints))
		for _, i := range ints {
			values = append(values, intNumber(int64(i)))
		}
		return values, nil
	case dicom.Floats:
		floats := dicom.MustGetFloats(v)
		values := make([]interface{}, 0, len(floats))
		for _, f := range floats {
			values = append(values, floatNumber(f))
		}
		return values, nil
	case dicom.Bytes:
		return e.numbersFromBytes(dicom.MustGetBytes(v), vr)
	case dicom.Strings:
		// SV and UV are not in the decoder's binary dispatch
		return e.numbersFromBytes(e.stringBytes(elem), vr)
	}
	return nil, fmt.Errorf("unexpected value type %v", v.ValueType())
}

func (e *encoder) numbersFromBytes(b []byte, vr *VR) ([]interface{}, error) {
	if len(b)%vr.width != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of %d", len(b), vr.width)
	}

	values := make([]interface{}, 0, len(b)/vr.width)
	for i := 0; i < len(b); i += vr.width {
		u := e.readUint(b[i:i+vr.width], vr.width)
		switch {
		case vr.float && vr.width == 4:
			values = append(values, floatNumber(float64(math.Float32frombits(uint32(u)))))
		case vr.float:
			values = append(values, floatNumber(math.Float64frombits(u)))
		case vr.signed:
			values = append(values, intNumber(signExtend(u, vr.width)))
		default:
			values = append(values, uintNumber(u))
		}
	}
	return values, nil
}

func (e *encoder) tagValues(v dicom.Value) ([]interface{}, error) {
	var tags []DataElementTag
	switch v.ValueType() {
	case dicom.Ints:
		ints := dicom.MustGetInts(v)
		if len(ints)%2 != 0 {
			return nil, fmt.Errorf("odd number of tag components: %d", len(ints))
		}
		for i := 0; i < len(ints); i += 2 {
			tags = append(tags, DataElementTag(uint32(ints[i]&0xFFFF)<<16|uint32(ints[i+1]&0xFFFF)))
		}
	case dicom.Bytes:
		b := dicom.MustGetBytes(v)
		if len(b)%4 != 0 {
			return nil, fmt.Errorf("length %d is not a multiple of 4", len(b))
		}
		for i := 0; i < len(b); i += 4 {
			tags = append(tags, DataElementTag(uint32(e.order.Uint16(b[i:]))<<16|uint32(e.order.Uint16(b[i+2:]))))
		}
	default:
		return nil, fmt.Errorf("unexpected value type %v", v.ValueType())
	}

	values := make([]interface{}, 0, len(tags))
	for _, t := range tags {
		values = append(values, t.String())
	}
	return values, nil
}

// binaryBytes returns the bytes of a binary value in the byte order of the source.
func (e *encoder) binaryBytes(elem *dicom.Element, vr *VR) ([]byte, error) {
	v := elem.Value
	switch v.ValueType() {
	case dicom.Bytes:
		b := dicom.MustGetBytes(v)
		// the decoder reads OW as 16 bit words and stores them little endian
		if vr == OWVR && e.bigEndian() {
			b = swapWords(b, 2, 2)
		}
		return b, nil
	case dicom.Strings:
		// OD, OF, OL and OV are decoded as text
		return e.stringBytes(elem), nil
	case dicom.PixelData:
		return pixelDataBytes(dicom.MustGetPixelDataInfo(v))
	case dicom.Ints:
		ints := dicom.MustGetInts(v)
		b := make([]byte, len(ints)*vr.width)
		for i, n := range ints {
			e.putUint(b[i*vr.width:], uint64(n), vr.width)
		}
		return b, nil
	case dicom.Floats:
		floats := dicom.MustGetFloats(v)
		b := make([]byte, len(floats)*vr.width)
		for i, f := range floats {
			if vr.width == 4 {
				e.putUint(b[i*4:], uint64(math.Float32bits(float32(f))), 4)
			} else {
				e.putUint(b[i*8:], math.Float64bits(f), 8)
			}
		}
		return b, nil
	}
	return nil, fmt.Errorf("unexpected value type %v", v.ValueType())
}

// stringBytes returns the bytes of a binary value the decoder handed over as strings. The
// decoder splits the value on backslashes and trims spaces and NULs from each part, so the bytes
// are read from the source data when it is available. Otherwise the parts are joined again,
// which loses the trimmed bytes.
func (e *encoder) stringBytes(elem *dicom.Element) []byte {
	if b, ok := e.source.find(elem.Tag, elem.RawValueRepresentation, elem.ValueLength); ok {
		return b
	}
	return []byte(strings.Join(dicom.MustGetStrings(elem.Value), `\`))
}

func pixelDataBytes(info dicom.PixelDataInfo) ([]byte, error) {
	switch {
	case info.IntentionallySkipped:
		return nil, nil
	case info.UnprocessedValueData != nil:
		return info.UnprocessedValueData, nil
	case info.IsEncapsulated:
		var buf bytes.Buffer
		// empty basic offset table
		writeItem(&buf, nil)
		for _, f := range info.Frames {
			writeItem(&buf, f.EncapsulatedData.Data)
		}
		return buf.Bytes(), nil
	}
	return nil, errors.New("native pixel data was decoded into frames, raw bytes are unavailable")
}

// writeItem writes data as an encapsulated pixel data item (FFFE,E000). Encapsulated transfer
// syntaxes are always little endian.
func writeItem(buf *bytes.Buffer, data []byte) {
	var header [8]byte
	binary.LittleEndian.PutUint16(header[0:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[2:], 0xE000)
	binary.LittleEndian.PutUint32(header[4:], uint32(len(data)))
	buf.Write(header[:])
	buf.Write(data)
}

func (e *encoder) sequenceValues(v dicom.Value) ([]interface{}, error) {
	if v.ValueType() != dicom.Sequences {
		return nil, fmt.Errorf("expected a sequence value, got value type %v", v.ValueType())
	}
	items, ok := v.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil, fmt.Errorf("unexpected sequence items %T", v.GetValue())
	}

	values := make([]interface{}, 0, len(items))
	for i, item := range items {
		elems, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			return nil, fmt.Errorf("unexpected elements %T in item %d", item.GetValue(), i)
		}
		ds, err := e.encodeElements(elems, false)
		if err != nil {
			return nil, fmt.Errorf("item %d: %v", i, err)
		}
		values = append(values, ds)
	}
	return values, nil
}

func (e *encoder) readUint(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(e.order.Uint16(b))
	case 4:
		return uint64(e.order.Uint32(b))
	}
	return e.order.Uint64(b)
}

func (e *encoder) putUint(b []byte, u uint64, width int) {
	switch width {
	case 1:
		b[0] = byte(u)
	case 2:
		e.order.PutUint16(b, uint16(u))
	case 4:
		e.order.PutUint32(b, uint32(u))
	default:
		e.order.PutUint64(b, u)
	}
}

func signExtend(u uint64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	}
	return int64(u)
}

func intNumber(i int64) interface{} {
	s := strconv.FormatInt(i, 10)
	if i > maxSafeInteger || i < -maxSafeInteger {
		return s
	}
	return json.Number(s)
}

func uintNumber(u uint64) interface{} {
	s := strconv.FormatUint(u, 10)
	if u > maxSafeInteger {
		return s
	}
	return json.Number(s)
}

// floatNumber encodes f as a JSON number. JSON has no NaN or infinities so they become strings.
func floatNumber(f float64) interface{} {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
}
