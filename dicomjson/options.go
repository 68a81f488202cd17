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
)

// EncodeOption configures the behavior of the Encode function.
type EncodeOption func(*encoder)

// SourceByteOrder overrides the byte order binary values are encoded in. By default it is
// derived from the data set's Transfer Syntax UID.
func SourceByteOrder(order binary.ByteOrder) EncodeOption {
	return func(e *encoder) {
		e.order = order
	}
}

// KeepFileMeta includes the file meta information group (0002,xxxx) in the encoded DataSet.
// Without it only the data set proper is encoded.
func KeepFileMeta() EncodeOption {
	return func(e *encoder) {
		e.keepFileMeta = true
	}
}

// SourceData gives Encode the bytes of the file the data set was decoded from. Binary values
// the decoder only provides as text are then read from data unchanged.
func SourceData(data []byte) EncodeOption {
	return func(e *encoder) {
		e.sourceData = data
	}
}

// NormalizeOption configures the behavior of the Normalize function.
type NormalizeOption func(*normalizer)

// BigEndian declares whether InlineBinary values of the DataSet are big endian. When they are,
// OW, OD, OF, OL and OV values are byte swapped.
func BigEndian(bigEndian bool) NormalizeOption {
	return func(n *normalizer) {
		n.bigEndian = bigEndian
	}
}

// ExactWordSwap swaps big endian words using the word size of the VR as the stride instead of
// the 2 byte stride existing fixtures were generated with.
func ExactWordSwap() NormalizeOption {
	return func(n *normalizer) {
		n.swapStep = 0
	}
}

// WithRule returns a NormalizeOption that appends r to the normalization rules. Rules are
// evaluated in order for each data element and the first one that matches decides the outcome,
// so r only sees elements that none of the built in rules matched.
func WithRule(r Rule) NormalizeOption {
	return func(n *normalizer) {
		n.extra = append(n.extra, r)
	}
}

// Option configures Convert and ConvertFile.
type Option func(*converter)

// WithEncodeOptions passes opts to Encode.
func WithEncodeOptions(opts ...EncodeOption) Option {
	return func(c *converter) {
		c.encodeOpts = append(c.encodeOpts, opts...)
	}
}

// WithNormalizeOptions passes opts to Normalize after the byte order derived from the transfer
// syntax, so they can override it.
func WithNormalizeOptions(opts ...NormalizeOption) Option {
	return func(c *converter) {
		c.normalizeOpts = append(c.normalizeOpts, opts...)
	}
}
