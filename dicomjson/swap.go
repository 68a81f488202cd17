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

// referenceSwapStep is the stride used by existing fixtures when swapping InlineBinary words.
// Existing fixtures advance 2 bytes at a time whatever the word size, so only OW is swapped
// word by word; OD, OF, OL and OV output overlapping, reversed windows.
const referenceSwapStep = 2

// swapWords walks b in increments of step and appends each window of width bytes in reverse
// order. The final window is truncated at the end of b. With step == width this converts
// between big and little endian words.
func swapWords(b []byte, width, step int) []byte {
	if width <= 0 || step <= 0 {
		return b
	}
	out := make([]byte, 0, len(b)*((width+step-1)/step))
	for i := 0; i < len(b); i += step {
		end := i + width
		if end > len(b) {
			end = len(b)
		}
		for j := end - 1; j >= i; j-- {
			out = append(out, b[j])
		}
	}
	return out
}
