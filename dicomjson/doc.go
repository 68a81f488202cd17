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

// Package dicomjson converts decoded DICOM data sets into canonical DICOM JSON as described in
// http://dicom.nema.org/medical/dicom/current/output/html/part18.html#chapter_F.
//
// Conversion happens in two passes. Encode turns a data set produced by
// github.com/suyashkumar/dicom into the raw JSON tree a decoder emits by default, keeping binary
// payloads in the byte order of the source file. Normalize then rewrites that tree into the
// fixture dialect: group lengths, the Specific Character Set and trailing padding are dropped,
// "OB or OW" becomes UN, string values lose trailing whitespace, empty strings become null, and
// big endian binary words are swapped to little endian. Marshal writes the result as indented
// JSON with sorted keys.
package dicomjson
