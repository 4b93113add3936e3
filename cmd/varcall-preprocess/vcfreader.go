// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/varcall/process"
)

// vcfCandidateReader is a process.CandidateReader reading a plain-text
// VCF-like stream line by line: it parses the eight mandatory leading
// columns and the INFO field directly, following the standard
// CHROM/POS/ID/REF/ALT/.../INFO column layout rather than any one
// library's record type. This is the minimal edge of the pipeline the
// rest of process deliberately decouples from via the CandidateReader
// interface.
type vcfCandidateReader struct {
	scanner *bufio.Scanner
}

func newVCFCandidateReader(r io.Reader) *vcfCandidateReader {
	return &vcfCandidateReader{scanner: bufio.NewScanner(r)}
}

func (r *vcfCandidateReader) Read() (*process.CandidateRecord, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, ok := parseVCFLine(line)
		if !ok {
			continue
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func parseVCFLine(line string) (*process.CandidateRecord, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, false
	}
	pos, ok := parseVCFPos(fields[1])
	if !ok {
		return nil, false
	}
	rec := &process.CandidateRecord{
		Contig: fields[0],
		Pos:    pos - 1, // VCF POS is 1-based; CandidateRecord.Pos is 0-based.
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    strings.Split(fields[4], ","),
		Info:   parseVCFInfo(fields[7]),
	}
	return rec, true
}

func parseVCFInfo(field string) map[string]string {
	info := make(map[string]string)
	if field == "" || field == "." {
		return info
	}
	for _, kv := range strings.Split(field, ";") {
		if kv == "" {
			continue
		}
		if eq := strings.IndexByte(kv, '='); eq >= 0 {
			info[kv[:eq]] = kv[eq+1:]
		} else {
			info[kv] = ""
		}
	}
	return info
}

func parseVCFPos(s string) (int64, bool) {
	var n int64
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}
