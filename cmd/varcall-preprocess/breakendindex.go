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
	"io"

	"github.com/grailbio/varcall/process"
)

// lastRecordIndex implements process.BreakendIndex from a precomputed
// map built by a first pass over the candidate stream: for each EVENT
// id, the record index of the last record carrying it. This mirrors the
// streaming pipeline's own decode logic (process.Decode) just enough to
// find EVENT ids, without running realignment during the pre-pass.
type lastRecordIndex struct {
	last map[string]int64
}

// newBreakendIndex consumes reader to completion, building the index of
// each event's final record index; it does not emit any output itself.
// Callers that also need to stream the same records through the main
// pipeline must build a second, independent CandidateReader over the
// same underlying data, since this pre-pass fully drains reader.
func newBreakendIndex(reader process.CandidateReader) (*lastRecordIndex, error) {
	idx := &lastRecordIndex{last: make(map[string]int64)}
	var recordIndex int64
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if eventID := rec.Info["EVENT"]; eventID != "" {
			idx.last[eventID] = recordIndex
		}
		recordIndex++
	}
	return idx, nil
}

func (idx *lastRecordIndex) IsLastRecord(eventID string, recordIndex int64) bool {
	return idx.last[eventID] == recordIndex
}
