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

package process

import (
	"encoding/json"
	"io"

	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"

	"github.com/grailbio/varcall/codec"
)

// headerKeyOptions is the recordio header key under which the
// JSON-encoded preprocessing options are stored.
const headerKeyOptions = "varcall.preprocess.options"

// headerKeyFormatVersion stores the OBSERVATION_FORMAT_VERSION string.
const headerKeyFormatVersion = "varcall.observation.format_version"

// OutputRecord is one emitted output record: the variant's minimal
// descriptor, its genomic context, and its encoded Observation vector.
type OutputRecord struct {
	Contig string
	Pos    int64

	SVLen  int32
	End    int64
	SVType string
	Event  string
	MateID string

	RecordIndex int64

	EncodedPileup []byte
	PileupCount   int32
}

func marshalOutputRecord(scratch []byte, v interface{}) ([]byte, error) {
	r := v.(*OutputRecord)
	buf, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Writer serializes OutputRecords to a recordio stream, zstd-compressed
// the same way a pileup output stream would be.
type Writer struct {
	rw *recordio.Writer
}

// NewWriter returns a Writer over w, stamping opts and the observation
// format version into the stream header.
func NewWriter(w io.Writer, opts interface{}) (*Writer, error) {
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	rw := recordio.NewWriter(w, recordio.WriterOpts{
		Marshal:      marshalOutputRecord,
		Transformers: []string{recordiozstd.Name},
	})
	rw.AddHeader(headerKeyOptions, string(optsJSON))
	rw.AddHeader(headerKeyFormatVersion, codec.OBSERVATION_FORMAT_VERSION)
	rw.AddHeader(recordio.KeyTrailer, true)
	return &Writer{rw: rw}, nil
}

// Append writes one output record in record-index order (the output
// writer is serialized: a single writer appends in record-index order).
func (w *Writer) Append(r *OutputRecord) {
	w.rw.Append(r)
}

// Finish flushes and closes the underlying recordio writer.
func (w *Writer) Finish() error {
	return w.rw.Finish()
}
