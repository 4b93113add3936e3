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
	"context"
	"io"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"

	"github.com/grailbio/base/file"

	"github.com/grailbio/varcall/extract"
	"github.com/grailbio/varcall/genome"
)

// bamFragmentSource is an extract.FragmentSource backed by a fully
// buffered, unindexed BAM scan: every record is read once up front and
// kept in memory, grouped by reference name, and Fetch does a linear
// overlap filter over the owning contig's records.
//
// Indexed seeking by .bai/.csi is left unimplemented for now; this
// simplification trades startup latency and memory for a source built
// entirely on the package's plain sequential reader.
type bamFragmentSource struct {
	byContig map[string][]*sam.Record
}

func newBAMFragmentSource(ctx context.Context, bamPath, indexPath string) (*bamFragmentSource, error) {
	f, err := file.Open(ctx, bamPath)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, f, &err)

	r, err := bam.NewReader(f.Reader(ctx), 1)
	if err != nil {
		return nil, err
	}

	src := &bamFragmentSource{byContig: make(map[string][]*sam.Record)}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if record.Ref == nil {
			continue
		}
		name := record.Ref.Name()
		src.byContig[name] = append(src.byContig[name], record)
	}
	return src, nil
}

// Close is a no-op: the BAM file was fully consumed and closed during
// newBAMFragmentSource.
func (s *bamFragmentSource) Close(ctx context.Context) error { return nil }

func (s *bamFragmentSource) Fetch(region genome.Interval) (extract.FragmentIterator, error) {
	records := s.byContig[region.Contig]
	var matched []*sam.Record
	for _, record := range records {
		start := genome.PosType(record.Pos)
		end := start + cigarRefSpan(record.Cigar)
		if start < region.End && region.Start < end {
			matched = append(matched, record)
		}
	}
	return &bamFragmentIterator{records: matched, idx: -1}, nil
}

// cigarRefSpan returns the number of reference bases a CIGAR consumes,
// following the same op-classification the Realigner uses internally
// (realign/cigar.go's refSpan) to decide match/deletion/skip consume the
// reference while insertion/softclip do not.
func cigarRefSpan(cigar sam.Cigar) genome.PosType {
	var n genome.PosType
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch, sam.CigarDeletion, sam.CigarSkipped:
			n += genome.PosType(co.Len())
		}
	}
	return n
}

type bamFragmentIterator struct {
	records []*sam.Record
	idx     int
}

func (it *bamFragmentIterator) Scan() bool {
	if it.idx+1 >= len(it.records) {
		return false
	}
	it.idx++
	return true
}

func (it *bamFragmentIterator) Record() *sam.Record { return it.records[it.idx] }
func (it *bamFragmentIterator) Close() error        { return nil }
