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

// Package fasta reads reference-genome sequence data, either eagerly
// into memory or lazily through a samtools-style .fai index.
// See http://www.htslib.org/doc/faidx.html. A FASTA file is a set of
// named sequences that may wrap across lines:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// A sequence's name is the text immediately after '>' up to the first
// space; anything after a space is ignored.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const fastaScanBufferSize = 300 * 1024 * 1024

// Fasta is a named-sequence source. refbuffer.ReferenceBuffer wraps one
// of these to cache whole contigs for a Realigner's reference windows.
type Fasta interface {
	// Get returns the substring of seqName over the 0-based half-open
	// interval [start, end).
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of seqName.
	Len(seqName string) (uint64, error)

	// SeqNames returns every sequence name, in FASTA order.
	SeqNames() []string
}

// eagerFasta holds every sequence from a small reference (or a test
// fixture) fully in memory.
type eagerFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads every sequence in r into memory. It is intended for small
// references and fixtures; NewIndexed should be preferred for a large
// reference genome, since it avoids holding every contig in memory at
// once.
func New(r io.Reader) (Fasta, error) {
	f := &eagerFasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, fastaScanBufferSize)
	var seqName string
	var seq strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if seq.Len() != 0 {
				if seqName == "" {
					return nil, errors.Errorf("malformed FASTA file")
				}
				f.seqs[seqName] = seq.String()
				f.seqNames = append(f.seqNames, seqName)
				seq.Reset()
			}
			seqName = strings.Split(line[1:], " ")[0]
		} else {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	f.seqs[seqName] = seq.String()
	f.seqNames = append(f.seqNames, seqName)
	return f, nil
}

// Get implements Fasta.
func (f *eagerFasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", fmt.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d-%d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.
func (f *eagerFasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.
func (f *eagerFasta) SeqNames() []string {
	return f.seqNames
}
