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

// Package refbuffer caches contig sequences read from an indexed FASTA,
// keyed by contig name. A ReferenceBuffer is shared and read-only after
// first use: every Realigner in the pipeline holds the same instance.
package refbuffer

import (
	"sync"

	"github.com/grailbio/varcall/encoding/fasta"
	"github.com/pkg/errors"
)

// ReferenceBuffer lazily loads and caches contig sequences from an indexed
// FASTA. It is safe for concurrent use; each contig is cached once. Two
// concurrent first requests for the same contig may both read it from the
// FASTA, and both receive the copy that was cached first.
type ReferenceBuffer struct {
	fa fasta.Fasta

	mu    sync.Mutex
	cache map[string][]byte
}

// New wraps an already-opened indexed fasta.Fasta in a caching buffer.
func New(fa fasta.Fasta) *ReferenceBuffer {
	return &ReferenceBuffer{fa: fa, cache: make(map[string][]byte)}
}

// Contig returns the full sequence for the named contig, loading and
// caching it on first request. The returned slice must not be modified by
// the caller: it is shared across every concurrent Realigner.
func (r *ReferenceBuffer) Contig(name string) ([]byte, error) {
	r.mu.Lock()
	if seq, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return seq, nil
	}
	r.mu.Unlock()

	length, err := r.fa.Len(name)
	if err != nil {
		return nil, errors.Wrapf(err, "refbuffer: unknown contig %q", name)
	}
	s, err := r.fa.Get(name, 0, length)
	if err != nil {
		return nil, errors.Wrapf(err, "refbuffer: reading contig %q", name)
	}
	seq := []byte(s)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}
	r.cache[name] = seq
	return seq, nil
}

// Window returns the bytes of contig[start:end], clamped to the contig's
// actual length. An out-of-range request (start/end fully beyond the
// contig) returns an empty slice, not an error: callers (the Realigner)
// are expected to clamp their own candidate windows against ContigLen
// first, but this guards against off-by-one overshoot at contig edges.
func (r *ReferenceBuffer) Window(name string, start, end int) ([]byte, error) {
	seq, err := r.Contig(name)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if start > len(seq) {
		start = len(seq)
	}
	if end > len(seq) {
		end = len(seq)
	}
	if end < start {
		end = start
	}
	return seq[start:end], nil
}

// ContigLen returns the length of the named contig.
func (r *ReferenceBuffer) ContigLen(name string) (int, error) {
	n, err := r.fa.Len(name)
	if err != nil {
		return 0, errors.Wrapf(err, "refbuffer: unknown contig %q", name)
	}
	return int(n), nil
}
