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

// Package breakend assembles structural-variant breakend records into
// per-event groups. A BreakendGroup accumulates the individual
// breakends of one event as they stream by in candidate-record order,
// and becomes finalized exactly once, at the event's last record.
package breakend

import (
	"sync"

	"blainsmith.com/go/seahash"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/biogo/store/llrb"

	"github.com/grailbio/varcall/genome"
)

// State is a BreakendGroup's position in its per-event state machine:
// Absent -> Building -> Finalized -> Removed, or Building -> Invalid.
type State int

const (
	Absent State = iota
	Building
	Finalized
	Removed
	Invalid
)

// Breakend is one mate-end of a structural-variant event, placed at a
// specific locus.
type Breakend struct {
	Locus   genome.Locus
	ID      string
	MateID  string
	RefBase []byte
	Spec    string
}

// entry.Compare implements llrb.Comparable, ordering breakends by
// (locus, id) as the assembled group's finalized output order requires.
type entry struct {
	Breakend
}

func (e *entry) Compare(other llrb.Comparable) int {
	o := other.(*entry)
	if e.Locus.Contig != o.Locus.Contig {
		if e.Locus.Contig < o.Locus.Contig {
			return -1
		}
		return 1
	}
	if e.Locus.Pos != o.Locus.Pos {
		if e.Locus.Pos < o.Locus.Pos {
			return -1
		}
		return 1
	}
	if e.ID != o.ID {
		if e.ID < o.ID {
			return -1
		}
		return 1
	}
	return 0
}

// Group is one event's accumulated breakends. A Group must only be
// mutated while its owning table entry's mutex is held.
type Group struct {
	State   State
	tree    llrb.Tree
	members []Breakend
}

// Add appends bk to the group, transitioning Absent/Building ->
// Building. Add on a Finalized, Removed, or Invalid group is a no-op
// other than reporting ok=false.
func (g *Group) Add(bk Breakend) (ok bool) {
	switch g.State {
	case Absent:
		g.State = Building
	case Building:
	default:
		return false
	}
	g.tree.Insert(&entry{bk})
	g.members = append(g.members, bk)
	return true
}

// Invalidate transitions the group to its terminal Invalid state,
// tombstoning it so later members of the same event are silently
// ignored.
func (g *Group) Invalidate() {
	if g.State == Building || g.State == Absent {
		g.State = Invalid
	}
}

// Realignable adapts one finalized Breakend's own end into the
// variant.Realignable contract used by the Realigner: it treats the
// breakend locus as a simple junction point, evaluating only the side
// of the join anchored by RefBase rather than splicing in the mate
// side's sequence (joining the two ends' templates requires the mate's
// own ReferenceBuffer window, which a single Breakend does not carry).
// This is the simplification documented in the grounding ledger: full
// two-sided junction templates are future work.
type Realignable struct {
	Breakend
}

// AltEmissionParams returns refWindow unmodified at the junction locus,
// since the true alt-side template would need to append the mate's
// reference window to the bases past locusOffset.
func (r Realignable) AltEmissionParams(refWindow []byte, locusOffset int) ([][]byte, error) {
	return [][]byte{append([]byte(nil), refWindow...)}, nil
}

// MaybeRevcomp is false: breakend orientation is carried in Spec, not
// resolved by re-evaluating the reverse complement of the read.
func (r Realignable) MaybeRevcomp() bool { return false }

// Finalize transitions a Building group to Finalized and returns its
// members ordered by (locus, id). Finalize on anything but a Building
// group returns (nil, false): in particular a group left Invalid never
// finalizes, and a group may only finalize once.
func (g *Group) Finalize() ([]Breakend, bool) {
	if g.State != Building {
		return nil, false
	}
	g.State = Finalized
	ordered := make([]Breakend, 0, g.tree.Len())
	g.tree.Do(func(c llrb.Comparable) (done bool) {
		ordered = append(ordered, c.(*entry).Breakend)
		return false
	})
	return ordered, true
}

const numShards = 256

type shard struct {
	mu      sync.RWMutex
	entries map[string]*shardEntry
}

// shardEntry pairs one event's Group with its own mutex, so that
// finalization of one event never blocks lookups of another event in
// the same table shard.
type shardEntry struct {
	mu    sync.Mutex
	group *Group
}

// Table is the concurrent, sharded map from event id to Group: a
// reader-biased lock on the table, and an inner mutex per entry.
// Multiple workers processing different variant records may look up,
// build, and finalize groups concurrently; only the worker finalizing
// a given event ever mutates that event's Group.
type Table struct {
	shards [numShards]shard
}

// NewTable returns an empty, ready-to-use Table.
func NewTable() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]*shardEntry)
	}
	return t
}

func (t *Table) shardFor(eventID string) *shard {
	h := seahash.Sum64(gunsafe.StringToBytes(eventID))
	return &t.shards[h%uint64(numShards)]
}

// entryFor returns the shardEntry for eventID, creating an empty
// Building-eligible one under the table's write lock if absent.
func (t *Table) entryFor(eventID string) *shardEntry {
	s := t.shardFor(eventID)

	s.mu.RLock()
	e, ok := s.entries[eventID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	e, ok = s.entries[eventID]
	if !ok {
		e = &shardEntry{group: &Group{}}
		s.entries[eventID] = e
	}
	s.mu.Unlock()
	return e
}

// Add appends bk to eventID's group, creating the group if this is the
// event's first breakend (Absent -> Building). If the record's breakend
// spec is unsupported, the caller should call Invalidate instead.
func (t *Table) Add(eventID string, bk Breakend) {
	e := t.entryFor(eventID)
	e.mu.Lock()
	e.group.Add(bk)
	e.mu.Unlock()
}

// Invalidate marks eventID's group Invalid, tombstoning it so later
// breakends in the same event are silently dropped.
func (t *Table) Invalidate(eventID string) {
	e := t.entryFor(eventID)
	e.mu.Lock()
	e.group.Invalidate()
	e.mu.Unlock()
}

// FinalizeAndRemove finalizes eventID's group (if Building) and removes
// its table entry immediately after, so that finalization is
// exactly-once per event: a second call for the same eventID finds no
// entry and returns (nil, false).
func (t *Table) FinalizeAndRemove(eventID string) ([]Breakend, bool) {
	s := t.shardFor(eventID)

	s.mu.RLock()
	e, ok := s.entries[eventID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	members, finalized := e.group.Finalize()
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.entries, eventID)
	s.mu.Unlock()

	return members, finalized
}
