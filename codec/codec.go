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

// Package codec implements the ObservationCodec: a
// field-wise binary encoding of a Pileup into the carrier format's
// little-endian, even-padded, int32-widened int16 layout.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/grailbio/varcall/logprob"
	"github.com/grailbio/varcall/observation"
)

// OBSERVATION_FORMAT_VERSION is embedded in the output stream header.
// Bump it, monotonically, whenever the wire layout changes in a way
// readers must refuse.
const OBSERVATION_FORMAT_VERSION = "4"

// bytesPerObservation is the fixed-size record layout:
//   7 MiniLogProb fields (2 bytes each)                     = 14
//   strand, read_orientation (1 byte each, small categorical) =  2
//   read_position (int32)                                    =  4
//   1 byte bitvector: bit0=softclipped, bit1=paired           =  1
const bytesPerObservation = 14 + 2 + 4 + 1

// cutAndAdvance returns s[*offset:*offset+n] and advances *offset by n,
// a low-overhead slicing idiom for filling a preallocated
// buffer (pileup/snp/row.go).
func cutAndAdvance(offset *int, s []byte, n int) []byte {
	t := s[*offset:]
	*offset += n
	return t[:n]
}

// EncodePileup serializes pileup field-wise into a single byte slice:
// one fixed-size record per observation, the whole payload padded to an
// even length. The result is ready to be packed two
// bytes at a time into the carrier format's int32-widened int16 units
// by Pack.
func EncodePileup(pileup observation.Pileup) []byte {
	n := len(pileup) * bytesPerObservation
	if n%2 != 0 {
		n++
	}
	buf := make([]byte, n)
	offset := 0
	for _, obs := range pileup {
		rec := cutAndAdvance(&offset, buf, bytesPerObservation)
		putMini(rec[0:2], obs.ProbMapping)
		putMini(rec[2:4], obs.ProbAlt)
		putMini(rec[4:6], obs.ProbRef)
		putMini(rec[6:8], obs.ProbMissedAllele)
		putMini(rec[8:10], obs.ProbSampleAlt)
		putMini(rec[10:12], obs.ProbDoubleOverlap)
		putMini(rec[12:14], obs.ProbHitBase)
		rec[14] = byte(obs.Strand)
		rec[15] = byte(obs.ReadOrientation)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(obs.ReadPosition))
		var bits byte
		if obs.Softclipped {
			bits |= 1 << 0
		}
		if obs.Paired {
			bits |= 1 << 1
		}
		rec[20] = bits
	}
	return buf
}

// DecodePileup is the inverse of EncodePileup: decode(encode(p)) == p,
// modulo MiniLogProb quantization.
func DecodePileup(buf []byte, count int) (observation.Pileup, error) {
	need := count * bytesPerObservation
	if len(buf) < need {
		return nil, errors.Errorf("codec: buffer too short for %d observations: have %d bytes, need %d", count, len(buf), need)
	}
	pileup := make(observation.Pileup, count)
	offset := 0
	for i := range pileup {
		rec := cutAndAdvance(&offset, buf, bytesPerObservation)
		pileup[i] = observation.Observation{
			ProbMapping:       getMini(rec[0:2]),
			ProbAlt:           getMini(rec[2:4]),
			ProbRef:           getMini(rec[4:6]),
			ProbMissedAllele:  getMini(rec[6:8]),
			ProbSampleAlt:     getMini(rec[8:10]),
			ProbDoubleOverlap: getMini(rec[10:12]),
			ProbHitBase:       getMini(rec[12:14]),
			Strand:            observation.Strand(rec[14]),
			ReadOrientation:   observation.ReadOrientation(rec[15]),
			ReadPosition:      observation.ReadPosition(int32(binary.LittleEndian.Uint32(rec[16:20]))),
			Softclipped:       rec[20]&(1<<0) != 0,
			Paired:            rec[20]&(1<<1) != 0,
		}
	}
	return pileup, nil
}

func putMini(dst []byte, p logprob.LogProb) {
	binary.LittleEndian.PutUint16(dst, uint16(logprob.ToMini(p)))
}

func getMini(src []byte) logprob.LogProb {
	return logprob.MiniLogProb(int16(binary.LittleEndian.Uint16(src))).ToLogProb()
}

// Pack widens an even-length byte payload into a slice of int32s, each
// holding one little-endian uint16 unit zero-extended to 32 bits: every
// packed value lies in [0, 0xFFFF], so none can collide with the carrier
// format's signed-32 sentinel values.
func Pack(payload []byte) ([]int32, error) {
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("codec: payload length %d is not even", len(payload))
	}
	units := make([]int32, len(payload)/2)
	for i := range units {
		units[i] = int32(binary.LittleEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return units, nil
}

// Unpack is the inverse of Pack.
func Unpack(units []int32) []byte {
	payload := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(payload[i*2:i*2+2], uint16(u))
	}
	return payload
}
