package realign

import (
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/varcall/observation"
)

// StrandOf determines which strand a read-pair is aligned to: its start is on
// the 5' side and its end on the 3' side for StrandPlus, and vice versa
// for StrandMinus; anything else (different contigs, an apparent
// inversion) is StrandNone.
func StrandOf(samr *sam.Record) observation.Strand {
	if samr.Ref != samr.MateRef {
		return observation.StrandNone
	}
	flagStrand := samr.Flags & (sam.Reverse | sam.MateReverse | sam.Read1 | sam.Read2)
	if (flagStrand == (sam.MateReverse | sam.Read1)) || (flagStrand == (sam.Reverse | sam.Read2)) {
		return observation.StrandPlus
	} else if (flagStrand == (sam.Reverse | sam.Read1)) || (flagStrand == (sam.MateReverse | sam.Read2)) {
		return observation.StrandMinus
	}
	if samr.Flags&sam.MateUnmapped == sam.MateUnmapped {
		flagStrand &= sam.Reverse | sam.MateReverse
		if flagStrand == 0 {
			return observation.StrandPlus
		} else if flagStrand == (sam.Reverse | sam.MateReverse) {
			return observation.StrandMinus
		}
	}
	return observation.StrandNone
}
