package engine

import (
	"github.com/coregx/matchbench/ahocorasick"
	"github.com/coregx/matchbench/mpbg"
)

// Names under which the built-in engines register themselves, analogous to the source's
// MPS_AC/MPS_BG enum constants.
const (
	NameAhoCorasickDense  = "ahocorasick-dense"
	NameAhoCorasickSparse = "ahocorasick-sparse"
	NameMultiPatternBG    = "mpbg"
)

func init() {
	Register(NameAhoCorasickDense, func() Engine { return ahocorasick.NewDense() })
	Register(NameAhoCorasickSparse, func() Engine { return ahocorasick.NewSparse() })
	Register(NameMultiPatternBG, func() Engine { return mpbg.New() })
}
