package ml

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// lockedSource serializes access to a source shared by concurrent predictions
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func newLockedSource(src rand.Source) rand.Source {
	if ls, ok := src.(*lockedSource); ok {
		return ls
	}
	return &lockedSource{src: src}
}

// NewSeededSource returns a PCG source; seed 0 seeds from the clock
func NewSeededSource(seed int64) rand.Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
}

// drawUniform draws from [min, max) using src
func drawUniform(src rand.Source, min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: src}.Rand()
}
