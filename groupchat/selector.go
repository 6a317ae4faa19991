package groupchat

import (
	"debate-lab/domain"
	"math/rand/v2"
	"sync"
)

// RandomSelector draws the winner uniformly from an injected random source.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSelector(src rand.Source) *RandomSelector {
	return &RandomSelector{rng: rand.New(src)}
}

// NewSeededSelector is a RandomSelector whose draws are reproducible.
func NewSeededSelector(seed uint64) *RandomSelector {
	return NewRandomSelector(rand.NewPCG(seed, seed))
}

func (s *RandomSelector) Select(candidates []domain.Utterance) int {
	if len(candidates) == 0 {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(len(candidates))
}

// FirstSelector always picks the earliest reply.
type FirstSelector struct{}

func (FirstSelector) Select(candidates []domain.Utterance) int {
	if len(candidates) == 0 {
		return -1
	}
	return 0
}
