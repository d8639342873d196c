// Package words samples unique words for a round.
package words

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wordgame-service/domain"
)

type Pool struct {
	words []domain.Word

	mu  *sync.Mutex
	rng *rand.Rand
}

// NewPool builds a pool over words. A nil rng is seeded from the clock.
func NewPool(words []domain.Word, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	own := make([]domain.Word, len(words))
	copy(own, words)
	return &Pool{words: own, mu: &sync.Mutex{}, rng: rng}
}

func (p *Pool) Size() int {
	return len(p.words)
}

// PickRandomWords returns count distinct words chosen uniformly at random.
// Only the trailing count positions of a copy are shuffled.
func (p *Pool) PickRandomWords(count int) ([]domain.Word, error) {
	if count < 0 || count > len(p.words) {
		return nil, fmt.Errorf("%w: cannot pick %d words from a list of %d", domain.ErrOutOfRange, count, len(p.words))
	}

	shuffled := make([]domain.Word, len(p.words))
	copy(shuffled, p.words)

	p.mu.Lock()
	for i := len(shuffled) - 1; i >= len(shuffled)-count; i-- {
		j := p.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	p.mu.Unlock()

	return shuffled[len(shuffled)-count:], nil
}

// Intn draws from the pool's random source.
func (p *Pool) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// Without returns a pool sharing this pool's random source that excludes
// the given words, matched by text regardless of case.
func (p *Pool) Without(exclude []domain.Word) *Pool {
	skip := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		skip[strings.ToLower(w.Text)] = struct{}{}
	}
	rest := make([]domain.Word, 0, len(p.words))
	for _, w := range p.words {
		if _, ok := skip[strings.ToLower(w.Text)]; !ok {
			rest = append(rest, w)
		}
	}
	return &Pool{words: rest, mu: p.mu, rng: p.rng}
}
