package coordinator

import "math/rand"

// IdPool hands out human-readable session ids from a finite catalogue
// without repetition until the catalogue is used up, then reshuffles.
type IdPool struct {
	catalogue []string
	bag       []string
	rnd       *rand.Rand
}

func NewIdPool(names []string, rnd *rand.Rand) *IdPool {
	seen := make(map[string]struct{}, len(names))
	catalogue := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		catalogue = append(catalogue, n)
	}
	return &IdPool{catalogue: catalogue, rnd: rnd}
}

// Next returns an id for which active reports false.
// The number of draws is bounded by what is left in the bag plus one full
// pass over the catalogue, so every catalogue id gets checked at least once.
func (p *IdPool) Next(active func(id string) bool) (string, error) {
	attempts := len(p.bag) + len(p.catalogue)
	for i := 0; i < attempts; i++ {
		id := p.draw()
		if !active(id) {
			return id, nil
		}
	}
	return "", ErrPoolExhausted
}

func (p *IdPool) Size() int { return len(p.catalogue) }

func (p *IdPool) draw() string {
	if len(p.bag) == 0 {
		p.bag = append(p.bag[:0], p.catalogue...)
	}
	i := p.rnd.Intn(len(p.bag))
	id := p.bag[i]
	last := len(p.bag) - 1
	p.bag[i] = p.bag[last]
	p.bag = p.bag[:last]
	return id
}
