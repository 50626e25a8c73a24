package worker

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator hands out run tokens, one per worker run, so that
// interleaved runs can be told apart in logs and budget errors.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator is the default generator. The tokens embed their
// creation time, so sorting them orders runs by start.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator replays a predetermined token sequence in tests. It
// panics when asked for more tokens than it holds.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
}

func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.tokens) == 0 {
		panic("worker: token sequence exhausted")
	}
	token := g.tokens[0]
	g.tokens = g.tokens[1:]
	return token
}
