package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// VersionGenerator produces graph version tokens. Every accepted
// mutation yields a new authoritative graph version; collaborators
// re-render from the latest GraphChanged notification carrying it.
//
// Implemented by UUIDv7Generator (production) and FixedVersionGenerator
// (tests).
type VersionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 version tokens.
// Sortability by creation time helps when eyeballing event streams.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (does not happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedVersionGenerator returns predetermined tokens for deterministic
// tests and golden-file comparison.
//
// Safe for concurrent use via internal mutex.
type FixedVersionGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedVersionGenerator creates a generator that returns tokens in
// order and then repeats the last one forever. Repeating (rather than
// panicking) keeps scenario files from having to count their mutations.
func NewFixedVersionGenerator(tokens ...string) *FixedVersionGenerator {
	if len(tokens) == 0 {
		tokens = []string{"v-fixed"}
	}
	return &FixedVersionGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedVersionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	tok := g.tokens[g.idx]
	if g.idx < len(g.tokens)-1 {
		g.idx++
	}
	return tok
}

// SequentialVersionGenerator yields "v-1", "v-2", ... Used by replay and
// scenario tooling where tokens must be reproducible but unbounded.
type SequentialVersionGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next sequential token.
func (g *SequentialVersionGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("v-%d", g.n)
}
