package room

import (
	"errors"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
)

const (
	// CodeAlphabet drops glyphs that read alike (I, O, 0, 1).
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 6

	maxCodeAttempts = 16
)

var errCodeSpace = errors.New("could not allocate a free room code")

// CodeGenerator returns a candidate room code.
type CodeGenerator func() (string, error)

// NanoidCodes draws codes from CodeAlphabet.
func NanoidCodes() CodeGenerator {
	return func() (string, error) {
		return gonanoid.Generate(CodeAlphabet, CodeLength)
	}
}

// NormalizeCode makes lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry maps room codes to rooms for the lifetime of the process.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	codes  CodeGenerator
	budget time.Duration
}

func NewRegistry(budget time.Duration, codes CodeGenerator) *Registry {
	if codes == nil {
		codes = NanoidCodes()
	}
	return &Registry{rooms: make(map[string]*Room), codes: codes, budget: budget}
}

// Create allocates a fresh code and registers a room seated with the creator.
func (r *Registry) Create(entryFee decimal.Decimal, creatorAddr, creatorName string, now time.Time) (*Room, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := r.codes()
		if err != nil {
			return nil, err
		}
		code = NormalizeCode(code)

		r.mu.Lock()
		if _, taken := r.rooms[code]; taken {
			r.mu.Unlock()
			continue
		}
		rm := newRoom(code, entryFee, creatorAddr, creatorName, r.budget, now)
		r.rooms[code] = rm
		r.mu.Unlock()
		return rm, nil
	}
	return nil, errCodeSpace
}

func (r *Registry) Lookup(code string) (*Room, error) {
	r.mu.RLock()
	rm, ok := r.rooms[NormalizeCode(code)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
