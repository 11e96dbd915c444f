package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"
)

// MaxNameLength is counted in runes.
const MaxNameLength = 32

var ErrNameTooLong = errors.New("display name too long")

// Directory maps participant addresses to display names.
type Directory interface {
	Lookup(ctx context.Context, address string) (string, bool, error)
	Bind(ctx context.Context, address, name string) error
}

// CleanName trims name and enforces MaxNameLength.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Resolve returns the bound name for address, or fallback when there is none
// or the directory is unavailable.
func Resolve(ctx context.Context, d Directory, address, fallback string) string {
	if d == nil || strings.TrimSpace(address) == "" {
		return fallback
	}
	name, ok, err := d.Lookup(ctx, address)
	if err != nil || !ok || name == "" {
		return fallback
	}
	return name
}

// ShortAddress renders an address as abcd…wxyz for anonymous display.
func ShortAddress(address string) string {
	if utf8.RuneCountInString(address) <= 10 {
		return address
	}
	r := []rune(address)
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}

// Memory is a process-local Directory.
type Memory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewMemory() *Memory {
	return &Memory{names: make(map[string]string)}
}

func (m *Memory) Lookup(_ context.Context, address string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[strings.TrimSpace(address)]
	return name, ok, nil
}

func (m *Memory) Bind(_ context.Context, address, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	address = strings.TrimSpace(address)
	if address == "" || name == "" {
		return nil
	}
	m.mu.Lock()
	m.names[address] = name
	m.mu.Unlock()
	return nil
}
