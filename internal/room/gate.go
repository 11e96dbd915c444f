package room

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/metrics"
)

// ReferenceSet holds every payment reference ever accepted, across rooms.
type ReferenceSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewReferenceSet() *ReferenceSet {
	return &ReferenceSet{seen: make(map[string]struct{})}
}

func (s *ReferenceSet) Consumed(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[ref]
	return ok
}

// Claim inserts ref and reports whether it was new.
func (s *ReferenceSet) Claim(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[ref]; ok {
		return false
	}
	s.seen[ref] = struct{}{}
	return true
}

func (s *ReferenceSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Gate confirms entry fee payments against the ledger.
type Gate struct {
	ledger   ledger.Ledger
	refs     *ReferenceSet
	decimals int32
}

func NewGate(l ledger.Ledger, refs *ReferenceSet, decimals int32) *Gate {
	if refs == nil {
		refs = NewReferenceSet()
	}
	return &Gate{ledger: l, refs: refs, decimals: decimals}
}

// ConsumedReferences is how many payment references have been accepted.
func (g *Gate) ConsumedReferences() int { return g.refs.Len() }

// Confirm accepts ref as the entry fee of the first unpaid seat.
// The ledger is consulted without holding the room lock; the room is
// re-validated afterwards so a concurrent confirm cannot double-count.
func (g *Gate) Confirm(ctx context.Context, rm *Room, ref, payer, name string, now func() time.Time) (Snapshot, error) {
	ref = strings.TrimSpace(ref)
	payer = strings.TrimSpace(payer)
	if ref == "" {
		return Snapshot{}, ErrInvalidRef
	}
	if payer == "" {
		return Snapshot{}, ErrInvalidAddress
	}
	if g.ledger == nil {
		return Snapshot{}, ErrWalletNotConfigured
	}
	if g.refs.Consumed(ref) {
		return Snapshot{}, g.reject(rm, ErrAlreadyProcessed)
	}
	if err := rm.checkPayable(now()); err != nil {
		return Snapshot{}, g.reject(rm, err)
	}

	minAmount := ledger.ToMinor(rm.EntryFee(), g.decimals)
	if err := g.ledger.Verify(ctx, ref, minAmount); err != nil {
		logger.Warn("payment verification failed", "room", rm.Code(), "ref", ref, "error", err)
		return Snapshot{}, g.reject(rm, mapLedgerError(err))
	}

	snap, p, err := rm.confirmSeat(g.refs, ref, payer, name, now())
	if err != nil {
		return Snapshot{}, g.reject(rm, err)
	}
	metrics.PaymentsConfirmed.Inc()
	logger.Info("payment confirmed", "room", rm.Code(), "seat", p.Seat, "confirmed", snap.ConfirmedPayments)
	if snap.Status == StatusPlaying {
		logger.Info("game started", "room", rm.Code())
	}
	return snap, nil
}

func (g *Gate) reject(rm *Room, err error) error {
	var e *Error
	if errors.As(err, &e) {
		metrics.PaymentsRejected.WithLabelValues(e.Code).Inc()
	}
	logger.Debug("payment rejected", "room", rm.Code(), "error", err)
	return err
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return Wrap(ErrPaymentNotFound, err)
	case errors.Is(err, ledger.ErrFailed), errors.Is(err, ledger.ErrInsufficient):
		return Wrap(ErrPaymentFailed, err)
	default:
		return Wrap(ErrLedger, err)
	}
}
