package room

import (
	"context"
	"errors"
	"time"

	"chess_arena/internal/domain"
	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/metrics"

	"github.com/shopspring/decimal"
)

// Transferer is the ledger side used for settlement.
type Transferer interface {
	Transfer(ctx context.Context, to string, amount uint64) (string, error)
}

// Archive persists settled matches. Failures are logged, never surfaced.
type Archive interface {
	RecordMatch(ctx context.Context, rec *domain.MatchRecord) error
}

// PayoutResult is what one settlement attempt produced.
type PayoutResult struct {
	Settlement Settlement
	Amount     decimal.Decimal
	Outcome    domain.PayoutOutcome
	Ref        string
	Err        error
}

// Payouter transfers the prize pool minus commission to the winner.
type Payouter struct {
	ledger     Transferer
	archive    Archive
	commission decimal.Decimal
	decimals   int32
	timeout    time.Duration
}

func NewPayouter(l Transferer, archive Archive, commission decimal.Decimal, decimals int32, timeout time.Duration) *Payouter {
	return &Payouter{ledger: l, archive: archive, commission: commission, decimals: decimals, timeout: timeout}
}

// PayoutAmount is entryFee * 2 * (1 - commission).
func PayoutAmount(entryFee, commission decimal.Decimal) decimal.Decimal {
	return entryFee.Mul(decimal.NewFromInt(RequiredSeats)).Mul(decimal.NewFromInt(1).Sub(commission))
}

// Settle runs the single payout attempt for s. The game result is final
// whatever happens here.
func (p *Payouter) Settle(ctx context.Context, rm *Room, s *Settlement) PayoutResult {
	res := PayoutResult{Settlement: *s, Amount: PayoutAmount(s.EntryFee, p.commission)}
	log := logger.With("room", s.Code, "winner", s.Winner, "reason", string(s.Reason))

	switch {
	case p.ledger == nil:
		res.Outcome, res.Err = domain.PayoutSkipped, ledger.ErrNotConfigured
	case s.WinnerAddress == "":
		res.Outcome, res.Err = domain.PayoutSkipped, errors.New("winner has no bound address")
	default:
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		ref, err := p.ledger.Transfer(ctx, s.WinnerAddress, ledger.ToMinor(res.Amount, p.decimals))
		if err != nil {
			res.Outcome, res.Err, res.Ref = domain.PayoutFailed, err, ref
		} else {
			res.Outcome, res.Ref = domain.PayoutSent, ref
			rm.RecordPayout(ref)
		}
	}

	metrics.Payouts.WithLabelValues(string(res.Outcome)).Inc()
	if res.Err != nil {
		log.Errorw("payout failed", "amount", res.Amount.String(), "outcome", res.Outcome, "error", res.Err)
	} else {
		log.Infow("payout sent", "amount", res.Amount.String(), "tx", res.Ref)
	}

	p.archiveResult(ctx, res)
	return res
}

func (p *Payouter) archiveResult(ctx context.Context, res PayoutResult) {
	if p.archive == nil {
		return
	}
	s := res.Settlement
	rec := &domain.MatchRecord{
		RoomCode:      s.Code,
		EntryFee:      s.EntryFee.String(),
		WinnerSeat:    s.Winner,
		WinnerName:    s.WinnerName,
		WinnerAddress: s.WinnerAddress,
		EndReason:     string(s.Reason),
		PayoutAmount:  res.Amount.String(),
		PayoutOutcome: res.Outcome,
		FinishedAt:    s.FinishedAt,
	}
	if res.Ref != "" {
		rec.PayoutTx = &res.Ref
	}
	if res.Err != nil {
		msg := res.Err.Error()
		rec.PayoutError = &msg
	}
	// archive write must not inherit a cancelled transfer context
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.archive.RecordMatch(actx, rec); err != nil {
		logger.Error("archive match failed", "room", s.Code, "error", err)
	}
}
