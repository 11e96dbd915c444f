package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"chess_arena/internal/game"
	"chess_arena/internal/identity"
	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/metrics"
	"chess_arena/internal/room"

	"github.com/shopspring/decimal"
)

const (
	defaultCreatorName = "Player 1"
	defaultJoinerName  = "Player 2"
)

// Rules are the match economics and limits.
type Rules struct {
	Commission decimal.Decimal
	StartTime  time.Duration
	DefaultFee decimal.Decimal
	MinFee     decimal.Decimal
	MaxFee     decimal.Decimal
	USDCMint   string
	Decimals   int32
}

// Notifier receives the polling view after every change to a room.
type Notifier interface {
	Publish(code string, st room.State)
}

type Option func(*ArenaService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ArenaService) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *ArenaService) { s.notifier = n }
}

// WithSyncPayouts settles on the calling goroutine instead of a new one.
func WithSyncPayouts() Option {
	return func(s *ArenaService) { s.dispatch = func(f func()) { f() } }
}

// ArenaService is the transport-agnostic surface of the arena.
type ArenaService struct {
	registry *room.Registry
	gate     *room.Gate
	payouter *room.Payouter
	ledger   ledger.Ledger
	names    identity.Directory
	rules    Rules
	notifier Notifier
	now      func() time.Time
	dispatch func(func())
}

// NewArenaService wires the room core. l may be nil when no platform wallet
// is configured, in which case rooms cannot be created.
func NewArenaService(l ledger.Ledger, names identity.Directory, archive room.Archive, rules Rules, opts ...Option) *ArenaService {
	if names == nil {
		names = identity.NewMemory()
	}
	var transferer room.Transferer
	if l != nil {
		transferer = l
	}
	s := &ArenaService{
		registry: room.NewRegistry(rules.StartTime, room.NanoidCodes()),
		gate:     room.NewGate(l, room.NewReferenceSet(), rules.Decimals),
		payouter: room.NewPayouter(transferer, archive, rules.Commission, rules.Decimals, 0),
		ledger:   l,
		names:    names,
		rules:    rules,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateRoomRequest struct {
	EntryFee       string
	CreatorName    string
	CreatorAddress string
}

func (s *ArenaService) CreateRoom(ctx context.Context, req CreateRoomRequest) (room.Snapshot, error) {
	if s.ledger == nil {
		return room.Snapshot{}, room.ErrWalletNotConfigured
	}
	fee, err := s.parseFee(req.EntryFee)
	if err != nil {
		return room.Snapshot{}, err
	}
	name, err := s.seatName(ctx, req.CreatorAddress, req.CreatorName, defaultCreatorName)
	if err != nil {
		return room.Snapshot{}, err
	}

	rm, err := s.registry.Create(fee, req.CreatorAddress, name, s.now())
	if err != nil {
		return room.Snapshot{}, err
	}
	metrics.RoomsCreated.Inc()
	metrics.ActiveRooms.Set(float64(s.registry.Len()))
	logger.WithContext(ctx).Infow("room created", "room", rm.Code(), "entry_fee", fee.String())
	return s.withWallet(rm.Snapshot(s.now())), nil
}

type JoinRoomRequest struct {
	Name    string
	Address string
}

func (s *ArenaService) JoinRoom(ctx context.Context, code string, req JoinRoomRequest) (room.Snapshot, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.Snapshot{}, err
	}
	name, err := s.seatName(ctx, req.Address, req.Name, defaultJoinerName)
	if err != nil {
		return room.Snapshot{}, err
	}
	snap, err := rm.Join(req.Address, name, s.now())
	if err != nil {
		return room.Snapshot{}, err
	}
	logger.WithContext(ctx).Infow("player joined", "room", rm.Code())
	s.afterChange(rm)
	return s.withWallet(snap), nil
}

func (s *ArenaService) Spectate(ctx context.Context, code, address string) (room.Snapshot, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.Snapshot{}, err
	}
	snap, err := rm.Spectate(address, s.now())
	if err != nil {
		return room.Snapshot{}, err
	}
	s.afterChange(rm)
	return s.withWallet(snap), nil
}

func (s *ArenaService) React(ctx context.Context, code, address, symbol string) error {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return err
	}
	name := identity.Resolve(ctx, s.names, address, identity.ShortAddress(address))
	if name == "" {
		name = "Spectator"
	}
	if err := rm.React(name, symbol, s.now()); err != nil {
		return err
	}
	s.afterChange(rm)
	return nil
}

// Room returns the full snapshot, settling the room if the clock ran out.
func (s *ArenaService) Room(ctx context.Context, code string) (room.Snapshot, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.Snapshot{}, err
	}
	snap := rm.Snapshot(s.now())
	s.settleIfFinished(rm)
	return s.withWallet(snap), nil
}

func (s *ArenaService) State(ctx context.Context, code string) (room.State, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.State{}, err
	}
	st := rm.State(s.now(), room.StateReactions)
	s.settleIfFinished(rm)
	return st, nil
}

func (s *ArenaService) Payments(ctx context.Context, code string) (room.PaymentStatus, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.PaymentStatus{}, err
	}
	ps := rm.Payments(s.now())
	s.settleIfFinished(rm)
	return ps, nil
}

type ConfirmPaymentRequest struct {
	Code      string
	Reference string
	Payer     string
}

func (s *ArenaService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (room.Snapshot, error) {
	rm, err := s.registry.Lookup(req.Code)
	if err != nil {
		return room.Snapshot{}, err
	}
	name := identity.Resolve(ctx, s.names, req.Payer, "")
	snap, err := s.gate.Confirm(ctx, rm, req.Reference, req.Payer, name, s.now)
	if err != nil {
		return room.Snapshot{}, err
	}
	s.afterChange(rm)
	return s.withWallet(snap), nil
}

type MoveRequest struct {
	Seat int
	From game.Square
	To   game.Square
}

func (s *ArenaService) Move(ctx context.Context, code string, req MoveRequest) (room.MoveResult, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return room.MoveResult{}, err
	}
	res, err := rm.Move(req.Seat, req.From, req.To, s.now())
	switch {
	case err != nil:
		metrics.Moves.WithLabelValues("rejected").Inc()
		return room.MoveResult{}, err
	case res.Timeout:
		metrics.Moves.WithLabelValues("timeout").Inc()
	default:
		metrics.Moves.WithLabelValues("accepted").Inc()
		logger.WithContext(ctx).Debugw("move", "room", rm.Code(), "seat", req.Seat,
			"from", req.From.String(), "to", req.To.String())
	}
	s.afterChange(rm)
	return res, nil
}

type ForceEndResult struct {
	Winner     string  `json:"winner"`
	WinnerSeat int     `json:"winnerId"`
	Payout     float64 `json:"payout"`
	PayoutTx   string  `json:"payoutTx,omitempty"`
	Outcome    string  `json:"payoutOutcome"`
	Reason     string  `json:"endReason"`
}

// ForceEnd declares a winner and settles synchronously so the caller sees
// the payout reference. When the clock ran out before the call, the timeout
// result stands and is settled and returned instead.
func (s *ArenaService) ForceEnd(ctx context.Context, code string, seat int) (ForceEndResult, error) {
	rm, err := s.registry.Lookup(code)
	if err != nil {
		return ForceEndResult{}, err
	}
	_, endErr := rm.ForceEnd(seat, s.now())
	st := rm.TakeSettlement()
	if st == nil {
		if endErr != nil {
			return ForceEndResult{}, endErr
		}
		// settled by someone else in between; nothing left to pay
		s.publish(rm)
		return ForceEndResult{WinnerSeat: seat, Reason: string(room.ReasonForced)}, nil
	}
	logger.WithContext(ctx).Infow("game ended by admin", "room", rm.Code(),
		"winner", st.Winner, "reason", string(st.Reason))

	res := s.settle(context.WithoutCancel(ctx), rm, st)
	s.publish(rm)
	return ForceEndResult{
		Winner:     st.WinnerName,
		WinnerSeat: st.Winner,
		Payout:     res.Amount.InexactFloat64(),
		PayoutTx:   res.Ref,
		Outcome:    string(res.Outcome),
		Reason:     string(st.Reason),
	}, nil
}

// SetName binds a display name to an address.
func (s *ArenaService) SetName(ctx context.Context, address, name string) error {
	if strings.TrimSpace(address) == "" {
		return room.ErrInvalidAddress
	}
	if err := s.names.Bind(ctx, address, name); err != nil {
		return nameError(err)
	}
	return nil
}

type ConfigView struct {
	WalletAddress  string  `json:"walletAddress"`
	USDCMint       string  `json:"usdcMint"`
	CommissionRate float64 `json:"commissionRate"`
	StartTimeMs    int64   `json:"startTimeMs"`
	MinEntryFee    float64 `json:"minEntryFee"`
	MaxEntryFee    float64 `json:"maxEntryFee"`
}

func (s *ArenaService) Config() ConfigView {
	return ConfigView{
		WalletAddress:  s.walletAddress(),
		USDCMint:       s.rules.USDCMint,
		CommissionRate: s.rules.Commission.InexactFloat64(),
		StartTimeMs:    s.rules.StartTime.Milliseconds(),
		MinEntryFee:    s.rules.MinFee.InexactFloat64(),
		MaxEntryFee:    s.rules.MaxFee.InexactFloat64(),
	}
}

type HealthView struct {
	Status           string `json:"status"`
	WalletAddress    string `json:"walletAddress"`
	ActiveRooms      int    `json:"activeRooms"`
	ConsumedPayments int    `json:"consumedPayments"`
}

func (s *ArenaService) Health() HealthView {
	addr := s.walletAddress()
	if addr == "" {
		addr = "NOT CONFIGURED"
	}
	return HealthView{
		Status:           "ok",
		WalletAddress:    addr,
		ActiveRooms:      s.registry.Len(),
		ConsumedPayments: s.gate.ConsumedReferences(),
	}
}

func (s *ArenaService) walletAddress() string {
	if s.ledger == nil {
		return ""
	}
	return s.ledger.Address()
}

func (s *ArenaService) withWallet(snap room.Snapshot) room.Snapshot {
	snap.WalletAddress = s.walletAddress()
	return snap
}

func (s *ArenaService) parseFee(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.rules.DefaultFee, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, room.Wrap(room.ErrInvalidEntryFee, err)
	}
	if fee.LessThan(s.rules.MinFee) || fee.GreaterThan(s.rules.MaxFee) {
		return decimal.Zero, room.ErrInvalidEntryFee
	}
	return fee, nil
}

// seatName validates an explicit name and remembers it for the address;
// otherwise falls back to the directory and then to def.
func (s *ArenaService) seatName(ctx context.Context, address, name, def string) (string, error) {
	name, err := identity.CleanName(name)
	if err != nil {
		return "", nameError(err)
	}
	if name == "" {
		return identity.Resolve(ctx, s.names, address, def), nil
	}
	if strings.TrimSpace(address) != "" {
		if err := s.names.Bind(ctx, address, name); err != nil {
			logger.WithContext(ctx).Warnw("bind display name failed", "error", err)
		}
	}
	return name, nil
}

func nameError(err error) error {
	if errors.Is(err, identity.ErrNameTooLong) {
		return room.Wrap(room.ErrNameTooLong, err)
	}
	return err
}

func (s *ArenaService) afterChange(rm *room.Room) {
	s.settleIfFinished(rm)
	s.publish(rm)
}

// settleIfFinished hands a pending settlement to the payout path. Only one
// caller can ever take it, which keeps payouts to one per room.
func (s *ArenaService) settleIfFinished(rm *room.Room) {
	st := rm.TakeSettlement()
	if st == nil {
		return
	}
	s.dispatch(func() {
		s.settle(context.Background(), rm, st)
		s.publish(rm)
	})
}

func (s *ArenaService) settle(ctx context.Context, rm *room.Room, st *room.Settlement) room.PayoutResult {
	metrics.GamesFinished.WithLabelValues(string(st.Reason)).Inc()
	logger.Info("game over", "room", st.Code, "winner", st.Winner, "reason", string(st.Reason))
	return s.payouter.Settle(ctx, rm, st)
}

// publish pushes the polling view. Reading the state can itself run the
// clock out, so any settlement that produces is dispatched too.
func (s *ArenaService) publish(rm *room.Room) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(rm.Code(), rm.State(s.now(), room.StateReactions))
	s.settleIfFinished(rm)
}
