package room

import (
	"strings"
	"sync"
	"time"

	"chess_arena/internal/game"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusWaitingPlayers  Status = "waiting_players"
	StatusWaitingPayments Status = "waiting_payments"
	StatusPlaying         Status = "playing"
	StatusFinished        Status = "finished"
)

// EndReason records how a finished room was decided.
type EndReason string

const (
	ReasonKingCaptured EndReason = "king_captured"
	ReasonTimeout      EndReason = "timeout"
	ReasonForced       EndReason = "forced"
)

const (
	SeatWhite     = 0
	SeatBlack     = 1
	RequiredSeats = 2
)

// Player is one seat. Seat and color never change once assigned.
type Player struct {
	Seat       int
	Address    string
	Name       string
	Color      game.Color
	Paid       bool
	paymentRef string
}

// LastMove is display-only replay data.
type LastMove struct {
	From  game.Square `json:"from"`
	To    game.Square `json:"to"`
	Piece string      `json:"piece"`
}

// Settlement is handed out once, when the room first becomes finished.
type Settlement struct {
	Code          string
	EntryFee      decimal.Decimal
	Winner        int
	WinnerName    string
	WinnerAddress string
	Reason        EndReason
	FinishedAt    time.Time
}

// Room is one match. All fields are guarded by mu; every exported method
// advances the clock first since expiry can end the game on any access.
type Room struct {
	mu sync.Mutex

	code      string
	entryFee  decimal.Decimal
	createdAt time.Time

	status    Status
	board     game.Board
	turn      game.Color
	lastMove  *LastMove
	moveCount int
	clock     game.Clock

	winner     *int
	reason     EndReason
	finishedAt time.Time

	players    []*Player
	spectators map[string]struct{}
	feed       Feed

	confirmedPayments int
	payoutRef         string
	pending           *Settlement
}

func newRoom(code string, entryFee decimal.Decimal, creatorAddr, creatorName string, budget time.Duration, now time.Time) *Room {
	return &Room{
		code:      code,
		entryFee:  entryFee,
		createdAt: now,
		status:    StatusWaitingPlayers,
		board:     game.InitialBoard(),
		turn:      game.White,
		clock:     game.NewClock(budget),
		players: []*Player{{
			Seat:    SeatWhite,
			Address: strings.TrimSpace(creatorAddr),
			Name:    creatorName,
			Color:   game.White,
		}},
		spectators: make(map[string]struct{}),
	}
}

func (r *Room) Code() string { return r.code }

func (r *Room) EntryFee() decimal.Decimal { return r.entryFee }

// Status returns the current status after advancing the clock.
func (r *Room) Status(now time.Time) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(now)
	return r.status
}

// Join seats the second player as black.
func (r *Room) Join(address, name string, now time.Time) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) >= RequiredSeats {
		return Snapshot{}, ErrRoomFull
	}
	if r.status != StatusWaitingPlayers {
		return Snapshot{}, ErrCannotJoin
	}

	r.players = append(r.players, &Player{
		Seat:    SeatBlack,
		Address: strings.TrimSpace(address),
		Name:    name,
		Color:   game.Black,
	})
	r.status = StatusWaitingPayments
	return r.snapshotLocked(), nil
}

// Spectate adds an observer. Repeat calls with the same address are no-ops.
func (r *Room) Spectate(address string, now time.Time) (Snapshot, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Snapshot{}, ErrInvalidAddress
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked(now)
	r.spectators[address] = struct{}{}
	return r.snapshotLocked(), nil
}

// React appends to the reaction feed.
func (r *Room) React(name, symbol string, now time.Time) error {
	if !ValidSymbol(symbol) {
		return ErrInvalidSymbol
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked(now)
	r.feed.Push(Reaction{Symbol: symbol, Name: name, Timestamp: now.UnixMilli()})
	return nil
}

// Snapshot returns the full read-only projection.
func (r *Room) Snapshot(now time.Time) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(now)
	return r.snapshotLocked()
}

// State returns the polling projection with the last n reactions.
func (r *Room) State(now time.Time, n int) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(now)
	return r.stateLocked(n)
}

// Payments returns the payment gating view.
func (r *Room) Payments(now time.Time) PaymentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(now)

	ps := PaymentStatus{
		Status:            r.status,
		ConfirmedPayments: r.confirmedPayments,
		RequiredPayments:  RequiredSeats,
		CanStartGame:      r.confirmedPayments >= RequiredSeats,
	}
	for _, p := range r.players {
		ps.Players = append(ps.Players, PaymentView{ID: p.Seat, Name: p.Name, PaymentConfirmed: p.Paid})
	}
	return ps
}

// Move applies a move for seat. Rejections leave the room untouched apart
// from clock advancement, which is derived from wall time anyway. When the
// clock runs out on this call the move is not applied and the timeout result
// is returned without an error.
func (r *Room) Move(seat int, from, to game.Square, now time.Time) (MoveResult, error) {
	if !from.Valid() || !to.Valid() || from == to {
		return MoveResult{}, ErrInvalidSquare
	}
	if seat != SeatWhite && seat != SeatBlack {
		return MoveResult{}, ErrInvalidSeat
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusPlaying:
	case StatusFinished:
		return MoveResult{}, ErrGameEnded
	default:
		return MoveResult{}, ErrGameNotStarted
	}

	if r.advanceLocked(now) {
		return r.moveResultLocked(false), nil
	}
	if r.winner != nil {
		return MoveResult{}, ErrGameEnded
	}

	player := r.players[seat]
	if player.Color != r.turn {
		return MoveResult{}, ErrNotYourTurn
	}
	piece := r.board.At(from)
	owner, err := game.PieceOwner(piece)
	if err != nil {
		return MoveResult{}, ErrNoPiece
	}
	if owner != player.Color {
		return MoveResult{}, ErrNotYourPiece
	}

	capturedKing := game.IsKingAt(r.board, to)
	next, _, err := game.ApplyMove(r.board, from, to)
	if err != nil {
		return MoveResult{}, Wrap(ErrInvalidSquare, err)
	}
	r.board = next
	r.lastMove = &LastMove{From: from, To: to, Piece: piece.Code()}
	r.moveCount++

	if capturedKing {
		r.finishLocked(seat, ReasonKingCaptured, now)
		return r.moveResultLocked(true), nil
	}
	r.turn = r.turn.Opponent()
	return r.moveResultLocked(true), nil
}

// ForceEnd declares seat the winner. A room that is already finished is left
// alone so the payout path can only ever run once.
func (r *Room) ForceEnd(seat int, now time.Time) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked(now)
	if r.status == StatusFinished {
		return Snapshot{}, ErrGameEnded
	}
	if seat < 0 || seat >= len(r.players) {
		return Snapshot{}, ErrInvalidSeat
	}
	r.finishLocked(seat, ReasonForced, now)
	return r.snapshotLocked(), nil
}

// TakeSettlement returns the pending settlement exactly once.
func (r *Room) TakeSettlement() *Settlement {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.pending
	r.pending = nil
	return s
}

// RecordPayout stores the settlement reference. Only the first call wins.
func (r *Room) RecordPayout(ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.payoutRef != "" || ref == "" {
		return false
	}
	r.payoutRef = ref
	return true
}

// checkPayable runs the payment gate guards without mutating anything.
func (r *Room) checkPayable(now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked(now)
	return r.payableLocked()
}

func (r *Room) payableLocked() error {
	if r.status != StatusWaitingPayments {
		return ErrNotAcceptingPayments
	}
	if r.firstUnpaidLocked() == nil {
		return ErrNoUnpaidSeat
	}
	return nil
}

// confirmSeat re-validates under the lock, claims ref globally and marks the
// first unpaid seat. The game starts once both seats are funded.
func (r *Room) confirmSeat(refs *ReferenceSet, ref, payer, name string, now time.Time) (Snapshot, *Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advanceLocked(now)
	if err := r.payableLocked(); err != nil {
		return Snapshot{}, nil, err
	}
	if !refs.Claim(ref) {
		return Snapshot{}, nil, ErrAlreadyProcessed
	}

	p := r.firstUnpaidLocked()
	p.Paid = true
	p.paymentRef = ref
	p.Address = payer
	if name != "" {
		p.Name = name
	}
	r.confirmedPayments++

	if r.confirmedPayments >= RequiredSeats && len(r.players) == RequiredSeats {
		r.status = StatusPlaying
		r.clock.Start(now)
	}
	cp := *p
	return r.snapshotLocked(), &cp, nil
}

func (r *Room) firstUnpaidLocked() *Player {
	for _, p := range r.players {
		if !p.Paid {
			return p
		}
	}
	return nil
}

// advanceLocked charges elapsed time to the side on move and ends the game
// when that side has nothing left. It reports whether this call ended it.
func (r *Room) advanceLocked(now time.Time) bool {
	if r.status != StatusPlaying {
		return false
	}
	if !r.clock.Advance(r.turn, now) {
		return false
	}
	return r.finishLocked(seatOf(r.turn.Opponent()), ReasonTimeout, now)
}

func (r *Room) finishLocked(winner int, reason EndReason, now time.Time) bool {
	if r.winner != nil {
		return false
	}
	w := winner
	r.winner = &w
	r.reason = reason
	r.status = StatusFinished
	r.finishedAt = now
	r.clock.Stop()

	s := &Settlement{
		Code:       r.code,
		EntryFee:   r.entryFee,
		Winner:     winner,
		Reason:     reason,
		FinishedAt: now,
	}
	if winner < len(r.players) {
		s.WinnerName = r.players[winner].Name
		s.WinnerAddress = r.players[winner].Address
	}
	r.pending = s
	return true
}

func seatOf(c game.Color) int {
	if c == game.Black {
		return SeatBlack
	}
	return SeatWhite
}
