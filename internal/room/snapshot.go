package room

import (
	"chess_arena/internal/game"

	"github.com/shopspring/decimal"
)

// StateReactions is how many reactions the polling view carries.
const StateReactions = 10

type PlayerView struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Color            game.Color `json:"color"`
	PaymentConfirmed bool       `json:"paymentConfirmed"`
}

// Snapshot is the full room projection. Payment references and wallet
// addresses never leave the room through it.
type Snapshot struct {
	Code              string       `json:"code"`
	Status            Status       `json:"status"`
	EntryFee          float64      `json:"entryFee"`
	PrizePool         float64      `json:"prizePool"`
	WalletAddress     string       `json:"walletAddress,omitempty"`
	ConfirmedPayments int          `json:"confirmedPayments"`
	RequiredPayments  int          `json:"requiredPayments"`
	CanStartGame      bool         `json:"canStartGame"`
	Players           []PlayerView `json:"players"`
	Board             game.Board   `json:"board"`
	FEN               string       `json:"fen"`
	CurrentTurn       game.Color   `json:"currentTurn"`
	LastMove          *LastMove    `json:"lastMove"`
	MoveCount         int          `json:"moveCount"`
	WhiteTimeMs       int64        `json:"whiteTimeMs"`
	BlackTimeMs       int64        `json:"blackTimeMs"`
	GameOver          bool         `json:"gameOver"`
	Winner            *int         `json:"winner"`
	EndReason         EndReason    `json:"endReason,omitempty"`
	Timeout           bool         `json:"timeout"`
	PayoutTx          string       `json:"payoutTx,omitempty"`
	Spectators        int          `json:"spectators"`
	Reactions         []Reaction   `json:"reactions"`
	CreatedAt         int64        `json:"createdAt"`
}

// State is the lighter view polled by clients during play.
type State struct {
	Code        string       `json:"code"`
	Status      Status       `json:"status"`
	Players     []PlayerView `json:"players"`
	Board       game.Board   `json:"board"`
	CurrentTurn game.Color   `json:"currentTurn"`
	LastMove    *LastMove    `json:"lastMove"`
	WhiteTimeMs int64        `json:"whiteTimeMs"`
	BlackTimeMs int64        `json:"blackTimeMs"`
	GameOver    bool         `json:"gameOver"`
	Winner      *int         `json:"winner"`
	Timeout     bool         `json:"timeout"`
	Spectators  int          `json:"spectators"`
	Reactions   []Reaction   `json:"reactions"`
}

type PaymentView struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	PaymentConfirmed bool   `json:"paymentConfirmed"`
}

type PaymentStatus struct {
	Status            Status        `json:"status"`
	ConfirmedPayments int           `json:"confirmedPayments"`
	RequiredPayments  int           `json:"requiredPayments"`
	CanStartGame      bool          `json:"canStartGame"`
	Players           []PaymentView `json:"players"`
}

// MoveResult is returned for accepted moves and for the call that observed
// the clock running out.
type MoveResult struct {
	Accepted    bool       `json:"success"`
	GameOver    bool       `json:"gameOver"`
	Timeout     bool       `json:"timeout,omitempty"`
	Winner      *int       `json:"winner,omitempty"`
	Board       game.Board `json:"board"`
	CurrentTurn game.Color `json:"currentTurn"`
	LastMove    *LastMove  `json:"lastMove,omitempty"`
	WhiteTimeMs int64      `json:"whiteTimeMs"`
	BlackTimeMs int64      `json:"blackTimeMs"`
}

func (r *Room) playersLocked() []PlayerView {
	out := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, PlayerView{ID: p.Seat, Name: p.Name, Color: p.Color, PaymentConfirmed: p.Paid})
	}
	return out
}

func (r *Room) winnerLocked() *int {
	if r.winner == nil {
		return nil
	}
	w := *r.winner
	return &w
}

func (r *Room) lastMoveLocked() *LastMove {
	if r.lastMove == nil {
		return nil
	}
	lm := *r.lastMove
	return &lm
}

func (r *Room) snapshotLocked() Snapshot {
	return Snapshot{
		Code:              r.code,
		Status:            r.status,
		EntryFee:          r.entryFee.InexactFloat64(),
		PrizePool:         r.entryFee.Mul(decimal.NewFromInt(int64(r.confirmedPayments))).InexactFloat64(),
		ConfirmedPayments: r.confirmedPayments,
		RequiredPayments:  RequiredSeats,
		CanStartGame:      r.confirmedPayments >= RequiredSeats,
		Players:           r.playersLocked(),
		Board:             r.board,
		FEN:               r.board.FEN(),
		CurrentTurn:       r.turn,
		LastMove:          r.lastMoveLocked(),
		MoveCount:         r.moveCount,
		WhiteTimeMs:       r.clock.Remaining(game.White).Milliseconds(),
		BlackTimeMs:       r.clock.Remaining(game.Black).Milliseconds(),
		GameOver:          r.status == StatusFinished,
		Winner:            r.winnerLocked(),
		EndReason:         r.reason,
		Timeout:           r.reason == ReasonTimeout,
		PayoutTx:          r.payoutRef,
		Spectators:        len(r.spectators),
		Reactions:         r.feed.Recent(0),
		CreatedAt:         r.createdAt.UnixMilli(),
	}
}

func (r *Room) stateLocked(n int) State {
	return State{
		Code:        r.code,
		Status:      r.status,
		Players:     r.playersLocked(),
		Board:       r.board,
		CurrentTurn: r.turn,
		LastMove:    r.lastMoveLocked(),
		WhiteTimeMs: r.clock.Remaining(game.White).Milliseconds(),
		BlackTimeMs: r.clock.Remaining(game.Black).Milliseconds(),
		GameOver:    r.status == StatusFinished,
		Winner:      r.winnerLocked(),
		Timeout:     r.reason == ReasonTimeout,
		Spectators:  len(r.spectators),
		Reactions:   r.feed.Recent(n),
	}
}

func (r *Room) moveResultLocked(accepted bool) MoveResult {
	return MoveResult{
		Accepted:    accepted,
		GameOver:    r.status == StatusFinished,
		Timeout:     r.reason == ReasonTimeout,
		Winner:      r.winnerLocked(),
		Board:       r.board,
		CurrentTurn: r.turn,
		LastMove:    r.lastMoveLocked(),
		WhiteTimeMs: r.clock.Remaining(game.White).Milliseconds(),
		BlackTimeMs: r.clock.Remaining(game.Black).Milliseconds(),
	}
}
