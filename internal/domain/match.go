package domain

import "time"

// PayoutOutcome - результат выплаты
type PayoutOutcome string

const (
	PayoutSent    PayoutOutcome = "sent"
	PayoutFailed  PayoutOutcome = "failed"
	PayoutSkipped PayoutOutcome = "skipped"
)

// MatchRecord - запись завершённого матча
type MatchRecord struct {
	ID            int64         `db:"id" json:"id"`
	RoomCode      string        `db:"room_code" json:"room_code"`
	EntryFee      string        `db:"entry_fee" json:"entry_fee"`
	WinnerSeat    int           `db:"winner_seat" json:"winner_seat"`
	WinnerName    string        `db:"winner_name" json:"winner_name"`
	WinnerAddress string        `db:"winner_address" json:"winner_address"`
	EndReason     string        `db:"end_reason" json:"end_reason"`
	PayoutAmount  string        `db:"payout_amount" json:"payout_amount"`
	PayoutOutcome PayoutOutcome `db:"payout_outcome" json:"payout_outcome"`
	PayoutTx      *string       `db:"payout_tx" json:"payout_tx,omitempty"`
	PayoutError   *string       `db:"payout_error" json:"payout_error,omitempty"`
	FinishedAt    time.Time     `db:"finished_at" json:"finished_at"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
