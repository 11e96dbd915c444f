package room

import "errors"

// Kind is the stable error category exposed to callers.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidState        Kind = "invalid_state"
	KindUnauthorized        Kind = "unauthorized"
	KindAlreadyProcessed    Kind = "already_processed"
	KindCollaboratorFailure Kind = "collaborator_failure"
	KindValidation          Kind = "validation"
)

// Error is a rejected operation. Rejections never leave partial state behind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code so wrapped copies compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap attaches a cause to a copy of a sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Cause = cause
	return &cp
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrRoomNotFound = newError(KindNotFound, "room_not_found", "room not found")

	ErrRoomFull             = newError(KindInvalidState, "room_full", "room is full")
	ErrCannotJoin           = newError(KindInvalidState, "cannot_join", "cannot join")
	ErrNotAcceptingPayments = newError(KindInvalidState, "not_accepting_payments", "not accepting payments")
	ErrNoUnpaidSeat         = newError(KindInvalidState, "no_unpaid_seat", "all players already paid")
	ErrGameNotStarted       = newError(KindInvalidState, "game_not_started", "game not started")
	ErrGameEnded            = newError(KindInvalidState, "game_ended", "game already ended")
	ErrWalletNotConfigured  = newError(KindInvalidState, "wallet_not_configured", "backend wallet not configured")

	ErrNotYourTurn  = newError(KindUnauthorized, "not_your_turn", "not your turn")
	ErrNotYourPiece = newError(KindUnauthorized, "not_your_piece", "not your piece")

	ErrAlreadyProcessed = newError(KindAlreadyProcessed, "already_processed", "already processed")

	ErrPaymentNotFound = newError(KindCollaboratorFailure, "payment_not_found", "transaction not found")
	ErrPaymentFailed   = newError(KindCollaboratorFailure, "payment_failed", "transaction failed")
	ErrLedger          = newError(KindCollaboratorFailure, "ledger_error", "ledger unavailable")

	ErrInvalidSeat     = newError(KindValidation, "invalid_seat", "invalid player")
	ErrInvalidSquare   = newError(KindValidation, "invalid_square", "invalid square")
	ErrNoPiece         = newError(KindValidation, "no_piece", "no piece at source")
	ErrInvalidSymbol   = newError(KindValidation, "invalid_symbol", "unsupported reaction")
	ErrNameTooLong     = newError(KindValidation, "name_too_long", "display name too long")
	ErrInvalidEntryFee = newError(KindValidation, "invalid_entry_fee", "invalid entry fee")
	ErrInvalidAddress  = newError(KindValidation, "invalid_address", "invalid address")
	ErrInvalidRef      = newError(KindValidation, "invalid_reference", "payment reference required")
)

// KindOf returns the category of err, or "" when err is not a room error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
