package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"chess_arena/internal/game"
	"chess_arena/internal/identity"
	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/room"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNop()
	os.Exit(m.Run())
}

type recorder struct {
	mu     sync.Mutex
	states map[string][]room.State
}

func (r *recorder) Publish(code string, st room.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states == nil {
		r.states = make(map[string][]room.State)
	}
	r.states[code] = append(r.states[code], st)
}

func (r *recorder) count(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states[code])
}

type harness struct {
	svc    *ArenaService
	ledger *ledger.Fake
	notes  *recorder
	now    time.Time
}

func testRules() Rules {
	return Rules{
		Commission: decimal.RequireFromString("0.10"),
		StartTime:  10 * time.Minute,
		DefaultFee: decimal.NewFromInt(5),
		MinFee:     decimal.RequireFromString("0.01"),
		MaxFee:     decimal.NewFromInt(10000),
		USDCMint:   ledger.USDCMainnetMint,
		Decimals:   ledger.USDCDecimals,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{ledger: ledger.NewFake("platform-wallet"), notes: &recorder{}, now: time.Unix(1_700_000_000, 0)}
	h.svc = NewArenaService(h.ledger, identity.NewMemory(), nil, testRules(),
		WithClock(func() time.Time { return h.now }),
		WithNotifier(h.notes),
		WithSyncPayouts(),
	)
	return h
}

func (h *harness) playing(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	snap, err := h.svc.CreateRoom(ctx, CreateRoomRequest{CreatorAddress: "alice"})
	require.NoError(t, err)
	_, err = h.svc.JoinRoom(ctx, strings.ToLower(snap.Code), JoinRoomRequest{Address: "bob"})
	require.NoError(t, err)

	for _, p := range []struct{ ref, payer string }{{"tx1", "alice"}, {"tx2", "bob"}} {
		h.ledger.Credit(p.ref, 5_000_000)
		_, err = h.svc.ConfirmPayment(ctx, ConfirmPaymentRequest{Code: snap.Code, Reference: p.ref, Payer: p.payer})
		require.NoError(t, err)
	}
	return snap.Code
}

func TestCreateRoomDefaults(t *testing.T) {
	h := newHarness(t)
	snap, err := h.svc.CreateRoom(context.Background(), CreateRoomRequest{CreatorAddress: "alice"})
	require.NoError(t, err)

	assert.Len(t, snap.Code, room.CodeLength)
	assert.Equal(t, 5.0, snap.EntryFee)
	assert.Equal(t, "platform-wallet", snap.WalletAddress)
	assert.Equal(t, "Player 1", snap.Players[0].Name)
	assert.Equal(t, 1, h.svc.Health().ActiveRooms)
}

func TestCreateRoomValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateRoom(ctx, CreateRoomRequest{EntryFee: "abc"})
	assert.ErrorIs(t, err, room.ErrInvalidEntryFee)
	_, err = h.svc.CreateRoom(ctx, CreateRoomRequest{EntryFee: "0"})
	assert.ErrorIs(t, err, room.ErrInvalidEntryFee)
	_, err = h.svc.CreateRoom(ctx, CreateRoomRequest{EntryFee: "10001"})
	assert.ErrorIs(t, err, room.ErrInvalidEntryFee)
	_, err = h.svc.CreateRoom(ctx, CreateRoomRequest{CreatorName: strings.Repeat("a", identity.MaxNameLength+1)})
	assert.ErrorIs(t, err, room.ErrNameTooLong)
	assert.Equal(t, room.KindValidation, room.KindOf(err))
}

func TestCreateRoomWithoutWallet(t *testing.T) {
	svc := NewArenaService(nil, nil, nil, testRules())
	_, err := svc.CreateRoom(context.Background(), CreateRoomRequest{})
	assert.ErrorIs(t, err, room.ErrWalletNotConfigured)
	assert.Equal(t, "NOT CONFIGURED", svc.Health().WalletAddress)
}

func TestNamesFollowAddresses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SetName(ctx, "bob", "Bobby"))

	snap, err := h.svc.CreateRoom(ctx, CreateRoomRequest{CreatorAddress: "alice", CreatorName: "Alice"})
	require.NoError(t, err)
	snap, err = h.svc.JoinRoom(ctx, snap.Code, JoinRoomRequest{Address: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", snap.Players[0].Name)
	assert.Equal(t, "Bobby", snap.Players[1].Name)

	// the creator's explicit name was remembered
	require.NoError(t, h.svc.React(ctx, snap.Code, "alice", "👏"))
	st, err := h.svc.State(ctx, snap.Code)
	require.NoError(t, err)
	require.Len(t, st.Reactions, 1)
	assert.Equal(t, "Alice", st.Reactions[0].Name)
}

func TestKingCaptureTriggersSinglePayout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.playing(t)

	res, err := h.svc.Move(ctx, code, MoveRequest{Seat: 0, From: game.Square{Row: 7, Col: 3}, To: game.Square{Row: 0, Col: 4}})
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	assert.Equal(t, 0, *res.Winner)

	transfers := h.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].To)
	assert.Equal(t, uint64(9_000_000), transfers[0].Amount)

	// every later observation of the terminal state is payout-free
	_, err = h.svc.Room(ctx, code)
	require.NoError(t, err)
	_, err = h.svc.State(ctx, code)
	require.NoError(t, err)
	_, err = h.svc.ForceEnd(ctx, code, 1)
	assert.ErrorIs(t, err, room.ErrGameEnded)
	assert.Len(t, h.ledger.Transfers(), 1)

	snap, err := h.svc.Room(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, transfers[0].Ref, snap.PayoutTx)
}

func TestTimeoutSettlesOnPoll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.playing(t)

	h.now = h.now.Add(10*time.Minute + time.Millisecond)
	st, err := h.svc.State(ctx, code)
	require.NoError(t, err)
	assert.True(t, st.GameOver)
	assert.True(t, st.Timeout)
	assert.Equal(t, 1, *st.Winner)

	transfers := h.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "bob", transfers[0].To)

	_, err = h.svc.State(ctx, code)
	require.NoError(t, err)
	assert.Len(t, h.ledger.Transfers(), 1)
}

func TestForceEndReturnsPayout(t *testing.T) {
	h := newHarness(t)
	code := h.playing(t)

	out, err := h.svc.ForceEnd(context.Background(), code, 1)
	require.NoError(t, err)
	assert.Equal(t, "Player 2", out.Winner)
	assert.Equal(t, 9.0, out.Payout)
	assert.NotEmpty(t, out.PayoutTx)
	assert.Equal(t, "sent", out.Outcome)
	assert.Equal(t, "forced", out.Reason)
	assert.Equal(t, 2, h.svc.Health().ConsumedPayments)
}

func TestForceEndAfterFlagFallSettlesTimeout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.playing(t)

	// white's clock ran out before the admin call arrived
	h.now = h.now.Add(11 * time.Minute)
	out, err := h.svc.ForceEnd(ctx, code, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.WinnerSeat)
	assert.Equal(t, "timeout", out.Reason)
	assert.Equal(t, "sent", out.Outcome)
	assert.Equal(t, 9.0, out.Payout)

	transfers := h.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "bob", transfers[0].To)
	assert.Equal(t, uint64(9_000_000), transfers[0].Amount)

	_, err = h.svc.ForceEnd(ctx, code, 0)
	assert.ErrorIs(t, err, room.ErrGameEnded)
	assert.Len(t, h.ledger.Transfers(), 1)
}

func TestPublishSettlesFlagFall(t *testing.T) {
	h := newHarness(t)
	code := h.playing(t)
	rm, err := h.svc.registry.Lookup(code)
	require.NoError(t, err)

	h.now = h.now.Add(11 * time.Minute)
	h.svc.publish(rm)

	transfers := h.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "bob", transfers[0].To)

	h.svc.publish(rm)
	assert.Len(t, h.ledger.Transfers(), 1)
}

func TestMoveErrorsPassThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.playing(t)

	_, err := h.svc.Move(ctx, code, MoveRequest{Seat: 1, From: game.Square{Row: 1, Col: 0}, To: game.Square{Row: 2, Col: 0}})
	assert.ErrorIs(t, err, room.ErrNotYourTurn)
	assert.Equal(t, room.KindUnauthorized, room.KindOf(err))

	_, err = h.svc.Move(ctx, "ZZZZZZ", MoveRequest{})
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestReplayAcrossRooms(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.playing(t)

	other, err := h.svc.CreateRoom(ctx, CreateRoomRequest{CreatorAddress: "carol"})
	require.NoError(t, err)
	_, err = h.svc.JoinRoom(ctx, other.Code, JoinRoomRequest{Address: "dave"})
	require.NoError(t, err)

	_, err = h.svc.ConfirmPayment(ctx, ConfirmPaymentRequest{Code: other.Code, Reference: "tx1", Payer: "carol"})
	assert.ErrorIs(t, err, room.ErrAlreadyProcessed)

	ps, err := h.svc.Payments(ctx, other.Code)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.ConfirmedPayments)
	assert.Equal(t, room.RequiredSeats, ps.RequiredPayments)
}

func TestChangesArePublished(t *testing.T) {
	h := newHarness(t)
	code := h.playing(t)
	before := h.notes.count(code)

	_, err := h.svc.Move(context.Background(), code, MoveRequest{Seat: 0, From: game.Square{Row: 6, Col: 4}, To: game.Square{Row: 4, Col: 4}})
	require.NoError(t, err)
	assert.Equal(t, before+1, h.notes.count(code))
}

func TestConfigView(t *testing.T) {
	h := newHarness(t)
	cfg := h.svc.Config()
	assert.Equal(t, "platform-wallet", cfg.WalletAddress)
	assert.Equal(t, ledger.USDCMainnetMint, cfg.USDCMint)
	assert.Equal(t, 0.1, cfg.CommissionRate)
	assert.Equal(t, int64(600000), cfg.StartTimeMs)
}
