package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	arenahttp "chess_arena/internal/http"
	"chess_arena/internal/domain"
	"chess_arena/internal/http/handlers"
	"chess_arena/internal/identity"
	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/room"
	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetNop()
	os.Exit(m.Run())
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

type fakeHistory struct {
	records []*domain.MatchRecord
	limit   int
}

func (f *fakeHistory) GetRecent(_ context.Context, limit int) ([]*domain.MatchRecord, error) {
	f.limit = limit
	return f.records, nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type server struct {
	t      *testing.T
	r      *gin.Engine
	ledger *ledger.Fake
	tokens *service.AdminTokens
}

func newServer(t *testing.T, checks map[string]handlers.Pinger, history ...handlers.MatchHistory) *server {
	t.Helper()
	fake := ledger.NewFake("platform-wallet")
	rules := service.Rules{
		Commission: decimal.RequireFromString("0.10"),
		StartTime:  10 * time.Minute,
		DefaultFee: decimal.NewFromInt(5),
		MinFee:     decimal.RequireFromString("0.01"),
		MaxFee:     decimal.NewFromInt(10000),
		USDCMint:   ledger.USDCMainnetMint,
		Decimals:   ledger.USDCDecimals,
	}
	svc := service.NewArenaService(fake, identity.NewMemory(), nil, rules,
		service.WithSyncPayouts(),
		service.WithClock(func() time.Time { return fixedNow }),
	)
	var matches handlers.MatchHistory
	if len(history) > 0 {
		matches = history[0]
	}
	tokens := service.NewAdminTokens("test-secret")

	r := gin.New()
	arenahttp.RegisterRoutes(r, arenahttp.Deps{
		Arena:   svc,
		Tokens:  tokens,
		Checks:  checks,
		Matches: matches,
		Limits: arenahttp.Limits{API: 1000, APIWindow: time.Minute, Move: 1000, MoveWindow: time.Minute},
	})
	return &server{t: t, r: r, ledger: fake, tokens: tokens}
}

func (s *server) do(method, path string, body any, header ...string) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// playing creates a room, seats two players and confirms both payments.
func (s *server) playing() string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/rooms", gin.H{"entryFee": 5, "creatorName": "Alice", "creatorWallet": "alice"})
	require.Equal(s.t, http.StatusOK, code, body)
	roomCode := body["room"].(map[string]any)["code"].(string)

	code, _ = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/join", gin.H{"playerName": "Bob", "playerWallet": "bob"})
	require.Equal(s.t, http.StatusOK, code)

	for _, p := range []struct{ ref, wallet string }{{"sig-a", "alice"}, {"sig-b", "bob"}} {
		s.ledger.Credit(p.ref, 5_000_000)
		code, body = s.do(http.MethodPost, "/api/payments/verify", gin.H{"roomCode": roomCode, "txSignature": p.ref, "playerWallet": p.wallet})
		require.Equal(s.t, http.StatusOK, code, body)
	}
	assert.Equal(s.t, "Game starting!", body["message"])
	return roomCode
}

func move(fromRow, fromCol, toRow, toCol int, seat int) gin.H {
	return gin.H{
		"playerId": seat,
		"from":     gin.H{"row": fromRow, "col": fromCol},
		"to":       gin.H{"row": toRow, "col": toCol},
	}
}

func TestMatchOverHTTP(t *testing.T) {
	s := newServer(t, nil)
	roomCode := s.playing()

	code, body := s.do(http.MethodGet, "/api/rooms/"+roomCode+"/state", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "playing", body["status"])
	assert.Equal(t, "white", body["currentTurn"])
	assert.EqualValues(t, 600000, body["whiteTimeMs"])

	// white pawn e2-e4
	code, body = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/move", move(6, 4, 4, 4, 0))
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "black", body["currentTurn"])

	// white again is out of turn
	code, body = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/move", move(6, 3, 4, 3, 0))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "not_your_turn", body["code"])
	assert.Equal(t, "unauthorized", body["kind"])

	code, body = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/move", move(4, 0, 3, 0, 1))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no_piece", body["code"])

	code, body = s.do(http.MethodGet, "/api/rooms/"+roomCode+"/payments", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["confirmedPayments"])
	assert.Equal(t, true, body["canStartGame"])
}

func TestForceEndRequiresAdmin(t *testing.T) {
	s := newServer(t, nil)
	roomCode := s.playing()

	code, _ := s.do(http.MethodPost, "/api/rooms/"+roomCode+"/end", gin.H{"winnerId": 0})
	assert.Equal(t, http.StatusUnauthorized, code)

	tok, err := s.tokens.Generate("ops", time.Hour)
	require.NoError(t, err)
	code, body := s.do(http.MethodPost, "/api/rooms/"+roomCode+"/end", gin.H{"winnerId": 0}, "Authorization", "Bearer "+tok)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Alice", body["winner"])
	assert.EqualValues(t, 9, body["payout"])
	assert.Equal(t, "fake-transfer-1", body["payoutTx"])
	assert.Equal(t, "sent", body["payoutOutcome"])

	transfers := s.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].To)
	assert.EqualValues(t, 9_000_000, transfers[0].Amount)

	code, body = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/end", gin.H{"winnerId": 1}, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "game_ended", body["code"])
	assert.Len(t, s.ledger.Transfers(), 1)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t, nil)

	code, body := s.do(http.MethodGet, "/api/rooms/NOPE99", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "room_not_found", body["code"])

	code, body = s.do(http.MethodPost, "/api/rooms", gin.H{"entryFee": "-3"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_entry_fee", body["code"])

	roomCode := s.playing()
	code, body = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/join", gin.H{"playerWallet": "carol"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "room_full", body["code"])

	code, body = s.do(http.MethodPost, "/api/payments/verify", gin.H{"roomCode": roomCode, "txSignature": "sig-a", "playerWallet": "alice"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_processed", body["code"])

	code, _ = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/move", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPaymentLedgerFailure(t *testing.T) {
	s := newServer(t, nil)
	_, body := s.do(http.MethodPost, "/api/rooms", gin.H{"creatorWallet": "alice"})
	roomCode := body["room"].(map[string]any)["code"].(string)
	s.do(http.MethodPost, "/api/rooms/"+roomCode+"/join", gin.H{"playerWallet": "bob"})

	code, body := s.do(http.MethodPost, "/api/payments/verify", gin.H{"roomCode": roomCode, "txSignature": "unknown", "playerWallet": "alice"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "payment_not_found", body["code"])
}

func TestSpectatorsReact(t *testing.T) {
	s := newServer(t, nil)
	roomCode := s.playing()

	code, _ := s.do(http.MethodPost, "/api/names", gin.H{"wallet": "carol", "name": "Carol"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/spectate", gin.H{"wallet": "carol"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/rooms/"+roomCode+"/react", gin.H{"wallet": "carol", "symbol": "🔥"})
	require.Equal(t, http.StatusOK, code)
	code, body := s.do(http.MethodPost, "/api/rooms/"+roomCode+"/react", gin.H{"wallet": "carol", "symbol": "not-an-emoji"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_symbol", body["code"])

	_, body = s.do(http.MethodGet, "/api/rooms/"+roomCode+"/state", nil)
	assert.EqualValues(t, 1, body["spectators"])
	reactions := body["reactions"].([]any)
	require.Len(t, reactions, 1)
	assert.Equal(t, "Carol", reactions[0].(map[string]any)["displayName"])
}

func TestConfigAndHealth(t *testing.T) {
	s := newServer(t, map[string]handlers.Pinger{"archive": failingPinger{}})

	code, body := s.do(http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "platform-wallet", body["walletAddress"])
	assert.Equal(t, ledger.USDCMainnetMint, body["usdcMint"])
	assert.EqualValues(t, 0.1, body["commissionRate"])

	code, body = s.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["consumedPayments"])

	s.playing()
	_, body = s.do(http.MethodGet, "/api/health", nil)
	assert.EqualValues(t, 1, body["activeRooms"])
	assert.EqualValues(t, 2, body["consumedPayments"])

	code, _ = s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy: down", body["checks"].(map[string]any)["archive"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, handlers.StatusFor(room.ErrGameNotStarted))
	assert.Equal(t, http.StatusBadGateway, handlers.StatusFor(room.Wrap(room.ErrLedger, errors.New("rpc"))))
	assert.Equal(t, http.StatusInternalServerError, handlers.StatusFor(errors.New("boom")))
}

func TestMalformedBodyWithoutLength(t *testing.T) {
	s := newServer(t, nil)

	for _, path := range []string{"/api/rooms", "/api/rooms/ABCDEF/join"} {
		req := httptest.NewRequest(http.MethodPost, path, io.NopCloser(bytes.NewBufferString(`{"entryFee":`)))
		// chunked: length unknown
		req.ContentLength = -1
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "invalid_request", path)
	}

	// an empty body still means defaults
	code, body := s.do(http.MethodPost, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 5, body["room"].(map[string]any)["entryFee"])
}

func TestRecentMatches(t *testing.T) {
	tx := "sig-payout"
	history := &fakeHistory{records: []*domain.MatchRecord{{
		RoomCode:      "ABCDEF",
		WinnerSeat:    1,
		WinnerName:    "Bob",
		EndReason:     "timeout",
		PayoutAmount:  "9",
		PayoutOutcome: domain.PayoutSent,
		PayoutTx:      &tx,
		FinishedAt:    fixedNow,
	}}}
	s := newServer(t, nil, history)

	code, body := s.do(http.MethodGet, "/api/matches", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20, history.limit)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, "ABCDEF", matches[0].(map[string]any)["room_code"])
	assert.Equal(t, "sig-payout", matches[0].(map[string]any)["payout_tx"])

	s.do(http.MethodGet, "/api/matches?limit=500", nil)
	assert.Equal(t, 100, history.limit)

	code, _ = s.do(http.MethodGet, "/api/matches?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	bare := newServer(t, nil)
	code, body = bare.do(http.MethodGet, "/api/matches", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["matches"])
}
