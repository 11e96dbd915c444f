package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoomsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_rooms_created_total",
			Help: "Total rooms created",
		},
	)
	ActiveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_active_rooms",
			Help: "Rooms currently held in memory",
		},
	)
	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_moves_total",
			Help: "Move submissions by result",
		},
		[]string{"result"},
	)
	PaymentsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_payments_confirmed_total",
			Help: "Entry fee payments accepted",
		},
	)
	PaymentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_payments_rejected_total",
			Help: "Entry fee confirmations rejected, by error code",
		},
		[]string{"code"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_games_finished_total",
			Help: "Finished games by end reason",
		},
		[]string{"reason"},
	)
	Payouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_payouts_total",
			Help: "Payout attempts by outcome",
		},
		[]string{"outcome"},
	)
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_ws_clients",
			Help: "Connected websocket subscribers",
		},
	)
)

func init() {
	prometheus.MustRegister(RoomsCreated)
	prometheus.MustRegister(ActiveRooms)
	prometheus.MustRegister(Moves)
	prometheus.MustRegister(PaymentsConfirmed)
	prometheus.MustRegister(PaymentsRejected)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(Payouts)
	prometheus.MustRegister(WSClients)
}

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
}
