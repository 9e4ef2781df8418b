package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Number of live websocket connections.",
	})

	MessagesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_relayed_total",
		Help: "Chat messages logged and fanned out.",
	})

	UsersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_users_registered_total",
		Help: "Successful user registrations.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
