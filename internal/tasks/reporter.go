package tasks

import (
	"log"

	"chat-relay/internal/chat"

	"github.com/robfig/cron/v3"
)

// StatsReporter periodically logs hub occupancy so unbounded growth
// of the message log is at least visible in the logs.
type StatsReporter struct {
	hub *chat.Hub
}

func NewStatsReporter(hub *chat.Hub) *StatsReporter {
	return &StatsReporter{hub: hub}
}

func (r *StatsReporter) Start() *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@every 1m", func() {
		s := r.hub.Stats()
		log.Printf("[WORKER] Hub stats: %d connections, %d channels, %d logged messages",
			s.Clients, s.Channels, s.Messages)
	})
	if err != nil {
		log.Printf("[WORKER] Error scheduling stats reporter: %v", err)
		return c
	}

	c.Start()
	return c
}
