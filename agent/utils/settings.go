package utils

import (
	"time"

	"github.com/golang/glog"
)

// Defaults of the bounded polling: four tries with two seconds between them.
const (
	DefaultPollAttempts = 4
	DefaultPollDelay    = 2 * time.Second
	DefaultPollInterval = 10 * time.Second
)

var Settings = &Hub{
	pollAttempts: DefaultPollAttempts,
	pollDelay:    DefaultPollDelay,
	pollInterval: DefaultPollInterval,
}

type Hub struct {
	psmDB     string // name of the conversation and connection database file
	mailboxDB string // name of the local wallet gateway's database file

	pollAttempts uint64        // max tries of the bounded polls
	pollDelay    time.Duration // delay between the tries
	pollJitter   float64       // randomization factor of the delay, 0 = fixed
	pollBackoff  float64       // multiplier of the delay, <= 1 = constant
	pollMaxDelay time.Duration // cap of the growing delay, 0 = no cap

	pollInterval time.Duration // interval of the background inbox poller
	workers      int           // max connections polled in parallel

	metricsAddr string // listen address of the prometheus endpoint, empty = off
}

func (h *Hub) PsmDB() string {
	return h.psmDB
}

func (h *Hub) SetPsmDB(name string) {
	h.psmDB = name
}

func (h *Hub) MailboxDB() string {
	return h.mailboxDB
}

func (h *Hub) SetMailboxDB(name string) {
	h.mailboxDB = name
}

func (h *Hub) PollAttempts() uint64 {
	return h.pollAttempts
}

func (h *Hub) SetPollAttempts(n uint64) {
	if n == 0 {
		glog.Warningln("poll attempts cannot be zero, using default")
		n = DefaultPollAttempts
	}
	h.pollAttempts = n
}

func (h *Hub) PollDelay() time.Duration {
	return h.pollDelay
}

func (h *Hub) SetPollDelay(d time.Duration) {
	h.pollDelay = d
}

func (h *Hub) PollJitter() float64 {
	return h.pollJitter
}

func (h *Hub) SetPollJitter(j float64) {
	h.pollJitter = j
}

func (h *Hub) PollBackoff() float64 {
	return h.pollBackoff
}

// SetPollBackoff sets the delay multiplier. Values greater than one turn the
// fixed delay to exponential backoff.
func (h *Hub) SetPollBackoff(m float64) {
	h.pollBackoff = m
}

func (h *Hub) PollMaxDelay() time.Duration {
	return h.pollMaxDelay
}

func (h *Hub) SetPollMaxDelay(d time.Duration) {
	h.pollMaxDelay = d
}

func (h *Hub) PollInterval() time.Duration {
	return h.pollInterval
}

func (h *Hub) SetPollInterval(d time.Duration) {
	h.pollInterval = d
}

func (h *Hub) Workers() int {
	if h.workers <= 0 {
		return 1
	}
	return h.workers
}

func (h *Hub) SetWorkers(n int) {
	h.workers = n
}

func (h *Hub) MetricsAddr() string {
	return h.metricsAddr
}

func (h *Hub) SetMetricsAddr(addr string) {
	h.metricsAddr = addr
}
