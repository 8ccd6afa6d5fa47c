package agency

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/agency"
	"github.com/findy-network/findy-conversation-agent/agent/bus"
	"github.com/findy-network/findy-conversation-agent/agent/metrics"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Cmd starts the agency server: the background poller of the connections
// and the metrics endpoint.
type Cmd struct {
	PsmDB        string
	MailboxDB    string
	PollInterval time.Duration
	Workers      int
	MetricsAddr  string
	VersionInfo  string
}

var DefaultValues = Cmd{
	PsmDB:        "conversation.bolt",
	MailboxDB:    "mailbox.bolt",
	PollInterval: utils.DefaultPollInterval,
	Workers:      4,
	MetricsAddr:  ":2112",
}

func (c *Cmd) Validate() error {
	if c.PsmDB == "" {
		return errors.New("psm database location must be given")
	}
	if c.MailboxDB == "" {
		return errors.New("mailbox database location must be given")
	}
	if c.PollInterval < time.Second {
		return errors.New("poll interval must be at least a second")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	return nil
}

// PreRun moves the settings to utils.Settings.
func (c *Cmd) PreRun() {
	utils.Settings.SetPsmDB(c.PsmDB)
	utils.Settings.SetMailboxDB(c.MailboxDB)
	utils.Settings.SetPollInterval(c.PollInterval)
	utils.Settings.SetWorkers(c.Workers)
	utils.Settings.SetMetricsAddr(c.MetricsAddr)
}

func (c *Cmd) Exec(_ io.Writer) (r cmds.Result, err error) {
	return nil, StartAgency(c)
}

// Server is the running agency.
type Server struct {
	Agency  *agency.Agency
	cron    *gocron.Scheduler
	metrics *http.Server

	events     bus.StateChan
	eventsDone chan struct{}
}

var eventsKey = bus.KeyType{Wallet: bus.AllWallets, ClientID: "agency-server"}

// Start opens the agency and starts its background tasks.
func (c *Cmd) Start() (s *Server, err error) {
	defer err2.Handle(&err, "start agency")

	c.printStartupArgs()
	c.PreRun()
	a := try.To1(cmds.Open())
	s = &Server{
		Agency: a,
		cron:   gocron.NewScheduler(time.Now().Location()),
	}
	s.cron.SingletonModeAll()
	_, err = s.cron.Every(c.PollInterval).Do(s.poll)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("poller: %w", err)
	}
	s.events = bus.WantAll.AddListener(eventsKey)
	s.eventsDone = make(chan struct{})
	go s.logEvents()
	s.cron.StartAsync()

	if c.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		s.metrics = &http.Server{
			Addr:              c.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			glog.V(1).Infoln("metrics server at", c.MetricsAddr)
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorln("metrics server:", err)
			}
		}()
	}
	return s, nil
}

func (s *Server) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), utils.Settings.PollInterval())
	defer cancel()

	n, err := s.Agency.PollAll(ctx)
	if err != nil {
		glog.Warningln("poll:", err)
	}
	glog.V(3).Infoln("poll handled", n, "messages")
}

// logEvents logs the status changes until the listener is removed.
func (s *Server) logEvents() {
	defer close(s.eventsDone)

	for n := range s.events {
		switch {
		case n.Kind == bus.KindConnection:
			glog.Infof("%s: connection %s", n.StateKey, n.ConnStatus)
		case n.Status.IsFinal():
			glog.Infof("%s: %s conversation %s", n.StateKey, n.Type, n.Status)
		default:
			glog.V(1).Infof("%s: %s conversation %s", n.StateKey, n.Type, n.Status)
		}
	}
}

// Close stops the background tasks and closes the agency.
func (s *Server) Close() (err error) {
	s.cron.Stop()
	bus.WantAll.RmListener(eventsKey)
	<-s.eventsDone
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.metrics.Shutdown(ctx); err != nil {
			glog.Warningln("metrics shutdown:", err)
		}
	}
	return s.Agency.Close()
}

// StartAgency runs the agency until the process is interrupted.
func StartAgency(c *Cmd) (err error) {
	defer err2.Handle(&err)

	s := try.To1(c.Start())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	glog.Infoln("agency started, version", c.VersionInfo)
	<-sig
	glog.Infoln("agency stopping")

	return s.Close()
}

func (c *Cmd) printStartupArgs() {
	fmt.Println(
		"State machine db path:", c.PsmDB,
		"\nMailbox db path:", c.MailboxDB,
		"\nPoll interval:", c.PollInterval,
		"\nWorkers:", c.Workers,
		"\nMetrics address:", c.MetricsAddr)
}

// ParseLoggingArgs parses the glog flags from the string.
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Split(s, " ")...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}
