// Package inbox drains the wallet gateway's message queue of a connection and
// routes every message to the protocol handler of its family.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/findy-network/findy-conversation-agent/agent/metrics"
	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Handler processes one inbound message of the connection. Handlers which
// run conversations return the conversation the message touched.
type Handler interface {
	HandleInbound(ctx context.Context, conn *psm.Connection, msg *ssi.Message) (*psm.Conversation, error)
}

// HandlerFunc is an adapter to use functions as Handlers.
type HandlerFunc func(ctx context.Context, conn *psm.Connection, msg *ssi.Message) (*psm.Conversation, error)

func (f HandlerFunc) HandleInbound(ctx context.Context, conn *psm.Connection, msg *ssi.Message) (*psm.Conversation, error) {
	return f(ctx, conn, msg)
}

// UnknownFunc records the message which no protocol accepts, i.e. retains it
// and fails a conversation for it. It returns prot.ErrUnknownProtocolMessage.
type UnknownFunc func(ctx context.Context, conn *psm.Connection, msg *ssi.Message, reason string) (*psm.Conversation, error)

// Result is the outcome of one newly handled message.
type Result struct {
	MessageID    string
	Type         string
	Conversation *psm.Conversation
	Err          error
}

// Dispatcher is the only consumer of the gateway's inbound queues. It
// processes messages in delivery order, and it never processes the same
// message twice for the connection.
type Dispatcher struct {
	db *psm.DB
	gw ssi.Gateway

	lk       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
	unknown  UnknownFunc

	drains prot.Locker
}

func New(db *psm.DB, gw ssi.Gateway) *Dispatcher {
	return &Dispatcher{
		db:       db,
		gw:       gw,
		handlers: make(map[string]Handler),
	}
}

// Add sets the handler of the protocol family.
func (d *Dispatcher) Add(family string, h Handler) {
	d.lk.Lock()
	defer d.lk.Unlock()
	d.handlers[family] = h
}

// SetFallback sets the handler of the messages which family has no handler.
func (d *Dispatcher) SetFallback(h Handler) {
	d.lk.Lock()
	defer d.lk.Unlock()
	d.fallback = h
}

// SetUnknown sets the recorder of the messages which no protocol accepts.
func (d *Dispatcher) SetUnknown(f UnknownFunc) {
	d.lk.Lock()
	defer d.lk.Unlock()
	d.unknown = f
}

// Unknown records the message which no protocol accepts. Without a recorder
// the message is only retained.
func (d *Dispatcher) Unknown(ctx context.Context, conn *psm.Connection, msg *ssi.Message, reason string) (*psm.Conversation, error) {
	d.lk.RLock()
	f := d.unknown
	d.lk.RUnlock()

	if f != nil {
		return f(ctx, conn, msg, reason)
	}
	if err := prot.Retain(d.db, conn, msg, reason); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", reason, prot.ErrUnknownProtocolMessage)
}

func (d *Dispatcher) handler(family string) Handler {
	d.lk.RLock()
	defer d.lk.RUnlock()

	if h, ok := d.handlers[family]; ok {
		return h
	}
	return d.fallback
}

// Handle drains the connection and returns the count of newly handled
// messages. Zero is a valid result.
func (d *Dispatcher) Handle(ctx context.Context, conn *psm.Connection, policy prot.Policy) (count int, err error) {
	results, err := d.Drain(ctx, conn, policy)
	return len(results), err
}

// Drain fetches the connection's new messages and processes them in order.
// Protocol errors are reported in the results and the batch continues. A
// transient error stops the batch and is returned with the results so far;
// the remaining messages stay in the queue.
func (d *Dispatcher) Drain(ctx context.Context, conn *psm.Connection, policy prot.Policy) (results []Result, err error) {
	defer err2.Handle(&err, "drain %s", conn.StateKey)

	unlock := d.drains.Lock(conn.StateKey.String())
	defer unlock()

	// handlers may have updated the handle since the caller read it
	conn = try.To1(d.db.GetConnection(conn.StateKey))
	handle := ssi.Handle{MyDID: conn.MyDID, TheirDID: conn.TheirDID}

	var msgs []*ssi.Message
	try.To(policy.Retry(ctx, func() (err error) {
		msgs, err = d.gw.FetchNewMessages(ctx, conn.Wallet, handle)
		return err
	}))
	glog.V(3).Infof("%s: %d messages fetched", conn.StateKey, len(msgs))

	for _, msg := range msgs {
		family := pltype.ProtocolForType(msg.Type)
		handled, err := d.db.IsHandled(conn.Wallet, conn.ID, msg.ID)
		if err != nil {
			return results, err
		}
		if handled {
			glog.Warningln("skipping already handled message:", msg.ID)
			metrics.Inbound(family, metrics.ResultDuplicate)
			d.ack(ctx, conn.Wallet, msg.ID, policy)
			continue
		}

		r := Result{MessageID: msg.ID, Type: msg.Type}
		if h := d.handler(family); h != nil {
			r.Conversation, r.Err = h.HandleInbound(ctx, conn, msg)
		} else {
			r.Conversation, r.Err = d.Unknown(ctx, conn, msg, "no handler for "+family)
		}
		if r.Err != nil && ssi.IsTransient(r.Err) {
			glog.Warningf("%s: message %s left to queue: %v",
				conn.StateKey, msg.ID, r.Err)
			metrics.Inbound(family, metrics.ResultFailed)
			return results, r.Err
		}
		metrics.Inbound(family, result(r.Err))

		if err := d.db.MarkHandled(conn.Wallet, conn.ID, msg.ID); err != nil {
			return results, err
		}
		d.ack(ctx, conn.Wallet, msg.ID, policy)
		results = append(results, r)
	}
	return results, nil
}

// ack acknowledges the message. A failed ack only means the message is
// delivered again, and the handled marks skip it then.
func (d *Dispatcher) ack(ctx context.Context, wallet, msgID string, policy prot.Policy) {
	err := policy.Retry(ctx, func() error {
		return d.gw.AcknowledgeMessage(ctx, wallet, msgID)
	})
	if err != nil {
		glog.Warningln("ack:", err)
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultHandled
	case prot.IsProtocolError(err):
		if errors.Is(err, prot.ErrUnknownProtocolMessage) {
			return metrics.ResultUnknown
		}
		return metrics.ResultViolation
	default:
		return metrics.ResultFailed
	}
}
