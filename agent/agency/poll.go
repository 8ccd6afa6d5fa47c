package agency

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/metrics"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/sync/errgroup"
)

// Until is the condition the conversation poll waits for.
type Until func(c *psm.Conversation) bool

func UntilType(t psm.Type) Until {
	return func(c *psm.Conversation) bool { return c.Type == t }
}

func UntilStatus(s psm.Status) Until {
	return func(c *psm.Conversation) bool { return c.Status == s }
}

// AwaitConversation advances the conversation until the condition holds or
// the policy runs out of attempts. Transient gateway errors only use an
// attempt. A conversation which ended to other status stops the poll with
// reached == false. Protocol errors are returned.
func (a *Agency) AwaitConversation(ctx context.Context, wallet, convID string, policy prot.Policy, until Until) (c *psm.Conversation, reached bool, err error) {
	defer err2.Handle(&err, "await conversation %s", convID)

	c = try.To1(a.Conversations.Get(wallet, convID))
	if until(c) {
		return c, true, nil
	}
	ended := false
	reached, err = policy.Poll(ctx, func() (bool, error) {
		next, err := a.Advance(ctx, wallet, convID, prot.Once)
		if next != nil {
			c = next
		}
		switch {
		case err != nil && ssi.IsTransient(err):
			glog.V(3).Infoln("await conversation:", err)
			return false, nil
		case err != nil:
			return false, err
		}
		if until(c) {
			return true, nil
		}
		if c.Status.IsFinal() {
			ended = true
			return false, errEnded
		}
		return false, nil
	})
	if ended {
		return c, false, nil
	}
	return c, reached, err
}

var errEnded = errors.New("conversation ended")

// AwaitInbound polls the connection until it has new messages. It returns
// the count of the messages handled by the successful attempt.
func (a *Agency) AwaitInbound(ctx context.Context, wallet, connID string, policy prot.Policy) (n int, reached bool, err error) {
	defer err2.Handle(&err, "await inbound %s", connID)

	reached, err = policy.Poll(ctx, func() (bool, error) {
		count, err := a.HandleInbound(ctx, wallet, connID, prot.Once)
		n += count
		if err != nil && ssi.IsTransient(err) {
			glog.V(3).Infoln("await inbound:", err)
			return n > 0, nil
		}
		return n > 0, err
	})
	return n, reached, err
}

// AwaitConnection polls the connection until it's Active.
func (a *Agency) AwaitConnection(ctx context.Context, wallet, connID string, policy prot.Policy) (c *psm.Connection, reached bool, err error) {
	defer err2.Handle(&err, "await connection %s", connID)

	c = try.To1(a.Connections.Get(wallet, connID))
	if c.IsActive() {
		return c, true, nil
	}
	reached, err = policy.Poll(ctx, func() (bool, error) {
		next, err := a.RefreshConnection(ctx, wallet, connID)
		if next != nil {
			c = next
		}
		if err != nil && ssi.IsTransient(err) {
			glog.V(3).Infoln("await connection:", err)
			return false, nil
		}
		return c.IsActive(), err
	})
	return c, reached, err
}

// PollAll processes the new messages of every active connection of every
// wallet. Connections are polled in parallel by the agency's workers. An
// error of one connection doesn't stop the others; the first error is
// returned with the total count.
func (a *Agency) PollAll(ctx context.Context) (count int, err error) {
	defer err2.Handle(&err, "poll all")
	defer metrics.ObservePoll(time.Now())

	conns := try.To1(a.db.AllConnections())

	var g errgroup.Group
	g.SetLimit(a.workers)

	var total, active atomic.Int64
	for _, c := range conns {
		if !c.IsActive() && !(c.Status == psm.ConnPending && c.Role == psm.Inviter) {
			continue
		}
		if c.IsActive() {
			active.Add(1)
		}
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := a.inbox.Handle(ctx, c, a.policy)
			total.Add(int64(n))
			if err != nil {
				glog.Warningf("%s: poll: %v", c.StateKey, err)
			}
			return err
		})
	}
	err = g.Wait()
	metrics.ActiveConnections.Set(float64(active.Load()))
	glog.V(2).Infof("poll round: %d connections, %d messages", len(conns), total.Load())
	return int(total.Load()), err
}
