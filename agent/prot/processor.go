package prot

import (
	"context"
	"sync"

	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/golang/glog"
)

// Exchange is the working data of one protocol step: the conversation and
// the inbound message which moved it.
type Exchange struct {
	Gateway ssi.Gateway
	Policy  Policy
	Conn    *psm.Connection
	Conv    *psm.Conversation
	In      *ssi.Message
}

// Handle returns the connection handle of the exchange.
func (e *Exchange) Handle() ssi.Handle {
	return ssi.Handle{MyDID: e.Conn.MyDID, TheirDID: e.Conn.TheirDID}
}

// Reply sends the message to the conversation's thread. Transient gateway
// errors are retried according to the policy.
func (e *Exchange) Reply(ctx context.Context, msgType string, body []byte) (id string, err error) {
	msg := ssi.NewMessage(msgType, e.Conv.ThreadID, body)
	err = e.Policy.Retry(ctx, func() (err error) {
		id, err = e.Gateway.SendMessage(ctx, e.Conv.Wallet, e.Handle(), msg)
		return err
	})
	return id, err
}

// InOut is the handler of a transition. It processes the inbound message,
// sends the reply if the protocol has one, and updates the conversation
// payload. Returning false NACKs the step: the conversation is rejected and
// the other end gets a problem report.
type InOut func(ctx context.Context, e *Exchange) (ack bool, err error)

// Transition combines the step rule of the state table with its handler.
type Transition struct {
	psm.Step
	InOut
}

var processors = struct {
	sync.RWMutex
	handlers map[psm.StepKey]InOut
}{
	handlers: make(map[psm.StepKey]InOut),
}

// AddContinuator registers the handler for the step. The protocol packages
// call this in their init.
func AddContinuator(key psm.StepKey, h InOut) {
	processors.Lock()
	defer processors.Unlock()

	if _, ok := psm.Steps[key]; !ok {
		glog.Warningln("handler for step without rule:", key)
	}
	processors.handlers[key] = h
}

// TransitionFor returns the transition of the conversation's current state.
// Steps without a registered handler only move the conversation.
func TransitionFor(c *psm.Conversation) (t Transition, ok bool) {
	step, ok := psm.StepFor(c)
	if !ok {
		return t, false
	}
	processors.RLock()
	defer processors.RUnlock()

	return Transition{Step: step, InOut: processors.handlers[psm.StepKey{Role: c.Role, Type: c.Type}]}, true
}

// BodyCheck validates the body of the inbound message which opens a
// conversation.
type BodyCheck func(body []byte) error

var starters = struct {
	sync.RWMutex
	checks map[psm.Type]BodyCheck
}{
	checks: make(map[psm.Type]BodyCheck),
}

// AddStarter registers the body check of the conversations which the other
// end opens with the type.
func AddStarter(typ psm.Type, check BodyCheck) {
	starters.Lock()
	defer starters.Unlock()

	starters.checks[typ] = check
}

// CheckOpener validates the opener's body. Types without a check pass.
func CheckOpener(typ psm.Type, body []byte) error {
	starters.RLock()
	check := starters.checks[typ]
	starters.RUnlock()

	if check == nil {
		return nil
	}
	return check(body)
}
