// Package agency is the outbound protocol driver of the agent. It ties the
// wallet gateway, the inbox dispatcher, the connection registry and the
// conversation ledger together, and offers the operations of the protocols
// by record IDs.
//
// All the waits are bounded polls. A poll which runs out of attempts returns
// reached == false and nil error, and the records stay as they were.
package agency

import (
	"context"

	"github.com/findy-network/findy-conversation-agent/agent/inbox"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/protocol/connection"
	"github.com/findy-network/findy-conversation-agent/protocol/conversation"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential"
	"github.com/findy-network/findy-conversation-agent/protocol/issuecredential/data"
	"github.com/findy-network/findy-conversation-agent/protocol/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Agency struct {
	db     *psm.DB
	gw     ssi.Gateway
	policy prot.Policy

	workers int
	closers []func() error

	inbox         *inbox.Dispatcher
	Connections   *connection.Registry
	Conversations *conversation.Ledger
}

// Config is the configuration of Open.
type Config struct {
	PsmDB     string
	MailboxDB string
	Policy    prot.Policy
	Workers   int
}

// Open opens the databases and returns the agency which runs on the local
// mailbox gateway.
func Open(cfg Config) (a *Agency, err error) {
	defer err2.Handle(&err, "open agency")

	db := try.To1(psm.Open(cfg.PsmDB))
	mbox, err := ssi.OpenMailbox(cfg.MailboxDB)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a = New(db, mbox, cfg.Policy)
	a.SetWorkers(cfg.Workers)
	a.closers = append(a.closers, mbox.Close, db.Close)
	return a, nil
}

// New returns the agency on the store and the gateway. The policy is used
// for the gateway retries inside the operations.
func New(db *psm.DB, gw ssi.Gateway, policy prot.Policy) *Agency {
	d := inbox.New(db, gw)
	return &Agency{
		db:            db,
		gw:            gw,
		policy:        policy,
		workers:       1,
		inbox:         d,
		Connections:   connection.NewRegistry(db, gw, d, policy),
		Conversations: conversation.NewLedger(db, gw, d, policy),
	}
}

// SetWorkers sets how many connections PollAll polls in parallel.
func (a *Agency) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	a.workers = n
}

// Close closes what Open opened.
func (a *Agency) Close() (err error) {
	for _, c := range a.closers {
		if cerr := c(); cerr != nil {
			glog.Warningln("close:", cerr)
			err = cerr
		}
	}
	a.closers = nil
	return err
}

func (a *Agency) Gateway() ssi.Gateway {
	return a.gw
}

func (a *Agency) Policy() prot.Policy {
	return a.policy
}

// SendInvitation creates the invitation for the counterparty. The invitation
// JSON is in the returned connection.
func (a *Agency) SendInvitation(ctx context.Context, wallet, counterParty string) (*psm.Connection, error) {
	return a.Connections.CreateInvitation(ctx, wallet, counterParty)
}

// SendConfirmation accepts the invitation and confirms it to the inviter.
func (a *Agency) SendConfirmation(ctx context.Context, wallet, counterParty string, invitation []byte) (*psm.Connection, error) {
	return a.Connections.AcceptInvitation(ctx, wallet, counterParty, invitation)
}

func (a *Agency) RefreshConnection(ctx context.Context, wallet, connID string) (*psm.Connection, error) {
	return a.Connections.RefreshStatus(ctx, wallet, connID)
}

func (a *Agency) SendCredentialOffer(ctx context.Context, wallet, connID, credDefID string, attrs map[string]string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conn := try.To1(a.Connections.Get(wallet, connID))
	return issuecredential.SendOffer(ctx, a.Conversations, wallet, conn,
		data.Offer{CredDefID: credDefID, Attributes: attrs})
}

func (a *Agency) SendCredentialRequest(ctx context.Context, wallet, convID string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conv, conn := try.To2(a.conversation(wallet, convID))
	return issuecredential.SendRequest(ctx, a.Conversations, wallet, conn, conv)
}

func (a *Agency) SendProofRequest(ctx context.Context, wallet, connID, credDefID string, attrs []string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conn := try.To1(a.Connections.Get(wallet, connID))
	return presentproof.SendRequest(ctx, a.Conversations, wallet, conn, credDefID, attrs)
}

func (a *Agency) SendProof(ctx context.Context, wallet, convID string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conv, conn := try.To2(a.conversation(wallet, convID))
	return presentproof.SendPresentation(ctx, a.Conversations, a.gw, wallet, conn, conv)
}

func (a *Agency) Reject(ctx context.Context, wallet, convID, reason string) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conv, conn := try.To2(a.conversation(wallet, convID))
	return a.Conversations.Reject(ctx, wallet, conn, conv, reason)
}

// Advance runs one poll step of the conversation.
func (a *Agency) Advance(ctx context.Context, wallet, convID string, policy prot.Policy) (c *psm.Conversation, err error) {
	defer err2.Handle(&err)

	conv, conn := try.To2(a.conversation(wallet, convID))
	return a.Conversations.Advance(ctx, wallet, conn, conv, policy)
}

// HandleInbound processes the connection's new messages and returns their
// count.
func (a *Agency) HandleInbound(ctx context.Context, wallet, connID string, policy prot.Policy) (n int, err error) {
	defer err2.Handle(&err)

	conn := try.To1(a.Connections.Get(wallet, connID))
	return a.inbox.Handle(ctx, conn, policy)
}

func (a *Agency) Credentials(ctx context.Context, wallet string) ([]ssi.Credential, error) {
	return a.gw.Credentials(ctx, wallet)
}

func (a *Agency) conversation(wallet, convID string) (conv *psm.Conversation, conn *psm.Connection, err error) {
	defer err2.Handle(&err)

	conv = try.To1(a.Conversations.Get(wallet, convID))
	conn = try.To1(a.Connections.Get(wallet, conv.ConnectionID))
	return conv, conn, nil
}
