//go:generate mockgen -destination=mock_ssi/gateway.go github.com/findy-network/findy-conversation-agent/agent/ssi Gateway

// Package ssi is the wallet gateway of the agent. The core uses the Gateway
// interface for everything which needs wallet keys: pairwise DIDs, message
// transport, credentials and proofs. The package also implements a local
// store-and-forward Mailbox for running the agent without external wallets.
package ssi

import (
	"context"
	"errors"

	"github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/decorator"
)

var (
	// ErrWalletUnavailable is a transient error. The operation can be
	// retried later.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrEncryptionFailure is fatal to the current send. The message cannot
	// be sealed to the recipient.
	ErrEncryptionFailure = errors.New("encryption failure")

	// ErrNoCredential is returned when the wallet has no credential which
	// could answer a proof request.
	ErrNoCredential = errors.New("no matching credential")
)

// Status codes of the DeleteWallet.
const (
	DeleteOK = iota
	DeleteUnknownWallet
	DeleteBadPassphrase
	DeleteUnavailable
	DeleteHasRecords
)

// Handle is the connection handle: our pairwise DID and theirs. TheirDID is
// empty until the other end has confirmed the invitation.
type Handle struct {
	MyDID    string
	TheirDID string
}

// Message is the transport envelope. The gateway assigns ID, From, To and
// Timestamp when the message is sent.
type Message struct {
	ID        string
	Type      string
	Thread    *decorator.Thread
	From      string
	To        string
	Body      []byte
	Timestamp int64
}

// ThreadID returns the ID of the thread the message belongs to. A message
// without thread decorator opens a new thread by its own ID.
func (m *Message) ThreadID() string {
	if m.Thread != nil && m.Thread.ID != "" {
		return m.Thread.ID
	}
	return m.ID
}

// NewMessage returns a message of the type which continues the thread. An
// empty thread ID builds a thread opener.
func NewMessage(msgType, threadID string, body []byte) *Message {
	m := &Message{Type: msgType, Body: body}
	if threadID != "" {
		m.Thread = &decorator.Thread{ID: threadID}
	}
	return m
}

// Credential is a credential materialized in the holder's wallet.
type Credential struct {
	ID         string
	CredDefID  string
	Issuer     string
	Attributes map[string]string
}

// Gateway is the capability contract the agent core consumes from the
// wallets. Implementations must be safe for concurrent use.
type Gateway interface {
	CreateWallet(name, passphrase string) error
	DeleteWallet(name, passphrase string) int
	NewDID(ctx context.Context, wallet string) (string, error)

	SendMessage(ctx context.Context, wallet string, h Handle, msg *Message) (string, error)
	FetchNewMessages(ctx context.Context, wallet string, h Handle) ([]*Message, error)
	AcknowledgeMessage(ctx context.Context, wallet, msgID string) error

	IssueCredential(ctx context.Context, wallet, credDefID string, attrs map[string]string) ([]byte, error)
	MaterializeCredential(ctx context.Context, wallet string, blob []byte) error
	Credentials(ctx context.Context, wallet string) ([]Credential, error)

	CreateProof(ctx context.Context, wallet string, request []byte) ([]byte, error)
	VerifyProof(ctx context.Context, wallet string, request, proof []byte) (bool, error)
}
