package psm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/findy-network/findy-common-go/dto"
)

// StateKey is the primary key of every record in the store. Records are
// always owned by one wallet and the ID is unique inside the wallet.
type StateKey struct {
	Wallet string
	ID     string
}

func (key StateKey) Data() []byte {
	return []byte(key.Wallet + keySeparator + key.ID)
}

// keySeparator ends the wallet part of the store keys. Wallet names cannot
// have it, or one wallet's key prefix would match another wallet's records.
const keySeparator = "|"

// ErrInvalidWallet is returned for the wallet names which cannot own records.
var ErrInvalidWallet = errors.New("invalid wallet name")

// ValidWallet checks that the name can be used as a wallet name.
func ValidWallet(name string) error {
	if name == "" || strings.Contains(name, keySeparator) {
		return fmt.Errorf("%q: %w", name, ErrInvalidWallet)
	}
	return nil
}

func (key StateKey) String() string {
	return key.Wallet + "|" + key.ID
}

// ConnStatus is the life cycle state of the pairwise connection. The only
// transition allowed is Pending -> Active, and it happens once.
type ConnStatus uint8

const (
	ConnPending ConnStatus = iota
	ConnActive
	ConnFailed
)

func (s ConnStatus) String() string {
	switch s {
	case ConnPending:
		return "Pending"
	case ConnActive:
		return "Active"
	case ConnFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ConnStatus(%d)", uint8(s))
	}
}

// ConnRole tells which end of the handshake we were.
type ConnRole uint8

const (
	Inviter ConnRole = iota
	Invitee
)

func (r ConnRole) String() string {
	if r == Inviter {
		return "Inviter"
	}
	return "Invitee"
}

// Connection is our side's record of a pairwise relationship. The other end
// has its own record which is correlated to ours only by the invitation ID.
type Connection struct {
	StateKey

	CounterParty string // email, org name, anything the caller identifies them with
	InvitationID string
	Invitation   []byte // the invitation JSON as it was sent or received

	MyDID    string
	TheirDID string // empty until the confirmation arrives to the inviter

	Role    ConnRole
	Status  ConnStatus
	Created int64
	Updated int64
}

func NewConnection(d []byte) *Connection {
	c := &Connection{}
	dto.FromGOB(d, c)
	return c
}

func (c *Connection) Data() []byte {
	return dto.ToGOB(c)
}

func (c *Connection) IsActive() bool {
	return c.Status == ConnActive
}

// Activate moves Pending connection to Active. It returns false if the
// transition isn't allowed, i.e. connection was already Active or it Failed.
func (c *Connection) Activate(theirDID string) bool {
	if c.Status != ConnPending {
		return false
	}
	if theirDID != "" {
		c.TheirDID = theirDID
	}
	c.Status = ConnActive
	c.Updated = time.Now().UnixNano()
	return true
}

// Status is the status of a conversation.
type Status uint8

const (
	Pending Status = iota
	Accepted
	Rejected
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Accepted:
		return "Accepted"
	case Rejected:
		return "Rejected"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// IsFinal tells if nothing can move the conversation anymore.
func (s Status) IsFinal() bool {
	return s != Pending
}

// Conversation is our side's record of one protocol exchange thread. The
// Type is the current protocol step, and it changes when the protocol
// advances.
type Conversation struct {
	StateKey

	ConnectionID string
	Type         Type
	Role         Role
	Status       Status

	// ThreadID is the ID of the first message of the thread. Both ends know
	// it, and it's carried in every message of the protocol.
	ThreadID      string
	LastMessageID string

	Payload []byte // protocol specific JSON of the last step
	Tag     string
	Name    string

	Created int64
	Updated int64
}

func NewConversation(d []byte) *Conversation {
	c := &Conversation{}
	dto.FromGOB(d, c)
	return c
}

func (c *Conversation) Data() []byte {
	return dto.ToGOB(c)
}

func (c *Conversation) Category() Category {
	return c.Type.Category()
}

// Identity is an actor owning exactly one wallet.
type Identity struct {
	Name    string
	Wallet  string
	Created int64
}

func NewIdentity(d []byte) *Identity {
	i := &Identity{}
	dto.FromGOB(d, i)
	return i
}

func (i *Identity) Data() []byte {
	return dto.ToGOB(i)
}

// Retained is an inbound message we couldn't classify. It's kept as is for
// the operator to inspect.
type Retained struct {
	StateKey

	ConnectionID string
	Type         string
	Raw          []byte
	Reason       string
	Timestamp    int64
}

func NewRetained(d []byte) *Retained {
	r := &Retained{}
	dto.FromGOB(d, r)
	return r
}

func (r *Retained) Data() []byte {
	return dto.ToGOB(r)
}
