package psm

import (
	"fmt"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
)

// Type is the current protocol step of a conversation.
type Type uint8

const (
	Unknown Type = iota
	CredentialOffer
	CredentialRequest
	IssueCredential
	ProofRequest
	Proof
)

func (t Type) String() string {
	switch t {
	case CredentialOffer:
		return "CredentialOffer"
	case CredentialRequest:
		return "CredentialRequest"
	case IssueCredential:
		return "IssueCredential"
	case ProofRequest:
		return "ProofRequest"
	case Proof:
		return "Proof"
	default:
		return "Unknown"
	}
}

// Category is the protocol family a conversation belongs to.
type Category uint8

const (
	NoCategory Category = iota
	CredentialExchange
	ProofExchange
)

func (c Category) String() string {
	switch c {
	case CredentialExchange:
		return "CredentialExchange"
	case ProofExchange:
		return "ProofExchange"
	default:
		return "None"
	}
}

func (t Type) Category() Category {
	switch t {
	case CredentialOffer, CredentialRequest, IssueCredential:
		return CredentialExchange
	case ProofRequest, Proof:
		return ProofExchange
	default:
		return NoCategory
	}
}

// Role is a protocol role in the current conversation.
type Role uint8

const (
	NoRole Role = iota
	Issuer
	Holder
	Verifier
	Prover
)

func (r Role) String() string {
	switch r {
	case Issuer:
		return "Issuer"
	case Holder:
		return "Holder"
	case Verifier:
		return "Verifier"
	case Prover:
		return "Prover"
	default:
		return "NoRole"
	}
}

// sequences are the fixed type orders of the categories. A conversation's
// observed types are always a prefix of its category's sequence.
var sequences = map[Category][]Type{
	CredentialExchange: {CredentialOffer, CredentialRequest, IssueCredential},
	ProofExchange:      {ProofRequest, Proof},
}

// NextType returns the type which follows t in category c.
func NextType(c Category, t Type) (next Type, ok bool) {
	seq := sequences[c]
	for i, st := range seq {
		if st == t && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return Unknown, false
}

// Sequence returns the type order of the category.
func Sequence(c Category) []Type {
	return append([]Type(nil), sequences[c]...)
}

// FollowsSequence tells if the observed types are a legal walk of the
// category's sequence. Each side observes only its own subset of the steps,
// and polling observes the same type many times, but the order never goes
// backwards.
func FollowsSequence(c Category, observed []Type) bool {
	seq := sequences[c]
	pos := -1
	for _, t := range observed {
		i := indexOf(seq, t)
		if i < 0 || i < pos {
			return false
		}
		pos = i
	}
	return true
}

func indexOf(seq []Type, t Type) int {
	for i, st := range seq {
		if st == t {
			return i
		}
	}
	return -1
}

// StepKey selects the transition rule: what our role is and which step we
// are waiting in.
type StepKey struct {
	Role Role
	Type Type
}

func (k StepKey) String() string {
	return fmt.Sprintf("%s/%s", k.Role, k.Type)
}

// Step is a transition rule. When a message of Awaits type arrives to a
// conversation in the StepKey state, the action of the step is run, and the
// conversation moves to Next. Final steps end the conversation Accepted.
type Step struct {
	Awaits string // message type
	Next   Type
	Final  bool
}

// Steps is the transition table of all the conversation protocols. Only the
// roles which wait a reply have rows. Other states wait for a local send
// operation like a credential request.
var Steps = map[StepKey]Step{
	{Issuer, CredentialOffer}:   {Awaits: pltype.IssueCredentialRequest, Next: IssueCredential},
	{Issuer, IssueCredential}:   {Awaits: pltype.IssueCredentialACK, Next: IssueCredential, Final: true},
	{Holder, CredentialRequest}: {Awaits: pltype.IssueCredentialIssue, Next: IssueCredential, Final: true},
	{Verifier, ProofRequest}:    {Awaits: pltype.PresentProofPresentation, Next: Proof, Final: true},
	{Prover, Proof}:             {Awaits: pltype.PresentProofACK, Next: Proof, Final: true},
}

// StepFor returns the transition rule for the conversation's current state.
func StepFor(c *Conversation) (Step, bool) {
	s, ok := Steps[StepKey{Role: c.Role, Type: c.Type}]
	return s, ok
}

// Opener returns the conversation type and our role for a thread opening
// message, e.g. the one who receives the credential offer is the holder.
func Opener(msgType string) (Type, Role, bool) {
	switch msgType {
	case pltype.IssueCredentialOffer:
		return CredentialOffer, Holder, true
	case pltype.PresentProofRequest:
		return ProofRequest, Prover, true
	default:
		return Unknown, NoRole, false
	}
}

// Known tells if the message type belongs to any of the conversation
// protocols we run.
func Known(msgType string) bool {
	switch msgType {
	case pltype.IssueCredentialOffer, pltype.IssueCredentialRequest,
		pltype.IssueCredentialIssue, pltype.IssueCredentialACK,
		pltype.PresentProofRequest, pltype.PresentProofPresentation,
		pltype.PresentProofACK, pltype.NotificationProblemReport:
		return true
	}
	return false
}

// LocalSteps are the states which wait for our own send operation instead of
// a message. The value is the type the send moves the conversation to.
var LocalSteps = map[StepKey]Type{
	{Holder, CredentialOffer}: CredentialRequest,
	{Prover, ProofRequest}:    Proof,
}

// OutboundOpener returns the message type and our role for the conversation
// we start by sending the opening message of the type.
func OutboundOpener(t Type) (msgType string, role Role, ok bool) {
	switch t {
	case CredentialOffer:
		return pltype.IssueCredentialOffer, Issuer, true
	case ProofRequest:
		return pltype.PresentProofRequest, Verifier, true
	default:
		return "", NoRole, false
	}
}

// WireType returns the message type which carries the conversation type.
func WireType(t Type) string {
	switch t {
	case CredentialOffer:
		return pltype.IssueCredentialOffer
	case CredentialRequest:
		return pltype.IssueCredentialRequest
	case IssueCredential:
		return pltype.IssueCredentialIssue
	case ProofRequest:
		return pltype.PresentProofRequest
	case Proof:
		return pltype.PresentProofPresentation
	default:
		return ""
	}
}
