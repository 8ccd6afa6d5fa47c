package connection

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrInvalidInvitation is returned when the invitation cannot be accepted.
var ErrInvalidInvitation = errors.New("invalid invitation")

// Invitation is the out-of-band message the inviter gives to the invitee.
// Its ID correlates the connection records of both ends.
type Invitation struct {
	Type         string `json:"@type"`
	ID           string `json:"@id"`
	Label        string `json:"label,omitempty"`
	RecipientDID string `json:"recipientDID"`
}

// Confirm is the body of the invitee's confirmation. It's threaded by the
// invitation ID and sent from the invitee's pairwise DID.
type Confirm struct {
	Label string `json:"label,omitempty"`
}

func NewInvitation(label, recipientDID string) *Invitation {
	return &Invitation{
		Type:         pltype.ConnectionInvitation,
		ID:           utils.UUID(),
		Label:        label,
		RecipientDID: recipientDID,
	}
}

// ParseInvitation parses and validates the invitation JSON.
func ParseInvitation(d []byte) (inv *Invitation, err error) {
	defer err2.Handle(&err, "parse invitation")

	inv = new(Invitation)
	try.To(json.Unmarshal(d, inv))
	try.To(inv.Validate())
	return inv, nil
}

func (inv *Invitation) Validate() error {
	if inv.ID == "" {
		return fmt.Errorf("%w: no ID", ErrInvalidInvitation)
	}
	if !utils.ValidDID(inv.RecipientDID) {
		return fmt.Errorf("%w: recipient DID %q", ErrInvalidInvitation, inv.RecipientDID)
	}
	return nil
}

func (inv *Invitation) JSON() []byte {
	d, _ := json.Marshal(inv)
	return d
}
