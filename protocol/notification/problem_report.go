// Package notification has the problem report which ends a conversation
// thread for both ends.
package notification

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ProblemReport is the body of the problem report message.
type ProblemReport struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
}

const (
	CodeRejected = "rejected"
	CodeNACK     = "nack"
)

// Send sends the problem report to the exchange's thread.
func Send(ctx context.Context, e *prot.Exchange, code, description string) (err error) {
	defer err2.Handle(&err, "problem report")

	body := try.To1(json.Marshal(ProblemReport{Code: code, Description: description}))
	try.To1(e.Reply(ctx, pltype.NotificationProblemReport, body))
	return nil
}

// Parse returns the problem report of the message body. Unparseable bodies
// are returned as the description.
func Parse(body []byte) ProblemReport {
	var pr ProblemReport
	if err := json.Unmarshal(body, &pr); err != nil {
		return ProblemReport{Description: string(body)}
	}
	return pr
}
