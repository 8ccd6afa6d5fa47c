// Package data has the message bodies of the issue credential protocol.
package data

import (
	"encoding/json"
	"errors"
)

// Offer is the body of the credential offer. It's also the payload of the
// conversation on both ends until the credential is requested.
type Offer struct {
	CredDefID  string            `json:"cred_def_id"`
	Attributes map[string]string `json:"attributes"`
	Comment    string            `json:"comment,omitempty"`
}

// Request is the holder's answer to the offer.
type Request struct {
	CredDefID string `json:"cred_def_id"`
}

// Issue carries the credential blob from the issuer's wallet.
type Issue struct {
	Credential []byte `json:"credential"`
}

// Ack ends the protocol.
type Ack struct {
	Status string `json:"status"`
}

const StatusOK = "OK"

var errNoCredDef = errors.New("offer has no credential definition")

func ParseOffer(d []byte) (o *Offer, err error) {
	o = new(Offer)
	if err = json.Unmarshal(d, o); err != nil {
		return nil, err
	}
	if o.CredDefID == "" {
		return nil, errNoCredDef
	}
	return o, nil
}

func ParseRequest(d []byte) (r *Request, err error) {
	r = new(Request)
	return r, json.Unmarshal(d, r)
}

func ParseIssue(d []byte) (i *Issue, err error) {
	i = new(Issue)
	return i, json.Unmarshal(d, i)
}

func ParseAck(d []byte) (a *Ack, err error) {
	a = new(Ack)
	return a, json.Unmarshal(d, a)
}

// JSON marshals the body. The bodies have only marshalable fields.
func JSON(v any) []byte {
	d, _ := json.Marshal(v)
	return d
}
