package ssi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	bolt "go.etcd.io/bbolt"
)

// ProofRequest is what the verifier wants to see: the attributes and
// optionally the credential definition they must come from.
type ProofRequest struct {
	Nonce      string   `json:"nonce"`
	CredDefID  string   `json:"cred_def_id,omitempty"`
	Attributes []string `json:"attributes"`
}

// Proof carries the revealed attribute values and the sealed presentation
// which binds them to the request nonce.
type Proof struct {
	Nonce     string            `json:"nonce"`
	CredDefID string            `json:"cred_def_id"`
	Issuer    string            `json:"issuer"`
	Values    map[string]string `json:"values"`
	Sealed    []byte            `json:"sealed"`
}

// CreateProof finds the first credential of the wallet which has all of the
// requested attributes and builds a proof from it.
func (m *Mailbox) CreateProof(ctx context.Context, wallet string, request []byte) (_ []byte, err error) {
	defer err2.Handle(&err, "create proof")

	var req ProofRequest
	try.To(json.Unmarshal(request, &req))

	var found *Credential
	try.To(m.view(ctx, func(tx *bolt.Tx) error {
		if err := walletExists(tx, wallet); err != nil {
			return err
		}
		b := tx.Bucket(bucketCreds).Bucket([]byte(wallet))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if found != nil {
				return nil
			}
			c := &Credential{}
			dto.FromGOB(v, c)
			if c.answers(&req) {
				found = c
			}
			return nil
		})
	}))
	if found == nil {
		return nil, fmt.Errorf("wallet %s: %w", wallet, ErrNoCredential)
	}

	p := Proof{
		Nonce:     req.Nonce,
		CredDefID: found.CredDefID,
		Issuer:    found.Issuer,
		Values:    make(map[string]string, len(req.Attributes)),
	}
	for _, a := range req.Attributes {
		p.Values[a] = found.Attributes[a]
	}
	p.Sealed = try.To1(m.aead.Encrypt(try.To1(json.Marshal(p.Values)), []byte(req.Nonce)))
	return json.Marshal(p)
}

// VerifyProof checks that the proof answers the request and that the values
// weren't changed after the proof was sealed.
func (m *Mailbox) VerifyProof(ctx context.Context, wallet string, request, proof []byte) (ok bool, err error) {
	defer err2.Handle(&err, "verify proof")

	try.To(m.view(ctx, func(tx *bolt.Tx) error {
		return walletExists(tx, wallet)
	}))

	var req ProofRequest
	try.To(json.Unmarshal(request, &req))
	var p Proof
	try.To(json.Unmarshal(proof, &p))

	if p.Nonce != req.Nonce {
		glog.Warningln("proof nonce mismatch")
		return false, nil
	}
	if req.CredDefID != "" && p.CredDefID != req.CredDefID {
		return false, nil
	}
	pt, err := m.aead.Decrypt(p.Sealed, []byte(req.Nonce))
	if err != nil {
		glog.Warningln("proof seal:", err)
		return false, nil
	}
	var sealed map[string]string
	try.To(json.Unmarshal(pt, &sealed))
	for _, a := range req.Attributes {
		v, found := p.Values[a]
		if !found || sealed[a] != v {
			return false, nil
		}
	}
	return true, nil
}

func (c *Credential) answers(req *ProofRequest) bool {
	if req.CredDefID != "" && req.CredDefID != c.CredDefID {
		return false
	}
	for _, a := range req.Attributes {
		if _, ok := c.Attributes[a]; !ok {
			return false
		}
	}
	return true
}
