package ssi

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"golang.org/x/crypto/bcrypt"
)

var (
	mbox    *Mailbox
	tempDir string
	ctx     = context.Background()
)

func TestMain(m *testing.M) {
	setUp()
	code := m.Run()
	tearDown()
	os.Exit(code)
}

func setUp() {
	defer err2.Catch(err2.Err(func(err error) {
		fmt.Println("error on setup", err)
	}))

	// We don't want logs on file with tests
	try.To(flag.Set("logtostderr", "true"))

	tempDir = try.To1(os.MkdirTemp("", "mailbox"))
	mbox = try.To1(OpenMailbox(filepath.Join(tempDir, "mailbox.bolt")))
	mbox.SetCost(bcrypt.MinCost)
}

func tearDown() {
	_ = mbox.Close()
	os.RemoveAll(tempDir)
}

// pair creates two wallets with a DID each and returns their handles.
func pair(t *testing.T, a, b string) (ha, hb Handle) {
	t.Helper()
	assert.NoError(mbox.CreateWallet(a, a+"-key"))
	assert.NoError(mbox.CreateWallet(b, b+"-key"))
	didA, err := mbox.NewDID(ctx, a)
	assert.NoError(err)
	didB, err := mbox.NewDID(ctx, b)
	assert.NoError(err)
	return Handle{MyDID: didA, TheirDID: didB}, Handle{MyDID: didB, TheirDID: didA}
}

func TestMailbox_SendFetchAck(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ha, hb := pair(t, "alice-1", "bob-1")

	id1, err := mbox.SendMessage(ctx, "alice-1", ha, NewMessage("test/1.0/one", "", []byte("1")))
	assert.NoError(err)
	id2, err := mbox.SendMessage(ctx, "alice-1", ha, NewMessage("test/1.0/two", id1, []byte("2")))
	assert.NoError(err)

	msgs, err := mbox.FetchNewMessages(ctx, "bob-1", hb)
	assert.NoError(err)
	assert.SLen(msgs, 2)
	assert.Equal(msgs[0].ID, id1)
	assert.Equal(msgs[0].ThreadID(), id1)
	assert.Equal(msgs[1].ThreadID(), id1)
	assert.Equal(msgs[1].From, ha.MyDID)
	assert.Equal(string(msgs[1].Body), "2")

	// not acknowledged yet, so they are delivered again
	msgs, err = mbox.FetchNewMessages(ctx, "bob-1", hb)
	assert.NoError(err)
	assert.SLen(msgs, 2)

	assert.NoError(mbox.AcknowledgeMessage(ctx, "bob-1", id1))
	msgs, err = mbox.FetchNewMessages(ctx, "bob-1", hb)
	assert.NoError(err)
	assert.SLen(msgs, 1)
	assert.Equal(msgs[0].ID, id2)

	// alice cannot consume bob's messages
	assert.Error(mbox.AcknowledgeMessage(ctx, "alice-1", id2))

	msgs, err = mbox.FetchNewMessages(ctx, "alice-1", ha)
	assert.NoError(err)
	assert.SLen(msgs, 0)
}

func TestMailbox_Errors(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ha, _ := pair(t, "alice-2", "bob-2")

	_, err := mbox.SendMessage(ctx, "alice-2", Handle{MyDID: ha.MyDID},
		NewMessage("test/1.0/x", "", nil))
	assert.That(errors.Is(err, ErrEncryptionFailure))

	_, err = mbox.SendMessage(ctx, "alice-2", Handle{MyDID: ha.MyDID, TheirDID: "unknownDID"},
		NewMessage("test/1.0/x", "", nil))
	assert.That(errors.Is(err, ErrEncryptionFailure))

	_, err = mbox.FetchNewMessages(ctx, "nobody", ha)
	assert.That(errors.Is(err, ErrWalletUnavailable))
	assert.That(IsTransient(err))

	_, err = mbox.NewDID(ctx, "nobody")
	assert.That(errors.Is(err, ErrWalletUnavailable))
}

func TestMailbox_Credentials(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pair(t, "issuer-3", "holder-3")
	attrs := map[string]string{"name": "Joe Smith", "degree": "B.A.Sc. Honours"}

	blob, err := mbox.IssueCredential(ctx, "issuer-3", "cred-def-1", attrs)
	assert.NoError(err)

	cs, err := mbox.Credentials(ctx, "holder-3")
	assert.NoError(err)
	assert.SLen(cs, 0)

	assert.NoError(mbox.MaterializeCredential(ctx, "holder-3", blob))
	assert.NoError(mbox.MaterializeCredential(ctx, "holder-3", blob))

	cs, err = mbox.Credentials(ctx, "holder-3")
	assert.NoError(err)
	assert.SLen(cs, 1)
	assert.DeepEqual(cs[0].Attributes, attrs)
	assert.Equal(cs[0].Issuer, "issuer-3")

	assert.Error(mbox.MaterializeCredential(ctx, "holder-3", []byte("forged")))
}

func TestMailbox_Proof(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pair(t, "verifier-4", "prover-4")
	blob, err := mbox.IssueCredential(ctx, "verifier-4", "cred-def-4",
		map[string]string{"name": "Joe Smith", "age": "42"})
	assert.NoError(err)
	assert.NoError(mbox.MaterializeCredential(ctx, "prover-4", blob))

	req, _ := json.Marshal(ProofRequest{Nonce: "n-1", Attributes: []string{"name"}})
	proof, err := mbox.CreateProof(ctx, "prover-4", req)
	assert.NoError(err)

	ok, err := mbox.VerifyProof(ctx, "verifier-4", req, proof)
	assert.NoError(err)
	assert.That(ok)

	var p Proof
	assert.NoError(json.Unmarshal(proof, &p))
	p.Values["name"] = "Jane Doe"
	forged, _ := json.Marshal(p)
	ok, err = mbox.VerifyProof(ctx, "verifier-4", req, forged)
	assert.NoError(err)
	assert.That(!ok)

	other, _ := json.Marshal(ProofRequest{Nonce: "n-2", Attributes: []string{"name"}})
	ok, err = mbox.VerifyProof(ctx, "verifier-4", other, proof)
	assert.NoError(err)
	assert.That(!ok)

	missing, _ := json.Marshal(ProofRequest{Nonce: "n-3", Attributes: []string{"degree"}})
	_, err = mbox.CreateProof(ctx, "prover-4", missing)
	assert.That(errors.Is(err, ErrNoCredential))
}

func TestMailbox_DeleteWallet(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ha, _ := pair(t, "alice-5", "bob-5")
	_, err := mbox.SendMessage(ctx, "alice-5", ha, NewMessage("test/1.0/x", "", nil))
	assert.NoError(err)

	assert.Equal(mbox.DeleteWallet("nobody", "x"), DeleteUnknownWallet)
	assert.Equal(mbox.DeleteWallet("bob-5", "wrong"), DeleteBadPassphrase)
	assert.Equal(mbox.DeleteWallet("bob-5", "bob-5-key"), DeleteOK)
	assert.Equal(mbox.DeleteWallet("bob-5", "bob-5-key"), DeleteUnknownWallet)

	// recipient is gone
	_, err = mbox.SendMessage(ctx, "alice-5", ha, NewMessage("test/1.0/x", "", nil))
	assert.That(errors.Is(err, ErrEncryptionFailure))
}

func TestMailbox_CloseWhileFetching(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	m, err := OpenMailbox(filepath.Join(tempDir, "closing.bolt"))
	assert.NoError(err)
	m.SetCost(bcrypt.MinCost)
	assert.NoError(m.CreateWallet("carol", "carol-key"))
	did, err := m.NewDID(ctx, "carol")
	assert.NoError(err)
	h := Handle{MyDID: did, TheirDID: did}

	const workers = 8
	errs := make(chan error, workers*20)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := m.FetchNewMessages(ctx, "carol", h)
				errs <- err
			}
		}()
	}
	assert.NoError(m.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.That(err == nil || errors.Is(err, ErrWalletUnavailable), "fetch: %v", err)
	}
	_, err = m.FetchNewMessages(ctx, "carol", h)
	assert.That(errors.Is(err, ErrWalletUnavailable))
	assert.Equal(m.DeleteWallet("carol", "carol-key"), DeleteUnavailable)
	assert.NoError(m.Close())
}
