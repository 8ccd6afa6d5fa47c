package conversation

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/inbox"
	"github.com/findy-network/findy-conversation-agent/agent/pltype"
	"github.com/findy-network/findy-conversation-agent/agent/prot"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/agent/ssi/mock_ssi"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var (
	db      *psm.DB
	tempDir string
	ctx     = context.Background()
	policy  = prot.Policy{MaxAttempts: 2, Delay: time.Millisecond}
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

	tempDir = try.To1(os.MkdirTemp("", "conversation"))
	db = try.To1(psm.Open(filepath.Join(tempDir, "psm.bolt")))
}

func tearDown() {
	_ = db.Close()
	os.RemoveAll(tempDir)
}

func newLedger(t *testing.T) (*Ledger, *mock_ssi.MockGateway) {
	t.Helper()
	gw := mock_ssi.NewMockGateway(gomock.NewController(t))
	return NewLedger(db, gw, inbox.New(db, gw), policy), gw
}

func newConn(t *testing.T, id string, status psm.ConnStatus) *psm.Connection {
	t.Helper()
	c := &psm.Connection{
		StateKey:     psm.StateKey{Wallet: "faber", ID: id},
		CounterParty: "alice",
		MyDID:        "my-" + id,
		TheirDID:     "their-" + id,
		Status:       status,
	}
	assert.NoError(db.AddConnection(c))
	return c
}

func newConv(t *testing.T, conn *psm.Connection, id string, role psm.Role, typ psm.Type) *psm.Conversation {
	t.Helper()
	c := &psm.Conversation{
		StateKey:     psm.StateKey{Wallet: conn.Wallet, ID: id},
		ConnectionID: conn.ID,
		Role:         role,
		Type:         typ,
		ThreadID:     "thread-" + id,
	}
	assert.NoError(db.AddConversation(c))
	return c
}

// inbound makes the gateway deliver the messages once and accept their
// acknowledgements.
func inbound(gw *mock_ssi.MockGateway, msgs ...*ssi.Message) {
	for i, m := range msgs {
		m.ID = fmt.Sprintf("in-%d-%d", time.Now().UnixNano(), i)
	}
	gw.EXPECT().FetchNewMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(msgs, nil)
	gw.EXPECT().AcknowledgeMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).Times(len(msgs))
}

func TestRecordOutbound(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "out-1", psm.ConnActive)

	gw.EXPECT().SendMessage(gomock.Any(), "faber", gomock.Any(), gomock.Any()).
		Return("", ssi.ErrWalletUnavailable)
	gw.EXPECT().SendMessage(gomock.Any(), "faber", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, h ssi.Handle, m *ssi.Message) (string, error) {
			assert.Equal(h.TheirDID, "their-out-1")
			assert.Equal(m.Type, pltype.IssueCredentialOffer)
			return m.ID, nil
		})

	c, err := l.RecordOutbound(ctx, "faber", conn, psm.CredentialOffer, []byte(`{}`), "tag")
	assert.NoError(err)
	assert.Equal(c.Status, psm.Pending)
	assert.Equal(c.Role, psm.Issuer)
	assert.Equal(c.ThreadID, c.LastMessageID)

	stored, err := l.Get("faber", c.ID)
	assert.NoError(err)
	assert.Equal(stored.Status, psm.Pending)
	assert.Equal(stored.Tag, "tag")
}

func TestRecordOutboundFails(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "out-2", psm.ConnActive)

	gw.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", ssi.ErrEncryptionFailure)

	c, err := l.RecordOutbound(ctx, "faber", conn, psm.ProofRequest, []byte(`{}`), "")
	assert.That(errors.Is(err, ssi.ErrEncryptionFailure))
	assert.Equal(c.Status, psm.Failed)

	stored, err := l.Get("faber", c.ID)
	assert.NoError(err)
	assert.Equal(stored.Status, psm.Failed)

	_, err = l.RecordOutbound(ctx, "faber", conn, psm.Proof, nil, "")
	assert.That(errors.Is(err, ErrInvalidState))
}

func TestStale(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, _ := newLedger(t)
	conn := newConn(t, "stale-1", psm.ConnPending)
	conv := newConv(t, conn, "stale-conv", psm.Issuer, psm.CredentialOffer)

	_, err := l.RecordOutbound(ctx, "faber", conn, psm.CredentialOffer, nil, "")
	assert.That(errors.Is(err, prot.ErrStaleConversation))

	c, err := l.Advance(ctx, "faber", conn, conv, policy)
	assert.That(errors.Is(err, prot.ErrStaleConversation))
	assert.Equal(c.Status, psm.Pending)
}

func TestAdvance(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "adv-1", psm.ConnActive)
	conv := newConv(t, conn, "adv-conv", psm.Holder, psm.CredentialRequest)

	gw.EXPECT().FetchNewMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil)
	c, err := l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Type, psm.CredentialRequest)
	assert.Equal(c.Status, psm.Pending)

	inbound(gw, ssi.NewMessage(pltype.IssueCredentialIssue, conv.ThreadID, nil))
	c, err = l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Type, psm.IssueCredential)
	assert.Equal(c.Status, psm.Accepted)

	// no gateway calls for the final conversation
	c, err = l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Status, psm.Accepted)
}

func TestViolation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "vio-1", psm.ConnActive)
	conv := newConv(t, conn, "vio-conv", psm.Issuer, psm.CredentialOffer)

	inbound(gw, ssi.NewMessage(pltype.PresentProofRequest, conv.ThreadID, nil))
	c, err := l.Advance(ctx, "faber", conn, conv, policy)
	assert.That(errors.Is(err, prot.ErrProtocolViolation))
	assert.Equal(c.Status, psm.Failed)
	assert.Equal(c.Type, psm.CredentialOffer)

	c, err = l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Status, psm.Failed)
}

func TestProblemReport(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "pr-1", psm.ConnActive)
	conv := newConv(t, conn, "pr-conv", psm.Issuer, psm.CredentialOffer)

	inbound(gw, ssi.NewMessage(pltype.NotificationProblemReport, conv.ThreadID,
		[]byte(`{"code":"rejected","description":"no thanks"}`)))
	c, err := l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Status, psm.Rejected)
}

func TestNACK(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	prot.AddContinuator(psm.StepKey{Role: psm.Verifier, Type: psm.ProofRequest},
		func(_ context.Context, e *prot.Exchange) (bool, error) {
			e.Conv.Payload = e.In.Body
			return false, nil
		})

	l, gw := newLedger(t)
	conn := newConn(t, "nack-1", psm.ConnActive)
	conv := newConv(t, conn, "nack-conv", psm.Verifier, psm.ProofRequest)

	inbound(gw, ssi.NewMessage(pltype.PresentProofPresentation, conv.ThreadID, []byte(`{"bad":1}`)))
	gw.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ ssi.Handle, m *ssi.Message) (string, error) {
			assert.Equal(m.Type, pltype.NotificationProblemReport)
			assert.Equal(m.ThreadID(), conv.ThreadID)
			return "nack-id", nil
		})

	c, err := l.Advance(ctx, "faber", conn, conv, policy)
	assert.NoError(err)
	assert.Equal(c.Status, psm.Rejected)
	assert.Equal(c.Type, psm.ProofRequest)
	assert.Equal(string(c.Payload), `{"bad":1}`)
}

func TestContinue(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "cont-1", psm.ConnActive)
	issuer := newConv(t, conn, "cont-issuer", psm.Issuer, psm.CredentialOffer)
	holder := newConv(t, conn, "cont-holder", psm.Holder, psm.CredentialOffer)

	_, err := l.Continue(ctx, "faber", conn, issuer, psm.CredentialRequest, nil)
	assert.That(errors.Is(err, ErrInvalidState))
	_, err = l.Continue(ctx, "faber", conn, holder, psm.IssueCredential, nil)
	assert.That(errors.Is(err, ErrInvalidState))

	gw.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", ssi.ErrWalletUnavailable).Times(policy.MaxAttempts)
	c, err := l.Continue(ctx, "faber", conn, holder, psm.CredentialRequest, []byte(`{}`))
	assert.That(errors.Is(err, ssi.ErrWalletUnavailable))
	assert.Equal(c.Type, psm.CredentialOffer)
	assert.Equal(c.Status, psm.Pending)

	gw.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ ssi.Handle, m *ssi.Message) (string, error) {
			assert.Equal(m.Type, pltype.IssueCredentialRequest)
			assert.Equal(m.ThreadID(), holder.ThreadID)
			return "req-id", nil
		})
	c, err = l.Continue(ctx, "faber", conn, holder, psm.CredentialRequest, []byte(`{}`))
	assert.NoError(err)
	assert.Equal(c.Type, psm.CredentialRequest)
	assert.Equal(c.LastMessageID, "req-id")
}

func TestReject(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, gw := newLedger(t)
	conn := newConn(t, "rej-1", psm.ConnActive)
	conv := newConv(t, conn, "rej-conv", psm.Holder, psm.CredentialOffer)

	gw.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", ssi.ErrEncryptionFailure)
	c, err := l.Reject(ctx, "faber", conn, conv, "no")
	assert.Error(err)
	assert.Equal(c.Status, psm.Rejected)

	c, err = l.Reject(ctx, "faber", conn, conv, "no")
	assert.NoError(err)
	assert.Equal(c.Status, psm.Rejected)
}

func TestUnknown(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, _ := newLedger(t)
	conn := newConn(t, "unk-1", psm.ConnActive)

	m := ssi.NewMessage("https://didcomm.org/nothing/1.0/here", "", []byte(`{}`))
	m.ID = "unknown-msg"
	c, err := l.RecordInbound(ctx, "faber", conn, m)
	assert.That(errors.Is(err, prot.ErrUnknownProtocolMessage))
	assert.Equal(c.Type, psm.Unknown)
	assert.Equal(c.Status, psm.Failed)

	m = ssi.NewMessage(pltype.PresentProofACK, "lost-thread", nil)
	m.ID = "orphan-msg"
	_, err = l.RecordInbound(ctx, "faber", conn, m)
	assert.That(errors.Is(err, prot.ErrUnknownProtocolMessage))

	rs, err := l.Retained("faber")
	assert.NoError(err)
	assert.SLen(rs, 2)

	cs, err := l.List("faber", ByConnection("unk-1"))
	assert.NoError(err)
	assert.SLen(cs, 2)
}

func TestOpener(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l, _ := newLedger(t)
	conn := newConn(t, "open-1", psm.ConnActive)

	m := ssi.NewMessage(pltype.PresentProofRequest, "", []byte(`{"nonce":"1"}`))
	m.ID = "opener-msg"
	c, err := l.RecordInbound(ctx, "faber", conn, m)
	assert.NoError(err)
	assert.Equal(c.Role, psm.Prover)
	assert.Equal(c.Type, psm.ProofRequest)
	assert.Equal(c.ThreadID, "opener-msg")
	assert.Equal(c.Name, "alice")
}
