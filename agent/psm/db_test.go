package psm

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const (
	dbPath     = "db_test.bolt"
	testWallet = "alice"
)

var testDB *DB

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

	testDB = try.To1(Open(dbPath))
}

func tearDown() {
	_ = testDB.Close()
	os.Remove(dbPath)
}

func testConnection(id, invID string) *Connection {
	return &Connection{
		StateKey:     StateKey{Wallet: testWallet, ID: id},
		CounterParty: "bob@example.com",
		InvitationID: invID,
		MyDID:        "7oYQZdVwN2eBBzHbHeMVkJ",
		Role:         Inviter,
		Status:       ConnPending,
		Created:      time.Now().UnixNano(),
	}
}

func TestDB_Connection(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := testConnection("conn-1", "inv-1")
	assert.NoError(testDB.AddConnection(c))

	got, err := testDB.GetConnection(c.StateKey)
	assert.NoError(err)
	assert.DeepEqual(c, got)

	got, err = testDB.FindConnectionByInvitation(testWallet, "inv-1")
	assert.NoError(err)
	assert.Equal(got.ID, "conn-1")

	_, err = testDB.FindConnectionByInvitation("bob", "inv-1")
	assert.Error(err)

	assert.That(got.Activate("their-did"))
	assert.That(!got.Activate("other-did"), "activated twice")
	assert.Equal(got.TheirDID, "their-did")
	assert.NoError(testDB.AddConnection(got))

	cs, err := testDB.Connections(testWallet)
	assert.NoError(err)
	assert.SLen(cs, 1)
	assert.That(cs[0].IsActive())

	assert.NoError(testDB.RmConnection(c.StateKey))
	_, err = testDB.GetConnection(c.StateKey)
	assert.Equal(err, ErrNotFound)
}

func TestDB_WalletSeparator(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.That(errors.Is(ValidWallet(""), ErrInvalidWallet))
	assert.That(errors.Is(ValidWallet("dave|x"), ErrInvalidWallet))
	assert.NoError(ValidWallet("dave"))

	c := testConnection("conn-sep", "inv-sep")
	c.Wallet = "dave|x"
	assert.That(errors.Is(testDB.AddConnection(c), ErrInvalidWallet))
	assert.That(errors.Is(testDB.AddConversation(&Conversation{StateKey: c.StateKey}), ErrInvalidWallet))
	assert.That(errors.Is(testDB.MarkHandled("dave|x", "conn", "msg"), ErrInvalidWallet))

	_, err := testDB.Connections("dave|x")
	assert.That(errors.Is(err, ErrInvalidWallet))
	assert.That(errors.Is(testDB.RmWallet("dave|x"), ErrInvalidWallet))

	cs, err := testDB.Connections("dave")
	assert.NoError(err)
	assert.SLen(cs, 0)
}

func TestDB_Conversation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	now := time.Now().UnixNano()
	convs := []*Conversation{
		{StateKey: StateKey{Wallet: testWallet, ID: "c1"}, ConnectionID: "conn-2",
			Type: CredentialOffer, Role: Issuer, ThreadID: "th-1", Created: now},
		{StateKey: StateKey{Wallet: testWallet, ID: "c2"}, ConnectionID: "conn-2",
			Type: ProofRequest, Role: Verifier, ThreadID: "th-2", Created: now + 1},
		{StateKey: StateKey{Wallet: "bob", ID: "c3"}, ConnectionID: "conn-3",
			Type: CredentialRequest, Role: Holder, ThreadID: "th-1", Created: now},
	}
	for _, c := range convs {
		assert.NoError(testDB.AddConversation(c))
	}

	got, err := testDB.Conversations(testWallet)
	assert.NoError(err)
	assert.SLen(got, 2)
	assert.Equal(got[0].ID, "c1")
	assert.Equal(got[1].Category(), ProofExchange)

	c, err := testDB.FindConversationByThread(testWallet, "conn-2", "th-2")
	assert.NoError(err)
	assert.Equal(c.ID, "c2")

	_, err = testDB.FindConversationByThread(testWallet, "conn-3", "th-1")
	assert.Equal(err, ErrNotFound)
	_, err = testDB.FindConversationByThread(testWallet, "conn-2", "")
	assert.Equal(err, ErrNotFound)

	for _, c := range convs {
		assert.NoError(testDB.RmConversation(c.StateKey))
	}
	got, err = testDB.Conversations(testWallet)
	assert.NoError(err)
	assert.SLen(got, 0)
}

func TestDB_Handled(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	yes, err := testDB.IsHandled(testWallet, "conn-4", "msg-1")
	assert.NoError(err)
	assert.That(!yes)

	assert.NoError(testDB.MarkHandled(testWallet, "conn-4", "msg-1"))
	yes, err = testDB.IsHandled(testWallet, "conn-4", "msg-1")
	assert.NoError(err)
	assert.That(yes)

	yes, err = testDB.IsHandled(testWallet, "conn-5", "msg-1")
	assert.NoError(err)
	assert.That(!yes)

	assert.NoError(testDB.RmHandled(testWallet, "conn-4"))
	yes, err = testDB.IsHandled(testWallet, "conn-4", "msg-1")
	assert.NoError(err)
	assert.That(!yes)
}

func TestDB_RetainedAndIdentity(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	r := &Retained{
		StateKey:     StateKey{Wallet: "carol", ID: "r1"},
		ConnectionID: "conn-6",
		Type:         "https://didcomm.org/unknown/1.0/thing",
		Raw:          []byte(`{"a":1}`),
		Reason:       "unknown protocol message",
		Timestamp:    time.Now().UnixNano(),
	}
	assert.NoError(testDB.AddRetained(r))
	assert.NoError(testDB.MarkHandled("carol", "conn-6", "m"))

	rs, err := testDB.RetainedMessages("carol")
	assert.NoError(err)
	assert.SLen(rs, 1)
	assert.DeepEqual(rs[0], r)

	assert.NoError(testDB.RmWallet("carol"))
	rs, err = testDB.RetainedMessages("carol")
	assert.NoError(err)
	assert.SLen(rs, 0)

	i := &Identity{Name: "carol", Wallet: "carol", Created: 1}
	assert.NoError(testDB.AddIdentity(i))
	got, err := testDB.GetIdentity("carol")
	assert.NoError(err)
	assert.DeepEqual(got, i)
	assert.NoError(testDB.RmIdentity("carol"))
	_, err = testDB.GetIdentity("carol")
	assert.Equal(err, ErrNotFound)
}
