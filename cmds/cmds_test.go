package cmds_test

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/findy-network/findy-conversation-agent/cmds/connection"
	"github.com/findy-network/findy-conversation-agent/cmds/conversation"
	"github.com/findy-network/findy-conversation-agent/cmds/wallet"
	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var tempDir string

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

	tempDir = try.To1(os.MkdirTemp("", "cmds"))
	utils.Settings.SetPsmDB(filepath.Join(tempDir, "psm.bolt"))
	utils.Settings.SetMailboxDB(filepath.Join(tempDir, "mailbox.bolt"))
	utils.Settings.SetPollDelay(time.Millisecond)
}

func tearDown() {
	os.RemoveAll(tempDir)
}

func exec(c cmds.Command) cmds.Result {
	try.To(c.Validate())
	return try.To1(c.Exec(io.Discard))
}

func Test_Validate(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Error(cmds.Cmd{}.Validate())
	assert.NoError(cmds.Cmd{WalletName: "w"}.Validate())
	assert.Error(cmds.Cmd{WalletName: "w|x"}.Validate())
	assert.Error(cmds.Cmd{WalletName: "w"}.ValidateWalletKey())

	assert.NoError(cmds.ValidateTime("04:30"))
	assert.NoError(cmds.ValidateTime("23:59:59"))
	assert.Error(cmds.ValidateTime("24:00"))
	assert.Error(cmds.ValidateTime("4.30"))
}

func Test_CredentialFlow(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	defer err2.Catch(err2.Err(func(err error) {
		t.Fatal(err)
	}))

	faber := cmds.Cmd{WalletName: "faber", WalletKey: "faber-key"}
	alice := cmds.Cmd{WalletName: "alice", WalletKey: "alice-key"}
	exec(wallet.CreateCmd{Cmd: faber})
	exec(wallet.CreateCmd{Cmd: alice})

	r := exec(connection.InvitationCmd{Cmd: faber, CounterParty: "alice"})
	inviter := r.(cmds.JSONResult).V.(*psm.Connection)
	r = exec(connection.ConnectCmd{Cmd: alice, CounterParty: "faber",
		Invitation: string(inviter.Invitation)})
	invitee := r.(cmds.JSONResult).V.(*psm.Connection)
	assert.That(invitee.IsActive())

	r = exec(connection.StatusCmd{Cmd: connection.Cmd{Cmd: faber, Name: inviter.ID}, Wait: true})
	assert.That(r.(cmds.JSONResult).V.(*psm.Connection).IsActive())

	r = exec(connection.IssueCmd{
		Cmd:        connection.Cmd{Cmd: faber, Name: inviter.ID},
		CredDefID:  "cred-def",
		Attributes: `{"email":"alice@example.com"}`,
	})
	issuerConv := r.(cmds.JSONResult).V.(*psm.Conversation)

	exec(connection.InboxCmd{Cmd: connection.Cmd{Cmd: alice, Name: invitee.ID}})
	r = exec(conversation.ListCmd{Cmd: alice, ConnectionID: invitee.ID})
	convs := r.(cmds.JSONResult).V.([]*psm.Conversation)
	assert.SLen(convs, 1)

	exec(connection.RequestCmd{Cmd: alice, ConversationID: convs[0].ID})
	r = exec(conversation.AdvanceCmd{Cmd: conversation.Cmd{Cmd: faber, ID: issuerConv.ID}})
	assert.Equal(r.(cmds.JSONResult).V.(*psm.Conversation).Type, psm.IssueCredential)

	r = exec(conversation.AdvanceCmd{
		Cmd:    conversation.Cmd{Cmd: alice, ID: convs[0].ID},
		Status: "Accepted",
	})
	assert.Equal(r.(cmds.JSONResult).V.(*psm.Conversation).Status, psm.Accepted)

	r = exec(wallet.CredentialsCmd{Cmd: alice})
	data, err := r.JSON()
	assert.NoError(err)
	assert.That(len(data) > 2)

	_, err = wallet.DeleteCmd{Cmd: alice}.Exec(io.Discard)
	assert.Error(err)
	exec(wallet.DeleteCmd{Cmd: alice, Cleanup: true})
}
