package connection

import (
	"testing"

	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/stretchr/testify/assert"
)

func TestIssueCmd_parseAttrs(t *testing.T) {
	attrs, err := parseAttrs(`{"email":"test@email.com"}`)
	assert.NoError(t, err)
	assert.Equal(t, "test@email.com", attrs["email"])

	_, err = parseAttrs(`{}`)
	assert.Error(t, err)
	_, err = parseAttrs(`[{"name":"email"}]`)
	assert.Error(t, err)
}

func TestReqProofCmd_Validate(t *testing.T) {
	c := ReqProofCmd{
		Cmd:        Cmd{Cmd: cmds.Cmd{WalletName: "w"}, Name: "conn"},
		CredDefID:  "cred-def",
		Attributes: `["email"]`,
	}
	assert.NoError(t, c.Validate())

	c.Attributes = `[]`
	assert.Error(t, c.Validate())

	c.Attributes = `["email"]`
	c.Name = ""
	assert.Error(t, c.Validate())
}
