package utils

import (
	"testing"
	"time"

	"github.com/lainio/err2/assert"
)

func TestNewDID(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	did, err := NewDID()
	assert.NoError(err)
	assert.That(ValidDID(did))

	other, err := NewDID()
	assert.NoError(err)
	assert.NotEqual(did, other)

	assert.That(!ValidDID(""))
	assert.That(!ValidDID("0OIl"))
	assert.That(!ValidDID("abc"))
}

func TestSettings(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	h := &Hub{pollAttempts: DefaultPollAttempts, pollDelay: DefaultPollDelay}
	assert.Equal(h.PollAttempts(), uint64(4))
	assert.Equal(h.PollDelay(), 2*time.Second)

	h.SetPollAttempts(0)
	assert.Equal(h.PollAttempts(), uint64(DefaultPollAttempts))
	h.SetPollAttempts(7)
	assert.Equal(h.PollAttempts(), uint64(7))

	assert.Equal(h.Workers(), 1)
	h.SetWorkers(3)
	assert.Equal(h.Workers(), 3)
}
