package prot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/findy-network/findy-conversation-agent/agent/psm"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/lainio/err2/assert"
)

var fast = Policy{MaxAttempts: 4, Delay: time.Millisecond}

func TestPolicy_Retry(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()

	calls := 0
	err := fast.Retry(ctx, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("send: %w", ssi.ErrWalletUnavailable)
		}
		return nil
	})
	assert.NoError(err)
	assert.Equal(calls, 3)

	calls = 0
	err = fast.Retry(ctx, func() error {
		calls++
		return ssi.ErrWalletUnavailable
	})
	assert.That(errors.Is(err, ssi.ErrWalletUnavailable))
	assert.Equal(calls, 4)

	calls = 0
	err = fast.Retry(ctx, func() error {
		calls++
		return fmt.Errorf("seal: %w", ssi.ErrEncryptionFailure)
	})
	assert.That(errors.Is(err, ssi.ErrEncryptionFailure))
	assert.Equal(calls, 1)
}

func TestPolicy_Poll(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctx := context.Background()

	tests := []struct {
		name      string
		policy    Policy
		readyAt   int
		wantCalls int
		reached   bool
	}{
		{"first", fast, 1, 1, true},
		{"last", fast, 4, 4, true},
		{"exhausted", fast, 5, 4, false},
		{"once", Once, 2, 1, false},
		{"jitter", Policy{MaxAttempts: 3, Delay: time.Millisecond,
			Multiplier: 2, MaxDelay: 4 * time.Millisecond, Jitter: 0.5}, 10, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			calls := 0
			reached, err := tt.policy.Poll(ctx, func() (bool, error) {
				calls++
				return calls >= tt.readyAt, nil
			})
			assert.NoError(err)
			assert.Equal(reached, tt.reached)
			assert.Equal(calls, tt.wantCalls)
		})
	}

	calls := 0
	reached, err := fast.Poll(ctx, func() (bool, error) {
		calls++
		return false, ErrProtocolViolation
	})
	assert.That(!reached)
	assert.That(errors.Is(err, ErrProtocolViolation))
	assert.Equal(calls, 1)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	reached, err = Policy{MaxAttempts: 10, Delay: time.Second}.Poll(cctx,
		func() (bool, error) { return false, nil })
	assert.That(!reached)
	assert.Error(err)
}

func TestDefaultPolicy_BackOff(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	defer func() {
		utils.Settings.SetPollDelay(utils.DefaultPollDelay)
		utils.Settings.SetPollBackoff(0)
		utils.Settings.SetPollMaxDelay(0)
	}()
	ctx := context.Background()
	intervals := func() (ds []time.Duration) {
		b := DefaultPolicy().BackOff(ctx)
		for d := b.NextBackOff(); d != backoff.Stop; d = b.NextBackOff() {
			ds = append(ds, d)
		}
		return ds
	}
	ms := time.Millisecond

	utils.Settings.SetPollDelay(100 * ms)
	assert.DeepEqual(intervals(), []time.Duration{100 * ms, 100 * ms, 100 * ms})

	utils.Settings.SetPollBackoff(2)
	assert.DeepEqual(intervals(), []time.Duration{100 * ms, 200 * ms, 400 * ms})

	utils.Settings.SetPollMaxDelay(150 * ms)
	assert.DeepEqual(intervals(), []time.Duration{100 * ms, 150 * ms, 150 * ms})
}

func TestCheckOpener(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.NoError(CheckOpener(psm.ProofRequest, []byte("anything")))

	errBad := errors.New("bad body")
	AddStarter(psm.ProofRequest, func(body []byte) error {
		if len(body) == 0 {
			return errBad
		}
		return nil
	})
	defer AddStarter(psm.ProofRequest, nil)

	assert.NoError(CheckOpener(psm.ProofRequest, []byte("{}")))
	assert.That(errors.Is(CheckOpener(psm.ProofRequest, nil), errBad))
}

func TestLocker(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var l Locker
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("conv-1")
			defer unlock()
			v := counter
			time.Sleep(10 * time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(counter, 50)
	assert.Equal(len(l.locks), 0)

	// different keys don't block each other
	unlockA := l.Lock("a")
	unlockB := l.Lock("b")
	unlockB()
	unlockA()
}

func TestTransitionFor(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	called := false
	key := psm.StepKey{Role: psm.Prover, Type: psm.Proof}
	AddContinuator(key, func(context.Context, *Exchange) (bool, error) {
		called = true
		return true, nil
	})
	tr, ok := TransitionFor(&psm.Conversation{Role: psm.Prover, Type: psm.Proof})
	assert.That(ok)
	assert.That(tr.Final)
	ack, err := tr.InOut(context.Background(), nil)
	assert.NoError(err)
	assert.That(ack && called)

	_, ok = TransitionFor(&psm.Conversation{Role: psm.Holder, Type: psm.CredentialOffer})
	assert.That(!ok)

	assert.That(IsProtocolError(fmt.Errorf("x: %w", ErrProtocolViolation)))
	assert.That(!IsProtocolError(ssi.ErrWalletUnavailable))
}
