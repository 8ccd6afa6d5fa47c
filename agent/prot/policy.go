package prot

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/findy-network/findy-conversation-agent/agent/ssi"
	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/golang/glog"
)

// Policy is the bounded retry policy of every wait in the agent. Exceeding
// MaxAttempts isn't an error. With Multiplier <= 1 and zero Jitter the delay
// is constant. Zero MaxDelay doesn't cap the growing delay.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      float64 // randomization factor, 0..1
}

// DefaultPolicy returns the policy configured to utils.Settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: int(utils.Settings.PollAttempts()),
		Delay:       utils.Settings.PollDelay(),
		Multiplier:  utils.Settings.PollBackoff(),
		MaxDelay:    utils.Settings.PollMaxDelay(),
		Jitter:      utils.Settings.PollJitter(),
	}
}

// Once is the policy which makes only one attempt.
var Once = Policy{MaxAttempts: 1}

var errNotYet = errors.New("not yet")

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// BackOff builds the backoff of the policy bound to the context.
func (p Policy) BackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if p.Multiplier <= 1 && p.Jitter == 0 {
		b = backoff.NewConstantBackOff(p.Delay)
	} else {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.Delay
		eb.Multiplier = p.Multiplier
		if eb.Multiplier < 1 {
			eb.Multiplier = 1
		}
		eb.RandomizationFactor = p.Jitter
		switch {
		case p.MaxDelay == 0:
			eb.MaxInterval = time.Duration(math.MaxInt64)
		case p.MaxDelay < p.Delay:
			eb.MaxInterval = p.Delay
		default:
			eb.MaxInterval = p.MaxDelay
		}
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	}
	b = backoff.WithMaxRetries(b, uint64(p.attempts()-1))
	return backoff.WithContext(b, ctx)
}

// Retry runs the operation until it succeeds or returns an error which isn't
// transient. Only ssi.ErrWalletUnavailable is retried. The last error is
// returned when the attempts run out.
func (p Policy) Retry(ctx context.Context, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !ssi.IsTransient(err) {
			return backoff.Permanent(err)
		}
		glog.V(3).Infof("transient error, attempt %d/%d: %v",
			attempt, p.attempts(), err)
		return err
	}, p.BackOff(ctx))
}

// Poll calls done until it reports true, returns an error, or the attempts
// run out. Running out of attempts returns false and nil error.
func (p Policy) Poll(ctx context.Context, done func() (bool, error)) (reached bool, err error) {
	err = backoff.Retry(func() error {
		ok, err := done()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, p.BackOff(ctx))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNotYet):
		return false, nil
	default:
		return false, err
	}
}
