package adcp

import (
	"context"
	"fmt"
	"time"
)

// Power states reported by power_status. Warm-up and cool-down pass through
// startup and cooling before settling on on or standby.
const (
	PowerStateOn       = "on"
	PowerStateStandby  = "standby"
	PowerStateStartup  = "startup"
	PowerStateCooling1 = "cooling1"
	PowerStateCooling2 = "cooling2"
)

// VerifyOptions configures how WaitForPower polls the projector
type VerifyOptions struct {
	// MaxRetries is the number of polls after the first one
	// Default: 10
	MaxRetries int

	// InitialDelay is waited before the first poll, giving the projector
	// time to act on the command
	// Default: 1s
	InitialDelay time.Duration

	// RetryDelay is the delay between polls
	// Default: 2s
	RetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after each poll, up to MaxRetryDelay
	// Default: true
	UseExponentialBackoff bool

	// MaxRetryDelay caps the delay between polls
	// Default: 10s
	MaxRetryDelay time.Duration
}

// DefaultVerifyOptions covers a lamp or laser warm-up of about a minute.
func DefaultVerifyOptions() *VerifyOptions {
	return &VerifyOptions{
		MaxRetries:            10,
		InitialDelay:          1 * time.Second,
		RetryDelay:            2 * time.Second,
		UseExponentialBackoff: true,
		MaxRetryDelay:         10 * time.Second,
	}
}

// VerifyResult reports the outcome of WaitForPower
type VerifyResult struct {
	// Success is true once power_status reported the wanted state
	Success bool

	// Attempts is the number of power_status queries sent
	Attempts int

	// Observed lists each distinct state seen, in order
	Observed []string

	// Error is the reason verification failed, if it did
	Error error
}

// Last returns the most recently observed power state.
func (r *VerifyResult) Last() string {
	if len(r.Observed) == 0 {
		return ""
	}
	return r.Observed[len(r.Observed)-1]
}

func (r *VerifyResult) observe(state string) {
	if r.Last() != state {
		r.Observed = append(r.Observed, state)
	}
}

// WaitForPower polls power_status until it reports want. Device error
// replies are retried; a session error ends the wait at once since the
// session is no longer usable.
func WaitForPower(ctx context.Context, c Commander, want string, opts *VerifyOptions) *VerifyResult {
	if opts == nil {
		opts = DefaultVerifyOptions()
	}
	result := &VerifyResult{}

	if err := sleepCtx(ctx, opts.InitialDelay); err != nil {
		result.Error = err
		return result
	}

	delay := opts.RetryDelay
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				result.Error = fmt.Errorf("stopped waiting for power %s: %w", want, err)
				return result
			}
			if opts.UseExponentialBackoff {
				delay *= 2
				if delay > opts.MaxRetryDelay {
					delay = opts.MaxRetryDelay
				}
			}
		}

		result.Attempts++
		reply, err := c.Send(ctx, PowerStatus)
		if err != nil {
			result.Error = fmt.Errorf("attempt %d: %w", result.Attempts, err)
			return result
		}
		if rerr := ReplyError(reply); rerr != nil {
			result.Error = fmt.Errorf("attempt %d: %w", result.Attempts, rerr)
			continue
		}

		state := reply.Text()
		result.observe(state)
		if state == want {
			result.Success = true
			result.Error = nil
			return result
		}
	}

	result.Error = fmt.Errorf("power is %q after %d attempts, wanted %q", result.Last(), result.Attempts, want)
	return result
}

// PowerTarget returns the settled power state a power command leads to.
func PowerTarget(cmd Command) (string, bool) {
	switch cmd.Name() {
	case CmdPowerOn:
		return PowerStateOn, true
	case CmdPowerOff:
		return PowerStateStandby, true
	}
	return "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
