package alert

import (
	"context"
	"sync"
	"time"

	"github.com/code19m/errx"
)

// Provider defines the interface for sending error alerts.
type Provider interface {
	// SendError sends an error alert with the given details.
	// errCode is a specific code identifying the error.
	// msg is a human-readable error message.
	// operation describes the operation during which the error occurred.
	// details is a map of additional string key-value pairs providing more context about the error.
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// NewProvider creates the Sentinel backed provider wrapped with a cooldown.
// If cfg.Disable is true, it returns a no-op provider.
func NewProvider(cfg Config, serviceName, serviceVersion string) (Provider, error) {
	if cfg.Disable {
		return &noOpProvider{}, nil
	}

	sp, err := NewSentinelProvider(cfg, serviceName, serviceVersion)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return newCooldownProvider(sp, cfg.Cooldown, time.Now), nil
}

// noOpProvider is a no-operation alert provider that does nothing.
type noOpProvider struct{}

func (n *noOpProvider) SendError(_ context.Context, _, _, _ string, _ map[string]string) error {
	return nil
}

// cooldownProvider drops alerts whose operation and code were already sent
// within the cooldown window.
type cooldownProvider struct {
	next     Provider
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func newCooldownProvider(next Provider, cooldown time.Duration, now func() time.Time) *cooldownProvider {
	return &cooldownProvider{
		next:     next,
		cooldown: cooldown,
		now:      now,
		lastSent: make(map[string]time.Time),
	}
}

func (cp *cooldownProvider) SendError(
	ctx context.Context,
	errCode, msg, operation string,
	details map[string]string,
) error {
	key := operation + ":" + errCode
	now := cp.now()

	cp.mu.Lock()
	last, seen := cp.lastSent[key]
	if seen && now.Sub(last) < cp.cooldown {
		cp.mu.Unlock()
		return nil
	}
	cp.lastSent[key] = now
	cp.mu.Unlock()

	return cp.next.SendError(ctx, errCode, msg, operation, details)
}
