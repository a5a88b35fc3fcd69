package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultCycleSettle    = 5 * time.Second
	DefaultPowerAttempts  = 30
	DefaultRebootAttempts = 60
)

// Power states reported by vendor clients.
const (
	StateOn  = "On"
	StateOff = "Off"
)

var kindAliases = map[string]string{
	"graceful":         vendor.KindGraceful,
	"soft":             vendor.KindGraceful,
	"gracefulshutdown": vendor.KindGraceful,
	"gracefulrestart":  vendor.KindGraceful,
	"force":            vendor.KindForce,
	"hard":             vendor.KindForce,
	"forceoff":         vendor.KindForce,
	"forcerestart":     vendor.KindForce,
}

// ParseKind resolves a power kind or one of its aliases. An empty kind means
// graceful.
func ParseKind(kind string) (string, error) {
	if kind == "" {
		return vendor.KindGraceful, nil
	}
	if k, ok := kindAliases[strings.ToLower(kind)]; ok {
		return k, nil
	}
	return "", invalidArgument("power", "invalid power kind %q (expected graceful or force)", kind)
}

// PowerController turns fire-and-forget vendor power commands into state
// transitions the caller can optionally wait for. Polling failures are logged
// and swallowed; running out of attempts returns the command result.
type PowerController struct {
	Interval       time.Duration
	Settle         time.Duration
	Attempts       int
	RebootAttempts int
	// Sleep pauses between polls and returns early with ctx's error.
	Sleep func(ctx context.Context, d time.Duration) error

	client vendor.Client
	logger *zerolog.Logger
}

func newPowerController(client vendor.Client, logger *zerolog.Logger) *PowerController {
	return &PowerController{
		Interval:       DefaultPollInterval,
		Settle:         DefaultCycleSettle,
		Attempts:       DefaultPowerAttempts,
		RebootAttempts: DefaultRebootAttempts,
		Sleep:          sleep,
		client:         client,
		logger:         logger,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State returns the current power state.
func (p *PowerController) State(ctx context.Context) (string, error) {
	return Call("power_status", func() (string, error) {
		return p.client.PowerState(ctx)
	})
}

// On powers the system on.
func (p *PowerController) On(ctx context.Context, wait bool) (bool, error) {
	ok, err := Call("power_on", func() (bool, error) {
		return p.client.PowerOn(ctx)
	})
	if err != nil {
		return false, err
	}
	if wait {
		p.await(ctx, StateOn, p.Attempts)
	}
	return ok, nil
}

// Off powers the system off gracefully or forcibly.
func (p *PowerController) Off(ctx context.Context, kind string, wait bool) (bool, error) {
	kind, err := ParseKind(kind)
	if err != nil {
		return false, err
	}
	ok, err := Call("power_off", func() (bool, error) {
		return p.client.PowerOff(ctx, kind)
	})
	if err != nil {
		return false, err
	}
	if wait {
		p.await(ctx, StateOff, p.Attempts)
	}
	return ok, nil
}

// Reboot restarts the system. A failed graceful restart is retried as a
// forced one. When waiting, the system must be seen Off before On counts.
func (p *PowerController) Reboot(ctx context.Context, kind string, wait bool) (bool, error) {
	kind, err := ParseKind(kind)
	if err != nil {
		return false, err
	}
	ok, err := Call("reboot", func() (bool, error) {
		return p.client.Reboot(ctx, kind)
	})
	if err != nil && kind == vendor.KindGraceful {
		p.logger.Warn().Err(err).Msg("graceful restart failed; retrying as forced restart")
		ok, err = Call("reboot", func() (bool, error) {
			return p.client.Reboot(ctx, vendor.KindForce)
		})
	}
	if err != nil {
		return false, err
	}
	if wait {
		p.awaitCycle(ctx)
	}
	return ok, nil
}

// Cycle forces the system off, waits for it, settles and powers it back on.
func (p *PowerController) Cycle(ctx context.Context, wait bool) (bool, error) {
	if _, err := p.Off(ctx, vendor.KindForce, true); err != nil {
		return false, err
	}
	if err := p.Sleep(ctx, p.Settle); err != nil {
		p.logger.Debug().Err(err).Msg("power cycle interrupted while settling")
	}
	return p.On(ctx, wait)
}

// await polls until the target state is observed or attempts run out.
func (p *PowerController) await(ctx context.Context, target string, attempts int) bool {
	for i := 1; i <= attempts; i++ {
		if err := p.Sleep(ctx, p.Interval); err != nil {
			p.logger.Debug().Err(err).Msgf("stopped waiting for power %s", target)
			return false
		}
		state, err := p.client.PowerState(ctx)
		if err != nil {
			p.logger.Debug().Err(err).Int("attempt", i).Msg("failed to query power state")
			continue
		}
		p.logger.Trace().Str("state", state).Int("attempt", i).Msgf("waiting for power %s", target)
		if strings.EqualFold(state, target) {
			return true
		}
	}
	p.logger.Warn().Int("attempts", attempts).Msgf("power state did not reach %s", target)
	return false
}

// awaitCycle polls until the system has gone Off and come back On.
func (p *PowerController) awaitCycle(ctx context.Context) bool {
	wentDown := false
	for i := 1; i <= p.RebootAttempts; i++ {
		if err := p.Sleep(ctx, p.Interval); err != nil {
			p.logger.Debug().Err(err).Msg("stopped waiting for reboot")
			return false
		}
		state, err := p.client.PowerState(ctx)
		if err != nil {
			p.logger.Debug().Err(err).Int("attempt", i).Msg("failed to query power state")
			continue
		}
		switch {
		case strings.EqualFold(state, StateOff):
			wentDown = true
		case strings.EqualFold(state, StateOn) && wentDown:
			return true
		}
	}
	p.logger.Warn().Int("attempts", p.RebootAttempts).Bool("went_down", wentDown).Msg("reboot was not observed to complete")
	return false
}
