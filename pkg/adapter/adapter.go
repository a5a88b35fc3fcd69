// Package adapter implements the canonical BMC surface on top of a vendor
// client. Every method returns canonical records and canonical errors no matter
// which vendor transport sits underneath.
package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries what a factory needs to reach one BMC.
type Config struct {
	Host     string
	Username string
	Password string
	Insecure bool
	Timeout  time.Duration
	// Options holds vendor specific settings, e.g. redfish path overrides.
	Options map[string]string
}

// Adapter is the vendor-neutral facade over one BMC.
type Adapter struct {
	client vendor.Client
	norm   *normalize.Normalizer
	power  *PowerController
	logger zerolog.Logger

	jobInterval time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	identity *identity
}

// identity is fetched once per adapter and reused.
type identity struct {
	make       string
	serviceTag string
	model      string
	serial     string
}

// Option customises a new adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithJobPollInterval sets the pause between job status polls in WaitForJob.
func WithJobPollInterval(d time.Duration) Option {
	return func(a *Adapter) {
		a.jobInterval = d
	}
}

// New wraps a vendor client. A nil normaliser uses a generic one named after
// the client.
func New(client vendor.Client, norm *normalize.Normalizer, opts ...Option) *Adapter {
	if norm == nil {
		norm = normalize.New(client.Name(), false, "")
	}
	a := &Adapter{
		client: client,
		norm:   norm,
		logger: log.Logger.With().Str("vendor", client.Name()).Logger(),

		jobInterval: DefaultJobPollInterval,
		sleep:       sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.power = newPowerController(client, &a.logger)
	return a
}

// Vendor returns the name of the underlying vendor client.
func (a *Adapter) Vendor() string {
	return a.client.Name()
}

// Power exposes the convergence controller so its timings can be tuned.
func (a *Adapter) Power() *PowerController {
	return a.power
}

// SetLogLevel changes the adapter's verbosity.
func (a *Adapter) SetLogLevel(level zerolog.Level) {
	a.logger = a.logger.Level(level)
}

// Close releases the vendor session.
func (a *Adapter) Close(ctx context.Context) error {
	_, err := Call("close", func() (struct{}, error) {
		return struct{}{}, a.client.Close(ctx)
	})
	return err
}

func (a *Adapter) PowerStatus(ctx context.Context) (string, error) {
	return a.power.State(ctx)
}

func (a *Adapter) PowerOn(ctx context.Context, wait bool) (bool, error) {
	return a.power.On(ctx, wait)
}

func (a *Adapter) PowerOff(ctx context.Context, kind string, wait bool) (bool, error) {
	return a.power.Off(ctx, kind, wait)
}

func (a *Adapter) Reboot(ctx context.Context, kind string, wait bool) (bool, error) {
	return a.power.Reboot(ctx, kind, wait)
}

func (a *Adapter) PowerCycle(ctx context.Context, wait bool) (bool, error) {
	return a.power.Cycle(ctx, wait)
}

// SystemInfo queries and normalises the system summary. The first successful
// call also fills the identity memo.
func (a *Adapter) SystemInfo(ctx context.Context) (*record.Record, error) {
	raw, err := Call("system_info", func() (vendor.Raw, error) {
		return a.client.SystemInfo(ctx)
	})
	if err != nil {
		return nil, err
	}
	info := a.norm.System(raw)
	a.mu.Lock()
	if a.identity == nil {
		a.identity = identityOf(info)
	}
	a.mu.Unlock()
	return info, nil
}

func identityOf(info *record.Record) *identity {
	return &identity{
		make:       info.String("make"),
		serviceTag: info.String("service_tag"),
		model:      info.String("model"),
		serial:     info.String("serial"),
	}
}

func (a *Adapter) loadIdentity(ctx context.Context) (*identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.identity != nil {
		return a.identity, nil
	}
	raw, err := Call("system_info", func() (vendor.Raw, error) {
		return a.client.SystemInfo(ctx)
	})
	if err != nil {
		return nil, err
	}
	a.identity = identityOf(a.norm.System(raw))
	return a.identity, nil
}

// ServiceTag returns the memoised service tag.
func (a *Adapter) ServiceTag(ctx context.Context) (string, error) {
	id, err := a.loadIdentity(ctx)
	if err != nil {
		return "", err
	}
	return id.serviceTag, nil
}

// Make returns the system manufacturer. Vendor-native adapters know it without
// asking the BMC.
func (a *Adapter) Make(ctx context.Context) (string, error) {
	if a.norm.Native && a.norm.Vendor != "" {
		return a.norm.Vendor, nil
	}
	id, err := a.loadIdentity(ctx)
	if err != nil {
		return "", err
	}
	return id.make, nil
}

// Model returns the memoised model with the product-line prefix removed.
func (a *Adapter) Model(ctx context.Context) (string, error) {
	id, err := a.loadIdentity(ctx)
	if err != nil {
		return "", err
	}
	return id.model, nil
}

// Serial returns the memoised serial number.
func (a *Adapter) Serial(ctx context.Context) (string, error) {
	id, err := a.loadIdentity(ctx)
	if err != nil {
		return "", err
	}
	return id.serial, nil
}

func (a *Adapter) CPUs(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "cpus", a.client.CPUs, a.norm.CPUs)
}

func (a *Adapter) Memory(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "memory", a.client.Memory, a.norm.Memory)
}

func (a *Adapter) NICs(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "nics", a.client.NICs, a.norm.NICs)
}

func (a *Adapter) Fans(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "fans", a.client.Fans, a.norm.Fans)
}

func (a *Adapter) PSUs(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "psus", a.client.PSUs, a.norm.PSUs)
}

// Temperatures returns thermal sensors, or an empty list when the vendor
// client cannot report them.
func (a *Adapter) Temperatures(ctx context.Context) ([]*record.Record, error) {
	source, ok := a.client.(vendor.TemperatureSource)
	if !ok {
		a.logger.Debug().Msg("vendor client does not report temperatures")
		return []*record.Record{}, nil
	}
	return list(ctx, "temperatures", source.Temperatures, a.norm.Temperatures)
}

// list runs a listing primitive and normalises its result.
func list(ctx context.Context, op string, fetch func(context.Context) ([]vendor.Raw, error), norm func([]vendor.Raw) []*record.Record) ([]*record.Record, error) {
	raws, err := Call(op, func() ([]vendor.Raw, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return norm(raws), nil
}

