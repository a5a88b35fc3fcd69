// Package toolbox implements vendor.Client on top of bmclib, which probes a
// BMC for a working protocol (redfish, ipmitool, intel amt) and drives it
// through a common provider interface. bmclib covers fewer primitives than the
// redfish client: the rest report an unsupported vendor error.
package toolbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	bmclib "github.com/bmc-toolbox/bmclib/v2"
	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

const name = "bmclib"

// DefaultOpenTimeout bounds the provider probe done by Connect.
const DefaultOpenTimeout = 30 * time.Second

// Config holds connection settings for one BMC.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	// Protocol is tried first when probing providers. Defaults to "redfish".
	Protocol string
	Timeout  time.Duration
	// Options are passed through to bmclib.NewClient.
	Options []bmclib.Option
}

// Client drives one BMC through a bmclib client.
type Client struct {
	bmc *bmclib.Client
	log logr.Logger
}

var _ vendor.Client = (*Client)(nil)

// NewLogger bridges the global zerolog logger into the logr.Logger bmclib
// expects.
func NewLogger(level zerolog.Level) logr.Logger {
	zl := log.Logger.Level(level)
	return zerologr.New(&zl)
}

// Connect builds a bmclib client and opens a connection with the first
// provider that answers.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	logger := NewLogger(zerolog.GlobalLevel()).WithValues("host", cfg.Host, "username", cfg.Username)

	opts := []bmclib.Option{bmclib.WithLogger(logger)}
	if cfg.Port != "" {
		opts = append(opts, bmclib.WithRedfishPort(cfg.Port))
	}
	opts = append(opts, cfg.Options...)
	client := bmclib.NewClient(cfg.Host, cfg.Username, cfg.Password, opts...)

	protocol := cfg.Protocol
	if protocol == "" {
		protocol = "redfish"
	}
	client.Registry.Drivers = client.Registry.PreferProtocol(protocol)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Open(openCtx); err != nil {
		md := client.GetMetadata()
		logger.Info("failed to open connection to BMC", "error", err, "providersAttempted", md.ProvidersAttempted, "successfulProvider", md.SuccessfulOpenConns)
		return nil, vendor.Wrap(name, "connect", fmt.Errorf("failed to open connection to BMC: %w", err))
	}
	md := client.GetMetadata()
	logger.V(1).Info("connected to BMC", "providersAttempted", md.ProvidersAttempted, "successfulProvider", md.SuccessfulOpenConns)

	return &Client{bmc: client, log: logger}, nil
}

func (c *Client) Name() string {
	return name
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.bmc.Close(ctx); err != nil {
		return vendor.Wrap(name, "close", err)
	}
	return nil
}

// PowerState reports "On" or "Off"; other answers are passed through.
func (c *Client) PowerState(ctx context.Context) (string, error) {
	state, err := c.bmc.GetPowerState(ctx)
	if err != nil {
		return "", vendor.Wrap(name, "power_state", err)
	}
	return toPowerState(state), nil
}

func (c *Client) PowerOn(ctx context.Context) (bool, error) {
	return c.setPower(ctx, "power_on", "on")
}

func (c *Client) PowerOff(ctx context.Context, kind string) (bool, error) {
	switch kind {
	case vendor.KindGraceful:
		return c.setPower(ctx, "power_off", "soft")
	case vendor.KindForce:
		return c.setPower(ctx, "power_off", "off")
	}
	return false, vendor.Errorf(name, "power_off", "unknown power kind %q", kind)
}

func (c *Client) Reboot(ctx context.Context, kind string) (bool, error) {
	switch kind {
	case vendor.KindGraceful:
		return c.setPower(ctx, "reboot", "reset")
	case vendor.KindForce:
		return c.setPower(ctx, "reboot", "cycle")
	}
	return false, vendor.Errorf(name, "reboot", "unknown power kind %q", kind)
}

func (c *Client) setPower(ctx context.Context, op, state string) (bool, error) {
	ok, err := c.bmc.SetPowerState(ctx, state)
	if err != nil {
		return false, vendor.Wrap(name, op, err)
	}
	return ok, nil
}

// bootDevices maps Redfish boot targets to bmclib device names.
var bootDevices = map[string]string{
	"pxe":       "pxe",
	"hdd":       "disk",
	"cd":        "cdrom",
	"biossetup": "bios",
	"usb":       "usb",
}

func (c *Client) SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error) {
	device, ok := bootDevices[strings.ToLower(target)]
	if !ok {
		device = strings.ToLower(target)
	}
	ok, err := c.bmc.SetBootDevice(ctx, device, persistent, uefi)
	if err != nil {
		return false, vendor.Wrap(name, "set_boot_override", err)
	}
	return ok, nil
}

func (c *Client) InsertVirtualMedia(ctx context.Context, url, device string) (bool, error) {
	ok, err := c.bmc.SetVirtualMedia(ctx, mediaKind(device), url)
	if err != nil {
		return false, vendor.Wrap(name, "insert_virtual_media", err)
	}
	return ok, nil
}

// EjectVirtualMedia sets an empty media URL, which bmclib treats as eject.
func (c *Client) EjectVirtualMedia(ctx context.Context, device string) (bool, error) {
	ok, err := c.bmc.SetVirtualMedia(ctx, mediaKind(device), "")
	if err != nil {
		return false, vendor.Wrap(name, "eject_virtual_media", err)
	}
	return ok, nil
}

func mediaKind(device string) string {
	switch strings.ToLower(device) {
	case "", "cd", "dvd", "cdrom":
		return "CD"
	case "floppy", "removabledisk", "usbstick":
		return "Floppy"
	}
	return device
}

func (c *Client) VirtualMedia(ctx context.Context) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "virtual_media")
}

func (c *Client) BootOptions(ctx context.Context) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "boot_options")
}

func (c *Client) Jobs(ctx context.Context) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "jobs")
}

func (c *Client) JobStatus(ctx context.Context, id string) (vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "job_status")
}

func (c *Client) CancelJob(ctx context.Context, id string) (bool, error) {
	return false, vendor.ErrUnsupported(name, "cancel_job")
}

func (c *Client) SELLog(ctx context.Context) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "sel_log")
}

func (c *Client) Sessions(ctx context.Context) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "sessions")
}

func (c *Client) BMCNetwork(ctx context.Context) (vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "bmc_network")
}

func (c *Client) SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error) {
	return false, vendor.ErrUnsupported(name, "set_bmc_network")
}

func (c *Client) SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error) {
	return false, vendor.ErrUnsupported(name, "set_bios_attributes")
}

func toPowerState(state string) string {
	s := strings.ToLower(state)
	switch {
	case strings.Contains(s, "on"):
		return "On"
	case strings.Contains(s, "off"):
		return "Off"
	}
	return state
}
