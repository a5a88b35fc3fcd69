// Package vendor defines the contract a vendor-specific BMC client must satisfy
// to be driven by the canonical adapter. Clients return records in the shape the
// BMC produced them (nested string-keyed maps) and report failures as *Error.
package vendor

import (
	"context"
	"fmt"
)

// Raw is a single vendor-shaped record as decoded from the BMC.
type Raw = map[string]any

// Power kinds understood by PowerOff and Reboot.
const (
	KindGraceful = "graceful"
	KindForce    = "force"
)

// Client is the set of primitives the adapter needs from a vendor transport.
// Every method may fail with a vendor-specific *Error.
type Client interface {
	Name() string
	Close(ctx context.Context) error

	// power
	PowerState(ctx context.Context) (string, error)
	PowerOn(ctx context.Context) (bool, error)
	PowerOff(ctx context.Context, kind string) (bool, error)
	Reboot(ctx context.Context, kind string) (bool, error)

	// inventory
	SystemInfo(ctx context.Context) (Raw, error)
	CPUs(ctx context.Context) ([]Raw, error)
	Memory(ctx context.Context) ([]Raw, error)
	NICs(ctx context.Context) ([]Raw, error)
	Fans(ctx context.Context) ([]Raw, error)
	PSUs(ctx context.Context) ([]Raw, error)

	// storage
	Controllers(ctx context.Context) ([]Raw, error)
	Drives(ctx context.Context, controllerID string) ([]Raw, error)
	Volumes(ctx context.Context, controllerID string) ([]Raw, error)

	// virtual media
	VirtualMedia(ctx context.Context) ([]Raw, error)
	InsertVirtualMedia(ctx context.Context, url, device string) (bool, error)
	EjectVirtualMedia(ctx context.Context, device string) (bool, error)

	// boot
	BootOptions(ctx context.Context) ([]Raw, error)
	SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error)

	// jobs
	Jobs(ctx context.Context) ([]Raw, error)
	JobStatus(ctx context.Context, id string) (Raw, error)
	CancelJob(ctx context.Context, id string) (bool, error)

	// management controller
	SELLog(ctx context.Context) ([]Raw, error)
	Accounts(ctx context.Context) ([]Raw, error)
	Sessions(ctx context.Context) ([]Raw, error)
	BMCNetwork(ctx context.Context) (Raw, error)
	SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error)
	BIOSAttributes(ctx context.Context) (Raw, error)
	SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error)
}

// TemperatureSource is implemented by clients that can report thermal sensors.
type TemperatureSource interface {
	Temperatures(ctx context.Context) ([]Raw, error)
}

// Error is a failure raised by a vendor client while talking to its BMC. The
// message is kept verbatim because the adapter classifies on its text.
type Error struct {
	Vendor     string
	Op         string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s %s: %s", e.Vendor, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Vendor, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf builds a vendor error for the named operation.
func Errorf(vendor, op, format string, args ...any) *Error {
	return &Error{Vendor: vendor, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap converts a transport error into a vendor error, keeping the cause.
func Wrap(vendor, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Vendor: vendor, Op: op, Message: err.Error(), Cause: err}
}

// ErrUnsupported builds the error a client returns for primitives it cannot serve.
func ErrUnsupported(vendor, op string) *Error {
	return Errorf(vendor, op, "operation not supported by %s client", vendor)
}
