// Package vendortest provides an in-memory vendor.Client for tests of code
// built on the adapter.
package vendortest

import (
	"context"
	"sync"

	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// Fake serves canned records. Errs fails an operation by its name, e.g.
// "power_on" or "drives". Calls records every primitive invoked.
type Fake struct {
	VendorName  string
	State       string
	System      vendor.Raw
	CPUList     []vendor.Raw
	MemoryList  []vendor.Raw
	StorageList []vendor.Raw
	DriveMap    map[string][]vendor.Raw
	VolumeMap   map[string][]vendor.Raw
	Media       []vendor.Raw
	JobMap      map[string]vendor.Raw
	Errs        map[string]error

	mu    sync.Mutex
	Calls []string
}

var _ vendor.Client = (*Fake)(nil)

func (f *Fake) call(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	return f.Errs[op]
}

// Called reports how often op was invoked.
func (f *Fake) Called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *Fake) Name() string {
	if f.VendorName == "" {
		return "fake"
	}
	return f.VendorName
}

func (f *Fake) Close(ctx context.Context) error { return f.call("close") }

func (f *Fake) PowerState(ctx context.Context) (string, error) {
	if err := f.call("power_state"); err != nil {
		return "", err
	}
	return f.State, nil
}

func (f *Fake) setState(op, state string) (bool, error) {
	if err := f.call(op); err != nil {
		return false, err
	}
	f.mu.Lock()
	f.State = state
	f.mu.Unlock()
	return true, nil
}

func (f *Fake) PowerOn(ctx context.Context) (bool, error) { return f.setState("power_on", "On") }

func (f *Fake) PowerOff(ctx context.Context, kind string) (bool, error) {
	return f.setState("power_off", "Off")
}

func (f *Fake) Reboot(ctx context.Context, kind string) (bool, error) {
	return f.setState("reboot", "On")
}

func (f *Fake) SystemInfo(ctx context.Context) (vendor.Raw, error) {
	if err := f.call("system_info"); err != nil {
		return nil, err
	}
	return f.System, nil
}

func (f *Fake) list(op string, v []vendor.Raw) ([]vendor.Raw, error) {
	if err := f.call(op); err != nil {
		return nil, err
	}
	if v == nil {
		return []vendor.Raw{}, nil
	}
	return v, nil
}

func (f *Fake) CPUs(ctx context.Context) ([]vendor.Raw, error)   { return f.list("cpus", f.CPUList) }
func (f *Fake) Memory(ctx context.Context) ([]vendor.Raw, error) { return f.list("memory", f.MemoryList) }
func (f *Fake) NICs(ctx context.Context) ([]vendor.Raw, error)   { return f.list("nics", nil) }
func (f *Fake) Fans(ctx context.Context) ([]vendor.Raw, error)   { return f.list("fans", nil) }
func (f *Fake) PSUs(ctx context.Context) ([]vendor.Raw, error)   { return f.list("psus", nil) }

func (f *Fake) Controllers(ctx context.Context) ([]vendor.Raw, error) {
	return f.list("storage_controllers", f.StorageList)
}

func (f *Fake) Drives(ctx context.Context, id string) ([]vendor.Raw, error) {
	return f.list("drives", f.DriveMap[id])
}

func (f *Fake) Volumes(ctx context.Context, id string) ([]vendor.Raw, error) {
	return f.list("volumes", f.VolumeMap[id])
}

func (f *Fake) VirtualMedia(ctx context.Context) ([]vendor.Raw, error) {
	return f.list("virtual_media", f.Media)
}

func (f *Fake) InsertVirtualMedia(ctx context.Context, url, device string) (bool, error) {
	return true, f.call("insert_virtual_media")
}

func (f *Fake) EjectVirtualMedia(ctx context.Context, device string) (bool, error) {
	return true, f.call("eject_virtual_media")
}

func (f *Fake) BootOptions(ctx context.Context) ([]vendor.Raw, error) {
	return f.list("boot_options", nil)
}

func (f *Fake) SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error) {
	return true, f.call("set_boot_override")
}

func (f *Fake) Jobs(ctx context.Context) ([]vendor.Raw, error) {
	if err := f.call("jobs"); err != nil {
		return nil, err
	}
	out := []vendor.Raw{}
	for _, j := range f.JobMap {
		out = append(out, j)
	}
	return out, nil
}

func (f *Fake) JobStatus(ctx context.Context, id string) (vendor.Raw, error) {
	if err := f.call("job_status"); err != nil {
		return nil, err
	}
	job, ok := f.JobMap[id]
	if !ok {
		return nil, vendor.Errorf(f.Name(), "job_status", "job %s not found", id)
	}
	return job, nil
}

func (f *Fake) CancelJob(ctx context.Context, id string) (bool, error) {
	return true, f.call("cancel_job")
}

func (f *Fake) SELLog(ctx context.Context) ([]vendor.Raw, error)   { return f.list("sel_log", nil) }
func (f *Fake) Accounts(ctx context.Context) ([]vendor.Raw, error) { return f.list("accounts", nil) }
func (f *Fake) Sessions(ctx context.Context) ([]vendor.Raw, error) { return f.list("sessions", nil) }

func (f *Fake) BMCNetwork(ctx context.Context) (vendor.Raw, error) {
	return vendor.Raw{}, f.call("bmc_network")
}

func (f *Fake) SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error) {
	return true, f.call("set_bmc_network")
}

func (f *Fake) BIOSAttributes(ctx context.Context) (vendor.Raw, error) {
	return vendor.Raw{"Attributes": map[string]any{}}, f.call("bios_attributes")
}

func (f *Fake) SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error) {
	return true, f.call("set_bios_attributes")
}
