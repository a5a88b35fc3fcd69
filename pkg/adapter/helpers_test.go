package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/rs/zerolog"
)

// stateReply is one scripted answer to a PowerState query.
type stateReply struct {
	state string
	err   error
}

// fakeClient is a scripted vendor client. Unset listings return empty results.
// Unlike vendortest.Fake it scripts power-state sequences and records the
// arguments each primitive receives.
type fakeClient struct {
	mu sync.Mutex

	states      []stateReply
	stateCalls  int
	lastState   string
	powerCalls  []string
	rebootErrs  map[string]error
	powerOnErr  error
	powerOffErr error

	system      vendor.Raw
	systemCalls int
	systemErr   error

	cpus        []vendor.Raw
	controllers []vendor.Raw
	drives      map[string][]vendor.Raw
	volumes     map[string][]vendor.Raw
	driveCalls  []string
	media       []vendor.Raw
	inserted    []string
	ejected     []string
	insertErr   error
	overrides   []string
	jobs        map[string][]vendor.Raw
	listErr     error
	panicOn     string
}

var _ vendor.Client = (*fakeClient)(nil)

func (f *fakeClient) Name() string { return "fake" }
func (f *fakeClient) Close(ctx context.Context) error { return nil }

func (f *fakeClient) PowerState(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	if len(f.states) == 0 {
		return f.lastState, nil
	}
	reply := f.states[0]
	f.states = f.states[1:]
	if reply.err == nil {
		f.lastState = reply.state
	}
	return reply.state, reply.err
}

func (f *fakeClient) PowerOn(ctx context.Context) (bool, error) {
	f.powerCalls = append(f.powerCalls, "on")
	return f.powerOnErr == nil, f.powerOnErr
}

func (f *fakeClient) PowerOff(ctx context.Context, kind string) (bool, error) {
	f.powerCalls = append(f.powerCalls, "off:"+kind)
	return f.powerOffErr == nil, f.powerOffErr
}

func (f *fakeClient) Reboot(ctx context.Context, kind string) (bool, error) {
	f.powerCalls = append(f.powerCalls, "reboot:"+kind)
	err := f.rebootErrs[kind]
	return err == nil, err
}

func (f *fakeClient) SystemInfo(ctx context.Context) (vendor.Raw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemCalls++
	return f.system, f.systemErr
}

func (f *fakeClient) CPUs(ctx context.Context) ([]vendor.Raw, error) {
	if f.panicOn == "cpus" {
		panic("nil map access")
	}
	return f.cpus, f.listErr
}

func (f *fakeClient) Memory(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) NICs(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) Fans(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) PSUs(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }

func (f *fakeClient) Controllers(ctx context.Context) ([]vendor.Raw, error) {
	return f.controllers, f.listErr
}

func (f *fakeClient) Drives(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	f.driveCalls = append(f.driveCalls, controllerID)
	return f.drives[controllerID], f.listErr
}

func (f *fakeClient) Volumes(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	return f.volumes[controllerID], f.listErr
}

func (f *fakeClient) VirtualMedia(ctx context.Context) ([]vendor.Raw, error) {
	return f.media, f.listErr
}

func (f *fakeClient) InsertVirtualMedia(ctx context.Context, url, device string) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	f.inserted = append(f.inserted, device+"="+url)
	return true, nil
}

func (f *fakeClient) EjectVirtualMedia(ctx context.Context, device string) (bool, error) {
	f.ejected = append(f.ejected, device)
	return true, nil
}

func (f *fakeClient) BootOptions(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }

func (f *fakeClient) SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error) {
	f.overrides = append(f.overrides, target)
	return true, nil
}

func (f *fakeClient) Jobs(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }

func (f *fakeClient) JobStatus(ctx context.Context, id string) (vendor.Raw, error) {
	queue, ok := f.jobs[id]
	if !ok {
		return nil, vendor.Errorf("fake", "job_status", "job %s not found", id)
	}
	reply := queue[0]
	if len(queue) > 1 {
		f.jobs[id] = queue[1:]
	}
	return reply, nil
}

func (f *fakeClient) CancelJob(ctx context.Context, id string) (bool, error) { return true, nil }
func (f *fakeClient) SELLog(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) Accounts(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) Sessions(ctx context.Context) ([]vendor.Raw, error) { return nil, f.listErr }
func (f *fakeClient) BMCNetwork(ctx context.Context) (vendor.Raw, error) { return vendor.Raw{}, f.listErr }

func (f *fakeClient) SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error) {
	return true, nil
}

func (f *fakeClient) BIOSAttributes(ctx context.Context) (vendor.Raw, error) { return vendor.Raw{}, f.listErr }

func (f *fakeClient) SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error) {
	return true, nil
}

// thermalClient adds temperature reporting to fakeClient.
type thermalClient struct {
	*fakeClient
	temps []vendor.Raw
}

func (t *thermalClient) Temperatures(ctx context.Context) ([]vendor.Raw, error) {
	return t.temps, nil
}

var errTransient = errors.New("read: connection reset by peer")

// newTestAdapter wraps c with a Dell normaliser and sleepers that record
// their calls instead of sleeping.
func newTestAdapter(c vendor.Client) (*Adapter, *[]time.Duration) {
	a := New(c, normalize.Dell(), WithLogger(zerolog.Nop()))
	var slept []time.Duration
	recordSleep := func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	a.Power().Sleep = recordSleep
	a.sleep = recordSleep
	return a, &slept
}

func replies(states ...string) []stateReply {
	out := make([]stateReply, len(states))
	for i, s := range states {
		out[i] = stateReply{state: s}
	}
	return out
}
