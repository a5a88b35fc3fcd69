package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message string
		want    Kind
	}{
		{"dial tcp 10.0.0.1:443: connect: connection refused", KindConnection},
		{"host unreachable", KindConnection},
		{"media already attached", KindBusy},
		{"device in use by another session", KindBusy},
		{"resource not found", KindNotFound},
		{"job JID_123 does not exist", KindNotFound},
		{"request timeout after 30s", KindTimeout},
		{"Connection Refused", KindGeneric},
		{"something odd happened", KindGeneric},
		{"", KindGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.message), tt.message)
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, Translate("op", nil))

	vendorErr := vendor.Errorf("idrac", "insert_virtual_media", "media already attached")
	err := Translate("insert_virtual_media", fmt.Errorf("wrapped: %w", vendorErr))
	var canonical *Error
	require.True(t, errors.As(err, &canonical))
	assert.Equal(t, KindBusy, canonical.Kind)
	assert.Equal(t, "media already attached", canonical.Message)
	assert.False(t, canonical.Local)
	assert.True(t, errors.Is(err, ErrBusy))
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.Same(t, err, Translate("again", err))

	plain := Translate("system_info", errors.New("boom"))
	assert.True(t, errors.Is(plain, ErrGeneric))
	assert.Equal(t, "unexpected error during system_info: boom", plain.Error())
}

func TestCallRecoversPanics(t *testing.T) {
	a, _ := newTestAdapter(&fakeClient{panicOn: "cpus"})

	cpus, err := a.CPUs(context.Background())
	assert.Nil(t, cpus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneric))
	assert.Contains(t, err.Error(), "unexpected error during cpus")
}

func TestServiceTagIsMemoised(t *testing.T) {
	c := &fakeClient{system: vendor.Raw{"SKU": "ABC1234", "Model": "PowerEdge R740", "SerialNumber": "CN01"}}
	a, _ := newTestAdapter(c)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, err := a.ServiceTag(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "ABC1234", tag)
		}()
	}
	wg.Wait()

	model, err := a.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R740", model)
	serial, err := a.Serial(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CN01", serial)
	mk, err := a.Make(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dell", mk)

	assert.Equal(t, 1, c.systemCalls)
}

func TestSystemInfoFillsMemo(t *testing.T) {
	c := &fakeClient{system: vendor.Raw{"SKU": "TAG"}}
	a, _ := newTestAdapter(c)

	_, err := a.SystemInfo(context.Background())
	require.NoError(t, err)
	tag, err := a.ServiceTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TAG", tag)
	assert.Equal(t, 1, c.systemCalls)
}

func TestMemoNotFilledOnFailure(t *testing.T) {
	c := &fakeClient{systemErr: vendor.Errorf("fake", "system_info", "connection refused")}
	a, _ := newTestAdapter(c)

	_, err := a.ServiceTag(context.Background())
	require.True(t, errors.Is(err, ErrConnection))

	c.systemErr = nil
	c.system = vendor.Raw{"SKU": "LATE"}
	tag, err := a.ServiceTag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LATE", tag)
}

func TestTemperaturesUnsupported(t *testing.T) {
	a, _ := newTestAdapter(&fakeClient{})
	temps, err := a.Temperatures(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, temps)
	assert.Empty(t, temps)

	b, _ := newTestAdapter(&thermalClient{fakeClient: &fakeClient{}, temps: []vendor.Raw{{"Name": "Inlet", "ReadingCelsius": 21.0}}})
	temps, err = b.Temperatures(context.Background())
	require.NoError(t, err)
	require.Len(t, temps, 1)
	assert.Equal(t, "Inlet", temps[0].String("name"))
}

const ctrlRef = "/redfish/v1/Systems/System.Embedded.1/Storage/RAID.Integrated.1-1"

func storageClient() *fakeClient {
	drive := func(n int) vendor.Raw {
		return vendor.Raw{
			"@odata.id":     fmt.Sprintf("%s/Drives/Disk.Bay.%d", ctrlRef, n),
			"Id":            fmt.Sprintf("Disk.Bay.%d", n),
			"CapacityBytes": float64(1000),
		}
	}
	return &fakeClient{
		controllers: []vendor.Raw{{"@odata.id": ctrlRef, "Id": "RAID.Integrated.1-1"}},
		drives:      map[string][]vendor.Raw{ctrlRef: {drive(1), drive(2), drive(3)}},
		volumes: map[string][]vendor.Raw{ctrlRef: {{
			"@odata.id": ctrlRef + "/Volumes/Disk.Virtual.0",
			"Id":        "Disk.Virtual.0",
			"Links": map[string]any{"Drives": []any{
				map[string]any{"@odata.id": ctrlRef + "/Drives/Disk.Bay.1"},
				map[string]any{"@odata.id": ctrlRef + "/Drives/Disk.Bay.3"},
			}},
		}}},
	}
}

func TestDrivesRequiresIdentifier(t *testing.T) {
	c := storageClient()
	a, _ := newTestAdapter(c)

	_, err := a.Drives(context.Background(), &record.Record{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, c.driveCalls)

	_, err = a.Drives(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestDrivesAcceptsRecordOrRawMap(t *testing.T) {
	c := storageClient()
	a, _ := newTestAdapter(c)
	ctx := context.Background()

	controllers, err := a.StorageControllers(ctx)
	require.NoError(t, err)
	require.Len(t, controllers, 1)

	drives, err := a.Drives(ctx, controllers[0])
	require.NoError(t, err)
	assert.Len(t, drives, 3)

	drives, err = a.Drives(ctx, map[string]any{"odata.id": ctrlRef})
	require.NoError(t, err)
	assert.Len(t, drives, 3)
	assert.Equal(t, []string{ctrlRef, ctrlRef}, c.driveCalls)
}

func TestVolumeDrives(t *testing.T) {
	a, _ := newTestAdapter(storageClient())
	ctx := context.Background()

	volumes, err := a.Volumes(ctx, map[string]any{"@odata.id": ctrlRef})
	require.NoError(t, err)
	require.Len(t, volumes, 1)

	members, err := a.VolumeDrives(ctx, volumes[0])
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Disk.Bay.1", members[0].String("id"))
	assert.Equal(t, "Disk.Bay.3", members[1].String("id"))

	_, err = a.VolumeDrives(ctx, record.New(nil))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestFindControllerAndVolume(t *testing.T) {
	a, _ := newTestAdapter(storageClient())
	ctx := context.Background()

	byID, err := a.FindController(ctx, "RAID.Integrated.1-1")
	require.NoError(t, err)
	byRef, err := a.FindController(ctx, ctrlRef)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"@odata.id": ctrlRef}, byRef)

	volume, err := a.FindVolume(ctx, byID, "Disk.Virtual.0")
	require.NoError(t, err)
	assert.Equal(t, ctrlRef+"/Volumes/Disk.Virtual.0", record.Reference(volume.Raw))

	_, err = a.FindVolume(ctx, byRef, "Disk.Virtual.9")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = a.FindController(ctx, "RAID.Slot.9")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = a.FindController(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestStorageSummary(t *testing.T) {
	a, _ := newTestAdapter(storageClient())

	summary, err := a.StorageSummary(context.Background())
	require.NoError(t, err)
	drives, _ := summary.Int("drive_count")
	volumes, _ := summary.Int("volume_count")
	capacity, _ := summary.Int64("capacity_bytes")
	assert.Equal(t, 3, drives)
	assert.Equal(t, 1, volumes)
	assert.Equal(t, int64(3000), capacity)
	assert.Equal(t, "RAID.Integrated.1-1", summary.String("controllers.0.id"))
}

func TestInsertVirtualMedia(t *testing.T) {
	c := &fakeClient{}
	a, _ := newTestAdapter(c)
	ctx := context.Background()

	_, err := a.InsertVirtualMedia(ctx, " ", "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Empty(t, c.inserted)

	ok, err := a.InsertVirtualMedia(ctx, "http://repo/boot.iso", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"CD=http://repo/boot.iso"}, c.inserted)

	c.insertErr = vendor.Errorf("fake", "insert_virtual_media", "virtual media already attached")
	_, err = a.InsertVirtualMedia(ctx, "http://repo/boot.iso", "CD")
	assert.True(t, errors.Is(err, ErrBusy))
}

func TestMountISOAndBoot(t *testing.T) {
	c := &fakeClient{}
	a, _ := newTestAdapter(c)

	ok, err := a.MountISOAndBoot(context.Background(), "http://repo/boot.iso", "", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{BootCD}, c.overrides)
	assert.Equal(t, []string{"reboot:graceful"}, c.powerCalls)

	ok, err = a.MountISOAndBoot(context.Background(), "http://repo/rescue.iso", "RemovableDisk", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"CD=http://repo/boot.iso", "RemovableDisk=http://repo/rescue.iso"}, c.inserted)
}

func TestUnmountAllMedia(t *testing.T) {
	c := &fakeClient{media: []vendor.Raw{
		{"Id": "CD", "Inserted": true},
		{"Id": "RemovableDisk", "Inserted": false},
		{"Id": "Floppy", "Inserted": true},
	}}
	a, _ := newTestAdapter(c)

	ok, err := a.UnmountAllMedia(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"CD", "Floppy"}, c.ejected)
}

func TestBootShortcuts(t *testing.T) {
	c := &fakeClient{}
	a, _ := newTestAdapter(c)
	ctx := context.Background()

	for _, fn := range []func(context.Context) (bool, error){a.BootToPXE, a.BootToDisk, a.BootToCD, a.BootToBIOS} {
		_, err := fn(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{BootPXE, BootDisk, BootCD, BootBIOS}, c.overrides)

	_, err := a.SetBootOverride(ctx, "", false, false)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestWaitForJob(t *testing.T) {
	c := &fakeClient{jobs: map[string][]vendor.Raw{
		"JID_1": {
			{"Id": "JID_1", "JobState": "Running"},
			{"Id": "JID_1", "JobState": "Running"},
			{"Id": "JID_1", "JobState": "Completed", "PercentComplete": float64(100)},
		},
		"JID_2": {{"Id": "JID_2", "JobState": "Running"}},
	}}
	a, slept := newTestAdapter(c)
	ctx := context.Background()

	job, err := a.WaitForJob(ctx, "JID_1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "Completed", job.String("state"))
	assert.Equal(t, []time.Duration{DefaultJobPollInterval, DefaultJobPollInterval}, *slept)

	job, err = a.WaitForJob(ctx, "JID_2", 10*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, "Running", job.String("state"))

	_, err = a.WaitForJob(ctx, "JID_9", time.Second)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
}

func TestWaitForJobUsesItsOwnInterval(t *testing.T) {
	c := &fakeClient{jobs: map[string][]vendor.Raw{
		"JID_3": {{"Id": "JID_3", "JobState": "Scheduled"}},
	}}
	a := New(c, normalize.Dell(), WithLogger(zerolog.Nop()), WithJobPollInterval(30*time.Second))
	var slept []time.Duration
	a.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	a.Power().Interval = time.Millisecond

	_, err := a.WaitForJob(context.Background(), "JID_3", time.Minute)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, slept)
}

func TestLocalArgumentChecks(t *testing.T) {
	a, _ := newTestAdapter(&fakeClient{})
	ctx := context.Background()

	_, err := a.JobStatus(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = a.CancelJob(ctx, "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = a.SetBMCNetwork(ctx, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = a.SetBIOSAttributes(ctx, map[string]any{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestExtractIdentifierCallerError(t *testing.T) {
	_, err := ExtractIdentifier(map[string]any{"Name": "no reference"})
	require.Error(t, err)
	var canonical *Error
	require.True(t, errors.As(err, &canonical))
	assert.Equal(t, KindNotFound, canonical.Kind)
	assert.True(t, canonical.Local)
	assert.True(t, errors.Is(err, record.ErrNoIdentifier))
}
