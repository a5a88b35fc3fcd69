package adapter

import (
	"context"
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// Boot override targets.
const (
	BootPXE  = "Pxe"
	BootDisk = "Hdd"
	BootCD   = "Cd"
	BootBIOS = "BiosSetup"
)

// DefaultMediaDevice is the slot used when no device is named.
const DefaultMediaDevice = "CD"

func (a *Adapter) VirtualMedia(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "virtual_media", a.client.VirtualMedia, a.norm.VirtualMedia)
}

// InsertVirtualMedia attaches an image URL to a virtual media device.
func (a *Adapter) InsertVirtualMedia(ctx context.Context, url, device string) (bool, error) {
	if strings.TrimSpace(url) == "" {
		return false, invalidArgument("insert_virtual_media", "insert_virtual_media: media URL is empty")
	}
	if device == "" {
		device = DefaultMediaDevice
	}
	return Call("insert_virtual_media", func() (bool, error) {
		return a.client.InsertVirtualMedia(ctx, url, device)
	})
}

// EjectVirtualMedia detaches whatever image is attached to device.
func (a *Adapter) EjectVirtualMedia(ctx context.Context, device string) (bool, error) {
	if device == "" {
		device = DefaultMediaDevice
	}
	return Call("eject_virtual_media", func() (bool, error) {
		return a.client.EjectVirtualMedia(ctx, device)
	})
}

// MountISOAndBoot attaches an ISO to device, sets a one-time boot from virtual
// CD and restarts the host. An empty device selects DefaultMediaDevice.
func (a *Adapter) MountISOAndBoot(ctx context.Context, url, device string, wait bool) (bool, error) {
	if _, err := a.InsertVirtualMedia(ctx, url, device); err != nil {
		return false, err
	}
	if _, err := a.SetBootOverride(ctx, BootCD, false, true); err != nil {
		return false, err
	}
	return a.Reboot(ctx, vendor.KindGraceful, wait)
}

// UnmountAllMedia ejects every inserted slot. It reports false if any slot
// refused; the first failure is returned.
func (a *Adapter) UnmountAllMedia(ctx context.Context) (bool, error) {
	slots, err := a.VirtualMedia(ctx)
	if err != nil {
		return false, err
	}
	all := true
	for _, slot := range slots {
		if inserted, _ := slot.Bool("inserted"); !inserted {
			continue
		}
		device := slot.String("id")
		ok, err := a.EjectVirtualMedia(ctx, device)
		if err != nil {
			return false, err
		}
		a.logger.Debug().Str("device", device).Bool("ok", ok).Msg("ejected virtual media")
		all = all && ok
	}
	return all, nil
}

func (a *Adapter) BootOptions(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "boot_options", a.client.BootOptions, a.norm.BootOptions)
}

// SetBootOverride sets the next (or every, when persistent) boot target.
func (a *Adapter) SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error) {
	if target == "" {
		return false, invalidArgument("set_boot_override", "set_boot_override: boot target is empty")
	}
	return Call("set_boot_override", func() (bool, error) {
		return a.client.SetBootOverride(ctx, target, persistent, uefi)
	})
}

func (a *Adapter) BootToPXE(ctx context.Context) (bool, error) {
	return a.SetBootOverride(ctx, BootPXE, false, true)
}

func (a *Adapter) BootToDisk(ctx context.Context) (bool, error) {
	return a.SetBootOverride(ctx, BootDisk, false, true)
}

func (a *Adapter) BootToCD(ctx context.Context) (bool, error) {
	return a.SetBootOverride(ctx, BootCD, false, true)
}

func (a *Adapter) BootToBIOS(ctx context.Context) (bool, error) {
	return a.SetBootOverride(ctx, BootBIOS, false, true)
}
