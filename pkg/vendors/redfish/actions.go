package redfish

import (
	"context"
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

func (c *Client) reset(op, resetType string) (bool, error) {
	return c.post(op, join(c.paths.System, "Actions", "ComputerSystem.Reset"), map[string]string{
		"ResetType": resetType,
	})
}

func (c *Client) PowerOn(ctx context.Context) (bool, error) {
	return c.reset("power_on", "On")
}

func (c *Client) PowerOff(ctx context.Context, kind string) (bool, error) {
	rt, err := resetType(kind, false)
	if err != nil {
		return false, vendor.Wrap(c.flavour.Name, "power_off", err)
	}
	return c.reset("power_off", rt)
}

func (c *Client) Reboot(ctx context.Context, kind string) (bool, error) {
	rt, err := resetType(kind, true)
	if err != nil {
		return false, vendor.Wrap(c.flavour.Name, "reboot", err)
	}
	return c.reset("reboot", rt)
}

// mediaSlot resolves a device name ("CD", "RemovableDisk") to its slot path.
func (c *Client) mediaSlot(op, device string) (string, error) {
	slots, err := c.members(op, c.paths.VirtualMedia)
	if err != nil {
		return "", err
	}
	for _, slot := range slots {
		id := record.FirstString(slot, "Id")
		if strings.EqualFold(id, device) {
			return record.Reference(slot), nil
		}
		for _, t := range record.DigSlice(slot, "MediaTypes") {
			if s, ok := t.(string); ok && strings.EqualFold(s, device) {
				return record.Reference(slot), nil
			}
		}
	}
	return "", vendor.Errorf(c.flavour.Name, op, "virtual media device %s not found", device)
}

func (c *Client) InsertVirtualMedia(ctx context.Context, url, device string) (bool, error) {
	slot, err := c.mediaSlot("insert_virtual_media", device)
	if err != nil {
		return false, err
	}
	return c.post("insert_virtual_media", join(slot, "Actions", "VirtualMedia.InsertMedia"), map[string]any{
		"Image":          url,
		"Inserted":       true,
		"WriteProtected": true,
	})
}

func (c *Client) EjectVirtualMedia(ctx context.Context, device string) (bool, error) {
	slot, err := c.mediaSlot("eject_virtual_media", device)
	if err != nil {
		return false, err
	}
	return c.post("eject_virtual_media", join(slot, "Actions", "VirtualMedia.EjectMedia"), map[string]any{})
}

func (c *Client) SetBootOverride(ctx context.Context, target string, persistent, uefi bool) (bool, error) {
	enabled := "Once"
	if persistent {
		enabled = "Continuous"
	}
	mode := "Legacy"
	if uefi {
		mode = "UEFI"
	}
	return c.patch("set_boot_override", c.paths.System, map[string]any{
		"Boot": map[string]any{
			"BootSourceOverrideTarget":  target,
			"BootSourceOverrideEnabled": enabled,
			"BootSourceOverrideMode":    mode,
		},
	})
}

// CancelJob deletes a queued job. iDRAC cancels through its job service.
func (c *Client) CancelJob(ctx context.Context, id string) (bool, error) {
	if c.flavour.DellJobs && !strings.HasPrefix(id, "/") {
		return c.post("cancel_job", join(c.paths.Manager, "Oem", "Dell", "DellJobService", "Actions", "DellJobService.DeleteJobQueue"), map[string]string{
			"JobID": id,
		})
	}
	return c.delete("cancel_job", c.jobPath(id))
}

func (c *Client) SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error) {
	path, err := c.managerInterface("set_bmc_network")
	if err != nil {
		return false, err
	}
	return c.patch("set_bmc_network", path, settings)
}

// SetBIOSAttributes stages attributes on the pending settings resource.
func (c *Client) SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error) {
	bios, err := c.get("set_bios_attributes", join(c.paths.System, "Bios"))
	if err != nil {
		return false, err
	}
	target := record.Reference(record.DigMap(bios, "@Redfish.Settings", "SettingsObject"))
	if target == "" {
		target = join(c.paths.System, "Bios", "Settings")
	}
	return c.patch("set_bios_attributes", target, map[string]any{"Attributes": attrs})
}
