package redfish

import (
	"context"
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

func (c *Client) PowerState(ctx context.Context) (string, error) {
	system, err := c.get("power_state", c.paths.System)
	if err != nil {
		return "", err
	}
	return record.DigString(system, "PowerState"), nil
}

// SystemInfo returns the ComputerSystem resource with the manager firmware
// version added under "ManagerFirmwareVersion".
func (c *Client) SystemInfo(ctx context.Context) (vendor.Raw, error) {
	system, err := c.get("system_info", c.paths.System)
	if err != nil {
		return nil, err
	}
	if c.paths.Manager != "" {
		if manager, err := c.get("system_info", c.paths.Manager); err == nil {
			system["ManagerFirmwareVersion"] = record.DigString(manager, "FirmwareVersion")
		}
	}
	return system, nil
}

// CPUs lists processors. When the BMC exposes no processor collection the
// system's ProcessorSummary is returned instead.
func (c *Client) CPUs(ctx context.Context) ([]vendor.Raw, error) {
	system, err := c.get("cpus", c.paths.System)
	if err != nil {
		return nil, err
	}
	link := record.Reference(record.DigMap(system, "Processors"))
	if link == "" {
		if summary := record.DigMap(system, "ProcessorSummary"); summary != nil {
			return []vendor.Raw{summary}, nil
		}
		return []vendor.Raw{}, nil
	}
	procs, err := c.members("cpus", link)
	if err != nil {
		return nil, err
	}
	cpus := make([]vendor.Raw, 0, len(procs))
	for _, p := range procs {
		if t := record.DigString(p, "ProcessorType"); t != "" && !strings.EqualFold(t, "CPU") {
			continue
		}
		cpus = append(cpus, p)
	}
	return cpus, nil
}

func (c *Client) Memory(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("memory", join(c.paths.System, "Memory"))
}

// NICs lists network adapters with their ports embedded under "Ports".
func (c *Client) NICs(ctx context.Context) ([]vendor.Raw, error) {
	adapters, err := c.members("nics", join(c.paths.Chassis, "NetworkAdapters"))
	if err != nil {
		return nil, err
	}
	for _, adapter := range adapters {
		link := record.Reference(record.DigMap(adapter, "Ports"))
		if link == "" {
			link = record.Reference(record.DigMap(adapter, "NetworkPorts"))
		}
		if link == "" {
			continue
		}
		ports, err := c.members("nics", link)
		if err != nil {
			return nil, err
		}
		list := make([]any, len(ports))
		for i := range ports {
			list[i] = ports[i]
		}
		adapter["Ports"] = list
	}
	return adapters, nil
}

func (c *Client) thermal(op, key string) ([]vendor.Raw, error) {
	thermal, err := c.get(op, join(c.paths.Chassis, "Thermal"))
	if err != nil {
		return nil, err
	}
	return toRaws(record.DigSlice(thermal, key)), nil
}

func (c *Client) Fans(ctx context.Context) ([]vendor.Raw, error) {
	return c.thermal("fans", "Fans")
}

func (c *Client) Temperatures(ctx context.Context) ([]vendor.Raw, error) {
	return c.thermal("temperatures", "Temperatures")
}

func (c *Client) PSUs(ctx context.Context) ([]vendor.Raw, error) {
	power, err := c.get("psus", join(c.paths.Chassis, "Power"))
	if err != nil {
		return nil, err
	}
	return toRaws(record.DigSlice(power, "PowerSupplies")), nil
}

func (c *Client) Controllers(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("storage_controllers", join(c.paths.System, "Storage"))
}

// Drives lists the drives a storage resource links to.
func (c *Client) Drives(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	storage, err := c.get("drives", controllerID)
	if err != nil {
		return nil, err
	}
	return c.expand("drives", record.DigSlice(storage, "Drives"))
}

func (c *Client) Volumes(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	return c.members("volumes", join(controllerID, "Volumes"))
}

func (c *Client) BootOptions(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("boot_options", join(c.paths.System, "BootOptions"))
}

func (c *Client) VirtualMedia(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("virtual_media", c.paths.VirtualMedia)
}

func (c *Client) Jobs(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("jobs", c.paths.Jobs)
}

func (c *Client) JobStatus(ctx context.Context, id string) (vendor.Raw, error) {
	return c.get("job_status", c.jobPath(id))
}

func (c *Client) SELLog(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("sel_log", c.paths.SEL)
}

// Accounts lists user accounts, skipping the empty slots iDRAC reserves.
func (c *Client) Accounts(ctx context.Context) ([]vendor.Raw, error) {
	accounts, err := c.members("accounts", c.paths.Accounts)
	if err != nil {
		return nil, err
	}
	out := make([]vendor.Raw, 0, len(accounts))
	for _, a := range accounts {
		if record.DigString(a, "UserName") == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *Client) Sessions(ctx context.Context) ([]vendor.Raw, error) {
	return c.members("sessions", c.paths.Sessions)
}

// BMCNetwork returns the manager's first ethernet interface.
func (c *Client) BMCNetwork(ctx context.Context) (vendor.Raw, error) {
	path, err := c.managerInterface("bmc_network")
	if err != nil {
		return nil, err
	}
	return c.get("bmc_network", path)
}

func (c *Client) managerInterface(op string) (string, error) {
	coll, err := c.get(op, join(c.paths.Manager, "EthernetInterfaces"))
	if err != nil {
		return "", err
	}
	for _, m := range record.DigSlice(coll, "Members") {
		if ref, ok := m.(map[string]any); ok {
			if link := record.Reference(ref); link != "" {
				return link, nil
			}
		}
	}
	return "", vendor.Errorf(c.flavour.Name, op, "manager ethernet interface not found")
}

func (c *Client) BIOSAttributes(ctx context.Context) (vendor.Raw, error) {
	return c.get("bios_attributes", join(c.paths.System, "Bios"))
}

func (c *Client) jobPath(id string) string {
	if strings.HasPrefix(id, "/") {
		return id
	}
	return join(c.paths.Jobs, id)
}

func toRaws(list []any) []vendor.Raw {
	out := make([]vendor.Raw, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
