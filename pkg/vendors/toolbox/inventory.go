package toolbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

const mib = 1 << 20

// inventory fetches the bmclib device inventory as a JSON object so the
// component translators below can walk it without binding to its Go types.
func (c *Client) inventory(ctx context.Context, op string) (vendor.Raw, error) {
	device, err := c.bmc.Inventory(ctx)
	if err != nil {
		return nil, vendor.Wrap(name, op, err)
	}
	data, err := json.Marshal(device)
	if err != nil {
		return nil, vendor.Errorf(name, op, "failed to encode inventory: %v", err)
	}
	var out vendor.Raw
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, vendor.Errorf(name, op, "failed to decode inventory: %v", err)
	}
	return out, nil
}

// component translates the common inventory fields into their Redfish names.
func component(m map[string]any) vendor.Raw {
	raw := vendor.Raw{}
	put(raw, "Id", record.FirstString(m, "id", "ID", "slot"))
	put(raw, "Name", record.FirstString(m, "product_name", "description"))
	put(raw, "Manufacturer", record.FirstString(m, "vendor"))
	put(raw, "Model", record.FirstString(m, "model"))
	put(raw, "SerialNumber", record.FirstString(m, "serial"))
	put(raw, "FirmwareVersion", record.DigString(m, "firmware", "installed"))
	status := vendor.Raw{}
	put(status, "Health", record.DigString(m, "status", "health"))
	put(status, "State", record.DigString(m, "status", "state"))
	if len(status) > 0 {
		raw["Status"] = status
	}
	return raw
}

func put(raw vendor.Raw, key string, v any) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return
		}
	case nil:
		return
	}
	raw[key] = v
}

func parts(device vendor.Raw, keys ...string) []map[string]any {
	for _, key := range keys {
		list := record.DigSlice(device, key)
		if len(list) == 0 {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, v := range list {
			if m, ok := v.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func (c *Client) SystemInfo(ctx context.Context) (vendor.Raw, error) {
	device, err := c.inventory(ctx, "system_info")
	if err != nil {
		return nil, err
	}
	raw := component(device)
	put(raw, "BiosVersion", record.DigString(device, "bios", "firmware", "installed"))
	put(raw, "ManagerFirmwareVersion", record.DigString(device, "bmc", "firmware", "installed"))
	if state, err := c.PowerState(ctx); err == nil {
		raw["PowerState"] = state
	}
	return raw, nil
}

func (c *Client) CPUs(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "cpus")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for i, m := range parts(device, "cpus") {
		raw := component(m)
		put(raw, "Socket", record.FirstString(m, "slot"))
		if raw["Socket"] == nil {
			raw["Socket"] = fmt.Sprintf("CPU.%d", i+1)
		}
		put(raw, "ProcessorArchitecture", record.FirstString(m, "architecture"))
		if cores, ok := record.FirstInt(m, "cores"); ok {
			raw["TotalCores"] = cores
		}
		if threads, ok := record.FirstInt(m, "threads"); ok {
			raw["TotalThreads"] = threads
		}
		if hz, ok := record.FirstInt(m, "clock_speed_hz"); ok && hz > 0 {
			raw["MaxSpeedMHz"] = hz / 1_000_000
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

func (c *Client) Memory(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "memory")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for _, m := range parts(device, "memory") {
		raw := component(m)
		put(raw, "DeviceLocator", record.FirstString(m, "slot"))
		put(raw, "MemoryDeviceType", record.FirstString(m, "type"))
		put(raw, "PartNumber", record.FirstString(m, "part_number"))
		if size, ok := record.FirstInt(m, "size_bytes"); ok {
			raw["CapacityMiB"] = size / mib
		}
		if hz, ok := record.FirstInt(m, "clock_speed_hz"); ok && hz > 0 {
			raw["OperatingSpeedMhz"] = hz / 1_000_000
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

func (c *Client) NICs(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "nics")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for _, m := range parts(device, "nics") {
		raw := component(m)
		put(raw, "MACAddress", record.FirstString(m, "macaddress", "mac_address"))
		var ports []any
		for _, p := range parts(m, "nic_ports", "ports") {
			port := component(p)
			put(port, "MACAddress", record.FirstString(p, "macaddress", "mac_address"))
			put(port, "LinkStatus", record.FirstString(p, "link_status"))
			if bps, ok := record.FirstInt(p, "speed_bits"); ok && bps > 0 {
				port["CurrentLinkSpeedMbps"] = bps / 1_000_000
			}
			ports = append(ports, port)
		}
		if len(ports) > 0 {
			raw["Ports"] = ports
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

func (c *Client) Fans(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "fans")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for _, m := range parts(device, "fans") {
		raw := component(m)
		if rpm, ok := record.FirstInt(m, "speed_rpm", "reading"); ok {
			raw["Reading"] = rpm
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

func (c *Client) PSUs(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "psus")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for _, m := range parts(device, "power_supplies", "psus") {
		raw := component(m)
		put(raw, "PowerSupplyType", record.FirstString(m, "power_supply_type"))
		if w, ok := record.FirstInt(m, "power_capacity_watts", "capacity_watts"); ok {
			raw["PowerCapacityWatts"] = w
		}
		if w, ok := record.FirstInt(m, "power_input_watts"); ok {
			raw["PowerInputWatts"] = w
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

// Controllers lists storage controllers. bmclib has no reference scheme, so
// the controller id doubles as its "@odata.id".
func (c *Client) Controllers(ctx context.Context) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "storage_controllers")
	if err != nil {
		return nil, err
	}
	drives := parts(device, "drives")
	var out []vendor.Raw
	for _, m := range parts(device, "storage_controller", "storage_controllers") {
		raw := component(m)
		if id, ok := raw["Id"].(string); ok {
			raw["@odata.id"] = id
			raw["Drives@odata.count"] = len(drivesOf(drives, id))
		}
		ctrl := vendor.Raw{}
		if speed, ok := record.FirstInt(m, "speed_gbps"); ok {
			ctrl["SpeedGbps"] = speed
		}
		if protocols := record.DigSlice(m, "supported_device_protocols"); len(protocols) > 0 {
			ctrl["SupportedDeviceProtocols"] = protocols
		}
		if len(ctrl) > 0 {
			raw["StorageControllers"] = []any{ctrl}
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

// Drives lists the drives attached to a controller. Drives that do not name
// their controller are listed under every controller.
func (c *Client) Drives(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	device, err := c.inventory(ctx, "drives")
	if err != nil {
		return nil, err
	}
	var out []vendor.Raw
	for _, m := range drivesOf(parts(device, "drives"), controllerID) {
		raw := component(m)
		if id, ok := raw["Id"].(string); ok {
			raw["@odata.id"] = id
		}
		put(raw, "MediaType", record.FirstString(m, "type"))
		put(raw, "Protocol", record.FirstString(m, "protocol"))
		if size, ok := record.FirstInt(m, "capacity_bytes"); ok {
			raw["CapacityBytes"] = size
		}
		if speed, ok := record.FirstInt(m, "negotiated_speed_gbps", "capable_speed_gbps"); ok {
			raw["NegotiatedSpeedGbs"] = speed
		}
		out = append(out, raw)
	}
	return nonNil(out), nil
}

func drivesOf(drives []map[string]any, controllerID string) []map[string]any {
	var out []map[string]any
	for _, d := range drives {
		owner := record.FirstString(d, "storage_controller")
		if owner == "" || controllerID == "" || owner == controllerID {
			out = append(out, d)
		}
	}
	return out
}

func (c *Client) Volumes(ctx context.Context, controllerID string) ([]vendor.Raw, error) {
	return nil, vendor.ErrUnsupported(name, "volumes")
}

// Accounts lists BMC users as returned by the provider.
func (c *Client) Accounts(ctx context.Context) ([]vendor.Raw, error) {
	users, err := c.bmc.ReadUsers(ctx)
	if err != nil {
		return nil, vendor.Wrap(name, "accounts", err)
	}
	out := make([]vendor.Raw, 0, len(users))
	for _, u := range users {
		raw := vendor.Raw{}
		for k, v := range u {
			raw[k] = v
		}
		put(raw, "UserName", record.FirstString(raw, "UserName", "Name", "name", "username"))
		put(raw, "RoleId", record.FirstString(raw, "RoleId", "Role", "role", "privilege"))
		if raw["UserName"] == nil {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// BIOSAttributes returns the BIOS configuration under "Attributes", matching
// the Redfish Bios resource.
func (c *Client) BIOSAttributes(ctx context.Context) (vendor.Raw, error) {
	config, err := c.bmc.GetBiosConfiguration(ctx)
	if err != nil {
		return nil, vendor.Wrap(name, "bios_attributes", err)
	}
	attrs := make(map[string]any, len(config))
	for k, v := range config {
		attrs[k] = v
	}
	return vendor.Raw{"Id": "BIOS", "Attributes": attrs}, nil
}

func nonNil(list []vendor.Raw) []vendor.Raw {
	if list == nil {
		return []vendor.Raw{}
	}
	return list
}
