package normalize

import (
	"strconv"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// System flattens a ComputerSystem payload. Clients may add the manager
// firmware under "ManagerFirmwareVersion".
func (n *Normalizer) System(raw vendor.Raw) *record.Record {
	r := record.New(raw)
	r.ID = record.FirstString(raw, "Id", "ID")

	serial := record.FirstString(raw, "SerialNumber", "Serial", "serial")
	tag := record.FirstString(raw, "ServiceTag", "SKU")
	if tag == "" {
		tag = record.DigString(raw, "Oem", "Dell", "DellSystem", "ChassisServiceTag")
	}
	manufacturer := record.FirstString(raw, "Manufacturer", "Vendor", "vendor")

	r.Set("service_tag", tag)
	r.Set("manufacturer", manufacturer)
	if manufacturer != "" {
		r.Set("make", manufacturer)
	} else {
		r.Set("make", n.Vendor)
	}
	r.Set("model", n.StripModelPrefix(record.FirstString(raw, "Model", "model")))
	r.Set("serial", serial)
	r.Set("serial_number", serial)
	r.Set("firmware_version", record.FirstString(raw, "BiosVersion", "BIOSVersion", "bios_version"))
	r.Set("bmc_version", record.FirstString(raw, "ManagerFirmwareVersion", "BMCVersion", "bmc_version"))
	r.Set("hostname", record.FirstString(raw, "HostName", "Hostname"))
	r.Set("power_state", record.FirstString(raw, "PowerState"))
	r.Set("health", record.DigString(raw, "Status", "Health"))
	r.Set("is_vendor_native", n.Native)
	return r
}

// CPUs normalises processor payloads. A processor summary (Count plus totals)
// is expanded into one record per socket with cores and threads split evenly.
func (n *Normalizer) CPUs(raws []vendor.Raw) []*record.Record {
	out := []*record.Record{}
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if _, summary := raw["Count"]; summary {
			out = append(out, n.expandProcessorSummary(raw)...)
			continue
		}
		out = append(out, n.CPU(raw))
	}
	return out
}

// CPU normalises one processor. The socket number is taken from the trailing
// digits of the vendor socket name or id; the name itself is kept as
// socket_designation.
func (n *Normalizer) CPU(raw vendor.Raw) *record.Record {
	r := base(raw)
	designation := record.FirstString(raw, "Socket", "socket")
	for _, name := range []string{designation, record.FirstString(raw, "Id", "id")} {
		if socket, ok := socketNumber(name); ok {
			r.Set("socket", socket)
			break
		}
	}
	r.Set("socket_designation", designation)
	setString(r, "model", raw, "Model", "model")
	setString(r, "manufacturer", raw, "Manufacturer", "Vendor")
	setString(r, "architecture", raw, "ProcessorArchitecture", "InstructionSet")
	setInt(r, "cores", raw, "TotalCores", "CoreCount", "cores")
	setInt(r, "threads", raw, "TotalThreads", "LogicalProcessorCount", "threads")
	setInt(r, "max_speed_mhz", raw, "MaxSpeedMHz", "Speed", "ClockSpeedMHz")
	setInt(r, "operating_speed_mhz", raw, "OperatingSpeedMHz")
	return r
}

// socketNumber parses the number ending a socket name such as "CPU.Socket.2".
func socketNumber(name string) (int64, bool) {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.ParseInt(name[start:end], 10, 64)
	return n, err == nil
}

func (n *Normalizer) expandProcessorSummary(raw vendor.Raw) []*record.Record {
	count, ok := record.DigInt(raw, "Count")
	if !ok || count <= 0 {
		return nil
	}
	cores, hasCores := record.FirstInt(raw, "CoreCount", "TotalCores")
	threads, hasThreads := record.FirstInt(raw, "LogicalProcessorCount", "TotalThreads")
	model := record.FirstString(raw, "Model")

	out := make([]*record.Record, 0, count)
	for i := int64(1); i <= count; i++ {
		r := record.New(raw)
		socket := "CPU." + strconv.FormatInt(i, 10)
		r.ID = socket
		r.Set("id", socket)
		r.Set("socket", i)
		r.Set("model", model)
		if hasCores {
			r.Set("cores", cores/count)
		}
		if hasThreads {
			r.Set("threads", threads/count)
		}
		r.Set("health", record.DigString(raw, "Status", "Health"))
		out = append(out, r)
	}
	return out
}

// Memory normalises DIMM payloads.
func (n *Normalizer) Memory(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setInt(r, "capacity_mib", raw, "CapacityMiB", "capacity_mib")
		setInt(r, "speed_mhz", raw, "OperatingSpeedMhz", "OperatingSpeedMHz", "AllowedSpeedsMHz")
		setString(r, "type", raw, "MemoryDeviceType", "MemoryType")
		setString(r, "manufacturer", raw, "Manufacturer")
		setString(r, "part_number", raw, "PartNumber")
		setString(r, "serial", raw, "SerialNumber")
		setString(r, "location", raw, "DeviceLocator")
		if r.Has("location") {
			return r
		}
		r.Set("location", record.DigString(raw, "Location", "PartLocation", "ServiceLabel"))
		return r
	})
}

// NICs normalises network adapters together with their ports.
func (n *Normalizer) NICs(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "manufacturer", raw, "Manufacturer")
		setString(r, "model", raw, "Model")
		setString(r, "serial", raw, "SerialNumber")
		setString(r, "part_number", raw, "PartNumber")
		setString(r, "mac_address", raw, "MACAddress", "PermanentMACAddress")
		setString(r, "firmware_version", raw, "FirmwareVersion")
		for _, key := range []string{"Ports", "NetworkPorts", "ports"} {
			if list := record.DigSlice(raw, key); list != nil {
				r.Set("ports", n.Ports(maps(list)))
				break
			}
		}
		return r
	})
}

// Ports normalises NIC ports.
func (n *Normalizer) Ports(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		mac := record.FirstString(raw, "MACAddress", "mac_address")
		if mac == "" {
			mac = record.DigString(raw, "AssociatedNetworkAddresses", "0")
		}
		if mac == "" {
			mac = record.DigString(raw, "Ethernet", "AssociatedMACAddresses", "0")
		}
		r.Set("mac_address", mac)
		setString(r, "link_status", raw, "LinkStatus")
		if mbps, ok := record.FirstInt(raw, "CurrentLinkSpeedMbps", "CurrentSpeedMbps", "SpeedMbps"); ok {
			r.Set("speed_mbps", mbps)
		} else if gbps, ok := record.DigFloat(raw, "CurrentSpeedGbps"); ok {
			r.Set("speed_mbps", int64(gbps*1000))
		}
		setString(r, "port_number", raw, "PhysicalPortNumber", "PortId")
		return r
	})
}

// Fans normalises fan sensors.
func (n *Normalizer) Fans(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		r.SetDefault("name", record.FirstString(raw, "FanName", "MemberId"))
		if rpm, ok := record.FirstInt(raw, "Reading", "SpeedRPM"); ok {
			r.Set("reading", rpm)
		} else if rpm, ok := record.DigInt(raw, "SpeedPercent", "SpeedRPM"); ok {
			r.Set("reading", rpm)
		}
		setString(r, "reading_units", raw, "ReadingUnits")
		setInt(r, "lower_threshold_critical", raw, "LowerThresholdCritical")
		return r
	})
}

// PSUs normalises power supplies.
func (n *Normalizer) PSUs(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		r.SetDefault("name", record.FirstString(raw, "MemberId"))
		setString(r, "model", raw, "Model")
		setString(r, "manufacturer", raw, "Manufacturer")
		setString(r, "serial", raw, "SerialNumber")
		setString(r, "part_number", raw, "PartNumber")
		setString(r, "firmware_version", raw, "FirmwareVersion")
		setInt(r, "capacity_watts", raw, "PowerCapacityWatts", "CapacityWatts")
		setInt(r, "input_watts", raw, "PowerInputWatts", "LastPowerOutputWatts")
		setInt(r, "line_input_voltage", raw, "LineInputVoltage")
		setString(r, "type", raw, "PowerSupplyType")
		return r
	})
}

// Temperatures normalises thermal sensors.
func (n *Normalizer) Temperatures(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		r.SetDefault("name", record.FirstString(raw, "MemberId"))
		if c, ok := record.DigFloat(raw, "ReadingCelsius"); ok {
			r.Set("reading_celsius", c)
		} else if c, ok := record.DigFloat(raw, "Reading"); ok {
			r.Set("reading_celsius", c)
		}
		if c, ok := record.DigFloat(raw, "UpperThresholdCritical"); ok {
			r.Set("upper_threshold_critical", c)
		}
		setString(r, "physical_context", raw, "PhysicalContext")
		return r
	})
}
