package normalize

import (
	"sort"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// BootOptions normalises UEFI boot options.
func (n *Normalizer) BootOptions(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "display_name", raw, "DisplayName")
		setString(r, "reference", raw, "BootOptionReference")
		setString(r, "device_path", raw, "UefiDevicePath")
		setBool(r, "enabled", raw, "BootOptionEnabled")
		return r
	})
}

// VirtualMedia normalises virtual media slots.
func (n *Normalizer) VirtualMedia(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "image", raw, "Image")
		setString(r, "image_name", raw, "ImageName")
		setBool(r, "inserted", raw, "Inserted")
		setBool(r, "write_protected", raw, "WriteProtected")
		setString(r, "connected_via", raw, "ConnectedVia")
		if types := stringList(record.DigSlice(raw, "MediaTypes")); len(types) > 0 {
			r.Set("media_types", types)
		}
		return r
	})
}

// Jobs normalises Dell jobs, DMTF jobs and tasks into one shape.
func (n *Normalizer) Jobs(raws []vendor.Raw) []*record.Record {
	return each(raws, n.Job)
}

// Job normalises one job or task.
func (n *Normalizer) Job(raw vendor.Raw) *record.Record {
	r := base(raw)
	r.Set("state", record.FirstString(raw, "JobState", "TaskState", "state"))
	if pct, ok := record.FirstInt(raw, "PercentComplete", "percent_complete"); ok {
		r.Set("percent_complete", pct)
	}
	setString(r, "type", raw, "JobType")
	r.Set("message", record.FirstString(raw, "Message", "message"))
	r.SetDefault("message", record.DigString(raw, "Messages", "0", "Message"))
	setString(r, "start_time", raw, "StartTime", "ActualRunningStartTime")
	setString(r, "end_time", raw, "EndTime", "CompletionTime", "ActualRunningStopTime")
	return r
}

// SELLog normalises system event log entries.
func (n *Normalizer) SELLog(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "created", raw, "Created")
		setString(r, "severity", raw, "Severity", "MessageSeverity")
		setString(r, "message", raw, "Message")
		setString(r, "message_id", raw, "MessageId")
		setString(r, "sensor_type", raw, "SensorType")
		setString(r, "entry_type", raw, "EntryType")
		return r
	})
}

// Accounts normalises BMC user accounts.
func (n *Normalizer) Accounts(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "username", raw, "UserName", "Name", "username")
		setString(r, "role", raw, "RoleId", "Role", "role")
		setBool(r, "enabled", raw, "Enabled", "enabled")
		setBool(r, "locked", raw, "Locked")
		return r
	})
}

// Sessions normalises active BMC sessions.
func (n *Normalizer) Sessions(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "username", raw, "UserName")
		setString(r, "client_address", raw, "ClientOriginIPAddress")
		setString(r, "session_type", raw, "SessionType")
		setString(r, "created", raw, "CreatedTime")
		return r
	})
}

// BMCNetwork normalises the manager's ethernet interface.
func (n *Normalizer) BMCNetwork(raw vendor.Raw) *record.Record {
	r := base(raw)
	setString(r, "hostname", raw, "HostName")
	setString(r, "fqdn", raw, "FQDN")
	setString(r, "mac_address", raw, "MACAddress", "PermanentMACAddress")
	if v, ok := record.DigBool(raw, "DHCPv4", "DHCPEnabled"); ok {
		r.Set("dhcp_enabled", v)
	}
	addrs := maps(record.DigSlice(raw, "IPv4Addresses"))
	if len(addrs) > 0 {
		r.Set("ipv4_address", record.DigString(addrs[0], "Address"))
		r.Set("subnet_mask", record.DigString(addrs[0], "SubnetMask"))
		r.Set("gateway", record.DigString(addrs[0], "Gateway"))
		r.Set("address_origin", record.DigString(addrs[0], "AddressOrigin"))
	}
	if ns := stringList(record.DigSlice(raw, "NameServers")); len(ns) > 0 {
		r.Set("name_servers", ns)
	}
	if vlan, ok := record.DigInt(raw, "VLAN", "VLANId"); ok {
		r.Set("vlan_id", vlan)
	}
	return r
}

// BIOSAttributes flattens the values under "Attributes" into a record with
// keys in sorted order. A payload without them gives an empty record.
func (n *Normalizer) BIOSAttributes(raw vendor.Raw) *record.Record {
	attrs := record.DigMap(raw, "Attributes")
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r := record.New(raw)
	r.ID = record.FirstString(raw, "Id")
	for _, k := range keys {
		r.Set(k, scalar(attrs[k]))
	}
	return r
}
