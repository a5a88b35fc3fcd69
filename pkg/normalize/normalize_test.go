package normalize

import (
	"testing"

	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripModelPrefix(t *testing.T) {
	n := Dell()
	tests := map[string]string{
		"PowerEdge R740":   "R740",
		"poweredge R650":   "R650",
		"POWEREDGE XE9680": "XE9680",
		"PowerEdge  R640":  " R640",
		" R640 ":           " R640 ",
		"R750xa":           "R750xa",
		"PowerEdgeR750":    "PowerEdgeR750",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, n.StripModelPrefix(in), in)
	}

	generic := New("Generic", false, "")
	assert.Equal(t, "PowerEdge R740", generic.StripModelPrefix("PowerEdge R740"))
}

func TestSystem(t *testing.T) {
	raw := vendor.Raw{
		"Id":                     "System.Embedded.1",
		"Manufacturer":           "Dell Inc.",
		"Model":                  "PowerEdge R740",
		"SerialNumber":           "CN7475",
		"SKU":                    "ABC1234",
		"BiosVersion":            "2.12.2",
		"ManagerFirmwareVersion": "6.10.30.00",
		"Status":                 map[string]any{"Health": "OK"},
	}
	r := Dell().System(raw)

	assert.Equal(t, "ABC1234", r.String("service_tag"))
	assert.Equal(t, "Dell Inc.", r.String("make"))
	assert.Equal(t, "R740", r.String("model"))
	assert.Equal(t, "CN7475", r.String("serial"))
	assert.Equal(t, "CN7475", r.String("serial_number"))
	assert.Equal(t, "2.12.2", r.String("firmware_version"))
	assert.Equal(t, "6.10.30.00", r.String("bmc_version"))
	native, ok := r.Bool("is_vendor_native")
	require.True(t, ok)
	assert.True(t, native)
}

func TestSystemOmitsMissingFields(t *testing.T) {
	r := New("Generic", false, "").System(vendor.Raw{"Model": "X11"})
	assert.False(t, r.Has("service_tag"))
	assert.False(t, r.Has("serial"))
	assert.Equal(t, "Generic", r.String("make"))
	assert.Equal(t, "X11", r.String("model"))
}

func TestCPUSummaryExpansion(t *testing.T) {
	summary := vendor.Raw{"Count": float64(2), "CoreCount": float64(8), "LogicalProcessorCount": float64(16), "Model": "Xeon Gold"}
	cpus := Dell().CPUs([]vendor.Raw{summary})
	require.Len(t, cpus, 2)

	for i, cpu := range cpus {
		socket, _ := cpu.Int("socket")
		cores, _ := cpu.Int("cores")
		threads, _ := cpu.Int("threads")
		assert.Equal(t, i+1, socket)
		assert.Equal(t, 4, cores)
		assert.Equal(t, 8, threads)
		assert.Equal(t, "Xeon Gold", cpu.String("model"))
		assert.False(t, cpu.Has("max_speed_mhz"))
	}
}

func TestCPUSummaryAlternateSpelling(t *testing.T) {
	summary := vendor.Raw{"Count": 4, "TotalCores": 64, "TotalThreads": 128}
	cpus := Dell().CPUs([]vendor.Raw{summary})
	require.Len(t, cpus, 4)
	cores, _ := cpus[3].Int("cores")
	assert.Equal(t, 16, cores)
	assert.False(t, cpus[0].Has("model"))
}

func TestCPUPerSocket(t *testing.T) {
	cpus := Dell().CPUs([]vendor.Raw{{
		"Id":           "CPU.Socket.1",
		"Socket":       "CPU.Socket.1",
		"Model":        "Intel(R) Xeon(R) Gold 6230",
		"TotalCores":   float64(20),
		"TotalThreads": float64(40),
		"MaxSpeedMHz":  float64(4000),
		"Status":       map[string]any{"Health": "OK", "State": "Enabled"},
	}})
	require.Len(t, cpus, 1)
	speed, ok := cpus[0].Int("max_speed_mhz")
	require.True(t, ok)
	assert.Equal(t, 4000, speed)
	assert.Equal(t, "OK", cpus[0].String("health"))
	assert.Equal(t, "Enabled", cpus[0].String("state"))
	assert.Equal(t, "CPU.Socket.1", cpus[0].String("socket_designation"))
}

func TestCPUSocketTypeIsStable(t *testing.T) {
	n := Dell()
	expanded := n.CPUs([]vendor.Raw{{"Count": 2, "CoreCount": 8}})
	perSocket := n.CPUs([]vendor.Raw{
		{"Id": "CPU.Socket.2", "Socket": "CPU.Socket.2"},
		{"Id": "CPU3"},
		{"Id": "Processor", "Socket": "Proc"},
	})
	require.Len(t, expanded, 2)
	require.Len(t, perSocket, 3)

	for _, cpu := range append(expanded, perSocket[:2]...) {
		socket, ok := cpu.Get("socket")
		require.True(t, ok)
		assert.IsType(t, int64(0), socket)
	}
	socket, _ := perSocket[0].Get("socket")
	assert.Equal(t, int64(2), socket)
	socket, _ = perSocket[1].Get("socket")
	assert.Equal(t, int64(3), socket)
	assert.False(t, perSocket[1].Has("socket_designation"))
	assert.False(t, perSocket[2].Has("socket"))
	assert.Equal(t, "Proc", perSocket[2].String("socket_designation"))
}

func TestNICPortsNormalisedRecursively(t *testing.T) {
	nics := Dell().NICs([]vendor.Raw{{
		"Id": "NIC.Integrated.1",
		"Ports": []any{
			map[string]any{"Id": "1", "AssociatedNetworkAddresses": []any{"aa:bb"}, "LinkStatus": "Up", "CurrentSpeedGbps": 25.0},
			map[string]any{"Id": "2"},
		},
	}})
	require.Len(t, nics, 1)
	ports := nics[0].Records("ports")
	require.Len(t, ports, 2)
	assert.Equal(t, "aa:bb", nics[0].String("ports.0.mac_address"))
	speed, _ := ports[0].Int("speed_mbps")
	assert.Equal(t, 25000, speed)
	assert.False(t, ports[1].Has("mac_address"))
}

func TestControllerBatteryPromotion(t *testing.T) {
	oem := map[string]any{"Dell": map[string]any{"DellControllerBattery": map[string]any{"PrimaryStatus": "Warning"}}}

	promoted := Dell().Controller(vendor.Raw{"Id": "RAID.1", "Oem": oem})
	assert.Equal(t, "Warning", promoted.String("battery_status"))

	primary := Dell().Controller(vendor.Raw{"Id": "RAID.1", "BatteryStatus": "OK", "Oem": oem})
	assert.Equal(t, "OK", primary.String("battery_status"))

	missing := Dell().Controller(vendor.Raw{"Id": "RAID.1", "Oem": map[string]any{"Dell": "unexpected"}})
	assert.False(t, missing.Has("battery_status"))
}

func TestControllerEmbeddedDrives(t *testing.T) {
	c := Dell().Controller(vendor.Raw{
		"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Storage/RAID.1",
		"Id":        "RAID.1",
		"StorageControllers": []any{
			map[string]any{"Model": "PERC H740P", "FirmwareVersion": "51.16"},
		},
		"Drives": []any{
			map[string]any{"@odata.id": "/d/0", "Id": "Disk.0", "CapacityBytes": float64(960197124096)},
			map[string]any{"@odata.id": "/d/1"},
		},
	})
	assert.Equal(t, "PERC H740P", c.String("model"))
	assert.Equal(t, "51.16", c.String("firmware_version"))
	count, _ := c.Int("drive_count")
	assert.Equal(t, 2, count)
	drives := c.Records("drives")
	require.Len(t, drives, 1)
	capacity, _ := drives[0].Int64("capacity_bytes")
	assert.Equal(t, int64(960197124096), capacity)
}

func TestVolumeControllerAndRefs(t *testing.T) {
	vols := Dell().Volumes([]vendor.Raw{{
		"@odata.id": "/redfish/v1/Systems/1/Storage/RAID.1/Volumes/Disk.Virtual.0",
		"Id":        "Disk.Virtual.0",
		"RAIDType":  "RAID1",
		"Links":     map[string]any{"Drives": []any{map[string]any{"@odata.id": "/d/0"}, map[string]any{"@odata.id": "/d/1"}}},
	}})
	require.Len(t, vols, 1)
	assert.Equal(t, "/redfish/v1/Systems/1/Storage/RAID.1", vols[0].String("controller_id"))
	assert.Equal(t, "RAID1", vols[0].String("raid_type"))
	refs, _ := vols[0].Get("drive_refs")
	assert.Equal(t, []string{"/d/0", "/d/1"}, refs)
}

func TestControllerFromVolume(t *testing.T) {
	assert.Equal(t, "/Storage/RAID.1", ControllerFromVolume("/Storage/RAID.1/Volumes/V0"))
	assert.Equal(t, "", ControllerFromVolume("/Storage/RAID.1"))
	assert.Equal(t, "", ControllerFromVolume(""))
}

func TestJobShapes(t *testing.T) {
	dell := Dell().Job(vendor.Raw{"Id": "JID_1", "JobState": "Completed", "PercentComplete": float64(100), "Message": "Job completed successfully."})
	assert.Equal(t, "Completed", dell.String("state"))
	pct, _ := dell.Int("percent_complete")
	assert.Equal(t, 100, pct)

	task := Dell().Job(vendor.Raw{"Id": "5", "TaskState": "Running", "Messages": []any{map[string]any{"Message": "in progress"}}})
	assert.Equal(t, "Running", task.String("state"))
	assert.Equal(t, "in progress", task.String("message"))
}

func TestBMCNetworkAndBIOS(t *testing.T) {
	net := Dell().BMCNetwork(vendor.Raw{
		"HostName":      "idrac-abc",
		"DHCPv4":        map[string]any{"DHCPEnabled": false},
		"IPv4Addresses": []any{map[string]any{"Address": "10.0.0.5", "SubnetMask": "255.255.255.0"}},
	})
	assert.Equal(t, "idrac-abc", net.String("hostname"))
	assert.Equal(t, "10.0.0.5", net.String("ipv4_address"))
	dhcp, ok := net.Bool("dhcp_enabled")
	assert.True(t, ok)
	assert.False(t, dhcp)

	bios := Dell().BIOSAttributes(vendor.Raw{"Attributes": map[string]any{"SysProfile": "PerfOptimized", "BootMode": "Uefi"}})
	assert.Equal(t, []string{"BootMode", "SysProfile"}, bios.Keys())

	bare := Dell().BIOSAttributes(vendor.Raw{"@odata.id": "/redfish/v1/Systems/System.Embedded.1/Bios", "Id": "Bios", "Name": "BIOS Configuration"})
	assert.Empty(t, bare.Keys())
	assert.Equal(t, "Bios", bare.ID)
}

func TestNormalisersTolerateGarbage(t *testing.T) {
	n := Dell()
	garbage := []vendor.Raw{nil, {}, {"Status": "broken", "Ports": "nope", "Drives": 7, "Links": []any{1}}}
	assert.NotPanics(t, func() {
		n.CPUs(garbage)
		n.Memory(garbage)
		n.NICs(garbage)
		n.Fans(garbage)
		n.PSUs(garbage)
		n.Temperatures(garbage)
		n.Controllers(garbage)
		n.Drives(garbage)
		n.Volumes(garbage)
		n.Jobs(garbage)
		n.SELLog(garbage)
		n.Accounts(garbage)
		n.Sessions(garbage)
		n.BootOptions(garbage)
		n.VirtualMedia(garbage)
		n.System(nil)
		n.BMCNetwork(nil)
		n.BIOSAttributes(nil)
	})
}
