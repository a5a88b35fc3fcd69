package normalize

import (
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

// Controllers normalises storage controllers. Drives embedded in the payload
// as full objects are normalised into the "drives" field.
func (n *Normalizer) Controllers(raws []vendor.Raw) []*record.Record {
	return each(raws, n.Controller)
}

// Controller normalises one storage controller.
func (n *Normalizer) Controller(raw vendor.Raw) *record.Record {
	r := base(raw)
	ctrl := record.DigMap(raw, "StorageControllers", "0")
	r.Set("model", record.FirstString(raw, "Model"))
	r.SetDefault("model", record.FirstString(ctrl, "Model", "Name"))
	r.Set("firmware_version", record.FirstString(raw, "FirmwareVersion"))
	r.SetDefault("firmware_version", record.FirstString(ctrl, "FirmwareVersion"))
	r.Set("manufacturer", record.FirstString(raw, "Manufacturer"))
	r.SetDefault("manufacturer", record.FirstString(ctrl, "Manufacturer"))
	if speed, ok := record.DigInt(ctrl, "SpeedGbps"); ok {
		r.Set("speed_gbps", speed)
	}
	if protocols := stringList(record.DigSlice(ctrl, "SupportedDeviceProtocols")); len(protocols) > 0 {
		r.Set("protocols", protocols)
	}
	r.Set("battery_status", record.FirstString(raw, "BatteryStatus", "battery_status"))
	promote(r, raw, n.ControllerPromotions)

	drives := record.DigSlice(raw, "Drives")
	if count, ok := record.DigInt(raw, "Drives@odata.count"); ok {
		r.Set("drive_count", count)
	} else if drives != nil {
		r.Set("drive_count", int64(len(drives)))
	}
	var expanded []vendor.Raw
	for _, d := range maps(drives) {
		if len(d) > 1 {
			expanded = append(expanded, d)
		}
	}
	if len(expanded) > 0 {
		r.Set("drives", n.Drives(expanded))
	}
	return r
}

// Drives normalises physical disks.
func (n *Normalizer) Drives(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "model", raw, "Model")
		setString(r, "manufacturer", raw, "Manufacturer")
		setString(r, "serial", raw, "SerialNumber")
		setString(r, "firmware_version", raw, "Revision", "FirmwareVersion")
		setInt(r, "capacity_bytes", raw, "CapacityBytes", "capacity_bytes")
		setString(r, "media_type", raw, "MediaType")
		setString(r, "protocol", raw, "Protocol")
		setInt(r, "speed_gbps", raw, "NegotiatedSpeedGbs", "CapableSpeedGbs")
		setBool(r, "failure_predicted", raw, "FailurePredicted")
		if slot, ok := record.DigInt(raw, "PhysicalLocation", "PartLocation", "LocationOrdinalValue"); ok {
			r.Set("slot", slot)
		}
		promote(r, raw, n.DrivePromotions)
		return r
	})
}

// Volumes normalises logical volumes. The owning controller is taken from the
// payload when present, otherwise derived from the volume's reference.
func (n *Normalizer) Volumes(raws []vendor.Raw) []*record.Record {
	return each(raws, func(raw vendor.Raw) *record.Record {
		r := base(raw)
		setString(r, "raid_type", raw, "RAIDType", "VolumeType")
		setInt(r, "capacity_bytes", raw, "CapacityBytes", "capacity_bytes")
		setBool(r, "encrypted", raw, "Encrypted")
		setInt(r, "stripe_size_bytes", raw, "StripSizeBytes", "OptimumIOSizeBytes")
		r.Set("controller_id", record.FirstString(raw, "controller_id"))
		r.SetDefault("controller_id", ControllerFromVolume(record.Reference(raw)))

		vol := record.New(raw)
		if refs := record.VolumeDriveRefs(vol); len(refs) > 0 {
			r.Set("drive_refs", refs)
		}
		return r
	})
}

// ControllerFromVolume trims a volume reference back to its storage
// controller reference: ".../Storage/RAID.1/Volumes/Disk.0" becomes
// ".../Storage/RAID.1".
func ControllerFromVolume(ref string) string {
	i := strings.Index(ref, "/Volumes/")
	if i <= 0 {
		return ""
	}
	return ref[:i]
}
