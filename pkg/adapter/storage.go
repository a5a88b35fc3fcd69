package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

func (a *Adapter) StorageControllers(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "storage_controllers", a.client.Controllers, a.norm.Controllers)
}

// FindController resolves a controller named by reference path or by id. A
// reference path is used as given without a round trip.
func (a *Adapter) FindController(ctx context.Context, ref string) (any, error) {
	if ref == "" {
		return nil, invalidArgument("storage_controllers", "storage_controllers: controller is empty")
	}
	if strings.HasPrefix(ref, "/") {
		return map[string]any{"@odata.id": ref}, nil
	}
	controllers, err := a.StorageControllers(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range controllers {
		if c.ID == ref || c.String("id") == ref {
			return c, nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Op: "storage_controllers", Message: fmt.Sprintf("controller %s not found", ref)}
}

// FindVolume returns the volume of controller whose id or reference is ref.
func (a *Adapter) FindVolume(ctx context.Context, controller any, ref string) (*record.Record, error) {
	volumes, err := a.Volumes(ctx, controller)
	if err != nil {
		return nil, err
	}
	for _, v := range volumes {
		if v.ID == ref || v.String("id") == ref || record.Reference(v.Raw) == ref {
			return v, nil
		}
	}
	return nil, &Error{Kind: KindNotFound, Op: "volumes", Message: fmt.Sprintf("volume %s not found", ref)}
}

// Drives lists the physical disks behind a controller. The controller may be a
// record or a raw vendor map.
func (a *Adapter) Drives(ctx context.Context, controller any) ([]*record.Record, error) {
	id, err := requireIdentifier("drives", controller)
	if err != nil {
		return nil, err
	}
	return a.drives(ctx, id)
}

func (a *Adapter) drives(ctx context.Context, controllerID string) ([]*record.Record, error) {
	return list(ctx, "drives", func(ctx context.Context) ([]vendor.Raw, error) {
		return a.client.Drives(ctx, controllerID)
	}, a.norm.Drives)
}

// Volumes lists the logical volumes of a controller.
func (a *Adapter) Volumes(ctx context.Context, controller any) ([]*record.Record, error) {
	id, err := requireIdentifier("volumes", controller)
	if err != nil {
		return nil, err
	}
	return a.volumes(ctx, id)
}

func (a *Adapter) volumes(ctx context.Context, controllerID string) ([]*record.Record, error) {
	return list(ctx, "volumes", func(ctx context.Context) ([]vendor.Raw, error) {
		return a.client.Volumes(ctx, controllerID)
	}, a.norm.Volumes)
}

// VolumeDrives returns the drives a volume is built from. The owning
// controller comes from the volume's controller_id or its reference.
func (a *Adapter) VolumeDrives(ctx context.Context, volume *record.Record) ([]*record.Record, error) {
	if volume == nil {
		return nil, invalidArgument("volume_drives", "volume_drives: volume is nil")
	}
	controllerID := volume.String("controller_id")
	if controllerID == "" {
		controllerID = normalize.ControllerFromVolume(record.Reference(volume.Raw))
	}
	if controllerID == "" {
		controllerID = normalize.ControllerFromVolume(volume.String("odata_id"))
	}
	if controllerID == "" {
		return nil, &Error{
			Kind:    KindNotFound,
			Op:      "volume_drives",
			Message: "volume_drives: cannot determine the controller owning the volume",
			Local:   true,
			Err:     record.ErrNoIdentifier,
		}
	}
	drives, err := a.drives(ctx, controllerID)
	if err != nil {
		return nil, err
	}
	return record.DrivesForVolume(volume, drives), nil
}

// StorageSummary walks every controller and totals its drives and volumes.
func (a *Adapter) StorageSummary(ctx context.Context) (*record.Record, error) {
	controllers, err := a.StorageControllers(ctx)
	if err != nil {
		return nil, err
	}
	var (
		totalDrives   int64
		totalVolumes  int64
		totalCapacity int64
		rows          = make([]*record.Record, 0, len(controllers))
	)
	for _, c := range controllers {
		id, err := requireIdentifier("storage_summary", c)
		if err != nil {
			return nil, err
		}
		drives, err := a.drives(ctx, id)
		if err != nil {
			return nil, err
		}
		volumes, err := a.volumes(ctx, id)
		if err != nil {
			return nil, err
		}
		var capacity int64
		for _, d := range drives {
			if n, ok := d.Int64("capacity_bytes"); ok {
				capacity += n
			}
		}
		row := record.New(nil).
			Set("id", c.String("id")).
			Set("model", c.String("model")).
			Set("health", c.String("health")).
			Set("drive_count", int64(len(drives))).
			Set("volume_count", int64(len(volumes))).
			Set("capacity_bytes", capacity)
		row.ID = id
		rows = append(rows, row)

		totalDrives += int64(len(drives))
		totalVolumes += int64(len(volumes))
		totalCapacity += capacity
	}
	return record.New(nil).
		Set("controller_count", int64(len(controllers))).
		Set("drive_count", totalDrives).
		Set("volume_count", totalVolumes).
		Set("capacity_bytes", totalCapacity).
		Set("controllers", rows), nil
}
