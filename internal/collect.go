// Package mercator holds the routines behind CLI commands that span several
// adapter operations.
package mercator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/internal/cache/sqlite"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/record"
)

// Inventory is the hardware picture gathered from one BMC. Errors maps each
// part that could not be read to the reason.
type Inventory struct {
	System     *record.Record    `json:"system,omitempty"`
	CPUs       []*record.Record  `json:"cpus,omitempty"`
	Memory     []*record.Record  `json:"memory,omitempty"`
	NICs       []*record.Record  `json:"nics,omitempty"`
	Fans       []*record.Record  `json:"fans,omitempty"`
	PSUs       []*record.Record  `json:"psus,omitempty"`
	Storage    *record.Record    `json:"storage,omitempty"`
	PowerState string            `json:"power_state,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`

	parts int
	fail  int
}

func part[T any](ctx context.Context, inv *Inventory, name string, fetch func(context.Context) (T, error)) T {
	inv.parts++
	v, err := fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("part", name).Msg("failed to collect")
		if inv.Errors == nil {
			inv.Errors = map[string]string{}
		}
		inv.Errors[name] = err.Error()
		inv.fail++
	}
	return v
}

// CollectInventory reads every inventory part it can. A failing part is
// recorded in Errors and does not stop the others.
func CollectInventory(ctx context.Context, a *adapter.Adapter) *Inventory {
	inv := &Inventory{}
	inv.System = part(ctx, inv, "system", a.SystemInfo)
	inv.PowerState = part(ctx, inv, "power_state", a.PowerStatus)
	inv.CPUs = part(ctx, inv, "cpus", a.CPUs)
	inv.Memory = part(ctx, inv, "memory", a.Memory)
	inv.NICs = part(ctx, inv, "nics", a.NICs)
	inv.Fans = part(ctx, inv, "fans", a.Fans)
	inv.PSUs = part(ctx, inv, "psus", a.PSUs)
	inv.Storage = part(ctx, inv, "storage", a.StorageSummary)
	return inv
}

// CollectSnapshot gathers an inventory from a into a cache snapshot for host.
// It fails only when no part could be read.
func CollectSnapshot(ctx context.Context, host string, a *adapter.Adapter) (sqlite.Snapshot, error) {
	inv := CollectInventory(ctx, a)
	if inv.fail == inv.parts {
		return sqlite.Snapshot{}, fmt.Errorf("failed to collect any inventory from %s: %s", host, inv.Errors["system"])
	}
	b, err := json.Marshal(inv)
	if err != nil {
		return sqlite.Snapshot{}, fmt.Errorf("failed to marshal inventory: %w", err)
	}
	snap := sqlite.Snapshot{
		Host:       host,
		Vendor:     a.Vendor(),
		PowerState: inv.PowerState,
		Inventory:  string(b),
		Timestamp:  time.Now().UTC(),
	}
	if inv.System != nil {
		snap.ServiceTag, _ = a.ServiceTag(ctx)
		snap.Model, _ = a.Model(ctx)
	}
	return snap, nil
}
