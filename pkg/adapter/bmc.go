package adapter

import (
	"context"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

func (a *Adapter) SELLog(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "sel_log", a.client.SELLog, a.norm.SELLog)
}

func (a *Adapter) Accounts(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "accounts", a.client.Accounts, a.norm.Accounts)
}

func (a *Adapter) Sessions(ctx context.Context) ([]*record.Record, error) {
	return list(ctx, "sessions", a.client.Sessions, a.norm.Sessions)
}

func (a *Adapter) BMCNetwork(ctx context.Context) (*record.Record, error) {
	raw, err := Call("bmc_network", func() (vendor.Raw, error) {
		return a.client.BMCNetwork(ctx)
	})
	if err != nil {
		return nil, err
	}
	return a.norm.BMCNetwork(raw), nil
}

// SetBMCNetwork patches the manager's ethernet interface with vendor-named
// settings.
func (a *Adapter) SetBMCNetwork(ctx context.Context, settings map[string]any) (bool, error) {
	if len(settings) == 0 {
		return false, invalidArgument("set_bmc_network", "set_bmc_network: no settings given")
	}
	return Call("set_bmc_network", func() (bool, error) {
		return a.client.SetBMCNetwork(ctx, settings)
	})
}

func (a *Adapter) BIOSAttributes(ctx context.Context) (*record.Record, error) {
	raw, err := Call("bios_attributes", func() (vendor.Raw, error) {
		return a.client.BIOSAttributes(ctx)
	})
	if err != nil {
		return nil, err
	}
	return a.norm.BIOSAttributes(raw), nil
}

// SetBIOSAttributes stages BIOS attribute changes. Most BMCs apply them on the
// next reboot.
func (a *Adapter) SetBIOSAttributes(ctx context.Context, attrs map[string]any) (bool, error) {
	if len(attrs) == 0 {
		return false, invalidArgument("set_bios_attributes", "set_bios_attributes: no attributes given")
	}
	return Call("set_bios_attributes", func() (bool, error) {
		return a.client.SetBIOSAttributes(ctx, attrs)
	})
}
