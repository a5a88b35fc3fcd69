// Package drivers wires the vendor clients shipped with mercator into an
// adapter registry.
package drivers

import (
	"context"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/vendors/redfish"
	"github.com/OpenCHAMI/mercator/pkg/vendors/toolbox"
)

// Default returns a registry with every built-in driver:
//
//	dell, idrac       Redfish with iDRAC paths and Dell OEM fields
//	redfish, generic  Redfish with paths discovered from the service root
//	bmclib, ipmi      bmclib provider probing (redfish, ipmitool, intel amt)
func Default() *adapter.Registry {
	r := adapter.NewRegistry()
	r.Register(Redfish(redfish.Dell, normalize.Dell), "dell", "idrac")
	r.Register(Redfish(redfish.Generic, nil), "redfish", "generic")
	r.Register(Bmclib, "bmclib", "ipmi")
	return r
}

// Redfish returns a factory connecting with the given flavour. newNorm builds
// the normaliser for each adapter; nil selects a generic one.
func Redfish(flavour redfish.Flavour, newNorm func() *normalize.Normalizer) adapter.Factory {
	return func(ctx context.Context, cfg adapter.Config) (*adapter.Adapter, error) {
		client, err := redfish.Connect(ctx, flavour, redfish.Config{
			Host:     cfg.Host,
			Username: cfg.Username,
			Password: cfg.Password,
			Insecure: cfg.Insecure,
			Timeout:  cfg.Timeout,
			Paths:    redfish.PathsFromOptions(cfg.Options),
		})
		if err != nil {
			return nil, err
		}
		var norm *normalize.Normalizer
		if newNorm != nil {
			norm = newNorm()
		}
		return adapter.New(client, norm), nil
	}
}

// Bmclib connects through bmclib. Recognised options: "port" and "protocol".
func Bmclib(ctx context.Context, cfg adapter.Config) (*adapter.Adapter, error) {
	client, err := toolbox.Connect(ctx, toolbox.Config{
		Host:     cfg.Host,
		Port:     cfg.Options["port"],
		Username: cfg.Username,
		Password: cfg.Password,
		Protocol: cfg.Options["protocol"],
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return adapter.New(client, normalize.New("bmclib", false, "")), nil
}
