package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	built := ""
	reg.Register(func(ctx context.Context, cfg Config) (*Adapter, error) {
		built = "first:" + cfg.Host
		return New(&fakeClient{}, normalize.Dell()), nil
	}, "dell", "iDRAC")
	reg.Register(func(ctx context.Context, cfg Config) (*Adapter, error) {
		return nil, vendor.Errorf("generic", "connect", "dial tcp: connection refused")
	}, "redfish")

	assert.Equal(t, []string{"dell", "idrac", "redfish"}, reg.Names())

	a, err := reg.New(context.Background(), "IDRAC", Config{Host: "bmc1"})
	require.NoError(t, err)
	assert.Equal(t, "fake", a.Vendor())
	assert.Equal(t, "first:bmc1", built)

	_, err = reg.New(context.Background(), "redfish", Config{})
	assert.True(t, errors.Is(err, ErrConnection))

	_, err = reg.Lookup("hpe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "dell, idrac, redfish")
}

func TestRegistryOverwrite(t *testing.T) {
	reg := NewRegistry()
	reg.Register(func(ctx context.Context, cfg Config) (*Adapter, error) {
		return nil, errors.New("old")
	}, "dell")
	reg.Register(func(ctx context.Context, cfg Config) (*Adapter, error) {
		return New(&fakeClient{}, nil), nil
	}, "dell")

	a, err := reg.New(context.Background(), "dell", Config{})
	require.NoError(t, err)
	assert.Equal(t, "fake", a.Vendor())
}
