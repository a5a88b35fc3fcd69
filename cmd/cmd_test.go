package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCHAMI/mercator/internal/format"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/normalize"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/OpenCHAMI/mercator/pkg/vendors/vendortest"
)

func TestParseTargets(t *testing.T) {
	data := []byte(`
- id: x3000c0s1b0n0
  host: 10.0.0.5
- id: x3000c0s1b0n1
  host: 10.0.0.6
  vendor: dell
- host: bmc-7.example
`)
	targets, err := ParseTargets(data, format.FORMAT_YAML, "redfish")
	require.NoError(t, err)
	want := []Target{
		{ID: "x3000c0s1b0n0", Host: "10.0.0.5", Vendor: "redfish"},
		{ID: "x3000c0s1b0n1", Host: "10.0.0.6", Vendor: "dell"},
		{Host: "bmc-7.example", Vendor: "redfish"},
	}
	if diff := cmp.Diff(want, targets); diff != "" {
		t.Errorf("unexpected targets (-want +got):\n%s", diff)
	}

	_, err = ParseTargets([]byte(`[{"id": "x3000c0s1b0n0zz", "host": "10.0.0.5"}]`), format.FORMAT_JSON, "redfish")
	assert.ErrorContains(t, err, "invalid xname")

	_, err = ParseTargets([]byte(`[{"id": "node1"}]`), format.FORMAT_JSON, "redfish")
	assert.ErrorContains(t, err, "has no host")
}

func TestSelectTargets(t *testing.T) {
	known := []Target{
		{ID: "x3000c0s1b0n0", Host: "10.0.0.5", Vendor: "dell"},
		{ID: "x3000c0s1b0n1", Host: "10.0.0.6", Vendor: "dell"},
	}

	got, err := selectTargets(known, nil, "ignored", "redfish")
	require.NoError(t, err)
	assert.Equal(t, known, got)

	got, err = selectTargets(known, []string{"x3000c0s1b0n1", "x9000c0s0b0n0", "10.0.0.9"}, "", "redfish")
	require.NoError(t, err)
	assert.Equal(t, []Target{known[1], {Host: "10.0.0.9", Vendor: "redfish"}}, got)

	got, err = selectTargets(nil, nil, "10.0.0.1", "idrac")
	require.NoError(t, err)
	assert.Equal(t, []Target{{Host: "10.0.0.1", Vendor: "idrac"}}, got)

	_, err = selectTargets(nil, nil, "", "redfish")
	assert.Error(t, err)
	_, err = selectTargets(known, []string{"x9000c0s0b0n0"}, "", "redfish")
	assert.Error(t, err)
}

func TestConcurrentHelperKeepsOrder(t *testing.T) {
	targets := make([]Target, 50)
	for i := range targets {
		targets[i] = Target{Host: fmt.Sprintf("10.0.0.%d", i+1)}
	}
	results := concurrent_helper(4, targets, func(t Target) Result {
		return Result{Target: t.Host, Value: t.Host}
	})
	require.Len(t, results, len(targets))
	for i, r := range results {
		assert.Equal(t, targets[i].Host, r.Target)
	}
}

func TestPrintResults(t *testing.T) {
	defer func() { outputFormat = format.FORMAT_LIST }()

	var buf bytes.Buffer
	outputFormat = format.FORMAT_LIST
	err := printResults(&buf, []Result{
		{Target: "x3000c0s1b0n0", Value: "On"},
		{Target: "x3000c0s1b0n1", Error: "connection refused"},
	})
	assert.ErrorContains(t, err, "x3000c0s1b0n1: connection refused")
	assert.Equal(t, "x3000c0s1b0n0:\tOn\nx3000c0s1b0n1:\terror: connection refused\n", buf.String())

	buf.Reset()
	outputFormat = format.FORMAT_JSON
	require.NoError(t, printResults(&buf, []Result{{Target: "10.0.0.5", Value: "success"}}))
	assert.JSONEq(t, `"success"`, buf.String())

	err = printResults(&buf, []Result{{Target: "10.0.0.5", Error: "boom"}})
	assert.EqualError(t, err, "boom")
}

// useFake points the CLI at a registry serving fake under the name "fake".
func useFake(t *testing.T, fake *vendortest.Fake) {
	t.Helper()
	saved := registry
	t.Cleanup(func() { registry = saved })
	registry = adapter.NewRegistry()
	registry.Register(func(ctx context.Context, cfg adapter.Config) (*adapter.Adapter, error) {
		if cfg.Username != "root" || cfg.Password != "calvin" {
			return nil, vendor.Errorf("fake", "connect", "bad credentials for %s", cfg.Host)
		}
		return adapter.New(fake, normalize.Dell()), nil
	}, "fake")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--vendor", "fake", "-u", "root", "-p", "calvin", "--log-level", "disabled"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPowerCommand(t *testing.T) {
	fake := &vendortest.Fake{State: "On"}
	useFake(t, fake)

	out, err := execute(t, "power", "off", "--kind", "force", "-H", "10.0.0.5", "-F", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `"success"`, out)
	assert.Equal(t, 1, fake.Called("power_off"))
	assert.Equal(t, "Off", fake.State)

	_, err = execute(t, "power", "off", "--kind", "sideways", "-H", "10.0.0.5")
	assert.Error(t, err)
	assert.Equal(t, 1, fake.Called("power_off"))
}

func TestInventoryAcrossTargets(t *testing.T) {
	fake := &vendortest.Fake{
		CPUList: []vendor.Raw{{"Id": "CPU.Socket.1"}, {"Id": "CPU.Socket.2"}},
	}
	useFake(t, fake)

	file := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- {id: x3000c0s1b0n0, host: 10.0.0.5, vendor: fake}\n- {id: x3000c0s1b0n1, host: 10.0.0.6, vendor: fake}\n"), 0o600))

	out, err := execute(t, "inventory", "cpus", "-f", file, "-F", "json")
	require.NoError(t, err)
	var results []struct {
		Target string           `json:"target"`
		Value  []map[string]any `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "x3000c0s1b0n0", results[0].Target)
	assert.Equal(t, "x3000c0s1b0n1", results[1].Target)
	assert.Len(t, results[1].Value, 2)
	assert.Equal(t, 2, fake.Called("cpus"))
}
