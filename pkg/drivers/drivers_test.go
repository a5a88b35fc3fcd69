package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

func TestDefaultNames(t *testing.T) {
	assert.Equal(t, []string{"bmclib", "dell", "generic", "idrac", "ipmi", "redfish"}, Default().Names())
}

func TestGenericRedfishEndToEnd(t *testing.T) {
	const system = "/redfish/v1/Systems/1"
	resources := map[string]any{
		"/redfish/v1/": map[string]any{
			"@odata.id":      "/redfish/v1/",
			"RedfishVersion": "1.6.0",
			"Systems":        map[string]any{"@odata.id": "/redfish/v1/Systems"},
		},
		"/redfish/v1/Systems": map[string]any{
			"Members": []any{map[string]any{"@odata.id": system}},
		},
		system: map[string]any{
			"@odata.id":    system,
			"Id":           "1",
			"Manufacturer": "Supermicro",
			"Model":        "SYS-1029U",
			"SerialNumber": "S123",
			"PowerState":   "Off",
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")
		if path == "/redfish/v1" {
			path = "/redfish/v1/"
		}
		res, ok := resources[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := Default().New(ctx, "Generic", adapter.Config{Host: srv.URL})
	require.NoError(t, err)
	defer a.Close(ctx)
	assert.Equal(t, "redfish", a.Vendor())

	info, err := a.SystemInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SYS-1029U", info.String("model"))
	assert.Equal(t, "Supermicro", info.String("manufacturer"))

	state, err := a.PowerStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Off", state)

	serial, err := a.Serial(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S123", serial)
}

func TestUnreachableIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Default().New(context.Background(), "dell", adapter.Config{Host: url})
	require.Error(t, err)
	assert.True(t, errors.Is(err, adapter.ErrConnection), err)
}
