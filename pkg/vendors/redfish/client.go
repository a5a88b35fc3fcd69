// Package redfish implements vendor.Client over the Redfish API using gofish
// as the transport. Payloads are returned as decoded JSON so the normaliser
// sees exactly what the BMC produced, OEM sections included.
package redfish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
	"github.com/rs/zerolog/log"
	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/common"
)

// transport is the part of *gofish.APIClient the client uses.
type transport interface {
	Get(url string) (*http.Response, error)
	Post(url string, payload any) (*http.Response, error)
	Patch(url string, payload any) (*http.Response, error)
	Delete(url string) (*http.Response, error)
	Logout()
}

// Config holds connection settings for one BMC.
type Config struct {
	Host     string
	Username string
	Password string
	Insecure bool
	Timeout  time.Duration
	// Paths overrides resource locations. Unset fields come from the flavour.
	Paths Paths
}

// Client talks Redfish to one BMC.
type Client struct {
	flavour Flavour
	api     transport
	paths   Paths
}

var _ vendor.Client = (*Client)(nil)
var _ vendor.TemperatureSource = (*Client)(nil)

// Connect opens a Redfish connection and resolves the resource paths for the
// given flavour.
func Connect(ctx context.Context, flavour Flavour, cfg Config) (*Client, error) {
	endpoint := cfg.Host
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure}, //nolint:gosec
		},
	}
	api, err := gofish.ConnectContext(ctx, gofish.ClientConfig{
		Endpoint:   endpoint,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Insecure:   cfg.Insecure,
		HTTPClient: httpClient,
		BasicAuth:  true,
	})
	if err != nil {
		return nil, wrap(flavour.Name, "connect", err)
	}
	c := &Client{flavour: flavour, api: api}
	c.paths, err = c.resolvePaths(cfg.Paths)
	if err != nil {
		api.Logout()
		return nil, err
	}
	log.Debug().Str("vendor", flavour.Name).Str("endpoint", endpoint).Interface("paths", c.paths).Msg("connected to BMC")
	return c, nil
}

func (c *Client) Name() string {
	return c.flavour.Name
}

func (c *Client) Close(ctx context.Context) error {
	c.api.Logout()
	return nil
}

// get fetches a resource as a decoded JSON object.
func (c *Client) get(op, path string) (vendor.Raw, error) {
	resp, err := c.api.Get(path)
	if err != nil {
		return nil, wrap(c.flavour.Name, op, err)
	}
	defer resp.Body.Close()
	var out vendor.Raw
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, vendor.Errorf(c.flavour.Name, op, "failed to decode %s: %v", path, err)
	}
	return out, nil
}

// members fetches every member of a collection. Members already expanded in
// the collection body are used as-is.
func (c *Client) members(op, path string) ([]vendor.Raw, error) {
	collection, err := c.get(op, path)
	if err != nil {
		return nil, err
	}
	return c.expand(op, record.DigSlice(collection, "Members"))
}

// expand resolves a list of references into their resources.
func (c *Client) expand(op string, refs []any) ([]vendor.Raw, error) {
	out := make([]vendor.Raw, 0, len(refs))
	for _, ref := range refs {
		var link string
		switch t := ref.(type) {
		case string:
			link = t
		case map[string]any:
			if len(t) > 1 {
				out = append(out, t)
				continue
			}
			link = record.Reference(t)
		}
		if link == "" {
			continue
		}
		member, err := c.get(op, link)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, nil
}

// send issues a write request and discards the response body.
func (c *Client) send(op string, fn func() (*http.Response, error)) (bool, error) {
	resp, err := fn()
	if err != nil {
		return false, wrap(c.flavour.Name, op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 300, nil
}

func (c *Client) post(op, path string, payload any) (bool, error) {
	return c.send(op, func() (*http.Response, error) { return c.api.Post(path, payload) })
}

func (c *Client) patch(op, path string, payload any) (bool, error) {
	return c.send(op, func() (*http.Response, error) { return c.api.Patch(path, payload) })
}

func (c *Client) delete(op, path string) (bool, error) {
	return c.send(op, func() (*http.Response, error) { return c.api.Delete(path) })
}

// wrap converts a transport failure into a vendor error. HTTP statuses the BMC
// reports are spelled out so the adapter can classify them.
func wrap(name, op string, err error) error {
	var httpErr *common.Error
	if errors.As(err, &httpErr) {
		msg := httpErr.Error()
		switch httpErr.HTTPReturnedStatusCode {
		case http.StatusNotFound:
			msg = "resource not found: " + msg
		case http.StatusConflict:
			msg = "resource in use: " + msg
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			msg = "timeout: " + msg
		}
		return &vendor.Error{Vendor: name, Op: op, Message: msg, StatusCode: httpErr.HTTPReturnedStatusCode, Cause: err}
	}
	return vendor.Wrap(name, op, err)
}

func join(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

func resetType(kind string, restart bool) (string, error) {
	switch {
	case kind == vendor.KindGraceful && restart:
		return "GracefulRestart", nil
	case kind == vendor.KindForce && restart:
		return "ForceRestart", nil
	case kind == vendor.KindGraceful:
		return "GracefulShutdown", nil
	case kind == vendor.KindForce:
		return "ForceOff", nil
	}
	return "", fmt.Errorf("unknown power kind %q", kind)
}
