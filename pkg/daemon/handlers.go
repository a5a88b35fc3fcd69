package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/record"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type result struct {
	OK bool `json:"ok"`
}

// handlerFunc serves one request against a connected adapter.
type handlerFunc func(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error)

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, err := url.PathUnescape(chi.URLParam(r, "host"))
		if err != nil || host == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid host"})
			return
		}
		ctx := r.Context()
		a, err := s.connect(ctx, host)
		if err != nil {
			writeError(w, adapter.Translate("connect", err))
			return
		}
		defer func() {
			if err := a.Close(context.Background()); err != nil {
				log.Debug().Err(err).Str("host", host).Msg("failed to close adapter")
			}
		}()

		status, body, err := fn(ctx, a, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// StatusFor maps a canonical error to an HTTP status.
func StatusFor(err error) int {
	var ae *adapter.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	if ae.Local {
		return http.StatusBadRequest
	}
	switch ae.Kind {
	case adapter.KindConnection:
		return http.StatusBadGateway
	case adapter.KindBusy:
		return http.StatusConflict
	case adapter.KindNotFound:
		return http.StatusNotFound
	case adapter.KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	var ae *adapter.Error
	if errors.As(err, &ae) {
		body.Kind = string(ae.Kind)
	}
	writeJSON(w, StatusFor(err), body)
}

func badRequest(format string, args ...any) error {
	return &adapter.Error{
		Kind:    adapter.KindGeneric,
		Message: fmt.Sprintf(format, args...),
		Local:   true,
		Err:     adapter.ErrInvalidArgument,
	}
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func getPower(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	state, err := a.PowerStatus(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]string{"state": state}, nil
}

// postPower runs on|off|reboot|cycle. Query parameters: wait=true and
// kind=graceful|force.
func postPower(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	wait := queryBool(r, "wait")
	kind := r.URL.Query().Get("kind")
	var (
		ok  bool
		err error
	)
	switch action := chi.URLParam(r, "action"); action {
	case "on":
		ok, err = a.PowerOn(ctx, wait)
	case "off":
		ok, err = a.PowerOff(ctx, kind, wait)
	case "reboot":
		ok, err = a.Reboot(ctx, kind, wait)
	case "cycle":
		ok, err = a.PowerCycle(ctx, wait)
	default:
		return 0, nil, badRequest("unknown power action %q", action)
	}
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, result{OK: ok}, nil
}

func getSystem(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	info, err := a.SystemInfo(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, info, nil
}

func getInventory(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	var fetch func(context.Context) ([]*record.Record, error)
	switch component := chi.URLParam(r, "component"); component {
	case "cpus":
		fetch = a.CPUs
	case "memory":
		fetch = a.Memory
	case "nics":
		fetch = a.NICs
	case "fans":
		fetch = a.Fans
	case "psus":
		fetch = a.PSUs
	case "temperatures":
		fetch = a.Temperatures
	case "controllers":
		fetch = a.StorageControllers
	default:
		return 0, nil, badRequest("unknown inventory component %q", component)
	}
	records, err := fetch(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, records, nil
}

func getStorage(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	summary, err := a.StorageSummary(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, summary, nil
}

// controller resolves the {controller} parameter, a short id or an escaped
// reference path.
func controller(ctx context.Context, a *adapter.Adapter, r *http.Request) (any, error) {
	param, err := url.PathUnescape(chi.URLParam(r, "controller"))
	if err != nil || param == "" {
		return nil, badRequest("invalid controller %q", chi.URLParam(r, "controller"))
	}
	return a.FindController(ctx, param)
}

func getDrives(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	ctrl, err := controller(ctx, a, r)
	if err != nil {
		return 0, nil, err
	}
	drives, err := a.Drives(ctx, ctrl)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, drives, nil
}

func getVolumes(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	ctrl, err := controller(ctx, a, r)
	if err != nil {
		return 0, nil, err
	}
	volumes, err := a.Volumes(ctx, ctrl)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, volumes, nil
}

func getMedia(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	media, err := a.VirtualMedia(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, media, nil
}

type mediaRequest struct {
	URL    string `json:"url"`
	Device string `json:"device"`
}

func decodeMedia(r *http.Request) (mediaRequest, error) {
	req := mediaRequest{Device: adapter.DefaultMediaDevice}
	if r.ContentLength == 0 {
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, badRequest("invalid request body: %v", err)
	}
	if req.Device == "" {
		req.Device = adapter.DefaultMediaDevice
	}
	return req, nil
}

func postMediaInsert(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	req, err := decodeMedia(r)
	if err != nil {
		return 0, nil, err
	}
	ok, err := a.InsertVirtualMedia(ctx, req.URL, req.Device)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, result{OK: ok}, nil
}

func postMediaEject(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	req, err := decodeMedia(r)
	if err != nil {
		return 0, nil, err
	}
	ok, err := a.EjectVirtualMedia(ctx, req.Device)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, result{OK: ok}, nil
}

func getJobs(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	jobs, err := a.Jobs(ctx)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, jobs, nil
}

// getJob returns a job's status. With wait=<duration> it blocks until the job
// finishes or the duration passes.
func getJob(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	id := chi.URLParam(r, "id")
	if wait := r.URL.Query().Get("wait"); wait != "" {
		timeout, err := time.ParseDuration(wait)
		if err != nil {
			return 0, nil, badRequest("invalid wait duration %q", wait)
		}
		job, err := a.WaitForJob(ctx, id, timeout)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, job, nil
	}
	job, err := a.JobStatus(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, job, nil
}

func deleteJob(ctx context.Context, a *adapter.Adapter, r *http.Request) (int, any, error) {
	ok, err := a.CancelJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, result{OK: ok}, nil
}
