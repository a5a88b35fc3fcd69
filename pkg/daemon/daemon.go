// Package daemon serves the canonical adapter surface over HTTP so BMCs can be
// driven remotely, e.g. from a container.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

// Connector opens an adapter for the BMC at host.
type Connector func(ctx context.Context, host string) (*adapter.Adapter, error)

type Config struct {
	Endpoint string
	// Secret enables HS256 bearer token verification.
	Secret string
	// JWKSURL enables bearer token verification against a remote key set.
	JWKSURL string
	// RequestTimeout bounds each request, BMC round trips included.
	RequestTimeout time.Duration
}

type Server struct {
	config  Config
	connect Connector
	keys    jwk.Set
}

func New(config Config, connect Connector) *Server {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Minute
	}
	return &Server{config: config, connect: connect}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.config.JWKSURL != "" {
		keys, err := jwk.Fetch(ctx, s.config.JWKSURL)
		if err != nil {
			return fmt.Errorf("failed to fetch key set: %w", err)
		}
		s.keys = keys
	}

	srv := &http.Server{Addr: s.config.Endpoint, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info().Str("endpoint", s.config.Endpoint).Msg("starting daemon")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(s.config.RequestTimeout),
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/v1/bmc/{host}", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/power", s.handle(getPower))
		r.Post("/power/{action}", s.handle(postPower))
		r.Get("/system", s.handle(getSystem))
		r.Get("/inventory/{component}", s.handle(getInventory))
		r.Get("/storage", s.handle(getStorage))
		r.Get("/storage/{controller}/drives", s.handle(getDrives))
		r.Get("/storage/{controller}/volumes", s.handle(getVolumes))
		r.Get("/media", s.handle(getMedia))
		r.Post("/media/insert", s.handle(postMediaInsert))
		r.Post("/media/eject", s.handle(postMediaEject))
		r.Get("/jobs", s.handle(getJobs))
		r.Get("/jobs/{id}", s.handle(getJob))
		r.Delete("/jobs/{id}", s.handle(deleteJob))
	})
	return router
}

// authenticate verifies the bearer token when a secret or key set is
// configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var opts []jwt.ParseOption
		switch {
		case s.config.Secret != "":
			opts = append(opts, jwt.WithVerify(jwa.HS256, []byte(s.config.Secret)))
		case s.keys != nil:
			opts = append(opts, jwt.WithKeySet(s.keys))
		default:
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		opts = append(opts, jwt.WithValidate(true))
		if _, err := jwt.Parse([]byte(token), opts...); err != nil {
			log.Debug().Err(err).Msg("rejected token")
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
