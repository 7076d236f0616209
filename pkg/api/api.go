package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/protorules/pkg/httpserver"
	"github.com/dmitrymomot/protorules/pkg/i18n"
	"github.com/dmitrymomot/protorules/pkg/logger"
	"github.com/dmitrymomot/protorules/pkg/requestid"
	"github.com/dmitrymomot/protorules/pkg/schema"
)

// ErrNotReady is reported by the readiness probe before MarkReady.
var ErrNotReady = errors.New("api: not ready")

const defaultMaxBodyBytes = 1 << 20

// Options wires an API to a compiled schema.
type Options struct {
	Schema     *schema.Schema
	Registry   *schema.Registry
	Translator *i18n.Translator
	Logger     *slog.Logger

	// MaxBodyBytes caps document uploads. Zero means 1 MiB.
	MaxBodyBytes int64
	// FailFast is the default of the fail_fast query parameter.
	FailFast bool
}

func (o *Options) Validate() error {
	var err error
	if o.Schema == nil {
		err = errors.Join(err, fmt.Errorf("Schema is required"))
	}
	if o.Registry == nil {
		err = errors.Join(err, fmt.Errorf("Registry is required"))
	}
	if o.Translator == nil {
		err = errors.Join(err, fmt.Errorf("Translator is required"))
	}
	if o.MaxBodyBytes < 0 {
		err = errors.Join(err, fmt.Errorf("MaxBodyBytes must not be negative"))
	}
	return err
}

// API serves the messages of one schema over HTTP:
//
//	GET  /healthz                      liveness
//	GET  /readyz                       readiness
//	GET  /v1/messages                  message summaries
//	GET  /v1/messages/{name}           one message
//	POST /v1/messages/{name}/validate  validate a JSON or YAML document
//	GET  /v1/descriptor                FileDescriptorSet as protojson
type API struct {
	chi.Router

	opts       Options
	log        *slog.Logger
	ready      atomic.Bool
	descriptor []byte
	descErr    error
}

// New builds the router. The descriptor is exported once up front.
func New(o Options) (*API, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	log := o.Logger
	if log == nil {
		log = logger.Discard()
	}

	a := &API{
		Router: chi.NewRouter(),
		opts:   o,
		log:    log.With(logger.Component("api")),
	}
	a.descriptor, a.descErr = marshalDescriptor(o.Schema)

	a.Use(requestid.Middleware)
	a.Use(a.logRequests)
	a.Use(middleware.Recoverer)
	a.Use(i18n.Middleware(o.Translator))

	a.Get("/healthz", httpserver.HealthCheckHandler(a.log))
	a.Get("/readyz", httpserver.HealthCheckHandler(a.log, httpserver.Check{Name: "api", Fn: a.checkReady}))

	a.Route("/v1", func(r chi.Router) {
		r.Get("/messages", a.listMessages)
		r.Get("/messages/{name}", a.getMessage)
		r.With(middleware.RequestSize(o.MaxBodyBytes)).Post("/messages/{name}/validate", a.validate)
		r.Get("/descriptor", a.getDescriptor)
	})
	return a, nil
}

// MarkReady flips the readiness probe. The serve command marks the API
// ready once listening and unready when shutdown begins.
func (a *API) MarkReady(ready bool) {
	a.ready.Store(ready)
}

func (a *API) checkReady(context.Context) error {
	if !a.ready.Load() {
		return ErrNotReady
	}
	return nil
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		a.log.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			logger.Duration(time.Since(start)),
		)
	})
}
