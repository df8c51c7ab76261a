package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/rotation"
	"github.com/tcfw/didkms/pkg/storage"
)

const (
	defaultMethod = "example"

	readHeaderTimeout = 10 * time.Second
)

type Option func(*Api) error

func WithLogger(l *logrus.Entry) Option {
	return func(a *Api) error {
		a.log = l
		return nil
	}
}

// WithMethod sets the DID method identifiers are resolved under
func WithMethod(m string) Option {
	return func(a *Api) error {
		if m == "" {
			return errors.New("empty did method")
		}
		a.method = m
		return nil
	}
}

func WithTokenSecret(secret []byte) Option {
	return func(a *Api) error {
		auth, err := newAuthenticator(secret)
		if err != nil {
			return err
		}
		a.auth = auth
		return nil
	}
}

// WithResolver resolves documents through r instead of the store
func WithResolver(r did.Resolver) Option {
	return func(a *Api) error {
		if r == nil {
			return errors.New("nil resolver")
		}
		a.resolver = r
		return nil
	}
}

// WithConcealForbidden reports forbidden identifiers as not found
func WithConcealForbidden(c bool) Option {
	return func(a *Api) error {
		a.concealForbidden = c
		return nil
	}
}

type Api struct {
	store    storage.Store
	rotator  *rotation.Rotator
	resolver did.Resolver

	method           string
	auth             *authenticator
	concealForbidden bool

	log     *logrus.Entry
	metrics *metrics
	router  chi.Router
	srv     *http.Server
}

func NewAPI(store storage.Store, rotator *rotation.Rotator, opts ...Option) (*Api, error) {
	if store == nil || rotator == nil {
		return nil, errors.New("api requires a store and rotator")
	}

	a := &Api{
		store:    store,
		rotator:  rotator,
		resolver: store,
		method:   defaultMethod,
		log:      logging.Entry().WithField("component", "api"),
		metrics:  newMetrics(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.auth == nil {
		return nil, errors.New("api requires a token secret")
	}

	a.router = a.routes()

	return a, nil
}

func (a *Api) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.recoverer)
	r.Use(a.metrics.instrument)

	r.Get("/healthz", a.healthz)
	r.Handle("/metrics", a.metrics.handler())

	r.Route("/v1/identifiers/{id}", func(r chi.Router) {
		r.Get("/", a.resolve)

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)

			r.Post("/keys/rotate", a.rotate)
			r.Get("/keys", a.listKeys)
			r.Get("/history", a.history)
		})
	})

	return r
}

func (a *Api) Handler() http.Handler {
	return a.router
}

func (a *Api) ListenAndServe(l net.Addr) error {
	lis, err := net.Listen("tcp", l.String())
	if err != nil {
		return err
	}

	a.srv = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	a.log.WithField("addr", lis.Addr().String()).Info("serving api")

	if err := a.srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	if a.srv == nil {
		return nil
	}

	return a.srv.Shutdown(ctx)
}

func (a *Api) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverer turns handler panics into faults
func (a *Api) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.fault(w, r, errors.Errorf("panic: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
