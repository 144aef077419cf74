// Command authdemo serves a minimal end-to-end wiring of the auth state
// core: a request-scoped store over the HTTP cookie jar, remote clients for
// the identity provider and profile service, and Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusgrid/authstate/internal/codec"
	"github.com/campusgrid/authstate/internal/cookie"
	"github.com/campusgrid/authstate/internal/errs"
	"github.com/campusgrid/authstate/internal/metrics"
	"github.com/campusgrid/authstate/internal/model"
	"github.com/campusgrid/authstate/internal/remote"
	"github.com/campusgrid/authstate/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type storeKey struct{}

func storeFrom(ctx context.Context) *store.Store {
	st, _ := ctx.Value(storeKey{}).(*store.Store)
	return st
}

// requestStore builds a request-scoped store over the exchange's cookie jar
// and injects it into the request context.
func requestStore(identityURL, profileURL string, opts cookie.Options, log *zap.Logger, col *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jar := cookie.NewHTTPJar(w, r)
			cdc := codec.New(jar, opts, log, col)

			var st *store.Store
			token := remote.TokenSource(func() string {
				if st == nil {
					return ""
				}
				return st.AccessToken()
			})
			identity := remote.NewIdentityClient(identityURL, nil, token, log)
			profiles := remote.NewProfileClient(profileURL, nil, token, log)

			st = store.New(cdc, identity, profiles,
				store.WithLogger(log),
				store.WithRecorder(col),
			)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storeKey{}, st)))
		})
	}
}

type signInRequest struct {
	UserID       string         `json:"user_id"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Profile      *model.Profile `json:"profile"`
}

func handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.AccessToken == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	st := storeFrom(r.Context())
	st.SetAuth(
		&model.User{ID: req.UserID},
		&model.Session{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			IssuedAt:     time.Now().UTC(),
		},
	)
	if req.Profile != nil {
		st.SetProfile(req.Profile)
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	snap := storeFrom(r.Context()).Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"authenticated": snap.Session != nil,
		"user":          snap.User,
		"profile":       snap.Profile,
	})
}

func handlePresence(w http.ResponseWriter, r *http.Request) {
	online, err := strconv.ParseBool(r.URL.Query().Get("online"))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := storeFrom(r.Context()).UpdateOnlineStatus(r.Context(), online); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		http.Error(w, "presence update failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleSignOut(w http.ResponseWriter, r *http.Request) {
	// Local teardown is unconditional; a failed remote revocation is already
	// logged and must not surface as a failed sign-out.
	_ = storeFrom(r.Context()).SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	identityURL := flag.String("identity-url", "http://localhost:9091", "identity provider base URL")
	profileURL := flag.String("profile-url", "http://localhost:9092", "profile service base URL")
	dev := flag.Bool("dev", false, "drop the Secure cookie attribute for plain-HTTP development")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	opts := cookie.DefaultOptions()
	if *dev {
		opts.Secure = false
	}

	reg := prometheus.NewRegistry()
	col := metrics.NewCollector(reg)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Group(func(r chi.Router) {
		r.Use(requestStore(*identityURL, *profileURL, opts, logger, col))
		r.Post("/signin", handleSignIn)
		r.Get("/whoami", handleWhoAmI)
		r.Post("/presence", handlePresence)
		r.Post("/signout", handleSignOut)
	})

	srv := &http.Server{Addr: *addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
