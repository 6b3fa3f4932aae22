package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/booleancoercion/andromeda/core/authn"
	"github.com/booleancoercion/andromeda/core/config"
	"github.com/booleancoercion/andromeda/core/logger"
	"github.com/booleancoercion/andromeda/core/sessiontransport"
	"github.com/booleancoercion/andromeda/integration/database/pg"
	"github.com/booleancoercion/andromeda/pkg/clientip"
	"github.com/booleancoercion/andromeda/pkg/slidingwindow"
)

type appConfig struct {
	Addr        string        `env:"AUTHD_ADDR" envDefault:":8080"`
	DatabaseURL string        `env:"DATABASE_URL,required"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	InviteOnly  bool          `env:"INVITE_ONLY" envDefault:"true"`
	LogJSON     bool          `env:"LOG_JSON" envDefault:"false"`
	LogDebug    bool          `env:"LOG_DEBUG" envDefault:"false"`

	// TrustProxyHeaders keys the per-address login limiter on forwarding
	// headers instead of the peer address. Enable only behind a proxy that
	// overwrites them; a directly reachable server must leave this off or
	// clients evade the limiter by forging a fresh header per request.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	UserAttempts int           `env:"LOGIN_USER_ATTEMPTS" envDefault:"10"`
	UserWindow   time.Duration `env:"LOGIN_USER_WINDOW" envDefault:"30m"`
	AddrAttempts int           `env:"LOGIN_ADDR_ATTEMPTS" envDefault:"5"`
	AddrWindow   time.Duration `env:"LOGIN_ADDR_WINDOW" envDefault:"15m"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	logOpts := []logger.Option{logger.WithAttr(slog.String("app", "authd"))}
	if cfg.LogJSON {
		logOpts = append(logOpts, logger.WithJSONFormat())
	}
	if cfg.LogDebug {
		logOpts = append(logOpts, logger.WithLevel(slog.LevelDebug))
	}
	log := logger.New(logOpts...)

	if err := run(cfg, log); err != nil {
		log.Error("authd exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg appConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pg.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := pg.Migrate(ctx, db); err != nil {
		return err
	}

	userLimiter := slidingwindow.New(cfg.UserAttempts, cfg.UserWindow,
		slidingwindow.WithLogger(log.With(logger.Component("user-limiter"))))
	addrLimiter := slidingwindow.New(cfg.AddrAttempts, cfg.AddrWindow,
		slidingwindow.WithLogger(log.With(logger.Component("addr-limiter"))))

	svc, err := authn.New(ctx, pg.NewStore(db),
		authn.WithSessionTTL(cfg.SessionTTL),
		authn.WithInviteOnly(cfg.InviteOnly),
		authn.WithUserLimiter(userLimiter),
		authn.WithAddrLimiter(addrLimiter),
		authn.WithLogger(log.With(logger.Component("authn"))),
	)
	if err != nil {
		return err
	}

	cookies := sessiontransport.NewCookie(svc, "")
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc, cookies, log, cfg.TrustProxyHeaders),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(userLimiter.Run(ctx))
	g.Go(addrLimiter.Run(ctx))
	g.Go(func() error { return purgeSessions(ctx, svc, log) })
	g.Go(func() error {
		log.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// purgeSessions reaps expired sessions hourly so the sessions table does
// not grow without bound.
func purgeSessions(ctx context.Context, svc *authn.Service, log *slog.Logger) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn("session purge failed", logger.Error(err))
				continue
			}
			if deleted > 0 {
				log.Info("purged expired sessions", logger.Count("deleted", deleted))
			}
		}
	}
}

func newHandler(svc *authn.Service, cookies *sessiontransport.Cookie, log *slog.Logger, trustProxy bool) http.Handler {
	mux := http.NewServeMux()

	// limiterAddr yields the identity for the per-address login limiter.
	// Forwarding headers are client-controlled, so they only count when a
	// trusted proxy is declared to overwrite them.
	limiterAddr := clientip.RemoteIP
	if trustProxy {
		limiterAddr = clientip.GetIP
	}

	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		invite := r.PostFormValue("invite")

		if err := svc.Register(r.Context(), username, password, invite); err != nil {
			// On this path a bad token is a bad invite, not a bad session.
			if errors.Is(err, authn.ErrTokenMalformed) || errors.Is(err, authn.ErrInvalidSignature) {
				http.Error(w, "a valid invite is required", http.StatusForbidden)
				return
			}
			writeAuthError(w, err)
			return
		}
		log.Info("registered", logger.UserName(username), logger.ClientIP(clientip.GetIP(r)))
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		addr := limiterAddr(r)

		token, err := svc.Login(r.Context(), username, password, addr)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		log.Info("logged in", logger.UserName(username), logger.ClientIP(addr))
		cookies.Set(w, token)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		cookies.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Handle("GET /me", cookies.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, _ := sessiontransport.UserFromContext(r.Context())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(username + "\n"))
	})))

	mux.Handle("POST /invites", cookies.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invite, err := svc.NewInvite(r.Context())
		if err != nil {
			writeAuthError(w, err)
			return
		}
		issuer, _ := sessiontransport.UserFromContext(r.Context())
		log.Info("invite issued", logger.UserName(issuer))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(invite + "\n"))
	})))

	return mux
}

// writeAuthError maps service errors to HTTP statuses. Credential and
// session failures share one message so responses leak nothing about
// which check failed.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authn.ErrRateLimited):
		http.Error(w, "too many attempts, try again later", http.StatusTooManyRequests)
	case errors.Is(err, authn.ErrInvalidCredentials):
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
	case errors.Is(err, authn.ErrTokenMalformed),
		errors.Is(err, authn.ErrInvalidSignature),
		errors.Is(err, authn.ErrSessionExpired):
		http.Error(w, "session is not valid", http.StatusUnauthorized)
	case errors.Is(err, authn.ErrDuplicateIdentity):
		http.Error(w, "username is taken", http.StatusConflict)
	case errors.Is(err, authn.ErrUsernameInvalid),
		errors.Is(err, authn.ErrPasswordInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authn.ErrInviteRequired),
		errors.Is(err, authn.ErrInviteUsed):
		http.Error(w, "a valid invite is required", http.StatusForbidden)
	case errors.Is(err, authn.ErrStoreUnavailable):
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
