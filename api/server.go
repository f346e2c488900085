// Package api wires the core services into the chi router and runs the HTTP
// server.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Voltaic314/DataRoom/api/routes"
	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/blob"
	"github.com/Voltaic314/DataRoom/config"
	"github.com/Voltaic314/DataRoom/core/access"
	"github.com/Voltaic314/DataRoom/core/activity"
	"github.com/Voltaic314/DataRoom/core/files"
	"github.com/Voltaic314/DataRoom/core/groups"
	"github.com/Voltaic314/DataRoom/core/orgs"
	"github.com/Voltaic314/DataRoom/core/settings"
	"github.com/Voltaic314/DataRoom/core/users"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/notify"
	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators the server is built from. Everything else is
// derived from them.
type Deps struct {
	Config  *config.Config
	DB      *db.DB
	Store   blob.Store
	Mailer  notify.Mailer
	Gateway orgs.Gateway
}

// DataRoomServer represents the DataRoom HTTP server
type DataRoomServer struct {
	router *chi.Mux
	config *config.Config
	db     *db.DB
	store  blob.Store
	tokens *auth.Tokens
	otps   *auth.OTPStore
	hub    *notify.Hub
	audit  *activity.Logger

	access   *access.Service
	files    *files.Service
	users    *users.Service
	groups   *groups.Service
	settings *settings.Service
	orgs     *orgs.Service

	server *http.Server
}

// NewDataRoomServer builds every service and registers the routes.
func NewDataRoomServer(deps Deps) *DataRoomServer {
	cfg := deps.Config
	hub := notify.NewHub()
	notifier := notify.NewNotifier(deps.DB, hub)
	audit := activity.NewLogger(deps.DB)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Std())
	otps := auth.NewOTPStore(deps.DB)

	s := &DataRoomServer{
		router: chi.NewRouter(),
		config: cfg,
		db:     deps.DB,
		store:  deps.Store,
		tokens: tokens,
		otps:   otps,
		hub:    hub,
		audit:  audit,

		access:   access.NewService(deps.DB, deps.Mailer, notifier, audit),
		files:    files.NewService(deps.DB, deps.Store, cfg.Blob.PresignTTL.Std()),
		users:    users.NewService(deps.DB, tokens, otps, deps.Mailer),
		groups:   groups.NewService(deps.DB, deps.Mailer, notifier),
		settings: settings.NewService(deps.DB, deps.Store),
		orgs: orgs.NewService(deps.DB, tokens, deps.Gateway, orgs.Config{
			KeyID:     cfg.Payments.KeyID,
			KeySecret: cfg.Payments.KeySecret,
			Currency:  cfg.Payments.Currency,
		}),
	}

	routes.RegisterAllRoutes(s.router, s)
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *DataRoomServer) Handler() http.Handler {
	return s.router
}

// Start starts the DataRoom server
func (s *DataRoomServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Network.Address, s.config.Network.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 DataRoom server starting on %s", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully stops the DataRoom server
func (s *DataRoomServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *DataRoomServer) GetDB() *db.DB { return s.db }
func (s *DataRoomServer) GetStore() blob.Store { return s.store }
func (s *DataRoomServer) GetTokens() *auth.Tokens { return s.tokens }
func (s *DataRoomServer) GetOTPStore() *auth.OTPStore { return s.otps }
func (s *DataRoomServer) GetHub() *notify.Hub { return s.hub }
func (s *DataRoomServer) GetActivityLogger() *activity.Logger { return s.audit }
func (s *DataRoomServer) GetAccess() *access.Service { return s.access }
func (s *DataRoomServer) GetFiles() *files.Service { return s.files }
func (s *DataRoomServer) GetUsers() *users.Service { return s.users }
func (s *DataRoomServer) GetGroups() *groups.Service { return s.groups }
func (s *DataRoomServer) GetSettings() *settings.Service { return s.settings }
func (s *DataRoomServer) GetOrgs() *orgs.Service { return s.orgs }

// Run serves until SIGINT or SIGTERM, then shuts down within 30s.
func Run(deps Deps) {
	server := NewDataRoomServer(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("🛑 Shutdown signal received, stopping server...")
		cancel()
	}()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	} else {
		log.Println("✅ Server stopped gracefully")
	}
}
