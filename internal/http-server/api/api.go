package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"clubreg/entity"
	"clubreg/internal/config"
	"clubreg/internal/http-server/handlers/admin"
	"clubreg/internal/http-server/handlers/errors"
	"clubreg/internal/http-server/handlers/member"
	"clubreg/internal/http-server/handlers/register"
	"clubreg/internal/http-server/handlers/stripewebhook"
	"clubreg/internal/http-server/middleware/authenticate"
	"clubreg/internal/http-server/middleware/timeout"
	"clubreg/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Core is the membership workflow surface the handlers drive.
type Core interface {
	register.Core
	admin.Core
	member.Core
}

// Auth issues and verifies access tokens.
type Auth interface {
	admin.Authenticator
	member.Authenticator
	authenticate.TokenParser
}

// New builds the router and serves until the listener fails. The stripe
// handler may be nil when fee collection is disabled.
func New(conf *config.Config, log *slog.Logger, core Core, auth Auth, stripe stripewebhook.Core) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Post("/register", register.New(log, core))
		rootApi.Route("/admin", func(adm chi.Router) {
			adm.Post("/login", admin.Login(log, auth))
			adm.Group(func(g chi.Router) {
				g.Use(authenticate.New(log, auth, entity.RoleAdmin))
				g.Get("/members", admin.Members(log, core))
				g.Get("/members/pending", admin.Pending(log, core))
				g.Put("/members/{id}/approve", admin.Approve(log, core))
				g.Put("/members/{id}/reject", admin.Reject(log, core))
			})
		})
		rootApi.Route("/member", func(mem chi.Router) {
			mem.Post("/login", member.Login(log, auth))
			mem.Group(func(g chi.Router) {
				g.Use(authenticate.New(log, auth, entity.RoleMember))
				g.Get("/profile", member.Profile(log, core))
				g.Get("/card", member.Card(log, core))
			})
		})
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/stripe", stripewebhook.Event(log, stripe))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
