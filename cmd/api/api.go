package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealerhub/docs" //this is required to generate swagger docs
	"dealerhub/internal/auth"
	"dealerhub/internal/catalog"
	"dealerhub/internal/domain/restock"
	"dealerhub/internal/domain/testdrive"
	"dealerhub/internal/identity"
	"dealerhub/internal/mailer"
	"dealerhub/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	logger        *zap.SugaredLogger
	identity      *identity.Service
	testDrives    *testdrive.Service
	restock       *restock.Service
	catalog       *catalog.Service
	mailer        mailer.Client
	authenticator auth.Authenticator
}

type config struct {
	addr        string
	env         string
	apiURL      string
	frontendURL string
	signinPath  string
	authority   authorityConfig
	db          dbConfig
	redis       redisConfig
	mail        mailConfig
	auth        authConfig
}

type authorityConfig struct {
	baseURL string
	timeout time.Duration
}

type authConfig struct {
	basic            basicConfig
	token            tokenConfig
	fallbackAccounts bool
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	enabled   bool
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type redisConfig struct {
	addr    string
	pw      string
	db      int
	ttl     time.Duration
	enabled bool
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	// Every request gets a chance to carry a principal; the session
	// middleware never rejects, the guards do.
	r.Use(app.sessionMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", app.signinHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Get("/session", app.sessionHandler)
		})

		r.Route("/test-drives", func(r chi.Router) {
			r.Use(app.requireSession)
			r.Get("/", app.listTestDrivesHandler)
			r.Post("/", app.createTestDriveHandler)

			r.Route("/{bookingID}", func(r chi.Router) {
				r.Get("/", app.getTestDriveHandler)
				r.Patch("/", app.updateTestDriveHandler)
				r.Delete("/", app.deleteTestDriveHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.requireRoles(rbac.Requirement{Roles: []rbac.Role{rbac.DealerAdmin}}))
					r.Post("/approve", app.approveTestDriveHandler)
					r.Post("/reject", app.rejectTestDriveHandler)
					r.Post("/complete", app.completeTestDriveHandler)
				})
				r.Post("/cancel", app.cancelTestDriveHandler)
			})
		})

		r.Route("/restock-requests", func(r chi.Router) {
			r.Use(app.requireSession)
			r.Get("/", app.listRestockHandler)
			r.Post("/", app.createRestockHandler)

			r.Route("/{requestID}", func(r chi.Router) {
				r.Get("/", app.getRestockHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.requireRoles(rbac.Requirement{Roles: []rbac.Role{rbac.DealerAdmin}}))
					r.Post("/dealer-approve", app.dealerApproveRestockHandler)
					r.Post("/dealer-reject", app.dealerRejectRestockHandler)
				})

				r.Group(func(r chi.Router) {
					r.Use(app.requireRoles(rbac.Requirement{Roles: []rbac.Role{rbac.CompanyAdmin}}))
					r.Post("/company-approve", app.companyApproveRestockHandler)
					r.Post("/company-reject", app.companyRejectRestockHandler)
				})
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Use(app.requireSession)
			r.Get("/vehicles", app.listVehiclesHandler)
			r.Get("/dealers", app.listDealersHandler)
			r.With(app.requireRoles(rbac.Requirement{Roles: []rbac.Role{rbac.CompanyAdmin, rbac.DealerAdmin}})).
				Post("/refresh", app.refreshCatalogHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
