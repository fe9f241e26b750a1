package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/asset-lifecycle/internal/config"
	"github.com/crucial707/asset-lifecycle/internal/db"
	"github.com/crucial707/asset-lifecycle/internal/handlers"
	"github.com/crucial707/asset-lifecycle/internal/middleware"
	"github.com/crucial707/asset-lifecycle/internal/notify"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/scheduler"
	"github.com/crucial707/asset-lifecycle/internal/workflow"
)

func main() {
	cfg := config.Load()

	setupLogging(cfg.LogFormat)

	if cfg.Env == "prod" && (cfg.JWTSecret == "" || cfg.JWTSecret == "supersecretkey") {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	dbOpts := db.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}
	database, err := db.Connect(dbOpts)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Migrate(dbOpts.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notifications
	dispatcher := notify.NewDispatcher(&notify.LogSender{}, cfg.NotifyBuffer)
	defer dispatcher.Close()

	// Workflow service and repos
	svc := workflow.New(database, dispatcher, cfg.PortalBaseURL)

	userRepo := repo.NewUserRepo(database)
	assetRepo := repo.NewAssetRepo(database)
	requestRepo := repo.NewRequestRepo(database)
	returnRepo := repo.NewReturnRepo(database)
	changeRepo := repo.NewChangeRepo(database)
	historyRepo := repo.NewHistoryRepo(database)
	verificationRepo := repo.NewVerificationRepo(database)
	agencyRepo := repo.NewAgencyRepo(database)

	authH := &handlers.AuthHandler{Users: userRepo, Secret: []byte(cfg.JWTSecret), ExpireHours: cfg.JWTExpireHours}
	assetH := &handlers.AssetHandler{Svc: svc, Assets: assetRepo, History: historyRepo, Verifications: verificationRepo}
	requestH := &handlers.RequestHandler{Svc: svc, Requests: requestRepo}
	returnH := &handlers.ReturnHandler{Svc: svc, Returns: returnRepo}
	changeH := &handlers.ChangeHandler{Svc: svc, Changes: changeRepo}
	exitH := &handlers.ExitHandler{Svc: svc}
	auditH := &handlers.AuditHandler{History: historyRepo}
	categoryH := &handlers.CategoryHandler{Agencies: agencyRepo}
	actorLoader := &handlers.ActorLoader{Users: userRepo}

	// EOL sweep
	cronRunner, err := scheduler.Run(svc, cfg.EOLSweepSpec)
	if err != nil {
		log.Fatalf("Failed to start eol sweep: %v", err)
	}
	defer cronRunner.Stop()

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWT([]byte(cfg.JWTSecret)))
		r.Use(actorLoader.Middleware)

		r.Route("/assets", func(r chi.Router) {
			r.Post("/", assetH.RegisterAsset)
			r.Get("/", assetH.ListAssets)
			r.Get("/report", assetH.AssetReport)
			r.Post("/verify", assetH.VerifyAsset)
			r.Get("/{id}", assetH.GetAsset)
			r.Post("/{id}/retire", assetH.RetireAsset)
			r.Get("/{id}/history", assetH.AssetHistory)
			r.Get("/{id}/verifications", assetH.ListVerifications)
			r.Post("/{id}/changes", changeH.ProposeChange)
			r.Get("/{id}/changes", changeH.ListForAsset)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestH.CreateRequest)
			r.Get("/mine", requestH.ListMine)
			r.Get("/queue", requestH.ListQueue)
			r.Post("/{id}/approve", requestH.ApproveRequest)
			r.Post("/{id}/reject", requestH.RejectRequest)
			r.Post("/{id}/assign", requestH.AssignAsset)
			r.Post("/{id}/receipt", requestH.VerifyReceipt)
			r.Post("/{id}/cancel", requestH.CancelRequest)
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", returnH.InitiateReturn)
			r.Get("/queue", returnH.ListQueue)
			r.Post("/{id}/receive", returnH.VerifyReceived)
			r.Post("/{id}/cancel", returnH.CancelReturn)
		})

		r.Route("/changes", func(r chi.Router) {
			r.Get("/pending", changeH.ListPending)
			r.Post("/{id}/approve", changeH.ApproveChange)
			r.Post("/{id}/reject", changeH.RejectChange)
			r.Post("/{id}/cancel", changeH.CancelChange)
		})

		r.Post("/exit", exitH.ExitOrganization)
		r.Get("/audit", auditH.ListAudit)
		r.Get("/categories", categoryH.ListCategories)
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		slog.Info("starting server", "addr", addr)
		err = srv.ListenAndServe()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func setupLogging(format string) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}
