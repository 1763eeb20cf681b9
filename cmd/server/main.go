package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inamate/drafting/internal/auth"
	"github.com/inamate/drafting/internal/collab"
	"github.com/inamate/drafting/internal/config"
	"github.com/inamate/drafting/internal/document"
	mw "github.com/inamate/drafting/internal/middleware"
	"github.com/inamate/drafting/internal/project"
	"github.com/inamate/drafting/internal/store"
)

const playgroundProjectID = "proj_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := store.New(pool)
	if err := db.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(db, cfg.JWTSecret, auth.WithTokenTTL(cfg.TokenTTL))
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(db)
	projectHandler := project.NewHandler(projectService)

	// The hub goroutine has no request context, so every load and save gets
	// its own deadline.
	loadPlan := func(projectID string) (*document.Plan, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return db.LoadPlan(ctx, projectID)
	}
	savePlan := func(projectID string, plan *document.Plan) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snap, err := db.SavePlan(ctx, projectID, plan)
		if err != nil {
			return err
		}
		slog.Debug("plan saved", "project", projectID, "version", snap.Version)
		return nil
	}

	hub := collab.NewHub(loadPlan, savePlan,
		collab.WithSaveInterval(cfg.SaveInterval),
		collab.WithMetrics(collab.NewMetrics(prometheus.DefaultRegisterer)),
	)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	authHandler.Routes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	projectHandler.Routes(api)

	ws := &wsHandler{
		hub:            hub,
		auth:           authService,
		projects:       projectService,
		originPatterns: cfg.OriginPatterns(),
	}
	r.Handle("/ws/project/{projectId}", ws)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every dirty plan is saved.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type wsHandler struct {
	hub            *collab.Hub
	auth           *auth.Service
	projects       *project.Service
	originPatterns []string
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var userID, displayName string

	// The playground project allows anonymous access.
	if projectID == playgroundProjectID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token, ok := auth.TokenFromRequest(r)
		if !ok {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if err := h.projects.IsMember(r.Context(), projectID, userID); err != nil {
			switch {
			case errors.Is(err, project.ErrNotFound):
				http.Error(w, "project not found", http.StatusNotFound)
				return
			case errors.Is(err, project.ErrNotMember):
				http.Error(w, "not a project member", http.StatusForbidden)
				return
			}
			slog.Error("check membership", "project", projectID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(h.hub, conn, collab.Identity{
		UserID:      userID,
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    uuid.New().String(),
	})
	client.Serve(r.Context())
}
