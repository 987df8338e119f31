package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wudi/orderkit/assets"
	"github.com/wudi/orderkit/config"
	"github.com/wudi/orderkit/document"
	"github.com/wudi/orderkit/intake"
	"github.com/wudi/orderkit/observability"
	"github.com/wudi/orderkit/order"
	"github.com/wudi/orderkit/request"
)

type Server struct {
	cfg       config.Config
	log       observability.Logger
	validator *order.Validator
	resolver  *assets.Resolver
	now       func() time.Time
	router    *chi.Mux
}

func NewServer(cfg config.Config, log observability.Logger) (*Server, error) {
	v, err := order.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to compile validation rules: %w", err)
	}
	s := &Server{
		cfg:       cfg,
		log:       log,
		validator: v,
		resolver:  assets.NewResolver(assets.WithDirs(cfg.AssetDirs...), assets.WithLogger(log)),
		now:       time.Now,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RenderTimeout))

	r.Get("/api/v1/health", s.handleHealth)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/validate", s.handleValidate)
		r.Post("/extract", s.handleExtract)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	set := s.resolver.Resolve()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"customFonts":  set.Custom(),
		"headerLogo":   set.HeaderLogo != nil,
		"pricingModes": order.Modes(),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := request.Decode(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	now := s.now()
	ord, items, err := req.Resolve(s.validator, now)
	var inv *request.InvalidError
	switch {
	case errors.As(err, &inv):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "order is invalid",
			"problems": inv.Messages,
		})
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "cannot resolve order", err)
		return
	}

	log := s.log.With(observability.String("request_id", middleware.GetReqID(r.Context())))
	res, err := document.Render(r.Context(), ord, items,
		document.WithAssets(s.resolver),
		document.WithLogger(log),
		document.WithClock(func() time.Time { return now }),
		document.WithTablePagination(s.cfg.PaginateTables),
	)
	if err != nil {
		if errors.Is(err, order.ErrUnknownPricingMode) {
			respondError(w, http.StatusBadRequest, "cannot render order", err)
			return
		}
		log.Error("render failed", observability.Error("error", err))
		respondError(w, http.StatusInternalServerError, "render failed", nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("X-Render-ID", res.ID.String())
	w.Header().Set("X-Page-Count", fmt.Sprint(res.Pages))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Bytes)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := request.Decode(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	msgs, err := req.Validate(s.validator, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, "cannot validate order", err)
		return
	}
	if msgs == nil {
		msgs = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"valid":    len(msgs) == 0,
		"problems": msgs,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, intake.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field \"file\" is required", err)
		return
	}
	defer file.Close()

	o, _, err := intake.Extract(header.Filename, file)
	switch {
	case errors.Is(err, intake.ErrUnsupportedFormat):
		respondError(w, http.StatusUnsupportedMediaType, "unsupported upload", err)
		return
	case errors.Is(err, intake.ErrNoText):
		respondError(w, http.StatusUnprocessableEntity, "no readable text found", nil)
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "cannot read upload", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": o})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "orderformd: %v\n", err)
		os.Exit(2)
	}
	level, _ := observability.ParseLevel(cfg.LogLevel)
	log := observability.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Error("failed to create server", observability.Error("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RenderTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", observability.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", observability.Error("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", observability.Error("error", err))
	}
	log.Info("server stopped")
}
