package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/audit"
	"github.com/atacama-group/seia-cli/internal/engine"
	"github.com/atacama-group/seia-cli/internal/gis"
	"github.com/atacama-group/seia-cli/internal/rules"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP classification API",
	Long: `Starts an HTTP server exposing the classification engine.

Routes:
  GET  /health            liveness probe
  POST /v1/analyze        classify a project (same body as the analyze command)
  GET  /v1/runs/{id}      fetch a stored audit record
  POST /v1/rules/reload   reload the rule file and swap it in atomically`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().String("rules", "", "rule file path (default: config, then embedded defaults)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := loadSnapshot(cmd)
	if err != nil {
		return err
	}
	holder := rules.NewHolder(snap)
	rulesPath, _ := cmd.Flags().GetString("rules")
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}

	st, cleanup, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var loader *gis.FactsLoader
	if cfg.Store.Driver == "postgres" {
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = gis.NewFactsLoader(pool)
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"rules_hash": holder.Current().Hash,
		})
	})

	r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
		var in analyzeInput
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		if len(in.SiteGeoJSON) > 0 {
			if err := enrichFromGeometry(req.Context(), &in, loader); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}

		res, err := engine.Run(&in.ProjectFacts, holder.Current())
		if err != nil {
			status := http.StatusInternalServerError
			if eris.Is(err, engine.ErrInvalidInput) || eris.Is(err, rules.ErrNotConfigured) {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		rec, err := audit.NewRecord(&in.ProjectFacts, res)
		if err == nil {
			err = st.SaveRun(req.Context(), rec)
		}
		if err != nil {
			zap.L().Error("serve: persist run failed",
				zap.String("run_id", res.RunID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to persist run"})
			return
		}

		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		rec, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	r.Post("/v1/rules/reload", func(w http.ResponseWriter, req *http.Request) {
		var next *rules.Snapshot
		var err error
		if rulesPath == "" {
			next, err = rules.LoadDefault()
		} else {
			next, err = rules.Load(rulesPath)
		}
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		holder.Swap(next)
		zap.L().Info("rules reloaded",
			zap.String("version", next.Version),
			zap.String("hash", next.Hash),
		)
		writeJSON(w, http.StatusOK, map[string]string{
			"version": next.Version,
			"hash":    next.Hash,
		})
	})

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		srv.Shutdown(ctx)
	}()

	zap.L().Info("starting server",
		zap.Int("port", port),
		zap.String("rules_hash", snap.Hash),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
