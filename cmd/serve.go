package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a read-mostly status API over the task store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newStatusRouter(env.Store),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newStatusRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		out := make(map[string][]model.StatusCount, len(model.AllTaskTypes))
		for _, tt := range model.AllTaskTypes {
			counts, err := st.CountByStatus(req.Context(), tt)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "count tasks")
				return
			}
			out[string(tt)] = counts
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/entities/{entityID}/tasks", func(w http.ResponseWriter, req *http.Request) {
		tasks, err := st.TasksForEntity(req.Context(), chi.URLParam(req, "entityID"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "list tasks")
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	})

	r.Post("/requeue", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			EntityID string `json:"entity_id"`
			TaskType string `json:"task_type"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tt, err := model.ParseTaskType(body.TaskType)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.EntityID == "" {
			httpError(w, http.StatusBadRequest, "entity_id is required")
			return
		}
		if err := st.RequeueTask(req.Context(), body.EntityID, tt); err != nil {
			zap.L().Error("requeue failed",
				zap.String("entity_id", body.EntityID),
				zap.String("task_type", body.TaskType),
				zap.Error(err),
			)
			httpError(w, http.StatusInternalServerError, "requeue")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "requeued",
			"entity_id": body.EntityID,
			"task_type": body.TaskType,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
