package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/pkg/oddsapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the market intelligence HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
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
			Handler: newRouter(env),
		}

		// Graceful shutdown
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

type healthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	PredictionsTracked int    `json:"predictions_tracked"`
}

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if all, err := env.Store.GetAll(req.Context()); err == nil {
			resp.PredictionsTracked = len(all)
		} else {
			resp.Status = "degraded"
			zap.L().Warn("health: store unavailable", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/matches", func(w http.ResponseWriter, req *http.Request) {
		matches, err := env.upcomingOdds(req.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	})

	r.Post("/analyze", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			HomeTeam string `json:"home_team"`
			AwayTeam string `json:"away_team"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		if body.HomeTeam == "" || body.AwayTeam == "" {
			writeError(w, http.StatusBadRequest, eris.New("home_team and away_team are required"))
			return
		}

		ctx := req.Context()

		odds, err := env.Odds.OddsForMatch(ctx, body.HomeTeam, body.AwayTeam)
		if err != nil {
			if eris.Is(err, oddsapi.ErrMatchNotFound) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusBadGateway, err)
			return
		}

		match := model.Match{HomeTeam: body.HomeTeam, AwayTeam: body.AwayTeam}
		news := model.MatchTeamNews{}
		if fx, found, err := env.findFixture(ctx, body.HomeTeam, body.AwayTeam); err == nil && found {
			match = fx.Match()
			if n, err := env.Football.MatchTeamNews(ctx, fx); err == nil {
				news = n
			} else {
				zap.L().Warn("could not fetch team news", zap.Error(err))
			}
		}

		analysis, err := env.Analyzer.Analyze(ctx, match, odds, news)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	})

	r.Get("/predictions", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var (
			predictions []model.Prediction
			err         error
		)
		switch req.URL.Query().Get("status") {
		case "pending":
			predictions, err = env.Store.GetPending(ctx)
		case "validated":
			predictions, err = env.Store.GetValidated(ctx)
		case "":
			predictions, err = env.Store.GetAll(ctx)
		default:
			writeError(w, http.StatusBadRequest, eris.New("status must be pending or validated"))
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if predictions == nil {
			predictions = []model.Prediction{}
		}
		writeJSON(w, http.StatusOK, predictions)
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics, err := env.Store.Metrics(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	})

	r.Post("/validate", func(w http.ResponseWriter, req *http.Request) {
		summary, err := env.newValidator().ValidatePending(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Debug("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
