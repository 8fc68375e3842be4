// Package server exposes an agent.Agent over JSON/HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"board-tracker/internal/agent"
	"board-tracker/internal/errors"
	"board-tracker/internal/logging"
	"board-tracker/internal/models"
)

// Options configures a Server.
type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
}

// Server routes agent commands received over HTTP.
type Server struct {
	agent  agent.Agent
	logger zerolog.Logger
	router *mux.Router
	cors   *cors.Cors
}

// New creates a Server in front of a.
func New(a agent.Agent, opts Options) *Server {
	s := &Server{
		agent:  a,
		logger: opts.Logger.With().Str("component", "server").Logger(),
		router: mux.NewRouter(),
		cors: cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", agent.RequestIDHeader},
		}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.HandleFunc(agent.PathControllerStart, s.handleStart).Methods(http.MethodPost)
	r.HandleFunc(agent.PathControllerStop, s.handleStop).Methods(http.MethodPost)
	r.HandleFunc(agent.PathController, s.handleGetController).Methods(http.MethodGet)
	r.HandleFunc(agent.PathController, s.handlePostController).Methods(http.MethodPost)
	r.HandleFunc(agent.PathController, s.handlePutController).Methods(http.MethodPut)
	r.HandleFunc(agent.PathController, s.handleDeleteController).Methods(http.MethodDelete)
	r.HandleFunc(agent.PathInstruments+"/{exchange}", s.handleInstruments).Methods(http.MethodGet)
	r.HandleFunc(agent.PathTicker+"/{exchange}/{symbol}", s.handleTicker).Methods(http.MethodGet)
	r.HandleFunc(agent.PathLogger, s.handleGetLogger).Methods(http.MethodGet)
	r.HandleFunc(agent.PathLogger, s.handleClearLogger).Methods(http.MethodDelete)
	r.HandleFunc(agent.PathHealth, s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	return s.cors.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Agent server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := logging.WithRequestID(s.logger, r.Header.Get(agent.RequestIDHeader))
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	c, err := s.agent.StartController(r.Context())
	s.reply(w, r, agent.CmdStartController, c, err)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	c, err := s.agent.StopController(r.Context())
	s.reply(w, r, agent.CmdStopController, c, err)
}

func (s *Server) handleGetController(w http.ResponseWriter, r *http.Request) {
	c, err := s.agent.GetController(r.Context())
	s.reply(w, r, agent.CmdGetController, c, err)
}

func (s *Server) handlePostController(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeController(w, r)
	if !ok {
		return
	}
	out, err := s.agent.PostController(r.Context(), c)
	s.reply(w, r, agent.CmdPostController, out, err)
}

func (s *Server) handlePutController(w http.ResponseWriter, r *http.Request) {
	c, ok := s.decodeController(w, r)
	if !ok {
		return
	}
	out, err := s.agent.PutController(r.Context(), c)
	s.reply(w, r, agent.CmdPutController, out, err)
}

func (s *Server) handleDeleteController(w http.ResponseWriter, r *http.Request) {
	c, err := s.agent.DeleteController(r.Context())
	s.reply(w, r, agent.CmdDeleteController, c, err)
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	exchange := models.ExchangeName(mux.Vars(r)["exchange"])
	instruments, err := s.agent.GetInstruments(r.Context(), exchange)
	s.reply(w, r, agent.CmdGetInstruments, instruments, err)
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker, err := s.agent.GetTicker(r.Context(), models.ExchangeName(vars["exchange"]), vars["symbol"])
	s.reply(w, r, agent.CmdGetTicker, ticker, err)
}

func (s *Server) handleGetLogger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.agent.GetLogger(r.Context())
	s.reply(w, r, agent.CmdGetLogger, entries, err)
}

func (s *Server) handleClearLogger(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.ClearLogger(r.Context()); err != nil {
		s.reply(w, r, agent.CmdClearLogger, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeController(w http.ResponseWriter, r *http.Request) (models.Controller, bool) {
	var c models.Controller
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, agent.ErrorBody{Msg: "controller is invalid", Cause: err.Error()})
		return c, false
	}
	return c, true
}

// reply writes v, or the refusal carried by err.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, command string, v interface{}, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}

	status := http.StatusInternalServerError
	body := agent.ErrorBody{Msg: command + " failed", Cause: err.Error()}

	var callErr *errors.AgentCallError
	if errors.As(err, &callErr) {
		body = agent.ErrorBody{Msg: callErr.Msg, Cause: callErr.Cause}
		if callErr.Status >= 400 {
			status = callErr.Status
		}
	}

	logger := logging.FromContext(r.Context())
	logger.Warn().
		Str("command", command).
		Int("status", status).
		Str("msg", body.Msg).
		Str("cause", body.Cause).
		Msg("Command refused")

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
