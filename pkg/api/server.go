// Package api serves instrument snapshots, stored quote history and live
// inside updates over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/mktfeed/pkg/market"
	"github.com/uhyunpark/mktfeed/pkg/storage"
)

const (
	defaultQuoteLimit = 100
	maxQuoteLimit     = 10000
)

// Config for the API listener.
type Config struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Server handles REST API and WebSocket connections
type Server struct {
	cfg      Config
	log      *zap.SugaredLogger
	registry *market.Registry
	store    storage.QuoteStore // may be nil
	metrics  http.Handler       // may be nil
	router   *mux.Router
	hub      *Hub
}

// NewServer wires the routes and subscribes the hub to registry
// updates. store and metrics are optional.
func NewServer(cfg Config, registry *market.Registry, store storage.QuoteStore, metrics http.Handler, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		registry: registry,
		store:    store,
		metrics:  metrics,
		router:   mux.NewRouter(),
		hub:      NewHub(log),
	}
	s.setupRoutes()
	registry.OnUpdate(s.hub.PublishInside)
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/instruments", s.handleListInstruments).Methods("GET")
	api.HandleFunc("/instruments/{symbol}", s.handleGetInstrument).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/depth", s.handleGetDepth).Methods("GET")
	api.HandleFunc("/instruments/{symbol}/quotes", s.handleGetQuotes).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:3001"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api server starting", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	respondJSON(w, InstrumentList{Count: len(list), Instruments: list})
}

func symbolVar(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["symbol"])
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	in, err := s.registry.Get(symbolVar(r))
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}
	respondJSON(w, in)
}

func (s *Server) handleGetDepth(w http.ResponseWriter, r *http.Request) {
	in, err := s.registry.Get(symbolVar(r))
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return
	}
	if in.Depth == nil {
		respondError(w, http.StatusNotFound, "depth not tracked", in.Symbol)
		return
	}
	respondJSON(w, DepthSnapshot{
		Symbol:      in.Symbol,
		TimestampNs: in.TimestampNs,
		Bids:        in.Depth.Bids,
		Asks:        in.Depth.Asks,
	})
}

func (s *Server) handleGetQuotes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "quote store disabled", "")
		return
	}
	limit := defaultQuoteLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		limit = min(n, maxQuoteLimit)
	}

	symbol := symbolVar(r)
	quotes, err := s.store.Recent(symbol, limit)
	if err != nil {
		s.log.Errorw("quote lookup failed", "symbol", symbol, "err", err)
		respondError(w, http.StatusInternalServerError, "quote lookup failed", err.Error())
		return
	}
	if quotes == nil {
		quotes = []storage.QuoteRecord{}
	}
	respondJSON(w, QuoteHistory{Symbol: symbol, Quotes: quotes})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status":      "ok",
		"instruments": s.registry.Count(),
		"ws_clients":  s.hub.Clients(),
	})
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
