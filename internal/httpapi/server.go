package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ohlcvd/internal/collector"
	"ohlcvd/internal/ohlcv"

	"go.uber.org/zap"
)

const defaultLimit = 200

// Server exposes the query facade over HTTP:
//
//	GET /v1/ohlcv?symbol=BTCUSDT&resolution=1m&limit=200
//	GET /healthz
//
// Responses are JSON arrays of bars in ascending order. A series that does
// not exist yet yields an empty array with status 200.
type Server struct {
	registry *collector.Registry
	logger   *zap.Logger
	srv      *http.Server
}

func NewServer(addr string, registry *collector.Registry, logger *zap.Logger) *Server {
	s := &Server{registry: registry, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ohlcv", s.handleOHLCV)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("query API listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleOHLCV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	resParam := r.URL.Query().Get("resolution")
	if resParam == "" {
		resParam = string(ohlcv.Res1m)
	}
	res, err := ohlcv.ParseResolution(resParam)
	if err != nil {
		http.Error(w, "invalid resolution", http.StatusBadRequest)
		return
	}

	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	bars, err := s.registry.GetBars(r.Context(), symbol, res, limit)
	if err != nil {
		s.logger.Error("failed to read bars",
			zap.String("symbol", symbol), zap.String("resolution", string(res)), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if bars == nil {
		bars = []ohlcv.Bar{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bars); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
