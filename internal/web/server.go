package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vadiminshakov/tradegate/internal/domain"
	"go.uber.org/zap"
)

const (
	reportPollInterval = 2 * time.Second
	heartbeatInterval  = 30 * time.Second
)

type analyzer interface {
	RunAnalysis(ctx context.Context, pair domain.Pair, tf domain.Timeframe) (*domain.Report, error)
}

type reportReader interface {
	ReportsAfter(index uint64) ([]domain.ReportRecord, error)
}

// Server exposes on-demand analysis, the watcher report log as JSON and as an
// SSE stream, and Prometheus metrics.
type Server struct {
	Addr             string
	Analyzer         analyzer
	Store            reportReader
	Metrics          http.Handler
	DefaultTimeframe domain.Timeframe
	Logger           *zap.Logger

	pollInterval time.Duration
}

// NewServer creates a new web server instance. store and metrics may be nil.
func NewServer(addr string, a analyzer, store reportReader, metrics http.Handler, tf domain.Timeframe, logger *zap.Logger) *Server {
	return &Server{
		Addr:             addr,
		Analyzer:         a,
		Store:            store,
		Metrics:          metrics,
		DefaultTimeframe: tf,
		Logger:           logger,
		pollInterval:     reportPollInterval,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /analysis", s.handleAnalysis)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("GET /reports/stream", s.handleReportStream)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("HTTP server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	pair, err := domain.ParsePair(r.URL.Query().Get("pair"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tf := s.DefaultTimeframe
	if raw := r.URL.Query().Get("timeframe"); raw != "" {
		tf, err = domain.ParseTimeframe(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	report, err := s.Analyzer.RunAnalysis(r.Context(), pair, tf)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.Logger.Error("analysis request failed",
				zap.String("pair", pair.String()), zap.String("timeframe", tf.String()), zap.Error(err))
		}
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("report store not available"))
		return
	}

	after, err := afterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.Store.ReportsAfter(after)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []domain.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "report store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastIndex, err := afterParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat so proxies keep connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	sendReports := func() error {
		records, err := s.Store.ReportsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Report)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: report\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendReports(); err != nil {
		http.Error(w, "failed to load reports", http.StatusInternalServerError)
		s.Logger.Error("report stream initial load", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendReports(); err != nil {
				s.Logger.Warn("report stream poll", zap.Error(err))
			}
		}
	}
}

// afterParam reads the "after" query value, falling back to Last-Event-ID.
func afterParam(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		raw = r.Header.Get("Last-Event-ID")
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid report index %q", raw)
	}
	return v, nil
}

func statusFor(err error) int {
	var (
		insufficient *domain.InsufficientDataError
		upstream     *domain.UpstreamUnavailableError
		violation    *domain.InvariantViolation
	)
	switch {
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &violation):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Live feed of watcher reports.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>tradegate</title>
  <style>
    body { margin:2rem; font-family:'Space Mono','JetBrains Mono',monospace; color:#111; background:#fff; }
    table { border-collapse:collapse; width:100%; }
    th, td { border:2px solid #111; padding:.4rem .7rem; text-align:left; font-size:.8rem; }
    th { background:#f6f6f6; text-transform:uppercase; letter-spacing:.1em; }
    .BUY { color:#0a7d32; } .SELL { color:#b00020; } .WAIT { color:#9c9c9c; }
  </style>
</head>
<body>
  <h1>tradegate</h1>
  <table>
    <thead><tr><th>time</th><th>pair</th><th>tf</th><th>label</th><th>confidence</th><th>accuracy</th><th>risk</th><th>decision</th></tr></thead>
    <tbody id="rows"></tbody>
  </table>
  <script>
    const rows = document.getElementById('rows');
    const source = new EventSource('/reports/stream');
    source.addEventListener('report', (ev) => {
      const r = JSON.parse(ev.data);
      const tr = document.createElement('tr');
      const d = r.decision;
      const cells = [
        new Date(r.generated_at).toLocaleString(),
        r.pair, r.timeframe,
        r.aggregate.overall_label,
        r.aggregate.overall_confidence.toFixed(1) + '%',
        r.aggregate.accuracy_estimate.toFixed(1) + '%',
        r.risk.risk_level,
        d.should_trade ? d.direction + ' (' + d.urgency + ')' : 'WAIT',
      ];
      for (const c of cells) {
        const td = document.createElement('td');
        td.textContent = c;
        tr.appendChild(td);
      }
      tr.lastChild.className = d.should_trade ? d.direction : 'WAIT';
      rows.prepend(tr);
    });
  </script>
</body>
</html>
`
