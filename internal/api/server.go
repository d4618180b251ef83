// Package api serves session and metric data over HTTP. Speeds and
// distances are stored in m/s and metres; conversion to the caller's
// preferred units happens here, per request.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/pitchtrack/internal/db"
	"github.com/banshee-data/pitchtrack/internal/metrics"
	"github.com/banshee-data/pitchtrack/internal/report"
	"github.com/banshee-data/pitchtrack/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db    *db.DB
	units string
}

// NewServer creates an API server over the results store. defaultUnits is
// used when a request carries no units parameter.
func NewServer(database *db.DB, defaultUnits string) *Server {
	if !units.IsValid(defaultUnits) {
		defaultUnits = units.MPS
	}
	return &Server{
		db:    database,
		units: defaultUnits,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/session", s.showSession)
	mux.HandleFunc("/api/players", s.listPlayers)
	mux.HandleFunc("/api/leaderboard", s.showLeaderboard)
	mux.HandleFunc("/api/charts/distance", s.chartDistance)
	mux.HandleFunc("/api/charts/bands", s.chartBands)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requestUnits resolves the units query parameter, falling back to the
// server default. An invalid value is an error, not a silent fallback.
func (s *Server) requestUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid units %q (valid: %s)", u, units.GetValidUnitsString())
	}
	return u, nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"units": s.units})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sessions, err := s.db.ListSessions()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []db.SessionInfo{}
	}
	json.NewEncoder(w).Encode(sessions)
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'id' parameter")
		return
	}
	u, err := s.requestUnits(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.db.GetSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	summary, err := s.db.SessionSummary(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	json.NewEncoder(w).Encode(struct {
		Session *db.SessionInfo  `json:"session"`
		Units   string           `json:"units"`
		Metrics *metrics.Summary `json:"metrics"`
	}{info, u, convertSummary(summary, u)})
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("session")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'session' parameter")
		return
	}
	players, err := s.db.Players(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	json.NewEncoder(w).Encode(players)
}

func (s *Server) showLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("session")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'session' parameter")
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	u, err := s.requestUnits(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.db.TopDistance(id, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for i := range rows {
		rows[i].DistanceM = units.ConvertDistance(rows[i].DistanceM, u)
	}
	json.NewEncoder(w).Encode(struct {
		Units string              `json:"units"`
		Rows  []db.TopDistanceRow `json:"rows"`
	}{u, rows})
}

func (s *Server) chartDistance(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'session' parameter")
		return
	}
	u, err := s.requestUnits(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.db.GetSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	summary, err := s.db.SessionSummary(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	players, err := s.db.Players(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderDistanceBar(w, info.Description, players, summary.Distance, u); err != nil {
		log.Printf("chart render failed: %v", err)
	}
}

func (s *Server) chartBands(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'session' parameter")
		return
	}
	u, err := s.requestUnits(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := s.db.GetSession(id)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	summary, err := s.db.SessionSummary(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	players, err := s.db.Players(id)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSpeedBands(w, info.Description, players, summary.Bands, u); err != nil {
		log.Printf("chart render failed: %v", err)
	}
}

// convertSummary returns a copy of summary with speeds and distances
// converted to the target units. Band labels keep their m/s zone names;
// only measured values convert.
func convertSummary(in *metrics.Summary, u string) *metrics.Summary {
	out := &metrics.Summary{
		Distance: make([]metrics.DistanceRow, len(in.Distance)),
		Bands:    make([]metrics.BandRow, len(in.Bands)),
		Accels:   make([]metrics.AccelRow, len(in.Accels)),
		Windows:  make([]metrics.WindowRow, len(in.Windows)),
	}
	copy(out.Accels, in.Accels)

	for i, r := range in.Distance {
		r.DistanceM = units.ConvertDistance(r.DistanceM, u)
		out.Distance[i] = r
	}
	for i, r := range in.Bands {
		r.DistanceM = units.ConvertDistance(r.DistanceM, u)
		out.Bands[i] = r
	}
	for i, r := range in.Windows {
		r.DistanceM = units.ConvertDistance(r.DistanceM, u)
		r.MeanSpeed = units.ConvertSpeed(r.MeanSpeed, u)
		r.MaxSpeed = units.ConvertSpeed(r.MaxSpeed, u)
		out.Windows[i] = r
	}
	return out
}
