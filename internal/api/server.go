package api

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"strings"
	"time"

	screengrab "github.com/bryanchriswhite/ScreenGrab"
	"github.com/bryanchriswhite/ScreenGrab/internal/config"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"
)

// focusPollInterval paces the websocket focus stream.
const focusPollInterval = 500 * time.Millisecond

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	session   *screengrab.Session
	configMgr *config.Manager
	upgrader  websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(session *screengrab.Session, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		session:   session,
		configMgr: configMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Displays
	api.HandleFunc("/displays", s.handleGetDisplays).Methods("GET")
	api.HandleFunc("/displays/{id}/capture.png", s.handleCaptureDisplay).Methods("GET")
	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST")

	// Windows
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")

	// Focus state
	api.HandleFunc("/focus", s.handleGetFocus).Methods("GET")
	api.HandleFunc("/focus/stream", s.handleFocusStream)

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.PathPrefix("/").HandlerFunc(s.handleIndex)
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().
		Str("addr", addr).
		Msg("Starting server")
	return http.ListenAndServe(addr, s.enableCORS(s.router))
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

type displayResponse struct {
	ID          uint32  `json:"id"`
	UUID        string  `json:"uuid"`
	Serial      string  `json:"serial,omitempty"`
	Name        string  `json:"name"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Primary     bool    `json:"primary"`
	ScaleFactor float64 `json:"scale_factor"`
}

func (s *Server) handleGetDisplays(w http.ResponseWriter, r *http.Request) {
	displays, err := s.session.Displays()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]displayResponse, len(displays))
	for i, d := range displays {
		serial, _ := d.Serial()
		resp[i] = displayResponse{
			ID:          d.ID,
			UUID:        d.UUID,
			Serial:      serial,
			Name:        d.Name,
			X:           d.Bounds.Min.X,
			Y:           d.Bounds.Min.Y,
			Width:       d.Bounds.Dx(),
			Height:      d.Bounds.Dy(),
			Primary:     d.IsPrimary,
			ScaleFactor: d.ScaleFactor,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleCaptureDisplay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	display, err := s.session.FromUniqueKey(vars["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	img, err := display.Capture()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Optional downscale to the requested width, keeping aspect ratio.
	if q := r.URL.Query().Get("width"); q != "" {
		width, err := strconv.Atoi(q)
		if err != nil || width <= 0 {
			http.Error(w, "invalid width", http.StatusBadRequest)
			return
		}
		if width < img.Bounds().Dx() {
			height := img.Bounds().Dy() * width / img.Bounds().Dx()
			scaled := image.NewRGBA(image.Rect(0, 0, width, height))
			draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
			img = scaled
		}
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		logger.WithComponent("api").Warn().
			Err(err).
			Uint32("display_id", display.ID).
			Msg("PNG encode failed")
	}
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.session.Windows()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(windows)
}

func (s *Server) handleGetFocus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.CurrentFocus()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleFocusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithComponent("api").Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Send the current state, then push on change.
	var last screengrab.Focus
	if snap, err := s.session.CurrentFocus(); err == nil {
		last = snap
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}

	ticker := time.NewTicker(focusPollInterval)
	defer ticker.Stop()

	for range ticker.C {
		snap, err := s.session.CurrentFocus()
		if err != nil {
			logger.WithComponent("api").Warn().Err(err).Msg("Focus stream read failed")
			return
		}
		if snap == last {
			continue
		}
		last = snap
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
}

// handleRefresh drops cached capture state after a display topology
// change, e.g. a monitor was plugged in or removed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.session.Refresh()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configMgr.Get()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>ScreenGrab</title>
</head>
<body>
    <h1>ScreenGrab</h1>
    <p>Server is running.</p>
    <ul>
        <li><a href="/api/health">/api/health</a> - Server health check</li>
        <li><a href="/api/displays">/api/displays</a> - List attached displays</li>
        <li><a href="/api/windows">/api/windows</a> - List visible windows</li>
        <li><a href="/api/focus">/api/focus</a> - Current frontmost application</li>
        <li><a href="/api/config">/api/config</a> - View configuration</li>
    </ul>
    <p>Capture a display with <code>/api/displays/{id}/capture.png?width=800</code>.</p>
</body>
</html>`

	// Only serve HTML for root path
	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/api") {
		http.NotFound(w, r)
	}
}
