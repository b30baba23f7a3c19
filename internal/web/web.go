package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"memlcd/internal/config"
	"memlcd/internal/convert"
	"memlcd/internal/face"
	appLog "memlcd/internal/log"
	"memlcd/internal/preview"
	"memlcd/internal/rtc"
	"memlcd/internal/watch"
)

// Request body limits.
const (
	maxNotifyBytes = 64 << 10
	maxImageBytes  = 8 << 20
)

// Controller is the part of the watch runner the API drives.
type Controller interface {
	Notify(n face.Notification) error
	ShowImage(img image.Image) error
	Dismiss(ctx context.Context) error
	Snapshot() *image.RGBA
	Status() watch.Status
}

// Server exposes the panel over HTTP: a PNG preview of the frame buffer,
// runner status, and endpoints that push notifications and images.
type Server struct {
	cfg     *config.Config
	current func() *config.Config
	ctl     Controller
	clock   rtc.Clock
	mux     *http.ServeMux
}

// NewServer constructs a new Server. clock may be nil.
func NewServer(cfg *config.Config, ctl Controller, clock rtc.Clock) *Server {
	s := &Server{
		cfg:   cfg,
		ctl:   ctl,
		clock: clock,
		mux:   http.NewServeMux(),
	}
	s.current = func() *config.Config { return s.cfg }
	s.registerRoutes()
	return s
}

// FollowConfig makes basic-auth credentials come from get on every
// request, so a reloaded config takes effect without a restart. The
// listen address stays the one given to NewServer.
func (s *Server) FollowConfig(get func() *config.Config) {
	if get != nil {
		s.current = get
	}
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.basicAuthMiddleware(s.mux)
}

// basicAuth returns the configured credentials, or false when basic auth
// is off.
func (s *Server) basicAuth() (config.BasicAuthConfig, bool) {
	cfg := s.current()
	if cfg == nil || cfg.BasicAuth == nil {
		return config.BasicAuthConfig{}, false
	}
	a := *cfg.BasicAuth
	return a, a.Username != "" && a.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic
// Auth whenever credentials are configured.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want, enabled := s.basicAuth()
		if !enabled || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, want.Username) || !secureCompare(p, want.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="memlcd", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		_, auth := s.basicAuth()
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", auth)
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

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/notify", s.handleNotify)
	s.mux.HandleFunc("POST /api/image", s.handleImage)
	s.mux.HandleFunc("POST /api/dismiss", s.handleDismiss)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview renders the current frame buffer as PNG.
//
// GET /preview.png?scale=2
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	scale := parseIntDefault(r.URL.Query().Get("scale"), 1)
	if scale < 1 || scale > 8 {
		writeError(w, http.StatusBadRequest, "scale must be 1..8")
		return
	}
	img := s.ctl.Snapshot()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := preview.WritePNG(w, img, scale); err != nil {
		appLog.Error("preview encode failed", err)
	}
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	watch.Status
	Clock string `json:"clock,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: s.ctl.Status()}
	if s.clock != nil {
		t, err := s.clock.Now(r.Context())
		if err != nil {
			appLog.Warn("clock read failed", "err", err)
		} else {
			resp.Clock = t.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNotify shows a notification.
//
// POST /api/notify {"app_id": "...", "title": "...", "message": "..."}
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotifyBytes)
	var n face.Notification
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification JSON")
		return
	}
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Message) == "" {
		writeError(w, http.StatusBadRequest, "title or message is required")
		return
	}
	if err := s.ctl.Notify(n); err != nil {
		appLog.Error("notify failed", err, "app", n.AppID)
		writeError(w, http.StatusInternalServerError, "failed to show notification")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shown"})
}

// handleImage shows an uploaded image. The body is the raw image file.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	img, format, err := convert.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}
	if err := s.ctl.ShowImage(img); err != nil {
		appLog.Error("show image failed", err, "format", format)
		writeError(w, http.StatusInternalServerError, "failed to show image")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shown", "format": format})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.Dismiss(r.Context()); err != nil {
		appLog.Error("dismiss failed", err)
		writeError(w, http.StatusInternalServerError, "failed to redraw face")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
