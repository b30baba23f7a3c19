package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memlcd/internal/config"
	"memlcd/internal/face"
	"memlcd/internal/rtc"
	"memlcd/internal/watch"
)

type fakeController struct {
	notes     []face.Notification
	images    int
	dismissed int
	fail      error
}

func (f *fakeController) Notify(n face.Notification) error {
	f.notes = append(f.notes, n)
	return f.fail
}

func (f *fakeController) ShowImage(image.Image) error {
	f.images++
	return f.fail
}

func (f *fakeController) Dismiss(context.Context) error {
	f.dismissed++
	return f.fail
}

func (f *fakeController) Snapshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func (f *fakeController) Status() watch.Status {
	return watch.Status{Face: "analog", Redraws: 7}
}

func newTestServer(auth *config.BasicAuthConfig) (*fakeController, http.Handler) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = auth
	ctl := &fakeController{}
	clock := rtc.Fixed(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	return ctl, NewServer(cfg, ctl, clock).Handler()
}

func do(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(&config.BasicAuthConfig{Username: "u", Password: "p"})
	rec := do(h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	_, h := newTestServer(&config.BasicAuthConfig{Username: "u", Password: "p"})
	if rec := do(h, http.MethodGet, "/api/status", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials = %d, want 401", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("u", "p")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with credentials = %d, want 200", rec.Code)
	}
}

func TestBasicAuthFollowsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	ctl := &fakeController{}
	srv := NewServer(cfg, ctl, nil)
	live := config.DefaultConfig()
	srv.FollowConfig(func() *config.Config { return live })
	h := srv.Handler()

	if rec := do(h, http.MethodGet, "/api/status", nil); rec.Code != http.StatusOK {
		t.Fatalf("auth off = %d, want 200", rec.Code)
	}

	live = config.DefaultConfig()
	live.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "new"}
	if rec := do(h, http.MethodGet, "/api/status", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("after reload without credentials = %d, want 401", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("u", "new")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("reloaded credentials = %d, want 200", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(nil)
	rec := do(h, http.MethodGet, "/api/status", nil)
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["face"] != "analog" || resp["redraws"] != float64(7) {
		t.Errorf("status = %v", resp)
	}
	if resp["clock"] != "2025-01-02T03:04:05Z" {
		t.Errorf("clock = %v", resp["clock"])
	}
}

func TestPreview(t *testing.T) {
	_, h := newTestServer(nil)
	rec := do(h, http.MethodGet, "/preview.png?scale=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview = %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", img.Bounds().Dx())
	}
	if rec := do(h, http.MethodGet, "/preview.png?scale=99", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("scale=99 = %d, want 400", rec.Code)
	}
}

func TestNotify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"app_id":"chat","title":"Alice","message":"hi"}`, http.StatusAccepted},
		{"message only", `{"message":"hi"}`, http.StatusAccepted},
		{"empty", `{"app_id":"chat"}`, http.StatusBadRequest},
		{"unknown field", `{"title":"x","color":"red"}`, http.StatusBadRequest},
		{"garbage", `not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, h := newTestServer(nil)
			rec := do(h, http.MethodPost, "/api/notify", []byte(tt.body))
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusAccepted && len(ctl.notes) != 1 {
				t.Errorf("notes = %d, want 1", len(ctl.notes))
			}
		})
	}
}

func TestNotifyFailure(t *testing.T) {
	ctl, h := newTestServer(nil)
	ctl.fail = errors.New("bus")
	rec := do(h, http.MethodPost, "/api/notify", []byte(`{"title":"x"}`))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
}

func TestNotifyMethod(t *testing.T) {
	_, h := newTestServer(nil)
	if rec := do(h, http.MethodGet, "/api/notify", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/notify = %d, want 405", rec.Code)
	}
}

func TestImage(t *testing.T) {
	ctl, h := newTestServer(nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	rec := do(h, http.MethodPost, "/api/image", buf.Bytes())
	if rec.Code != http.StatusAccepted || ctl.images != 1 {
		t.Errorf("image = %d, images = %d", rec.Code, ctl.images)
	}
	if !strings.Contains(rec.Body.String(), `"png"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec := do(h, http.MethodPost, "/api/image", []byte("junk")); rec.Code != http.StatusBadRequest {
		t.Errorf("junk = %d, want 400", rec.Code)
	}
}

func TestDismiss(t *testing.T) {
	ctl, h := newTestServer(nil)
	if rec := do(h, http.MethodPost, "/api/dismiss", nil); rec.Code != http.StatusOK || ctl.dismissed != 1 {
		t.Errorf("dismiss = %d, dismissed = %d", rec.Code, ctl.dismissed)
	}
}
