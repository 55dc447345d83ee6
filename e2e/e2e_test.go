package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/testdata"
)

func settings() config.Config {
	cfg := config.Default()
	cfg.Particles.Count = 1000
	cfg.Particles.Seed = 3
	cfg.Render.Width = 96
	cfg.Render.Height = 54
	cfg.Render.FPS = 60
	cfg.Detector.FPS = 120
	return cfg
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newStore(t)

	frames, err := testdata.LoadSequence("sweep_right")
	if err != nil {
		t.Fatalf("LoadSequence() error = %v", err)
	}

	application, err := app.New(app.Config{
		Settings:   settings(),
		Store:      s,
		Camera:     capture.NewBlankCamera(0, 0),
		Detector:   detector.NewReplayDetector(frames, false),
		RecordName: "sweep",
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	ts := httptest.NewServer(server.New(server.Config{Store: s, Source: application}))
	defer ts.Close()
	client := ts.Client()

	t.Run("UniformsFollowSweep", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/uniforms"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var msg server.UniformsMessage
		for {
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("uniforms never reached the sweep end: %v (last %+v)", err, msg)
			}
			if msg.TemplateSwitch == 1 && msg.ExpansionFactor == 3 {
				break
			}
		}
	})

	t.Run("RecordedSessionListed", func(t *testing.T) {
		id := application.Recorder().Session().ID

		resp, err := client.Get(ts.URL + "/api/sessions/" + id + "/frames")
		if err != nil {
			t.Fatalf("GET frames error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var body struct {
			Frames []struct {
				Landmarks []detector.Point3D `json:"landmarks"`
			} `json:"frames"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Frames) < len(frames) {
			t.Errorf("recorded %d frames, want at least %d", len(body.Frames), len(frames))
		}
		if body.Frames[3].Landmarks != nil {
			t.Error("the missing hand should be recorded as null")
		}
	})

	t.Run("StreamServesFrames", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("GET stream error = %v", err)
		}
		defer resp.Body.Close()

		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		if !strings.HasPrefix(string(buf[:n]), "--frame\r\nContent-Type: image/jpeg") {
			t.Errorf("unexpected stream prefix %q", buf[:n])
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
		resp.Body.Close()
	})
}

func TestE2E_PinchHoldsContracted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	frames, err := testdata.LoadSequence("pinch_center")
	if err != nil {
		t.Fatalf("LoadSequence() error = %v", err)
	}

	application, err := app.New(app.Config{
		Settings: settings(),
		Camera:   capture.NewBlankCamera(0, 0),
		Detector: detector.NewReplayDetector(frames, true),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	application.Stop()

	u := application.Uniforms()
	if u.ExpansionFactor != 1 || u.TemplateSwitch != 0 {
		t.Errorf("pinch at centre should stay contracted and idle: %+v", u)
	}
	// A centred wrist maps to hue 0.5.
	if u.BaseColor.R > 0.01 || u.BaseColor.G < 0.99 || u.BaseColor.B < 0.99 {
		t.Errorf("base color = %+v, want cyan", u.BaseColor)
	}
}
