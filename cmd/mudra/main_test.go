package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/config"
)

func TestViewerURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/api/stream"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/api/stream"},
	}
	for _, tt := range tests {
		if got := viewerURL(tt.addr); got != tt.want {
			t.Errorf("viewerURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()

	if got := findWebDir(dataDir); got != "" {
		t.Skipf("relative web directory %s takes precedence", got)
	}

	web := filepath.Join(dataDir, "web")
	if err := os.Mkdir(web, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := findWebDir(dataDir); got != web {
		t.Errorf("findWebDir() = %q, want %q", got, web)
	}
}

func TestApplyFlags_Unset(t *testing.T) {
	cfg := config.Default()
	applyFlags(&cfg, options{addr: ":1", camera: 3, window: true, logLevel: "debug"})

	if cfg.Server.Addr != ":8080" || cfg.Camera.DeviceID != 0 || cfg.Render.Window {
		t.Errorf("unset flags must not override config: %+v", cfg)
	}
}
