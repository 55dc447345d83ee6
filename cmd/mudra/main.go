package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

type options struct {
	configPath string
	addr       string
	camera     int
	record     string
	replay     string
	window     bool
	tray       bool
	logLevel   string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.IntVar(&opts.camera, "camera", 0, "camera device id (overrides camera.device_id)")
	flag.StringVar(&opts.record, "record", "", "record landmarks into a new session with this name")
	flag.StringVar(&opts.replay, "replay", "", "replay the recorded session with this id instead of the camera")
	flag.BoolVar(&opts.window, "window", false, "show frames in a native window")
	flag.BoolVar(&opts.tray, "tray", false, "show a system tray menu")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	if opts.record != "" && opts.replay != "" {
		return errors.New("-record and -replay cannot be combined")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)

	cfg.Logging.Service = "mudra"
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(cfg.DataDir, "mudra.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	appCfg := app.Config{
		Settings:   cfg,
		Store:      st,
		Logger:     logger,
		RecordName: opts.record,
	}
	if opts.replay != "" {
		frames, err := st.Sessions().Frames(opts.replay)
		if err != nil {
			return fmt.Errorf("load session %s: %w", opts.replay, err)
		}
		logger.Info("replaying session", zap.String("id", opts.replay), zap.Int("frames", len(frames)))
		appCfg.Detector = detector.NewReplayDetector(store.Hands(frames), true)
		appCfg.Camera = capture.NewBlankCamera(cfg.Camera.Width, cfg.Camera.Height)
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	webDir := cfg.Server.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Info("serving static files", zap.String("dir", webDir))
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Source:    a,
		Logger:    logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})

	if opts.tray {
		t := tray.New()
		t.OnToggle(a.SetEnabled)
		t.OnOpenViewer(func() {
			if err := openBrowser(viewerURL(cfg.Server.Addr)); err != nil {
				logger.Warn("open viewer", zap.Error(err))
			}
		})
		t.OnQuit(stop)

		g.Go(func() error {
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					t.Quit()
					return nil
				case <-ticker.C:
					t.SetUniforms(a.Uniforms())
				}
			}
		})

		// The tray needs the main thread.
		t.Run()
		stop()
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}

// applyFlags overlays explicitly set flags on cfg.
func applyFlags(cfg *config.Config, opts options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = opts.addr
		case "camera":
			cfg.Camera.DeviceID = opts.camera
		case "window":
			cfg.Render.Window = opts.window
		case "log-level":
			cfg.Logging.Level = opts.logLevel
		}
	})
}

// viewerURL returns the local URL of the MJPEG stream for addr.
func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/stream"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
