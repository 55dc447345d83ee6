// Package app runs the gesture-driven particle render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/particle"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/store"
)

// ErrAlreadyRunning is returned by Start when the loop is already running.
var ErrAlreadyRunning = errors.New("app is already running")

// Config holds the collaborators of an App. Nil fields are built from
// Settings.
type Config struct {
	Settings config.Config
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Target   render.Target // extra frame sink, e.g. a window
	Logger   *zap.Logger

	// RecordName starts a new recorded session with this name when set.
	RecordName string
}

type size struct {
	width, height int
}

// App owns the particle field and the uniforms that the gesture mapper
// drives. Run is the only goroutine that mutates render state; other
// goroutines read the published snapshot.
type App struct {
	settings config.Config
	logger   *zap.Logger
	camera   capture.Camera
	detector detector.Detector
	target   render.Target
	recorder *Recorder

	mapper   *gesture.Mapper
	field    *particle.Field
	kernel   *particle.Kernel
	vertices []particle.Vertex
	surface  *render.Surface
	view     *render.Camera
	uniforms particle.Uniforms

	resizeCh chan size

	mu       sync.RWMutex
	enabled  bool
	frame    []byte
	frameSeq uint64
	snapshot particle.Uniforms
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an App. It fails only when a recording session cannot be
// created.
func New(cfg Config) (*App, error) {
	s := cfg.Settings
	logger := logging.OrNop(cfg.Logger).Named("app")

	a := &App{
		settings: s,
		logger:   logger,
		camera:   cfg.Camera,
		detector: cfg.Detector,
		target:   cfg.Target,
		mapper:   gesture.NewMapper(),
		field:    newField(s.Particles),
		kernel:   particle.NewKernel(s.Particles.Workers),
		surface:  render.NewSurface(s.Render.Width, s.Render.Height, s.Render.PixelRatio, s.Particles.PointScale),
		view:     render.NewCamera(s.Render.Width, s.Render.Height),
		uniforms: particle.DefaultUniforms(),
		resizeCh: make(chan size, 1),
		enabled:  true,
	}
	a.uniforms.Size = s.Particles.Size
	a.snapshot = a.uniforms
	a.vertices = make([]particle.Vertex, a.field.Len())

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Config{
			DeviceID: s.Camera.DeviceID,
			Width:    s.Camera.Width,
			Height:   s.Camera.Height,
			FPS:      s.Detector.FPS,
		}, logger)
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		dc := detector.Config{
			MaxHands:        s.Detector.MaxHands,
			ModelComplexity: s.Detector.ModelComplexity,
			MinConfidence:   s.Detector.MinDetectionConfidence,
			MinTrackingConf: s.Detector.MinTrackingConfidence,
		}
		if mp, err := detector.NewMediaPipeDetector(dc, logger); err == nil {
			a.detector = mp
			logger.Info("using MediaPipe hand detection")
		} else {
			logger.Warn("MediaPipe not available, using mock detector", zap.Error(err))
			a.detector = detector.NewMockDetector()
		}
	}

	if cfg.RecordName != "" {
		if cfg.Store == nil {
			return nil, fmt.Errorf("record %q: no store configured", cfg.RecordName)
		}
		rec, err := NewRecorder(cfg.Store, cfg.RecordName, logger)
		if err != nil {
			return nil, err
		}
		a.recorder = rec
	}

	logger.Info("particle field ready",
		zap.Int("particles", a.field.Len()),
		zap.Int("workers", a.kernel.Workers()),
	)
	return a, nil
}

// newField builds the particle field. Seed 0 picks a random layout.
func newField(p config.ParticlesConfig) *particle.Field {
	if p.Seed == 0 {
		return particle.NewField(p.Count, nil)
	}
	return particle.NewSeededField(p.Count, p.Seed)
}

// Start opens the camera and runs the loop in the background.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return ErrAlreadyRunning
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("render loop stopped", zap.Error(err))
		}
	}()

	a.logger.Info("render loop started")
	return nil
}

// Stop halts the loop and waits for it to exit. It is safe to call more
// than once.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	a.logger.Info("render loop stopped")
}

// Running reports whether the loop was started and not yet stopped.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// Close stops the loop and releases the detector and frame target.
func (a *App) Close() error {
	a.Stop()

	var errs []error
	if err := a.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if a.target != nil {
		if err := a.target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close target: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SetEnabled pauses or resumes hand tracking. While paused the uniforms
// keep their last values and rendering continues.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether hand tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Resize requests a new viewport size. The latest request wins; it is
// applied before the next frame.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	req := size{width, height}
	for {
		select {
		case a.resizeCh <- req:
			return
		default:
		}
		select {
		case <-a.resizeCh:
		default:
		}
	}
}

// LatestFrame returns the last rendered JPEG frame and its sequence
// number. The slice must not be modified.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.frame, a.frameSeq
}

// Uniforms returns the uniforms of the last rendered frame.
func (a *App) Uniforms() particle.Uniforms {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Recorder returns the active recorder, or nil when not recording.
func (a *App) Recorder() *Recorder {
	return a.recorder
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Field returns the particle field.
func (a *App) Field() *particle.Field {
	return a.field
}
