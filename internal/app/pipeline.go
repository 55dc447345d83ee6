package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/render"
)

// detection is one landmark result handed from the detection goroutine to
// the render loop. Hand is nil when no hand was seen.
type detection struct {
	hand *detector.HandLandmarks
	at   time.Time
}

// Run drives the app until ctx is cancelled. It runs two goroutines:
//
//  1. detection reads a camera frame at detector.fps, runs inference and
//     offers the first hand on a single-slot channel (latest wins)
//  2. the render loop applies results to the uniforms, handles resizes and
//     draws a frame on every tick of render.fps
//
// Only the render loop touches the uniforms, so updates and frames never
// overlap.
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			a.logger.Warn("close camera", zap.Error(err))
		}
	}()

	results := make(chan detection, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.detectLoop(ctx, results)
		return nil
	})
	g.Go(func() error {
		return a.renderLoop(ctx, results)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// detectLoop runs hand inference until ctx is done.
func (a *App) detectLoop(ctx context.Context, results chan detection) {
	ticker := time.NewTicker(time.Second / time.Duration(a.settings.Detector.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Paused tracking drops results.
		if !a.IsEnabled() {
			metrics.Detections.WithLabelValues(metrics.ResultSkipped).Inc()
			continue
		}

		d, ok := a.detectOnce()
		if !ok {
			continue
		}
		a.record(d)
		// An absent hand changes nothing, so it must not displace a
		// pending one.
		if d.hand != nil {
			offer(results, d)
		}
	}
}

// detectOnce reads one frame and runs the detector on it. Errors are
// logged and the frame skipped.
func (a *App) detectOnce() (detection, bool) {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		metrics.Detections.WithLabelValues(metrics.ResultError).Inc()
		a.logger.Debug("read frame", zap.Error(err))
		return detection{}, false
	}

	hands, err := a.detector.Detect(frame)
	frame.Close()
	if err != nil {
		metrics.Detections.WithLabelValues(metrics.ResultError).Inc()
		a.logger.Warn("detect hands", zap.Error(err))
		return detection{}, false
	}

	d := detection{at: time.Now()}
	if len(hands) == 0 {
		metrics.Detections.WithLabelValues(metrics.ResultNone).Inc()
		return d, true
	}

	metrics.Detections.WithLabelValues(metrics.ResultHand).Inc()
	hand := hands[0]
	d.hand = &hand
	return d, true
}

func (a *App) record(d detection) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(d.hand, d.at); err != nil {
		a.logger.Warn("record frame", zap.Error(err))
	}
}

// offer replaces any pending value in ch with d. There is a single sender.
func offer(ch chan detection, d detection) {
	select {
	case ch <- d:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- d:
	default:
	}
}

// renderLoop owns the render state until ctx is done.
func (a *App) renderLoop(ctx context.Context, results <-chan detection) error {
	if a.target == nil && a.settings.Render.Window {
		a.target = render.NewWindow("mudra")
	}

	ticker := time.NewTicker(time.Second / time.Duration(a.settings.Render.FPS))
	defer ticker.Stop()

	// Resume the clock where a previous run left it.
	base := a.uniforms.Time
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-results:
			a.handleDetection(d)
		case sz := <-a.resizeCh:
			a.applyResize(sz)
		case now := <-ticker.C:
			if err := a.renderFrame(ctx, base+now.Sub(start).Seconds()); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("render frame", zap.Error(err))
			}
		}
	}
}

// handleDetection feeds a detection result to the mapper. Absent or
// malformed hands leave the uniforms untouched.
func (a *App) handleDetection(d detection) {
	if !a.IsEnabled() || d.hand == nil {
		return
	}
	if !a.mapper.Apply(d.hand.Points[:], &a.uniforms) {
		return
	}
	metrics.ExpansionFactor.Set(a.uniforms.ExpansionFactor)
	metrics.TemplateSwitch.Set(a.uniforms.TemplateSwitch)
}

func (a *App) applyResize(sz size) {
	a.surface.Resize(sz.width, sz.height)
	a.view.Resize(sz.width, sz.height)
	w, h := a.surface.Bounds()
	a.logger.Debug("viewport resized",
		zap.Int("width", sz.width),
		zap.Int("height", sz.height),
		zap.Int("buffer_width", w),
		zap.Int("buffer_height", h),
	)
}

// renderFrame advances the clock to t, morphs every particle, rasterises
// the result and publishes it.
func (a *App) renderFrame(ctx context.Context, t float64) error {
	began := time.Now()

	a.uniforms.Advance(t)
	if err := a.kernel.Evaluate(ctx, a.field, a.uniforms, a.vertices); err != nil {
		return fmt.Errorf("evaluate kernel: %w", err)
	}
	a.surface.Draw(a.vertices, &a.uniforms, a.view)

	jpeg, err := render.EncodeJPEG(a.surface.Image(), render.DefaultJPEGQuality)
	if err != nil {
		return err
	}

	if a.target != nil {
		if err := a.target.Present(a.surface.Image()); err != nil {
			a.logger.Warn("present frame", zap.Error(err))
		}
	}

	a.mu.Lock()
	a.frame = jpeg
	a.frameSeq++
	a.snapshot = a.uniforms
	a.mu.Unlock()

	metrics.FramesRendered.Inc()
	metrics.FrameDuration.Observe(time.Since(began).Seconds())
	return nil
}
