package app

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/treelight/internal/detector"
)

// runGestureLoop samples the camera at the detect rate, publishes each frame
// to the preview and, when a detector is configured, feeds it through
// detector, classifier and session. Samples are lossy: a slow detector
// simply skips ticks.
func (a *App) runGestureLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.DetectFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.gestureTick(ctx)
		}
	}
}

func (a *App) gestureTick(ctx context.Context) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.logger.Debug("read frame", "error", err)
		return
	}
	defer frame.Close()

	if p := a.config.Preview; p != nil {
		if err := p.Publish(frame); err != nil {
			a.logger.Debug("publish preview", "error", err)
		}
	}

	if a.config.Detector == nil || !a.GesturesEnabled() {
		return
	}

	now := a.now()
	if gate := a.config.Motion; gate != nil {
		active, changed := gate.Observe(frame, now)
		if changed {
			a.logger.Debug("motion gate", "active", active)
		}
		if !active {
			a.classifier.Reset()
			return
		}
	}

	a.detect(ctx, frame, now)
}

func (a *App) detect(ctx context.Context, frame *gocv.Mat, now time.Time) {
	if ctx.Err() != nil {
		return
	}

	a.mu.RLock()
	ts := now.Sub(a.started).Milliseconds()
	a.mu.RUnlock()

	hands, err := a.config.Detector.Detect(frame, ts)
	if err != nil {
		if errors.Is(err, detector.ErrUnavailable) {
			if a.session.Ready() {
				a.logger.Warn("detector unavailable", "error", err)
			}
			a.session.SetReady(false)
			a.classifier.Reset()
			return
		}
		a.logger.Debug("detect hands", "error", err)
		return
	}

	if !a.session.Ready() {
		a.logger.Info("gesture input ready")
		a.session.SetReady(true)
	}

	g, ok := a.classifier.ClassifyHands(hands)
	if !ok {
		return
	}
	r, err := a.session.Apply(g)
	if err != nil {
		a.logger.Debug("apply gesture", "error", err)
		return
	}
	if r.Changed() {
		a.logger.Info("state changed", "from", r.From, "to", r.To)
	}
}

// runRenderLoop advances the scene at the render rate with elapsed time
// measured from Start.
func (a *App) runRenderLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.RenderFPS))
	defer ticker.Stop()

	a.mu.RLock()
	started := a.started
	a.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.composer.Tick(a.now().Sub(started).Seconds())
		}
	}
}

