// Package app runs the gesture and render loops around a shared session and
// routes user actions into the scene.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/treelight/internal/attach"
	"github.com/ayusman/treelight/internal/capture"
	"github.com/ayusman/treelight/internal/detector"
	"github.com/ayusman/treelight/internal/gesture"
	"github.com/ayusman/treelight/internal/scene"
	"github.com/ayusman/treelight/internal/session"
	"github.com/ayusman/treelight/internal/store"
)

// Loop rates used when Config leaves them at zero.
const (
	DefaultDetectFPS = 15
	DefaultRenderFPS = 60
)

// Click actions.
const (
	ActionSelect = "select"
	ActionUnzoom = "unzoom"
	ActionToggle = "toggle"
)

// Config wires the application. Session and Composer are required. Without
// a Camera the capture loop is not started; without a Detector the camera
// only feeds the preview.
type Config struct {
	Logger   *slog.Logger
	Session  *session.Session
	Composer *scene.Composer
	Images   *attach.Registry
	Camera   capture.Camera
	Detector detector.Detector
	// Optional.
	Store   *store.Store
	Preview *capture.Preview
	Motion  *capture.MotionGate

	DetectFPS int
	RenderFPS int
}

// ClickResult reports what a click on the scene did.
type ClickResult struct {
	Action string             `json:"action"`
	Select scene.SelectResult `json:"select"`
	State  session.State      `json:"state"`
	Zoomed int                `json:"zoomed"`
}

// App owns the gesture loop and render loop.
type App struct {
	config     Config
	logger     *slog.Logger
	session    *session.Session
	composer   *scene.Composer
	images     *attach.Registry
	classifier *gesture.Classifier
	now        func() time.Time

	mu        sync.RWMutex
	enabled   bool
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   time.Time
	cameraErr error
}

// New validates config and returns a stopped App.
func New(config Config) (*App, error) {
	if config.Session == nil || config.Composer == nil {
		return nil, errors.New("app: session and composer are required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Images == nil {
		config.Images = attach.NewRegistry(0)
	}
	if config.DetectFPS <= 0 {
		config.DetectFPS = DefaultDetectFPS
	}
	if config.RenderFPS <= 0 {
		config.RenderFPS = DefaultRenderFPS
	}

	a := &App{
		config:     config,
		logger:     config.Logger,
		session:    config.Session,
		composer:   config.Composer,
		images:     config.Images,
		classifier: gesture.NewClassifier(),
		now:        time.Now,
		enabled:    true,
	}
	if config.Store != nil {
		a.session.OnTransition(a.journal)
	}
	return a, nil
}

// Start launches the render loop and, when a camera is configured, the
// capture loop. A camera that fails to open is logged and recorded; it does
// not stop the render loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true
	a.started = a.now()
	a.cameraErr = nil

	a.wg.Add(1)
	go a.runRenderLoop(ctx)

	if a.config.Camera == nil {
		a.logger.Info("gesture input disabled", "camera", false)
		return nil
	}
	if err := a.config.Camera.Open(); err != nil {
		a.cameraErr = err
		a.logger.Warn("camera unavailable, gestures disabled", "error", err)
		return nil
	}
	if a.config.Detector == nil {
		a.logger.Warn("no hand detector, camera feeds the preview only")
	}

	a.wg.Add(1)
	go a.runGestureLoop(ctx)

	a.logger.Info("pipeline started", "detect_fps", a.config.DetectFPS, "render_fps", a.config.RenderFPS)
	return nil
}

// Stop halts both loops, then releases the camera and detector. No frame is
// submitted to the detector after Stop returns.
func (a *App) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.running = false
	a.mu.Unlock()

	a.wg.Wait()

	if cam := a.config.Camera; cam != nil && cam.IsOpen() {
		if err := cam.Close(); err != nil {
			a.logger.Error("close camera", "error", err)
		}
	}
	if d := a.config.Detector; d != nil {
		if err := d.Close(); err != nil {
			a.logger.Error("close detector", "error", err)
		}
	}
	if a.config.Motion != nil {
		a.config.Motion.Close()
	}
	a.classifier.Reset()
	a.session.SetReady(false)
	a.logger.Info("pipeline stopped")
}

// Running reports whether Start has been called without Stop.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// CameraErr returns the error from the last camera open attempt, if any.
func (a *App) CameraErr() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cameraErr
}

// SetGesturesEnabled pauses or resumes gesture input. Paused, the camera
// keeps feeding the preview.
func (a *App) SetGesturesEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
	if !enabled {
		a.classifier.Reset()
	}
}

// GesturesEnabled reports whether gesture input is applied.
func (a *App) GesturesEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Session returns the shared session.
func (a *App) Session() *session.Session { return a.session }

// Composer returns the scene composer.
func (a *App) Composer() *scene.Composer { return a.composer }

// Preview returns the camera preview, or nil.
func (a *App) Preview() *capture.Preview { return a.config.Preview }

// Frame returns the latest rendered frame.
func (a *App) Frame(withParticles bool) scene.RenderFrame {
	return a.composer.Frame(withParticles)
}

// Toggle flips between assembled and exploded.
func (a *App) Toggle() session.State {
	state := a.session.Toggle()
	a.logger.Info("state toggled", "state", state)
	return state
}

// Select handles a click on frame id.
func (a *App) Select(id int) (scene.SelectResult, error) {
	r, err := a.composer.Select(id)
	if err != nil {
		return r, err
	}
	a.logger.Debug("frame selected", "frame", id, "result", r)
	return r, nil
}

// Miss handles a click on empty space and reports whether a frame was unzoomed.
func (a *App) Miss() bool {
	return a.composer.Miss()
}

// Click routes a scene click: a hit selects the frame; a miss unzooms the
// zoomed frame, or toggles the layout when nothing is zoomed.
func (a *App) Click(frame *int) (ClickResult, error) {
	var res ClickResult
	switch {
	case frame != nil:
		r, err := a.Select(*frame)
		if err != nil {
			return ClickResult{}, err
		}
		res.Action, res.Select = ActionSelect, r
	case a.Miss():
		res.Action = ActionUnzoom
	default:
		a.Toggle()
		res.Action = ActionToggle
	}
	snap := a.session.Snapshot()
	res.State, res.Zoomed = snap.State, snap.Zoomed
	return res, nil
}

// AttachImage validates data, attaches it to frame id and releases the
// image it replaces.
func (a *App) AttachImage(id int, data []byte) (attach.Handle, error) {
	if _, err := a.composer.Gallery().Image(id); err != nil {
		return "", err
	}
	h, err := a.images.Put(data)
	if err != nil {
		return "", err
	}
	prev, err := a.composer.Attach(id, h)
	if err != nil {
		a.images.Delete(h)
		return "", err
	}
	if prev != "" {
		a.images.Delete(prev)
	}
	a.logger.Info("image attached", "frame", id, "handle", h)
	return h, nil
}

// DetachImage removes the image from frame id.
func (a *App) DetachImage(id int) error {
	prev, err := a.composer.Detach(id)
	if err != nil {
		return err
	}
	if prev == "" {
		return fmt.Errorf("frame %d: %w", id, attach.ErrNotFound)
	}
	a.images.Delete(prev)
	a.logger.Info("image detached", "frame", id)
	return nil
}

// Transitions returns up to limit journaled state changes, newest first.
// Without a store the journal is empty.
func (a *App) Transitions(limit int) ([]*store.Transition, error) {
	if a.config.Store == nil {
		return nil, nil
	}
	return a.config.Store.Transitions().Recent(limit)
}

// Image returns an attached image by handle.
func (a *App) Image(h attach.Handle) (attach.Image, error) {
	return a.images.Get(h)
}

func (a *App) journal(tr session.Transition) {
	rec := &store.Transition{
		From:      tr.From.String(),
		To:        tr.To.String(),
		Cause:     tr.Cause,
		CreatedAt: tr.At,
	}
	if err := a.config.Store.Transitions().Record(rec); err != nil {
		a.logger.Error("journal transition", "error", err)
	}
}
