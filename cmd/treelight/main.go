package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/ayusman/treelight/internal/app"
	"github.com/ayusman/treelight/internal/attach"
	"github.com/ayusman/treelight/internal/capture"
	"github.com/ayusman/treelight/internal/config"
	"github.com/ayusman/treelight/internal/detector"
	"github.com/ayusman/treelight/internal/scene"
	"github.com/ayusman/treelight/internal/server"
	"github.com/ayusman/treelight/internal/session"
	"github.com/ayusman/treelight/internal/store"
	"github.com/ayusman/treelight/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "treelight:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed, err = st.Settings().LoadOrInitUint64(store.SettingSeed, rand.Uint64)
		if err != nil {
			return fmt.Errorf("load layout seed: %w", err)
		}
	}
	logger.Info("layout seed", "seed", seed)

	sess := session.New()
	composer := scene.NewComposer(sess, scene.DefaultOptions(seed))

	camCfg := capture.DefaultCameraConfig()
	camCfg.DeviceID = cfg.CameraID
	camCfg.FPS = cfg.DetectFPS

	appCfg := app.Config{
		Logger:    logger,
		Session:   sess,
		Composer:  composer,
		Images:    attach.NewRegistry(0),
		Camera:    capture.NewCamera(camCfg),
		Store:     st,
		Preview:   capture.NewPreview(),
		DetectFPS: cfg.DetectFPS,
		RenderFPS: cfg.RenderFPS,
	}

	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger)
	if err != nil {
		logger.Warn("hand detector unavailable, gestures disabled", "error", err)
	} else {
		appCfg.Detector = det
	}
	if cfg.MotionGate {
		appCfg.Motion = capture.NewMotionGate(capture.NewMotionDetector(cfg.MotionThreshold), 0)
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	defer a.Stop()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(ctx, server.Config{
		App:          a,
		Logger:       logger,
		StaticDir:    staticDir,
		BroadcastFPS: cfg.BroadcastFPS,
	})

	if !cfg.Tray {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
	}()
	return runTray(ctx, stop, a, cfg.Addr, logger, errCh)
}

// runTray blocks on the tray menu, which must own the main goroutine.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, addr string, logger *slog.Logger, errCh <-chan error) error {
	tr := tray.New()
	tr.SetState(a.Session().Snapshot().State.String())
	a.Session().OnTransition(func(t session.Transition) {
		tr.SetState(t.To.String())
	})
	tr.OnToggleLayout(func() { a.Toggle() })
	tr.OnGestures(a.SetGesturesEnabled)
	tr.OnOpen(func() {
		if err := openBrowser(localURL(addr)); err != nil {
			logger.Warn("open browser", "error", err)
		}
	})
	tr.OnQuit(stop)

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()

	stop()
	err := <-errCh
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
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

// findWebDir returns the first existing web directory near the working
// directory or inside dataDir.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
