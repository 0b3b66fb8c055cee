package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/treelight/internal/app"
	"github.com/ayusman/treelight/internal/capture"
	"github.com/ayusman/treelight/internal/detector"
	"github.com/ayusman/treelight/internal/scene"
	"github.com/ayusman/treelight/internal/server"
	"github.com/ayusman/treelight/internal/session"
	"github.com/ayusman/treelight/internal/store"
)

type stack struct {
	app *app.App
	ts  *httptest.Server
}

func startStack(t *testing.T, st *store.Store, det *detector.MockDetector) *stack {
	t.Helper()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New()
	opts := scene.DefaultOptions(11)
	opts.Groups = []scene.GroupSpec{
		{Kind: scene.Leaf, Count: 20, SpinSpeed: 0.5},
		{Kind: scene.Ornament, Count: 10, SpinSpeed: 0.2},
		{Kind: scene.Ribbon, Count: 10, SpinSpeed: 0.1},
	}

	a, err := app.New(app.Config{
		Logger:    logger,
		Session:   sess,
		Composer:  scene.NewComposer(sess, opts),
		Camera:    capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		Detector:  det,
		Store:     st,
		Preview:   capture.NewPreview(),
		DetectFPS: 60,
		RenderFPS: 60,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	srv := server.New(ctx, server.Config{App: a, Logger: logger, BroadcastFPS: 60})
	ts := httptest.NewServer(srv)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		a.Stop()
	})
	return &stack{app: a, ts: ts}
}

func (s *stack) getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, err := s.ts.Client().Get(s.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func (s *stack) post(t *testing.T, path, contentType string, body []byte, want int) map[string]any {
	t.Helper()
	resp, err := s.ts.Client().Post(s.ts.URL+path, contentType, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST %s status = %d, want %d (%s)", path, resp.StatusCode, want, b)
	}
	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return out
}

func waitState(t *testing.T, s *stack, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var state map[string]any
		s.getJSON(t, "/api/state", &state)
		if state["state"] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state did not reach %s", want)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "treelight.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	det := detector.NewMockDetector()
	s := startStack(t, st, det)

	t.Run("GesturesExplodeAndAssemble", func(t *testing.T) {
		det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
		waitState(t, s, "EXPLODED")

		det.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})
		waitState(t, s, "ASSEMBLED")

		var state map[string]any
		s.getJSON(t, "/api/state", &state)
		if state["ready"] != true {
			t.Errorf("ready = %v, want true", state["ready"])
		}
	})

	det.SetHands(nil)

	t.Run("AttachZoomAndMiss", func(t *testing.T) {
		sel := s.post(t, "/api/frames/7/select", "", nil, http.StatusOK)
		if sel["result"] != "attach" {
			t.Fatalf("select empty frame = %v", sel["result"])
		}

		att := s.post(t, "/api/frames/7/image", "image/png", pngBytes(t), http.StatusCreated)
		url, _ := att["url"].(string)
		resp, err := s.ts.Client().Get(s.ts.URL + url)
		if err != nil {
			t.Fatalf("GET image error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET image status = %d", resp.StatusCode)
		}

		click := s.post(t, "/api/click", "application/json", []byte(`{"frame": 7}`), http.StatusOK)
		if click["select"] != "zoom" || click["zoomed"] != float64(7) {
			t.Errorf("click on frame = %v", click)
		}

		click = s.post(t, "/api/click", "application/json", []byte(`{}`), http.StatusOK)
		if click["action"] != "unzoom" || click["zoomed"] != float64(-1) {
			t.Errorf("click on empty space = %v", click)
		}
	})

	t.Run("SceneFeedCarriesImage", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.ts.URL, "http")+"/api/scene?particles=0", nil)
		if err != nil {
			t.Fatalf("dial error = %v", err)
		}
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var frame scene.RenderFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		var found bool
		for _, obj := range frame.Objects {
			if obj.ID == scene.FrameObjectID(7) && obj.Image != "" {
				found = true
			}
		}
		if !found {
			t.Error("frame-07 has no image in the scene feed")
		}
	})

	t.Run("JournalRecordsTransitions", func(t *testing.T) {
		n, err := st.Transitions().Count()
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n < 2 {
			t.Errorf("journaled transitions = %d, want >= 2", n)
		}
	})

	t.Run("RestartKeepsJournalNotImages", func(t *testing.T) {
		before, _ := st.Transitions().Count()
		restarted := startStack(t, st, detector.NewMockDetector())
		h, err := restarted.app.Composer().Gallery().Image(7)
		if err != nil || h != "" {
			t.Errorf("frame 7 after restart = (%q, %v), want empty", h, err)
		}
		restarted.post(t, "/api/toggle", "", nil, http.StatusOK)
		after, _ := st.Transitions().Count()
		if after != before+1 {
			t.Errorf("journal count = %d, want %d", after, before+1)
		}
	})
}
