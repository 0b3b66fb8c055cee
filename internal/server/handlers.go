package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/treelight/internal/attach"
	"github.com/ayusman/treelight/internal/scene"
	"github.com/ayusman/treelight/internal/session"
)

// maxUploadBytes bounds request bodies; the registry enforces the image limit.
const maxUploadBytes = attach.DefaultMaxSize + 1<<20

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	session.Snapshot
	GesturesEnabled bool   `json:"gestures_enabled"`
	CameraError     string `json:"camera_error,omitempty"`
}

type toggleResponse struct {
	State session.State `json:"state"`
}

type clickRequest struct {
	Frame *int `json:"frame"`
}

type selectResponse struct {
	Frame  int                `json:"frame"`
	Result scene.SelectResult `json:"result"`
	Zoomed int                `json:"zoomed"`
}

type missResponse struct {
	Unzoomed bool `json:"unzoomed"`
}

type gesturesRequest struct {
	Enabled bool `json:"enabled"`
}

type transitionResponse struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Cause     string    `json:"cause"`
	CreatedAt time.Time `json:"created_at"`
}

type attachResponse struct {
	Frame  int           `json:"frame"`
	Handle attach.Handle `json:"handle"`
	URL    string        `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError maps domain errors to status codes.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scene.ErrUnknownFrame), errors.Is(err, attach.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attach.ErrNotImage):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, attach.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func frameParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errors.New("frame id must be an integer")
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).Round(time.Second).String(),
		"running": s.app.Running(),
		"clients": s.scene.Clients(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		Snapshot:        s.app.Session().Snapshot(),
		GesturesEnabled: s.app.GesturesEnabled(),
	}
	if err := s.app.CameraErr(); err != nil {
		resp.CameraError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toggleResponse{State: s.app.Toggle()})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.app.Click(req.Frame)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := frameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Select(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Frame: id, Result: res, Zoomed: s.app.Session().Zoomed()})
}

func (s *Server) handleMiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, missResponse{Unzoomed: s.app.Miss()})
}

func (s *Server) handleGestures(w http.ResponseWriter, r *http.Request) {
	var req gesturesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.app.SetGesturesEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, gesturesRequest{Enabled: s.app.GesturesEnabled()})
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	recent, err := s.app.Transitions(limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp := make([]transitionResponse, 0, len(recent))
	for _, t := range recent {
		resp = append(resp, transitionResponse{
			ID:        t.ID,
			From:      t.From,
			To:        t.To,
			Cause:     t.Cause,
			CreatedAt: t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	id, err := frameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h, err := s.app.AttachImage(id, data)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attachResponse{Frame: id, Handle: h, URL: "/api/images/" + string(h)})
}

// readUpload accepts a multipart form with an "image" file or a raw body.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New(`multipart field "image" is required`)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(r.Body)
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	id, err := frameParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.app.DetachImage(id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.app.Image(attach.Handle(chi.URLParam(r, "handle")))
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.Write(img.Data)
}
