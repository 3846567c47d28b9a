package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/repcoach/internal/domain/model"
)

// maxFrameBytes bounds a single frame request body.
const maxFrameBytes = 1 << 20

// createRequest is the body of POST /sessions.
type createRequest struct {
	Exercise        string `json:"exercise"`
	SkipCalibration bool   `json:"skip_calibration"`
}

func (c createRequest) validate() error {
	if strings.TrimSpace(c.Exercise) == "" {
		return errors.New("missing exercise")
	}
	return nil
}

// frameRequest carries one pose-estimation result. At defaults to the
// server clock.
type frameRequest struct {
	model.Frame
	At time.Time `json:"at"`
}

type exercisesResponse struct {
	Exercises []string `json:"exercises"`
}

// SessionsHandler serves the session lifecycle routes.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFrameBytes)).Decode(&req); err != nil {
		writeServiceError(w, wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, wrapKind(op, ErrBadRequest, err))
		return
	}
	info, err := h.deps.StartSession(r.Context(), req.Exercise, req.SkipCalibration)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleFrame handles POST /sessions/{id}/frames.
func (h *SessionsHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frame"
	var req frameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFrameBytes)).Decode(&req); err != nil {
		writeServiceError(w, wrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.ProcessFrame(r.Context(), r.PathValue("id"), req.Frame, req.At)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleStop handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.StopSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleExercises handles GET /exercises.
func (h *SessionsHandler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, exercisesResponse{Exercises: h.deps.Exercises()})
}
