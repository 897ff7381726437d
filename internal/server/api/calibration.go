package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/nritya/internal/calibration"
	"github.com/ayusman/nritya/internal/gesture"
)

// Calibrator is the calibration control surface of the running app.
type Calibrator interface {
	BeginCalibration() calibration.Snapshot
	CalibrationStatus() (calibration.Snapshot, error)
	CalibrationStart() (calibration.Snapshot, error)
	CalibrationStartStep(t gesture.Type) (calibration.Snapshot, error)
	CalibrationReset() (calibration.Snapshot, error)
	CalibrationBack() (calibration.Snapshot, error)
	CalibrationNext() (calibration.Snapshot, error)
	CalibrationGoto(i int) (calibration.Snapshot, error)
	CalibrationFinish() (calibration.Snapshot, error)
	CalibrationCancel() (calibration.Snapshot, error)
}

// CalibrationHandler exposes the calibration procedure over HTTP.
//
//	GET  /api/calibration          current snapshot
//	POST /api/calibration          begin a new session
//	POST /api/calibration/{action} start, reset, back, next, goto, finish, cancel
//
// start takes an optional {"gesture": "CLOSED_FIST"} body.
type CalibrationHandler struct {
	calibrator Calibrator
	noSession  error
}

// NewCalibrationHandler creates a CalibrationHandler. noSession is the error
// the calibrator returns when no session is running.
func NewCalibrationHandler(c Calibrator, noSession error) *CalibrationHandler {
	return &CalibrationHandler{calibrator: c, noSession: noSession}
}

type gotoRequest struct {
	Step int `json:"step"`
}

// startRequest optionally names the step to start; empty starts the
// current one.
type startRequest struct {
	Gesture gesture.Type `json:"gesture"`
}

// ServeHTTP routes calibration requests.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/calibration")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.respond(w, h.calibrator.CalibrationStatus)
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, h.calibrator.BeginCalibration())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch parts[0] {
	case "start":
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Gesture == "" {
			h.respond(w, h.calibrator.CalibrationStart)
			return
		}
		h.respond(w, func() (calibration.Snapshot, error) {
			return h.calibrator.CalibrationStartStep(req.Gesture)
		})
	case "reset":
		h.respond(w, h.calibrator.CalibrationReset)
	case "back":
		h.respond(w, h.calibrator.CalibrationBack)
	case "next":
		h.respond(w, h.calibrator.CalibrationNext)
	case "finish":
		h.respond(w, h.calibrator.CalibrationFinish)
	case "cancel":
		h.respond(w, h.calibrator.CalibrationCancel)
	case "goto":
		var req gotoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		h.respond(w, func() (calibration.Snapshot, error) {
			return h.calibrator.CalibrationGoto(req.Step)
		})
	default:
		writeError(w, http.StatusNotFound, "Unknown calibration action")
	}
}

func (h *CalibrationHandler) respond(w http.ResponseWriter, op func() (calibration.Snapshot, error)) {
	snap, err := op()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, snap)
	case h.noSession != nil && errors.Is(err, h.noSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calibration.ErrUnknownStep):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, calibration.ErrIncomplete),
		errors.Is(err, calibration.ErrCancelled),
		errors.Is(err, calibration.ErrFinished),
		errors.Is(err, calibration.ErrNotCollecting):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
