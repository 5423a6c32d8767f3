package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xtort/kasa-hs300/internal/logging"
	"github.com/xtort/kasa-hs300/internal/powerstrip"
)

// outletJSON is the wire shape for one outlet.
type outletJSON struct {
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	State  string `json:"state"`
	OnTime int64  `json:"on_time_seconds"`
}

func outletsJSON(outlets []powerstrip.Outlet) []outletJSON {
	out := make([]outletJSON, len(outlets))
	for i, o := range outlets {
		out[i] = outletJSON{
			Slot:   o.Slot,
			Name:   o.Name,
			State:  o.State.String(),
			OnTime: int64(o.OnTime / time.Second),
		}
	}
	return out
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDevice returns the device identity.
func (s *Server) HandleDevice(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := s.strip.Info()
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, info)
}

// HandleListOutlets returns the last-known outlet states.
func (s *Server) HandleListOutlets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	outlets := s.strip.Outlets()
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, map[string]any{
		"outlets": outletsJSON(outlets),
	})
}

// HandleRefresh re-queries the device and returns the fresh states.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.strip.RefreshStatus()
	outlets := s.strip.Outlets()
	s.mu.Unlock()

	if err != nil {
		s.respondDeviceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"outlets": outletsJSON(outlets),
	})
}

// HandleSetOutlet switches one outlet: POST {"state": "on"}.
func (s *Server) HandleSetOutlet(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "slot must be a number")
		return
	}

	state, ok := s.decodeState(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	setErr := s.strip.SetOutlet(powerstrip.BySlot(slot), state)
	outlets := s.strip.Outlets()
	s.mu.Unlock()

	if setErr != nil {
		s.respondDeviceError(w, setErr)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"outlets": outletsJSON(outlets),
	})
}

// HandleSetAll switches every outlet: POST {"state": "off"}.
func (s *Server) HandleSetAll(w http.ResponseWriter, r *http.Request) {
	state, ok := s.decodeState(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	setErr := s.strip.SetAll(state)
	outlets := s.strip.Outlets()
	s.mu.Unlock()

	if setErr != nil {
		s.respondDeviceError(w, setErr)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"outlets": outletsJSON(outlets),
	})
}

// HandlePowerDraw returns the realtime energy reading for one outlet.
func (s *Server) HandlePowerDraw(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "slot must be a number")
		return
	}

	s.mu.Lock()
	reading, drawErr := s.strip.PowerDraw(powerstrip.BySlot(slot))
	s.mu.Unlock()

	if drawErr != nil {
		s.respondDeviceError(w, drawErr)
		return
	}
	s.respondJSON(w, http.StatusOK, reading)
}

func (s *Server) decodeState(w http.ResponseWriter, r *http.Request) (powerstrip.State, bool) {
	var req struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return powerstrip.Off, false
	}

	state, err := powerstrip.ParseState(req.State)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return powerstrip.Off, false
	}
	return state, true
}

// respondDeviceError maps the device error taxonomy onto HTTP statuses.
func (s *Server) respondDeviceError(w http.ResponseWriter, err error) {
	switch {
	case powerstrip.IsValidationError(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case powerstrip.IsNotFoundError(err):
		s.respondError(w, http.StatusNotFound, err.Error())
	case powerstrip.IsConnectionError(err):
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.respondError(w, http.StatusBadGateway, err.Error())
	}
}

// respondJSON responds with JSON
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logging.Error("failed to marshal response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondError responds with error
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
