package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/omote-irgen/internal/catalog"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// requireCatalog writes a 503 when no catalog is configured.
func (s *Server) requireCatalog(w http.ResponseWriter) bool {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "catalog is not configured")
		return false
	}
	return true
}

// handleListDevices lists every device with a recorded run.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	devices, err := s.catalog.ListDevices(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleDeviceCommands returns the command table of the device's latest run.
func (s *Server) handleDeviceCommands(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	device := chi.URLParam(r, "device")

	run, err := s.catalog.LatestRun(r.Context(), device)
	if errors.Is(err, catalog.ErrRunNotFound) {
		writeNotFound(w, "no runs for device")
		return
	}
	if err != nil {
		s.logger.Error("loading latest run", "device", device, "error", err)
		writeInternalError(w, "failed to load run")
		return
	}

	cmds, err := s.catalog.ListRunCommands(r.Context(), run.ID)
	if err != nil {
		s.logger.Error("listing commands", "device", device, "run_id", run.ID, "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}
	if cmds == nil {
		cmds = []catalog.Command{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":      run,
		"commands": cmds,
		"count":    len(cmds),
	})
}

// handleDeviceRuns lists a device's runs, newest first. ?limit= defaults
// to 20 and is capped at 200.
func (s *Server) handleDeviceRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireCatalog(w) {
		return
	}
	device := chi.URLParam(r, "device")

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.catalog.ListRuns(r.Context(), device, limit)
	if err != nil {
		s.logger.Error("listing runs", "device", device, "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []catalog.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}
