package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/briangreenhill/runtracker/internal/location"
	"github.com/briangreenhill/runtracker/internal/mapview"
	"github.com/briangreenhill/runtracker/internal/metrics"
	"github.com/briangreenhill/runtracker/internal/run"
)

type API struct {
	Loop  *run.Loop
	Push  *location.Push
	View  *mapview.State
	Units UnitStore
	Token string
}

func NewAPI(logger *slog.Logger, api API) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /run", handleGetRun(logger, api.Loop))
	mux.Handle("POST /run/start", handleTransition(logger, api.Loop, (*run.Tracker).Start))
	mux.Handle("POST /run/stop", handleTransition(logger, api.Loop, (*run.Tracker).Stop))
	mux.Handle("POST /run/toggle", handleTransition(logger, api.Loop, (*run.Tracker).Toggle))
	mux.Handle("POST /run/share", handleShare(logger, api.Loop))
	mux.Handle("PUT /unit", handlePutUnit(logger, api.Loop, api.Units))
	mux.Handle("POST /locations", handlePostLocations(logger, api.Push))
	mux.Handle("PUT /authorization", handlePutAuthorization(logger, api.Push))
	mux.Handle("GET /map", handleGetMap(logger, api.View))
	mux.Handle("GET /token", handleToken(logger, api.Token))
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("Error encoding response", slog.Any("error", err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, err error) {
	writeJSON(logger, w, status, map[string]string{"error": err.Error()})
}

// statusFor maps tracker errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, run.ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, run.ErrAuthorizationPending),
		errors.Is(err, run.ErrInvalidTransition),
		errors.Is(err, run.ErrNotRunning),
		errors.Is(err, run.ErrRouteUnavailable):
		return http.StatusConflict
	case errors.Is(err, run.ErrComposeUnavailable),
		errors.Is(err, run.ErrLoopStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleGetRun(logger *slog.Logger, loop *run.Loop) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := loop.Snapshot(r.Context())
		if err != nil {
			logger.Error("Error reading run", slog.Any("error", err))
			writeError(logger, w, statusFor(err), err)
			return
		}
		writeJSON(logger, w, http.StatusOK, snap)
	})
}

func handleTransition(logger *slog.Logger, loop *run.Loop, transition func(*run.Tracker) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var snap run.Snapshot
		err := loop.Do(r.Context(), func(t *run.Tracker) error {
			if err := transition(t); err != nil {
				return err
			}
			snap = t.Snapshot()
			return nil
		})
		if err != nil {
			logger.Info("Run transition refused", slog.String("path", r.URL.Path), slog.Any("error", err))
			writeError(logger, w, statusFor(err), err)
			return
		}
		writeJSON(logger, w, http.StatusOK, snap)
	})
}

func handleShare(logger *slog.Logger, loop *run.Loop) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg string
		err := loop.Do(r.Context(), func(t *run.Tracker) error {
			var shareErr error
			msg, shareErr = t.Share()
			return shareErr
		})
		if err != nil {
			logger.Info("Share failed", slog.Any("error", err))
			writeJSON(logger, w, statusFor(err), map[string]string{"error": err.Error(), "message": msg})
			return
		}
		writeJSON(logger, w, http.StatusOK, map[string]string{"message": msg})
	})
}

func handlePutUnit(logger *slog.Logger, loop *run.Loop, units UnitStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Unit string `json:"unit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}
		unit, err := run.ParseUnit(body.Unit)
		if err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}

		var snap run.Snapshot
		err = loop.Do(r.Context(), func(t *run.Tracker) error {
			if err := t.SelectUnit(unit); err != nil {
				return err
			}
			snap = t.Snapshot()
			return nil
		})
		if err != nil {
			writeError(logger, w, statusFor(err), err)
			return
		}

		if units != nil {
			if err := units.SaveUnit(r.Context(), unit); err != nil {
				logger.Error("Error saving distance unit", slog.Any("error", err))
			}
		}
		writeJSON(logger, w, http.StatusOK, snap)
	})
}

type positionRequest struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

func handlePostLocations(logger *slog.Logger, push *location.Push) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []positionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}
		if len(body) == 0 {
			writeError(logger, w, http.StatusBadRequest, errors.New("no positions"))
			return
		}

		batch := make([]run.Position, 0, len(body))
		for _, p := range body {
			if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
				writeError(logger, w, http.StatusBadRequest, errors.New("coordinate out of range"))
				return
			}
			ts := p.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			batch = append(batch, run.Position{
				Coordinate: run.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
				Timestamp:  ts,
			})
		}

		if err := push.Publish(r.Context(), batch); err != nil {
			writeError(logger, w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func handlePutAuthorization(logger *slog.Logger, push *location.Push) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(logger, w, http.StatusBadRequest, err)
			return
		}
		status, ok := run.ParseAuthorizationStatus(body.Status)
		if !ok {
			writeError(logger, w, http.StatusBadRequest, errors.New("unknown authorization status"))
			return
		}

		if err := push.SetAuthorization(r.Context(), status); err != nil {
			writeError(logger, w, http.StatusServiceUnavailable, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleGetMap(logger *slog.Logger, view *mapview.State) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, view.View())
	})
}

func handleToken(logger *slog.Logger, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			logger.Error("Error getting token", slog.String("error", "MAPBOX_TOKEN not set"))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, http.StatusOK, map[string]string{"token": token})
	})
}
