// internal/server/responses.go
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, `{"status":"error","message":"response encoding failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":    "error",
		"message":   message,
		"timestamp": now(),
	})
}

// queryFloat parses a float query parameter. A missing parameter yields the
// fallback with ok=false; a malformed one is an error.
func queryFloat(r *http.Request, name string, fallback float64) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, true, nil
}

// queryInt parses an int query parameter, falling back when absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// requireCoordinates extracts mandatory lat/lng query parameters.
func requireCoordinates(r *http.Request) (float64, float64, error) {
	lat, ok, err := queryFloat(r, "lat", 0)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("lat and lng are required")
	}

	lng, ok, err := queryFloat(r, "lng", 0)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("lat and lng are required")
	}
	return lat, lng, nil
}
