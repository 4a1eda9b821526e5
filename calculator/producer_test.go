package calculator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// newProducer starts a producer that behaves like the real calculator service
func newProducer(t *testing.T) *httptest.Server {
	t.Helper()

	ops := map[string]func(x, y float64) (float64, string){
		"/add":      func(x, y float64) (float64, string) { return x + y, "" },
		"/multiply": func(x, y float64) (float64, string) { return x * y, "" },
		"/divide": func(x, y float64) (float64, string) {
			if y == 0 {
				return 0, "division by zero"
			}
			return x / y, ""
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
			return
		}
		op, ok := ops[r.URL.Path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
		y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
		if errX != nil || errY != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required parameters 'x' and 'y'"})
			return
		}
		result, msg := op(x, y)
		if msg != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": msg})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}))
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fixedResponse serves the same status and raw body for every request
func fixedResponse(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
