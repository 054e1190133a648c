package api

import (
	"encoding/json"
	"net/http"

	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusResponse describes the driver after a control call.
type statusResponse struct {
	RunID           string             `json:"run_id,omitempty"`
	Running         bool               `json:"running"`
	More            bool               `json:"more,omitempty"`
	State           string             `json:"state"`
	Time            float64            `json:"time"`
	DiscoveredNodes int                `json:"discovered_nodes"`
	CalculatedEdges int                `json:"calculated_edges"`
	Result          *simulation.Result `json:"result,omitempty"`
}
