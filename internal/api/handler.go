package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/config"
	"github.com/gyaneshwarpardhi/dssim/internal/cost"
	"github.com/gyaneshwarpardhi/dssim/internal/engine"
	"github.com/gyaneshwarpardhi/dssim/internal/simulation"
)

// Handler holds all HTTP handler dependencies. Every driver call goes
// through mu; the driver itself is single-threaded.
type Handler struct {
	mu     sync.Mutex
	drv    *simulation.Driver
	reg    *algorithm.Registry
	models *cost.Registry
	loader *config.Loader
	mux    *http.ServeMux
	root   http.Handler
}

// New creates an HTTP handler and registers all routes. gatherer backs
// /metrics; nil means the default registry.
func New(drv *simulation.Driver, reg *algorithm.Registry, models *cost.Registry, loader *config.Loader, gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{drv: drv, reg: reg, models: models, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/run/start", h.start)
	h.mux.HandleFunc("POST /v1/run/stop", h.stop)
	h.mux.HandleFunc("POST /v1/run/step", h.step)
	h.mux.HandleFunc("POST /v1/run/visible-step", h.visibleStep)
	h.mux.HandleFunc("POST /v1/run", h.run)
	h.mux.HandleFunc("GET /v1/status", h.status)
	h.mux.HandleFunc("GET /v1/stats", h.stats)
	h.mux.HandleFunc("GET /v1/series", h.series)
	h.mux.HandleFunc("GET /v1/algorithms", h.algorithms)
	h.mux.HandleFunc("POST /v1/config/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	h.root = loggingMiddleware(h.mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

// Apply loads cfg into the driver unless a run is active. serve calls it
// from the config watcher.
func (h *Handler) Apply(cfg *config.ScenarioConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drv.LoadConfig(cfg, h.models)
}

// POST /v1/run/start: begin a run of the loaded scenario.
func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.drv.Start(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// POST /v1/run/stop: cancel the active run; no-op without one.
func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drv.Stop()
	writeJSON(w, http.StatusOK, h.snapshot())
}

// POST /v1/run/step: process one engine event.
func (h *Handler) step(w http.ResponseWriter, r *http.Request) {
	h.stepWith(w, h.drv.DoStep)
}

// POST /v1/run/visible-step: step until a new node is discovered.
func (h *Handler) visibleStep(w http.ResponseWriter, r *http.Request) {
	h.stepWith(w, h.drv.DoVisibleStep)
}

func (h *Handler) stepWith(w http.ResponseWriter, fn func() (bool, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	more, err := fn()
	if err != nil && !isInterrupt(err) {
		writeError(w, statusFor(err), err.Error())
		return
	}
	resp := h.snapshot()
	resp.More = more
	writeJSON(w, http.StatusOK, resp)
}

// POST /v1/run: run to completion. The request context cancels the run.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	res, err := h.drv.Run(r.Context())
	if err != nil && res == nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/status: lifecycle of the current or last run.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, h.snapshot())
}

// GET /v1/stats: discovery bookkeeping of the current or last run.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.drv.Stats()
	if st == nil {
		writeError(w, http.StatusConflict, simulation.ErrNotLoaded.Error())
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// GET /v1/series: recorded time series.
func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"series":  h.drv.Monitor().AllSeries(),
		"summary": h.drv.Monitor().Summary(),
	})
}

// GET /v1/algorithms: registered algorithms and cost models.
func (h *Handler) algorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"algorithms":     h.reg.Descriptors(),
		"compute_models": h.models.ComputeNames(),
		"network_models": h.models.NetworkNames(),
	})
}

// POST /v1/config/reload: re-read the scenario from disk and load it.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotFound, "no scenario file configured")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Apply(cfg); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity // invalid scenario
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":  true,
		"algorithm": cfg.Simulation.Algorithm,
		"nodes":     len(cfg.Graph.Nodes),
		"edges":     len(cfg.Graph.Edges),
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) snapshot() statusResponse {
	resp := statusResponse{
		RunID:   h.drv.RunID(),
		Running: h.drv.IsRunning(),
		State:   h.drv.EngineState().String(),
		Time:    h.drv.Now(),
		Result:  h.drv.Result(),
	}
	if st := h.drv.Stats(); st != nil {
		resp.DiscoveredNodes = st.DiscoveredNodesCount()
		resp.CalculatedEdges = st.CalculatedEdgesCount()
	}
	return resp
}

func isInterrupt(err error) bool {
	return errors.Is(err, engine.ErrInterrupted)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrRunning), errors.Is(err, simulation.ErrNotRunning), errors.Is(err, simulation.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, algorithm.ErrUnknownAlgorithm), errors.Is(err, algorithm.ErrInvalidArgument), errors.Is(err, cost.ErrUnknownModel):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrStopSimulation):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}
