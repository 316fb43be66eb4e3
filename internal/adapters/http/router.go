package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
	"github.com/supplyops/wc-optimizer/internal/observability/metrics"
)

type Router struct {
	catalog  ports.AnalysisCatalog
	ingestor ports.DatasetIngestor
	admin    ports.StoreAdmin
	gate     ports.QueryGate
	metrics  *metrics.ServerMetrics
	options  Options
}

type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	AcquireWait    time.Duration
	MaxUploadBytes int64
}

func NewRouter(
	catalog ports.AnalysisCatalog,
	ingestor ports.DatasetIngestor,
	admin ports.StoreAdmin,
	gate ports.QueryGate,
	serverMetrics *metrics.ServerMetrics,
	options Options,
) *Router {
	if options.AcquireWait <= 0 {
		options.AcquireWait = 100 * time.Millisecond
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = 64 << 20
	}
	return &Router{
		catalog:  catalog,
		ingestor: ingestor,
		admin:    admin,
		gate:     gate,
		metrics:  serverMetrics,
		options:  options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/analyses", rt.listAnalyses)
	mux.HandleFunc("/v1/analyses/", rt.runAnalysis)
	mux.HandleFunc("/v1/datasets", rt.datasetStatus)
	mux.HandleFunc("/v1/datasets/", rt.uploadDataset)
	mux.HandleFunc("/v1/query", rt.runQuery)
	mux.HandleFunc("/v1/database/status", rt.databaseStatus)
	mux.HandleFunc("/v1/database/reset", rt.resetDatabase)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxInFlight, rt.options.AcquireWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	handler = rt.metrics.Middleware("api", handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": rt.catalog.Specs()})
}

func (rt *Router) runAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/analyses/")
	if name == "" || strings.Contains(name, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "analysis name is required"})
		return
	}

	params := domain.Params{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	result, err := rt.catalog.Run(r.Context(), name, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": name, "result": result})
}

func (rt *Router) datasetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	status, err := rt.admin.UploadStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) uploadDataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	category := strings.TrimPrefix(r.URL.Path, "/v1/datasets/")
	if category == "" || strings.Contains(category, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dataset category is required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.options.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	receipt, err := rt.ingestor.Upload(r.Context(), category, fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordUpload(string(receipt.Category), int64(receipt.RowCount))
	if receipt.Category.MirroredToGraph() {
		rt.metrics.RecordGraphSync(string(receipt.Category), receipt.GraphSynced)
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (rt *Router) runQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SQL string `json:"sql"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.gate.Run(r.Context(), req.SQL)
	rt.metrics.RecordQuery(err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) databaseStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	health, err := rt.admin.Health(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (rt *Router) resetDatabase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	report, err := rt.admin.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
