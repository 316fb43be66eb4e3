package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/observability/metrics"
)

type fakeCatalog struct {
	result any
	err    error
	ranAs  string
	params domain.Params
}

func (f *fakeCatalog) Specs() []domain.AnalysisSpec {
	return []domain.AnalysisSpec{{Name: "get_kpi_summary", Group: "dashboard"}}
}

func (f *fakeCatalog) Run(_ context.Context, name string, params domain.Params) (any, error) {
	f.ranAs = name
	f.params = params
	return f.result, f.err
}

type fakeIngestor struct {
	receipt *domain.UploadReceipt
	err     error
}

func (f *fakeIngestor) Upload(_ context.Context, category, filename string, _ io.Reader) (*domain.UploadReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	receipt := *f.receipt
	receipt.Filename = filename
	return &receipt, nil
}

type fakeAdmin struct {
	health *domain.StoreHealth
	status *domain.UploadStatusReport
	reset  *domain.ResetReport
	err    error
}

func (f *fakeAdmin) Health(context.Context) (*domain.StoreHealth, error) { return f.health, f.err }
func (f *fakeAdmin) Reset(context.Context) (*domain.ResetReport, error)  { return f.reset, f.err }
func (f *fakeAdmin) UploadStatus(context.Context) (*domain.UploadStatusReport, error) {
	return f.status, f.err
}

type fakeGate struct {
	result *domain.QueryResult
	err    error
}

func (f *fakeGate) Run(context.Context, string) (*domain.QueryResult, error) {
	return f.result, f.err
}

func newTestRouter(catalog *fakeCatalog, ingestor *fakeIngestor, admin *fakeAdmin, gate *fakeGate) http.Handler {
	if catalog == nil {
		catalog = &fakeCatalog{}
	}
	if ingestor == nil {
		ingestor = &fakeIngestor{receipt: &domain.UploadReceipt{Category: domain.CategoryProducts}}
	}
	if admin == nil {
		admin = &fakeAdmin{status: &domain.UploadStatusReport{}}
	}
	if gate == nil {
		gate = &fakeGate{result: &domain.QueryResult{}}
	}
	return NewRouter(catalog, ingestor, admin, gate, metrics.NewServerMetrics("test"), Options{}).Handler()
}

func TestListAnalyses(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Analyses []domain.AnalysisSpec `json:"analyses"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Analyses) != 1 || body.Analyses[0].Name != "get_kpi_summary" {
		t.Fatalf("unexpected analyses payload: %+v", body.Analyses)
	}
}

func TestRunAnalysisPassesParams(t *testing.T) {
	catalog := &fakeCatalog{result: map[string]any{"ccc_days": 48.8}}
	handler := newTestRouter(catalog, nil, nil, nil)

	payload := strings.NewReader(`{"service_level": 0.99}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses/calculate_safety_stock", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if catalog.ranAs != "calculate_safety_stock" {
		t.Fatalf("expected analysis name to be forwarded, got %q", catalog.ranAs)
	}
	if got := catalog.params.Float("service_level", 0); got != 0.99 {
		t.Fatalf("expected service_level 0.99, got %v", got)
	}
}

func TestRunAnalysisMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "run", errors.New("bad")), http.StatusBadRequest},
		{"not found", domain.WrapError(domain.ErrNotFound, "run", errors.New("missing")), http.StatusNotFound},
		{"store down", domain.WrapError(domain.ErrStoreUnavailable, "run", errors.New("down")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(&fakeCatalog{err: tc.err}, nil, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/analyses/get_kpi_summary", nil)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestRunAnalysisReturnsDataGapAsResult(t *testing.T) {
	gap := domain.NewDataGap(domain.CategoryInventory, domain.CategorySales)
	handler := newTestRouter(&fakeCatalog{result: gap}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses/get_kpi_summary", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("data gap should be a 200 payload, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "inventory_snapshot") {
		t.Fatalf("expected gap payload to name missing datasets: %s", res.Body.String())
	}
}

func TestUploadDataset(t *testing.T) {
	ingestor := &fakeIngestor{receipt: &domain.UploadReceipt{
		Category:    domain.CategorySuppliers,
		RowCount:    3,
		Destination: "suppliers",
		GraphSynced: true,
	}}
	handler := newTestRouter(nil, ingestor, nil, nil)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "suppliers.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("supplier_id,supplier_name,avg_lead_time_days\nS-1,Acme,12\n"))
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets/suppliers", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var receipt domain.UploadReceipt
	if err := json.NewDecoder(res.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Filename != "suppliers.csv" || !receipt.GraphSynced {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestUploadDatasetRequiresFile(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/datasets/products", strings.NewReader("not multipart"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRunQueryRejectsWriteStatement(t *testing.T) {
	gate := &fakeGate{err: domain.WrapError(domain.ErrInvalidInput, "query",
		errors.New("write keyword DROP is not allowed; read-only queries only"))}
	handler := newTestRouter(nil, nil, nil, gate)

	payload := strings.NewReader(`{"sql": "DROP TABLE products"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", payload)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "DROP") {
		t.Fatalf("expected denied keyword in error body: %s", res.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/analyses", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
