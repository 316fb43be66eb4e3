package ports

import (
	"context"
	"io"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// AnalysisCatalog is the fixed, enumerable set of named analyses exposed to
// transports (HTTP routes, MCP tools).
type AnalysisCatalog interface {
	Specs() []domain.AnalysisSpec
	Run(ctx context.Context, name string, params domain.Params) (any, error)
}

// DatasetIngestor accepts one uploaded file, replaces the category table and
// mirrors graph-relevant categories.
type DatasetIngestor interface {
	Upload(ctx context.Context, category, filename string, r io.Reader) (*domain.UploadReceipt, error)
}

// StoreAdmin exposes dual-store status and the wholesale reset.
type StoreAdmin interface {
	Health(ctx context.Context) (*domain.StoreHealth, error)
	Reset(ctx context.Context) (*domain.ResetReport, error)
	UploadStatus(ctx context.Context) (*domain.UploadStatusReport, error)
}

// QueryGate runs denylist-guarded ad-hoc read queries.
type QueryGate interface {
	Run(ctx context.Context, sql string) (*domain.QueryResult, error)
}
