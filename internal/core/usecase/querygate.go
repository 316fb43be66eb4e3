package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// deniedKeywords blocks write statements by case-insensitive substring, so a
// keyword buried mid-statement is rejected as readily as a leading one.
var deniedKeywords = []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "TRUNCATE"}

// SQLGate runs ad-hoc read queries against the tabular store, guarded by the
// write-keyword denylist and a hard row cap.
type SQLGate struct {
	runner ports.QueryRunner
	rowCap int
}

func NewSQLGate(runner ports.QueryRunner, rowCap int) *SQLGate {
	if rowCap <= 0 {
		rowCap = 100
	}
	return &SQLGate{runner: runner, rowCap: rowCap}
}

func (g *SQLGate) Run(ctx context.Context, query string) (*domain.QueryResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "query", fmt.Errorf("empty query"))
	}
	upper := strings.ToUpper(trimmed)
	for _, kw := range deniedKeywords {
		if strings.Contains(upper, kw) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "query",
				fmt.Errorf("write keyword %s is not allowed; read-only queries only", kw))
		}
	}
	return g.runner.RunQuery(ctx, trimmed, g.rowCap)
}
