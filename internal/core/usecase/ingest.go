package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// Ingestor runs the upload pipeline: parse, validate against the category
// schema, replace the table, record history, mirror to the graph and publish
// the replacement event. Graph sync and event publishing are best-effort;
// only parse, validation and the tabular write can fail the upload.
type Ingestor struct {
	parser    ports.FileParser
	store     ports.DatasetStore
	graph     ports.GraphStore
	suppliers ports.SupplierReader
	events    ports.EventPublisher
	archive   ports.UploadArchive
	log       *slog.Logger
	now       func() time.Time
}

func NewIngestor(
	parser ports.FileParser,
	store ports.DatasetStore,
	graph ports.GraphStore,
	suppliers ports.SupplierReader,
	events ports.EventPublisher,
	archive ports.UploadArchive,
	log *slog.Logger,
) *Ingestor {
	return &Ingestor{
		parser:    parser,
		store:     store,
		graph:     graph,
		suppliers: suppliers,
		events:    events,
		archive:   archive,
		log:       log,
		now:       time.Now,
	}
}

func (i *Ingestor) Upload(ctx context.Context, category, filename string, r io.Reader) (*domain.UploadReceipt, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	columns, rows, err := i.parser.Parse(filename, bytes.NewReader(raw))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse upload", err)
	}
	if len(rows) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse upload",
			fmt.Errorf("%s contains no data rows", filename))
	}

	ds := &domain.Dataset{Category: cat, Filename: filename, Columns: columns, Rows: rows}
	if missing := ds.MissingRequiredColumns(); len(missing) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload",
			fmt.Errorf("%s is missing required columns: %s", cat.Table(), strings.Join(missing, ", ")))
	}

	written, err := i.store.ReplaceDataset(ctx, ds)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "replace dataset", err)
	}

	rec := domain.UploadRecord{
		ID:         uuid.NewString(),
		Category:   cat,
		Filename:   filename,
		UploadedAt: i.now().UTC(),
		RowCount:   written,
		Status:     "replaced",
	}
	if err := i.store.RecordUpload(ctx, rec); err != nil {
		i.log.Warn("upload history write failed", "category", cat, "error", err)
	}

	if i.archive != nil {
		key := fmt.Sprintf("%s/%s_%s", cat, rec.ID, filepath.Base(filename))
		if err := i.archive.Save(ctx, key, bytes.NewReader(raw)); err != nil {
			i.log.Warn("upload archive write failed", "category", cat, "error", err)
		}
	}

	receipt := &domain.UploadReceipt{
		Category:    cat,
		Filename:    filename,
		RowCount:    int(written),
		ColumnCount: len(columns),
		Destination: cat.Table(),
		Message:     fmt.Sprintf("Replaced %s with %d rows.", cat.Table(), written),
	}

	if cat.MirroredToGraph() {
		if err := i.syncGraph(ctx, cat); err != nil {
			i.log.Warn("graph mirror sync failed", "category", cat, "error", err)
		} else {
			receipt.GraphSynced = true
		}
	}

	if err := i.events.PublishDatasetReplaced(ctx, cat, written); err != nil {
		i.log.Warn("dataset replacement event not published", "category", cat, "error", err)
	}
	return receipt, nil
}

// syncGraph mirrors supplier nodes, then supply edges. The edge upsert MERGEs
// its own endpoints, so purchase orders still mirror when the supplier master
// has not been uploaded; the node pass only enriches what the master knows.
func (i *Ingestor) syncGraph(ctx context.Context, cat domain.Category) error {
	suppliers, err := i.suppliers.Suppliers(ctx)
	switch {
	case err != nil && cat == domain.CategorySuppliers:
		return err
	case err != nil:
		i.log.Warn("supplier master unavailable, mirroring links without node enrichment",
			"category", cat, "error", err)
	case len(suppliers) > 0:
		nodes := make([]domain.SupplierNode, 0, len(suppliers))
		for _, s := range suppliers {
			nodes = append(nodes, domain.SupplierNode{
				SupplierID:   s.SupplierID,
				SupplierName: s.SupplierName,
				LeadTime:     s.AvgLeadTimeDays,
				Rating:       s.Rating,
				OnTimeRate:   s.OnTimeRate,
				Country:      s.Country,
			})
		}
		if err := i.graph.UpsertSuppliers(ctx, nodes); err != nil {
			return err
		}
	}
	if cat != domain.CategoryPurchaseOrders {
		return nil
	}
	links, err := i.suppliers.SupplyLinks(ctx)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	return i.graph.UpsertSupplyLinks(ctx, links)
}
