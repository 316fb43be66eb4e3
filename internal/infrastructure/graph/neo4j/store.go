package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/infrastructure/resilience"
)

type Config struct {
	URI      string
	Username string
	Password string
	Database string

	ConnectTimeout time.Duration
	MaxPoolSize    int
}

// Store mirrors supplier→product relationships in Neo4j. Every call runs
// through the resilience executor so a flapping graph trips the breaker and
// callers fall back to the relational tables quickly.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	exec     *resilience.Executor
	log      *slog.Logger
}

func NewStore(ctx context.Context, cfg Config, exec *resilience.Executor, log *slog.Logger) (*Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 50
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
			c.SocketConnectTimeout = cfg.ConnectTimeout
		})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	s := &Store{driver: driver, database: cfg.Database, exec: exec, log: log}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		// The graph is allowed to be absent. Analyses fall back to the
		// tabular store until it comes up.
		log.Warn("graph store unreachable at startup", "uri", cfg.URI, "error", err)
		return s, nil
	}

	s.ensureConstraints(ctx)
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// ensureConstraints is best-effort; restricted users may not create schema.
func (s *Store) ensureConstraints(ctx context.Context) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	for _, stmt := range []string{
		`CREATE CONSTRAINT supplier_id_unique IF NOT EXISTS FOR (s:Supplier) REQUIRE s.id IS UNIQUE`,
		`CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, stmt, nil); err != nil {
			s.log.Warn("graph schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

func (s *Store) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	return s.exec.Execute(ctx, operation, fn, graphClassifier)
}

// graphClassifier treats every graph failure as retryable and breaker-worthy;
// callers that see a final error fall back to the tabular store.
func graphClassifier(error) resilience.ErrorClassification {
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func (s *Store) UpsertSuppliers(ctx context.Context, nodes []domain.SupplierNode) error {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, map[string]any{
			"id":        n.SupplierID,
			"name":      n.SupplierName,
			"lead_time": n.LeadTime,
			"rating":    n.Rating,
			"otd_rate":  n.OnTimeRate,
			"country":   n.Country,
		})
	}
	return s.execute(ctx, "graph.upsert_suppliers", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (s:Supplier {id: row.id})
SET s.name = row.name,
    s.lead_time = row.lead_time,
    s.rating = row.rating,
    s.otd_rate = row.otd_rate,
    s.country = row.country
`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		return err
	})
}

// UpsertSupplyLinks MERGEs both endpoints and the SUPPLIES edge, so purchase
// orders mirror even when the supplier master was never uploaded. A node
// created here keeps the supplier id as its name until the master fills it in.
func (s *Store) UpsertSupplyLinks(ctx context.Context, links []domain.SupplyLink) error {
	if len(links) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(links))
	for _, l := range links {
		rows = append(rows, map[string]any{
			"supplier_id":   l.SupplierID,
			"supplier_name": l.SupplierName,
			"product_id":    l.ProductID,
			"lead_time":     l.LeadTime,
		})
	}
	return s.execute(ctx, "graph.upsert_supply_links", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
UNWIND $rows AS row
MERGE (s:Supplier {id: row.supplier_id})
SET s.name = coalesce(CASE row.supplier_name WHEN '' THEN null ELSE row.supplier_name END, s.name, row.supplier_id)
MERGE (p:Product {id: row.product_id})
MERGE (s)-[e:SUPPLIES]->(p)
SET e.lead_time = row.lead_time
`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		return err
	})
}

func (s *Store) Network(ctx context.Context) ([]domain.SupplyLink, error) {
	var out []domain.SupplyLink
	err := s.execute(ctx, "graph.network", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, `
MATCH (s:Supplier)-[e:SUPPLIES]->(p:Product)
RETURN s.id AS supplier_id, s.name AS supplier_name, p.id AS product_id,
       coalesce(e.lead_time, 0.0) AS lead_time
ORDER BY supplier_id, product_id
`, nil)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, rec := range records {
			out = append(out, domain.SupplyLink{
				SupplierID:   stringValue(rec, "supplier_id"),
				SupplierName: stringValue(rec, "supplier_name"),
				ProductID:    stringValue(rec, "product_id"),
				LeadTime:     floatValue(rec, "lead_time"),
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) SingleSourceProducts(ctx context.Context, limit int) ([]domain.SingleSourceRisk, error) {
	var out []domain.SingleSourceRisk
	err := s.execute(ctx, "graph.single_source", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, `
MATCH (p:Product)<-[:SUPPLIES]-(s:Supplier)
WITH p, collect(s) AS suppliers
WHERE size(suppliers) = 1
RETURN p.id AS product_id, suppliers[0].name AS sole_supplier
ORDER BY product_id
LIMIT $limit
`, map[string]any{"limit": limit})
		if err != nil {
			return err
		}
		out = out[:0]
		for _, rec := range records {
			out = append(out, domain.SingleSourceRisk{
				ProductID:    stringValue(rec, "product_id"),
				SoleSupplier: stringValue(rec, "sole_supplier"),
				RiskLevel:    domain.RiskHigh,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) ProductsOfSupplier(ctx context.Context, supplierID string) (string, []string, error) {
	var name string
	var products []string
	err := s.execute(ctx, "graph.products_of_supplier", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, `
MATCH (s:Supplier {id: $id})
OPTIONAL MATCH (s)-[:SUPPLIES]->(p:Product)
RETURN s.name AS name, collect(p.id) AS products
`, map[string]any{"id": supplierID})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return domain.WrapError(domain.ErrNotFound, "graph lookup",
				fmt.Errorf("supplier %s not in graph", supplierID))
		}
		rec := records[0]
		name = stringValue(rec, "name")
		products = products[:0]
		if raw, ok := rec.Get("products"); ok {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					if id, ok := item.(string); ok && id != "" {
						products = append(products, id)
					}
				}
			}
		}
		return nil
	})
	return name, products, err
}

func (s *Store) SuppliersOfProduct(ctx context.Context, productID string) ([]domain.RankedSupplier, error) {
	return s.rankedQuery(ctx, "graph.suppliers_of_product", `
MATCH (p:Product {id: $id})<-[:SUPPLIES]-(s:Supplier)
RETURN s.id AS supplier_id, s.name AS supplier_name,
       coalesce(s.lead_time, 0.0) AS lead_time, coalesce(s.rating, 0.0) AS rating,
       coalesce(s.country, '') AS country
ORDER BY rating DESC, lead_time ASC, supplier_id
`, map[string]any{"id": productID})
}

func (s *Store) AlternativeSuppliers(ctx context.Context, productID string, limit int) ([]domain.RankedSupplier, error) {
	return s.rankedQuery(ctx, "graph.alternative_suppliers", `
MATCH (s:Supplier)
WHERE NOT (s)-[:SUPPLIES]->(:Product {id: $id})
RETURN s.id AS supplier_id, s.name AS supplier_name,
       coalesce(s.lead_time, 0.0) AS lead_time, coalesce(s.rating, 0.0) AS rating,
       coalesce(s.country, '') AS country
ORDER BY rating DESC, lead_time ASC, supplier_id
LIMIT $limit
`, map[string]any{"id": productID, "limit": limit})
}

func (s *Store) LeadTimeRanking(ctx context.Context) ([]domain.LeadTimeEntry, error) {
	var out []domain.LeadTimeEntry
	err := s.execute(ctx, "graph.lead_time_ranking", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, `
MATCH (s:Supplier)
RETURN s.id AS supplier_id, s.name AS supplier_name,
       coalesce(s.lead_time, 0.0) AS lead_time, coalesce(s.rating, 0.0) AS rating
ORDER BY lead_time ASC, supplier_id
`, nil)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, rec := range records {
			out = append(out, domain.LeadTimeEntry{
				SupplierID:   stringValue(rec, "supplier_id"),
				SupplierName: stringValue(rec, "supplier_name"),
				LeadTime:     floatValue(rec, "lead_time"),
				Rating:       floatValue(rec, "rating"),
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) Stats(ctx context.Context) (domain.GraphStats, error) {
	var stats domain.GraphStats
	err := s.execute(ctx, "graph.stats", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, `
MATCH (s:Supplier) WITH count(s) AS suppliers
MATCH (p:Product) WITH suppliers, count(p) AS products
OPTIONAL MATCH ()-[e:SUPPLIES]->()
RETURN suppliers, products, count(e) AS relationships
`, nil)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		rec := records[0]
		stats.Suppliers = intValue(rec, "suppliers")
		stats.Products = intValue(rec, "products")
		stats.Relationships = intValue(rec, "relationships")
		return nil
	})
	return stats, err
}

func (s *Store) Reset(ctx context.Context) error {
	return s.execute(ctx, "graph.reset", func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeWrite)
		defer session.Close(ctx)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		return err
	})
}

func (s *Store) rankedQuery(ctx context.Context, operation, cypher string, params map[string]any) ([]domain.RankedSupplier, error) {
	var out []domain.RankedSupplier
	err := s.execute(ctx, operation, func(ctx context.Context) error {
		session := s.session(ctx, neo4j.AccessModeRead)
		defer session.Close(ctx)
		records, err := s.collect(ctx, session, cypher, params)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, rec := range records {
			out = append(out, domain.RankedSupplier{
				SupplierID:   stringValue(rec, "supplier_id"),
				SupplierName: stringValue(rec, "supplier_name"),
				LeadTime:     floatValue(rec, "lead_time"),
				Rating:       floatValue(rec, "rating"),
				Country:      stringValue(rec, "country"),
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) collect(ctx context.Context, session neo4j.SessionWithContext, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	return records, nil
}

func stringValue(rec *neo4j.Record, key string) string {
	if raw, ok := rec.Get(key); ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

func floatValue(rec *neo4j.Record, key string) float64 {
	if raw, ok := rec.Get(key); ok {
		switch v := raw.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		}
	}
	return 0
}

func intValue(rec *neo4j.Record, key string) int64 {
	if raw, ok := rec.Get(key); ok {
		switch v := raw.(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
