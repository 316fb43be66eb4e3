package domain

type UploadStatusReport struct {
	Files []TableStatus `json:"files"`
}

type SchemaInfo struct {
	Table   string       `json:"table"`
	Rows    int64        `json:"rows"`
	Columns []ColumnSpec `json:"columns"`
}

type VersionHistory struct {
	TotalUploads int            `json:"total_uploads"`
	History      []UploadRecord `json:"history"`
	Message      string         `json:"message,omitempty"`
}

// StoreHealth reports both stores for trigger_database_refresh and the admin
// status endpoint.
type StoreHealth struct {
	Tabular map[string]TableHealth `json:"tabular"`
	Graph   GraphHealth            `json:"graph"`
}

type TableHealth struct {
	Status  string `json:"status"` // "ok" or "not_loaded"
	Rows    int64  `json:"rows,omitempty"`
	Columns int    `json:"columns,omitempty"`
}

type GraphHealth struct {
	Status        string `json:"status"` // "connected" or "unavailable"
	Suppliers     int64  `json:"suppliers"`
	Products      int64  `json:"products"`
	Relationships int64  `json:"relationships"`
	Error         string `json:"error,omitempty"`
}

type ShipmentTrackingReport struct {
	Summary   []ShipmentStatusGroup `json:"summary"`
	InTransit []Shipment            `json:"in_transit,omitempty"`
}

type ProductCatalogReport struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type ResetReport struct {
	TabularDropped []string `json:"tabular_dropped"`
	GraphCleared   bool     `json:"graph_cleared"`
	GraphError     string   `json:"graph_error,omitempty"`
	Message        string   `json:"message"`
}
