package entity

import "github.com/uptrace/bun"

// SketchRow mirrors a row of the sketches table using its column naming.
type SketchRow struct {
	bun.BaseModel `bun:"table:sketches"`

	ID              string `bun:"id,pk" json:"id"`
	OrderNumber     string `bun:"order_number,notnull" json:"order_number"`
	ImportDate      string `bun:"import_date,nullzero" json:"import_date,omitempty"`
	ExportDate      string `bun:"export_date,nullzero" json:"export_date,omitempty"`
	Gender          string `bun:"gender,notnull" json:"gender"`
	Status          string `bun:"status,notnull" json:"status"`
	DesignerName    string `bun:"designer_name" json:"designer_name"`
	PaymentStatus   string `bun:"payment_status,notnull" json:"payment_status"`
	PaymentAmount   string `bun:"payment_amount,nullzero" json:"payment_amount,omitempty"`
	ProductionUnit  string `bun:"production_unit,notnull" json:"production_unit"`
	ProcessingItems string `bun:"processing_items,nullzero" json:"processing_items,omitempty"`
	CompletedItems  string `bun:"completed_items,nullzero" json:"completed_items,omitempty"`
	// CreatedAt holds an ISO-8601 UTC timestamp with millisecond precision.
	CreatedAt string `bun:"created_at,notnull" json:"created_at"`
}

// UpdatableColumns lists the columns an upsert replaces on an existing row.
// created_at is excluded so the original creation time survives edits.
var UpdatableColumns = []string{
	"order_number",
	"import_date",
	"export_date",
	"gender",
	"status",
	"designer_name",
	"payment_status",
	"payment_amount",
	"production_unit",
	"processing_items",
	"completed_items",
}
