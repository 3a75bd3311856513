// Package mapper translates sketches between the application model and the
// column naming used by the sketches table.
package mapper

import (
	"strings"
	"time"

	"github.com/Additional-Code/sketchbook/internal/entity"
	"github.com/Additional-Code/sketchbook/internal/model"
)

// TimestampLayout is the fixed-width UTC layout written to created_at.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Now is the clock used when a timestamp is missing. Tests may replace it.
var Now = time.Now

var inboundLayouts = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ToRow converts a sketch to its table representation.
func ToRow(s model.Sketch) entity.SketchRow {
	return entity.SketchRow{
		ID:              s.ID,
		OrderNumber:     s.OrderNumber,
		ImportDate:      s.ImportDate,
		ExportDate:      s.ExportDate,
		Gender:          string(s.Gender),
		Status:          string(s.Status),
		DesignerName:    s.DesignerName,
		PaymentStatus:   string(s.PaymentStatus),
		PaymentAmount:   s.PaymentAmount,
		ProductionUnit:  string(s.ProductionUnit),
		ProcessingItems: s.ProcessingItems,
		CompletedItems:  s.CompletedItems,
		CreatedAt:       FormatMillis(s.CreatedAt),
	}
}

// FromRow converts a table row to the application model.
func FromRow(r entity.SketchRow) model.Sketch {
	return model.Sketch{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		ImportDate:      r.ImportDate,
		ExportDate:      r.ExportDate,
		Gender:          model.Gender(r.Gender),
		Status:          model.Status(r.Status),
		DesignerName:    r.DesignerName,
		PaymentStatus:   model.PaymentStatus(r.PaymentStatus),
		PaymentAmount:   r.PaymentAmount,
		ProductionUnit:  model.ProductionUnit(r.ProductionUnit),
		ProcessingItems: r.ProcessingItems,
		CompletedItems:  r.CompletedItems,
		CreatedAt:       ParseMillis(r.CreatedAt),
	}
}

// FromRows converts a slice of rows, preserving order. The result is never nil.
func FromRows(rows []entity.SketchRow) []model.Sketch {
	out := make([]model.Sketch, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromRow(r))
	}
	return out
}

// FormatMillis renders epoch milliseconds as created_at text. Zero means now.
func FormatMillis(ms int64) string {
	t := Now()
	if ms != 0 {
		t = time.UnixMilli(ms)
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseMillis reads created_at text back to epoch milliseconds, falling back
// to now when the value is empty or unreadable.
func ParseMillis(value string) int64 {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range inboundLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UnixMilli()
			}
		}
	}
	return Now().UnixMilli()
}
