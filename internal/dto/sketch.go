package dto

import (
	"strings"

	"github.com/Additional-Code/sketchbook/internal/model"
	"github.com/Additional-Code/sketchbook/internal/view"
)

// SketchRequest is the body accepted when creating or replacing a sketch.
type SketchRequest struct {
	ID              string `json:"id,omitempty"`
	OrderNumber     string `json:"orderNumber"`
	ImportDate      string `json:"importDate,omitempty"`
	ExportDate      string `json:"exportDate,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Status          string `json:"status,omitempty"`
	DesignerName    string `json:"designerName,omitempty"`
	PaymentStatus   string `json:"paymentStatus,omitempty"`
	PaymentAmount   string `json:"paymentAmount,omitempty"`
	ProductionUnit  string `json:"productionUnit,omitempty"`
	ProcessingItems string `json:"processingItems,omitempty"`
	CompletedItems  string `json:"completedItems,omitempty"`
	CreatedAt       int64  `json:"createdAt,omitempty"`
}

// ToModel converts the request into a sketch. Enum values are upper-cased and
// underscores read as spaces, so "half_payment" and "HALF PAYMENT" are the same.
func (r SketchRequest) ToModel() model.Sketch {
	return model.Sketch{
		ID:              strings.TrimSpace(r.ID),
		OrderNumber:     strings.TrimSpace(r.OrderNumber),
		ImportDate:      r.ImportDate,
		ExportDate:      r.ExportDate,
		Gender:          model.Gender(enumValue(r.Gender)),
		Status:          model.Status(enumValue(r.Status)),
		DesignerName:    strings.TrimSpace(r.DesignerName),
		PaymentStatus:   model.PaymentStatus(enumValue(r.PaymentStatus)),
		PaymentAmount:   r.PaymentAmount,
		ProductionUnit:  model.ProductionUnit(enumValue(r.ProductionUnit)),
		ProcessingItems: r.ProcessingItems,
		CompletedItems:  r.CompletedItems,
		CreatedAt:       r.CreatedAt,
	}
}

func enumValue(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "_", " ")
}

// SketchListResponse is one page of a filtered list plus collection counts.
type SketchListResponse struct {
	Items  []model.Sketch `json:"items"`
	Total  int            `json:"total"`
	Counts view.Counts    `json:"counts"`
}

// SessionRequest carries a passcode to verify.
type SessionRequest struct {
	Passcode string `json:"passcode"`
}

// SessionResponse reports a successful passcode check.
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}
