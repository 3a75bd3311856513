package model

// Gender classifies a sketch by garment line.
type Gender string

const (
	GenderGents  Gender = "GENTS"
	GenderLadies Gender = "LADIES"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderGents || g == GenderLadies
}

// Status is the production stage of a sketch.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusDelivered  Status = "DELIVERED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusProcessing || s == StatusDelivered
}

// AllStatuses lists every status in display order.
func AllStatuses() []Status {
	return []Status{StatusProcessing, StatusDelivered}
}

// PaymentStatus tracks how much of an order has been paid.
type PaymentStatus string

// Stored values carry spaces; existing rows use them.
const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentHalf     PaymentStatus = "HALF PAYMENT"
	PaymentComplete PaymentStatus = "COMPLETE PAYMENT"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentHalf, PaymentComplete:
		return true
	}
	return false
}

// AllPaymentStatuses lists every payment status in display order.
func AllPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPending, PaymentHalf, PaymentComplete}
}

// ProductionUnit is the workshop a sketch is assigned to.
type ProductionUnit string

const (
	UnitHafizSahib    ProductionUnit = "HAFIZ SAHIB"
	UnitRanaPlaza     ProductionUnit = "RANA PLAZA"
	UnitMNRProduction ProductionUnit = "MNR PRODUCTION"
)

// Valid reports whether u is a known production unit.
func (u ProductionUnit) Valid() bool {
	switch u {
	case UnitHafizSahib, UnitRanaPlaza, UnitMNRProduction:
		return true
	}
	return false
}

// AllProductionUnits lists every production unit in display order.
func AllProductionUnits() []ProductionUnit {
	return []ProductionUnit{UnitHafizSahib, UnitRanaPlaza, UnitMNRProduction}
}

// Sketch is one garment order as the application sees it.
type Sketch struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"orderNumber"`
	ImportDate      string         `json:"importDate,omitempty"`
	ExportDate      string         `json:"exportDate,omitempty"`
	Gender          Gender         `json:"gender"`
	Status          Status         `json:"status"`
	DesignerName    string         `json:"designerName"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
	PaymentAmount   string         `json:"paymentAmount,omitempty"`
	ProductionUnit  ProductionUnit `json:"productionUnit"`
	ProcessingItems string         `json:"processingItems,omitempty"`
	CompletedItems  string         `json:"completedItems,omitempty"`
	// CreatedAt is epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// ApplyDefaults fills empty enum fields with the values a blank form starts with.
func (s *Sketch) ApplyDefaults() {
	if s.Gender == "" {
		s.Gender = GenderGents
	}
	if s.Status == "" {
		s.Status = StatusProcessing
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = PaymentPending
	}
	if s.ProductionUnit == "" {
		s.ProductionUnit = UnitMNRProduction
	}
}
