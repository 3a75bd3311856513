// Package view derives what a sketch list screen shows from a collection:
// category counts and the filtered, newest-first page. Nothing here performs
// I/O or mutates its input.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Additional-Code/sketchbook/internal/model"
)

// DefaultPageSize is how many sketches a list shows at once.
const DefaultPageSize = 7

// Kind names a categorical filter.
type Kind string

const (
	KindAll             Kind = "ALL"
	KindProcessing      Kind = "PROCESSING"
	KindDelivered       Kind = "DELIVERED"
	KindDesigner        Kind = "DESIGNER"
	KindPaymentPending  Kind = "PAYMENT_PENDING"
	KindPaymentHalf     Kind = "PAYMENT_HALF"
	KindPaymentComplete Kind = "PAYMENT_COMPLETE"
	KindProdHafiz       Kind = "PROD_HAFIZ"
	KindProdRana        Kind = "PROD_RANA"
	KindProdMNR         Kind = "PROD_MNR"
)

// Kinds lists every filter in menu order.
func Kinds() []Kind {
	return []Kind{
		KindAll, KindProcessing, KindDelivered, KindDesigner,
		KindPaymentPending, KindPaymentHalf, KindPaymentComplete,
		KindProdHafiz, KindProdRana, KindProdMNR,
	}
}

// ParseKind resolves a filter name case-insensitively. Empty input means ALL.
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return KindAll, nil
	}
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Counts holds per-category totals. Every enum value has an entry.
type Counts struct {
	Total     int                          `json:"total"`
	ByStatus  map[model.Status]int         `json:"byStatus"`
	ByPayment map[model.PaymentStatus]int  `json:"byPayment"`
	ByUnit    map[model.ProductionUnit]int `json:"byUnit"`
}

// Count tallies the collection per status, payment status and production unit.
func Count(sketches []model.Sketch) Counts {
	c := Counts{
		Total:     len(sketches),
		ByStatus:  make(map[model.Status]int),
		ByPayment: make(map[model.PaymentStatus]int),
		ByUnit:    make(map[model.ProductionUnit]int),
	}
	for _, s := range model.AllStatuses() {
		c.ByStatus[s] = 0
	}
	for _, p := range model.AllPaymentStatuses() {
		c.ByPayment[p] = 0
	}
	for _, u := range model.AllProductionUnits() {
		c.ByUnit[u] = 0
	}

	for _, sk := range sketches {
		c.ByStatus[sk.Status]++
		c.ByPayment[sk.PaymentStatus]++
		c.ByUnit[sk.ProductionUnit]++
	}
	return c
}

// Filter selects which sketches a list shows.
type Filter struct {
	// Query matches order numbers by case-insensitive substring. When set,
	// Kind and Designer are ignored.
	Query    string
	Kind     Kind
	Designer string
}

// Apply returns the sketches matching f, newest first.
func Apply(sketches []model.Sketch, f Filter) []model.Sketch {
	match := f.matcher()
	out := make([]model.Sketch, 0, len(sketches))
	for _, sk := range sketches {
		if match(sk) {
			out = append(out, sk)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Sketch) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	return out
}

func (f Filter) matcher() func(model.Sketch) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		return func(sk model.Sketch) bool {
			return strings.Contains(strings.ToLower(sk.OrderNumber), q)
		}
	}

	switch f.Kind {
	case KindProcessing:
		return statusIs(model.StatusProcessing)
	case KindDelivered:
		return statusIs(model.StatusDelivered)
	case KindPaymentPending:
		return paymentIs(model.PaymentPending)
	case KindPaymentHalf:
		return paymentIs(model.PaymentHalf)
	case KindPaymentComplete:
		return paymentIs(model.PaymentComplete)
	case KindProdHafiz:
		return unitIs(model.UnitHafizSahib)
	case KindProdRana:
		return unitIs(model.UnitRanaPlaza)
	case KindProdMNR:
		return unitIs(model.UnitMNRProduction)
	case KindDesigner:
		d := strings.ToLower(strings.TrimSpace(f.Designer))
		return func(sk model.Sketch) bool {
			return d == "" || strings.Contains(strings.ToLower(sk.DesignerName), d)
		}
	default:
		return func(model.Sketch) bool { return true }
	}
}

func statusIs(s model.Status) func(model.Sketch) bool {
	return func(sk model.Sketch) bool { return sk.Status == s }
}

func paymentIs(p model.PaymentStatus) func(model.Sketch) bool {
	return func(sk model.Sketch) bool { return sk.PaymentStatus == p }
}

func unitIs(u model.ProductionUnit) func(model.Sketch) bool {
	return func(sk model.Sketch) bool { return sk.ProductionUnit == u }
}

// Page returns at most n sketches from the front of the list. A non-positive
// n uses DefaultPageSize.
func Page(sketches []model.Sketch, n int) []model.Sketch {
	if n <= 0 {
		n = DefaultPageSize
	}
	if len(sketches) <= n {
		return sketches
	}
	return sketches[:n]
}
