package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/sketchbook/internal/model"
)

func TestSketchRequest_ToModelNormalizesEnums(t *testing.T) {
	tests := []struct {
		name    string
		payment string
		unit    string
		wantPay model.PaymentStatus
		want    model.ProductionUnit
	}{
		{name: "wire values", payment: "HALF PAYMENT", unit: "MNR PRODUCTION", wantPay: model.PaymentHalf, want: model.UnitMNRProduction},
		{name: "constant names", payment: "HALF_PAYMENT", unit: "MNR_PRODUCTION", wantPay: model.PaymentHalf, want: model.UnitMNRProduction},
		{name: "lower case", payment: " complete_payment ", unit: "rana plaza", wantPay: model.PaymentComplete, want: model.UnitRanaPlaza},
		{name: "empty stays empty", payment: "", unit: "", wantPay: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk := SketchRequest{OrderNumber: " ORD-1 ", PaymentStatus: tt.payment, ProductionUnit: tt.unit}.ToModel()
			assert.Equal(t, "ORD-1", sk.OrderNumber)
			assert.Equal(t, tt.wantPay, sk.PaymentStatus)
			assert.Equal(t, tt.want, sk.ProductionUnit)
		})
	}
}

func TestSketchRequest_ToModelKeepsUnknownEnums(t *testing.T) {
	sk := SketchRequest{Status: "shipped", Gender: "kids"}.ToModel()
	assert.Equal(t, model.Status("SHIPPED"), sk.Status)
	assert.False(t, sk.Status.Valid())
	assert.False(t, sk.Gender.Valid())
}
