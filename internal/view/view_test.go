package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/sketchbook/internal/model"
	"github.com/Additional-Code/sketchbook/internal/testutil"
)

func ids(list []model.Sketch) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func sample() []model.Sketch {
	a := testutil.Sketch("a", "order-1", 100)
	a.Status = model.StatusProcessing
	a.DesignerName = "Bilal"

	b := testutil.Sketch("b", "order-2", 200)
	b.Status = model.StatusDelivered
	b.PaymentStatus = model.PaymentComplete
	b.ProductionUnit = model.UnitRanaPlaza
	b.DesignerName = "Sana"

	c := testutil.Sketch("c", "ORD-77", 150)
	c.PaymentStatus = model.PaymentHalf
	c.ProductionUnit = model.UnitHafizSahib
	c.DesignerName = "sana ahmed"

	return []model.Sketch{a, b, c}
}

func TestCount_SumsMatchTotal(t *testing.T) {
	for _, list := range [][]model.Sketch{nil, sample()} {
		c := Count(list)
		assert.Equal(t, len(list), c.Total)

		sum := func(m map[string]int) int {
			n := 0
			for _, v := range m {
				n += v
			}
			return n
		}
		status := map[string]int{}
		for k, v := range c.ByStatus {
			status[string(k)] = v
		}
		payment := map[string]int{}
		for k, v := range c.ByPayment {
			payment[string(k)] = v
		}
		unit := map[string]int{}
		for k, v := range c.ByUnit {
			unit[string(k)] = v
		}
		assert.Equal(t, c.Total, sum(status))
		assert.Equal(t, c.Total, sum(payment))
		assert.Equal(t, c.Total, sum(unit))
	}
}

func TestCount_AllKeysPresent(t *testing.T) {
	c := Count(nil)
	assert.Len(t, c.ByStatus, len(model.AllStatuses()))
	assert.Len(t, c.ByPayment, len(model.AllPaymentStatuses()))
	assert.Len(t, c.ByUnit, len(model.AllProductionUnits()))

	c = Count(sample())
	assert.Equal(t, 2, c.ByStatus[model.StatusProcessing])
	assert.Equal(t, 1, c.ByStatus[model.StatusDelivered])
	assert.Equal(t, 1, c.ByPayment[model.PaymentPending])
	assert.Equal(t, 1, c.ByPayment[model.PaymentHalf])
	assert.Equal(t, 1, c.ByUnit[model.UnitMNRProduction])
}

func TestApply_Categorical(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{Kind: KindAll}, want: []string{"b", "c", "a"}},
		{name: "zero value", filter: Filter{}, want: []string{"b", "c", "a"}},
		{name: "processing", filter: Filter{Kind: KindProcessing}, want: []string{"c", "a"}},
		{name: "delivered", filter: Filter{Kind: KindDelivered}, want: []string{"b"}},
		{name: "payment pending", filter: Filter{Kind: KindPaymentPending}, want: []string{"a"}},
		{name: "payment half", filter: Filter{Kind: KindPaymentHalf}, want: []string{"c"}},
		{name: "payment complete", filter: Filter{Kind: KindPaymentComplete}, want: []string{"b"}},
		{name: "hafiz", filter: Filter{Kind: KindProdHafiz}, want: []string{"c"}},
		{name: "rana", filter: Filter{Kind: KindProdRana}, want: []string{"b"}},
		{name: "mnr", filter: Filter{Kind: KindProdMNR}, want: []string{"a"}},
		{name: "designer substring", filter: Filter{Kind: KindDesigner, Designer: "SANA"}, want: []string{"b", "c"}},
		{name: "designer empty passes all", filter: Filter{Kind: KindDesigner}, want: []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(sample(), tt.filter)))
		})
	}
}

func TestApply_QueryOverridesFilter(t *testing.T) {
	got := Apply(sample(), Filter{Query: "ORDER-", Kind: KindDelivered, Designer: "nobody"})
	assert.Equal(t, []string{"b", "a"}, ids(got))

	got = Apply(sample(), Filter{Query: "ord-7"})
	assert.Equal(t, []string{"c"}, ids(got))
}

func TestApply_QueryIsMatchedVerbatim(t *testing.T) {
	spaced := testutil.Sketch("s", "order 9", 400)
	list := append(sample(), spaced)

	got := Apply(list, Filter{Query: " ", Kind: KindDelivered})
	assert.Equal(t, []string{"s"}, ids(got), "a blank query still replaces the filter")

	got = Apply(list, Filter{Query: "ORDER 9 "})
	assert.Empty(t, got)
}

func TestApply_StatusThenQueryScenario(t *testing.T) {
	a := testutil.Sketch("A", "order-a", 100)
	a.Status = model.StatusProcessing
	b := testutil.Sketch("B", "order-b", 200)
	b.Status = model.StatusDelivered
	list := []model.Sketch{a, b}

	assert.Equal(t, []string{"B"}, ids(Apply(list, Filter{Kind: KindDelivered})))
	assert.Equal(t, []string{"B", "A"}, ids(Apply(list, Filter{Query: "order-"})))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	list := sample()
	_ = Apply(list, Filter{})
	assert.Equal(t, []string{"a", "b", "c"}, ids(list))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAll, k)

	k, err = ParseKind(" payment_half ")
	require.NoError(t, err)
	assert.Equal(t, KindPaymentHalf, k)

	_, err = ParseKind("urgent")
	assert.Error(t, err)
}

func TestPage(t *testing.T) {
	list := make([]model.Sketch, 10)
	assert.Len(t, Page(list, 0), DefaultPageSize)
	assert.Len(t, Page(list, 3), 3)
	assert.Len(t, Page(list[:2], 7), 2)
}
