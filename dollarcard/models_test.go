package dollarcard

import (
	"testing"
	"time"

	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/types"
)

func TestComplete(t *testing.T) {
	p := &Purchase{
		Payments: []*Payment{
			{Amount: types.LYD(4_000_000)},
			{Amount: types.LYD(3_500_000)},
		},
	}
	dest := id.NewAssetID()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c := p.Complete(types.USD(100_000), dest, at)
	if c.TotalLYDPaid.Amount != 7_500_000 {
		t.Errorf("TotalLYDPaid = %d, want 7500000", c.TotalLYDPaid.Amount)
	}
	if got := c.FinalCostPerDollar.StringFixed(3); got != "7.500" {
		t.Errorf("FinalCostPerDollar = %s, want 7.500", got)
	}
	if c.USDDestinationAsset != dest || !c.CompletedAt.Equal(at) {
		t.Errorf("completion = %+v", c)
	}
}

func TestCompleteWithoutPayments(t *testing.T) {
	c := (&Purchase{}).Complete(types.USD(5_000), id.NewAssetID(), time.Now())
	if !c.TotalLYDPaid.IsZero() || !c.FinalCostPerDollar.IsZero() {
		t.Errorf("completion = %+v, want zero paid and zero cost", c)
	}
}
