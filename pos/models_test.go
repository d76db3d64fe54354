package pos

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/types"
)

func TestSettle(t *testing.T) {
	manual := types.LYD(990_000)
	tests := []struct {
		name        string
		total       types.Money
		rate        string
		manual      *types.Money
		cash        types.Money
		wantDeposit int64
		wantProfit  int64
	}{
		{"commission", types.LYD(1_000_000), "2", nil, types.LYD(950_000), 980_000, 30_000},
		{"rounded half away from zero", types.LYD(333), "1.5", nil, types.LYD(0), 328, 328},
		{"no commission", types.LYD(5_000), "0", nil, types.LYD(5_000), 5_000, 0},
		{"manual deposit", types.LYD(1_000_000), "2", &manual, types.LYD(950_000), 990_000, 40_000},
		{"loss", types.LYD(100_000), "3", nil, types.LYD(100_000), 97_000, -3_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deposit, profit := Settle(tt.total, decimal.RequireFromString(tt.rate), tt.manual, tt.cash)
			if deposit.Amount != tt.wantDeposit {
				t.Errorf("deposit = %d, want %d", deposit.Amount, tt.wantDeposit)
			}
			if profit.Amount != tt.wantProfit {
				t.Errorf("profit = %d, want %d", profit.Amount, tt.wantProfit)
			}
		})
	}
}
