package stable

import (
	"math/big"
	"testing"
)

func TestUsdValueTruncates(t *testing.T) {
	// One wei of a $2000 asset is worth exactly 2000 USD-wei.
	if got := usdValue(e8(2000), big.NewInt(1)); got.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("unexpected value: %s", got)
	}
	// One wei of an asset worth a single feed unit truncates to zero.
	if got := usdValue(big.NewInt(1), big.NewInt(1)); got.Sign() != 0 {
		t.Fatalf("expected truncation to zero, got %s", got)
	}
}

func TestTokenAmountFromUsdTruncates(t *testing.T) {
	// $100 at $3 per token is 33.33... tokens, truncated.
	got := tokenAmountFromUsd(e8(3), e18(100))
	if got.Cmp(mustBigInt("33333333333333333333")) != 0 {
		t.Fatalf("unexpected amount: %s", got)
	}
}

func TestHealthFactorSentinelForZeroDebt(t *testing.T) {
	if got := HealthFactor(nil, e18(100)); got.Cmp(MaxHealthFactor()) != 0 {
		t.Fatalf("expected sentinel for nil debt, got %s", got)
	}
	if got := HealthFactor(big.NewInt(0), big.NewInt(0)); got.Cmp(MaxHealthFactor()) != 0 {
		t.Fatalf("expected sentinel for zero debt, got %s", got)
	}
}

func TestHealthFactorRatio(t *testing.T) {
	// $300 of collateral against $100 of debt: adjusted value $150, ratio 1.5.
	got := HealthFactor(e18(100), e18(300))
	if got.Cmp(mustBigInt("1500000000000000000")) != 0 {
		t.Fatalf("unexpected ratio: %s", got)
	}
	// Exactly 2x collateralization sits right on the minimum.
	got = HealthFactor(e18(100), e18(200))
	if got.Cmp(MinHealthFactor()) != 0 {
		t.Fatalf("expected ratio at minimum, got %s", got)
	}
}
