package stable

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestOracleRejectsStaleReading(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	feed := NewStaticFeed(e8(2000), now.Add(-time.Hour))
	oracle := NewOracleAdapter(map[string]PriceFeed{assetWETH: feed}, time.Hour)
	oracle.SetClock(func() time.Time { return now })

	// A reading exactly at the maximum age is still trusted.
	if _, err := oracle.Price(assetWETH); err != nil {
		t.Fatalf("reading at max age: %v", err)
	}

	feed.SetPrice(e8(2000), now.Add(-time.Hour-time.Second))
	if _, err := oracle.Price(assetWETH); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}
}

func TestOracleZeroMaxAgeDisablesStalenessCheck(t *testing.T) {
	feed := NewStaticFeed(e8(2000), time.Unix(0, 0))
	oracle := NewOracleAdapter(map[string]PriceFeed{assetWETH: feed}, 0)

	if _, err := oracle.Price(assetWETH); err != nil {
		t.Fatalf("price with disabled staleness check: %v", err)
	}
}

func TestOracleRejectsInvalidPrice(t *testing.T) {
	feed := NewStaticFeed(big.NewInt(0), time.Now())
	oracle := NewOracleAdapter(map[string]PriceFeed{assetWETH: feed}, time.Hour)

	if _, err := oracle.Price(assetWETH); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestOracleUnknownAsset(t *testing.T) {
	oracle := NewOracleAdapter(map[string]PriceFeed{}, time.Hour)

	if _, err := oracle.Price("DOGE"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if _, err := oracle.UsdValue("DOGE", e18(1)); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset from UsdValue, got %v", err)
	}
}

func TestOracleConversions(t *testing.T) {
	feed := NewStaticFeed(e8(2000), time.Now())
	oracle := NewOracleAdapter(map[string]PriceFeed{assetWETH: feed}, time.Hour)

	value, err := oracle.UsdValue(assetWETH, e18(15))
	if err != nil {
		t.Fatalf("usd value: %v", err)
	}
	if value.Cmp(e18(30000)) != 0 {
		t.Fatalf("unexpected usd value: %s", value)
	}

	amount, err := oracle.TokenAmountFromUsd(assetWETH, e18(100))
	if err != nil {
		t.Fatalf("token amount: %v", err)
	}
	if amount.Cmp(mustBigInt("50000000000000000")) != 0 {
		t.Fatalf("unexpected token amount: %s", amount)
	}
}
