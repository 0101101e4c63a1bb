package stable

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	// ErrStalePrice indicates a feed reading older than the maximum trusted
	// age. A stale reading aborts the whole calling operation; the engine
	// never substitutes a cached or default value.
	ErrStalePrice = errors.New("stable oracle: price reading too old")
	// ErrInvalidPrice indicates a non-positive or missing feed price.
	ErrInvalidPrice = errors.New("stable oracle: feed returned non-positive price")
	// ErrUnknownAsset indicates a valuation request for an asset with no
	// configured feed.
	ErrUnknownAsset = errors.New("stable oracle: no feed configured for asset")
)

// PriceFeed reports the latest price for a single collateral asset. Prices
// are USD-denominated with 8 decimal digits.
type PriceFeed interface {
	LatestPrice() (price *big.Int, updatedAt time.Time, err error)
}

// OracleAdapter wraps one price feed per collateral asset, normalizes raw
// readings to the engine's fixed-point conventions and rejects stale data.
// The feed set is fixed at construction.
type OracleAdapter struct {
	feeds  map[string]PriceFeed
	maxAge time.Duration
	clock  func() time.Time
}

// NewOracleAdapter builds an adapter over the given per-asset feeds. Readings
// older than maxAge are rejected at valuation time.
func NewOracleAdapter(feeds map[string]PriceFeed, maxAge time.Duration) *OracleAdapter {
	cloned := make(map[string]PriceFeed, len(feeds))
	for symbol, feed := range feeds {
		cloned[symbol] = feed
	}
	return &OracleAdapter{feeds: cloned, maxAge: maxAge, clock: time.Now}
}

// SetClock overrides the time source used for staleness checks.
func (o *OracleAdapter) SetClock(clock func() time.Time) {
	if o == nil || clock == nil {
		return
	}
	o.clock = clock
}

// MaxAge returns the configured staleness window.
func (o *OracleAdapter) MaxAge() time.Duration {
	if o == nil {
		return 0
	}
	return o.maxAge
}

// Feed returns the configured feed for the asset, if any.
func (o *OracleAdapter) Feed(asset string) (PriceFeed, bool) {
	if o == nil {
		return nil, false
	}
	feed, ok := o.feeds[asset]
	return feed, ok
}

// Price returns a fresh 8-decimal USD price for the asset. Any feed error,
// non-positive price or stale timestamp is a hard failure.
func (o *OracleAdapter) Price(asset string) (*big.Int, error) {
	if o == nil {
		return nil, ErrUnknownAsset
	}
	feed, ok := o.feeds[asset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	price, updatedAt, err := feed.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("stable oracle: read feed for %s: %w", asset, err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, asset)
	}
	if o.maxAge > 0 {
		age := o.clock().Sub(updatedAt)
		if age > o.maxAge {
			return nil, fmt.Errorf("%w: %s reading is %s old", ErrStalePrice, asset, age)
		}
	}
	return new(big.Int).Set(price), nil
}

// UsdValue converts an 18-decimal asset amount into its 18-decimal USD value
// at the current feed price.
func (o *OracleAdapter) UsdValue(asset string, amount *big.Int) (*big.Int, error) {
	price, err := o.Price(asset)
	if err != nil {
		return nil, err
	}
	return usdValue(price, amount), nil
}

// TokenAmountFromUsd converts an 18-decimal USD amount into the 18-decimal
// asset amount it buys at the current feed price.
func (o *OracleAdapter) TokenAmountFromUsd(asset string, usd *big.Int) (*big.Int, error) {
	price, err := o.Price(asset)
	if err != nil {
		return nil, err
	}
	return tokenAmountFromUsd(price, usd), nil
}
