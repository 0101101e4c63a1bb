package stable

import (
	"math/big"

	ethmath "github.com/ethereum/go-ethereum/common/math"
)

var (
	// precision is the 18-decimal fixed-point scale shared by amounts, USD
	// values and health factors.
	precision = mustBigInt("1000000000000000000")
	// additionalFeedPrecision upscales 8-decimal feed prices to the
	// 18-decimal scale before combining them with amounts.
	additionalFeedPrecision = big.NewInt(10_000_000_000)
	// liquidationThreshold/liquidationPrecision discount collateral to 50% of
	// nominal value, so solvency requires at least 200% collateralization.
	liquidationThreshold = big.NewInt(50)
	liquidationPrecision = big.NewInt(100)
	// liquidationBonus is the 10% premium paid to liquidators, expressed over
	// liquidationPrecision.
	liquidationBonus = big.NewInt(10)
	// minHealthFactor is the solvency floor on the 1e18 fixed-point scale.
	minHealthFactor = mustBigInt("1000000000000000000")
	// maxHealthFactor is the sentinel for positions with no minted debt.
	maxHealthFactor = new(big.Int).Set(ethmath.MaxBig256)
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// usdValue converts an 18-decimal asset amount into its 18-decimal USD value
// using an 8-decimal feed price. Division truncates toward zero; callers must
// guarantee a positive price.
func usdValue(price, amount *big.Int) *big.Int {
	if price == nil || amount == nil {
		return big.NewInt(0)
	}
	value := new(big.Int).Mul(price, additionalFeedPrecision)
	value.Mul(value, amount)
	return value.Quo(value, precision)
}

// tokenAmountFromUsd inverts usdValue: it converts an 18-decimal USD amount
// into the 18-decimal asset amount it buys at the given 8-decimal feed price.
func tokenAmountFromUsd(price, usd *big.Int) *big.Int {
	if price == nil || price.Sign() <= 0 || usd == nil {
		return big.NewInt(0)
	}
	denominator := new(big.Int).Mul(price, additionalFeedPrecision)
	value := new(big.Int).Mul(usd, precision)
	return value.Quo(value, denominator)
}
