package stable

import "math/big"

// HealthFactor computes the 1e18-scaled solvency ratio for the given minted
// debt and aggregate collateral value in USD. Only half of the nominal
// collateral value counts toward solvency; a position is liquidatable once
// the result drops below MinHealthFactor.
//
// A position with no minted debt carries no risk and reads as the maximum
// representable ratio. The function is pure and never fails for non-negative
// inputs.
func HealthFactor(debtMinted, collateralValueUsd *big.Int) *big.Int {
	if debtMinted == nil || debtMinted.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	adjusted := new(big.Int)
	if collateralValueUsd != nil {
		adjusted.Set(collateralValueUsd)
	}
	adjusted.Mul(adjusted, liquidationThreshold)
	adjusted.Quo(adjusted, liquidationPrecision)
	adjusted.Mul(adjusted, precision)
	return adjusted.Quo(adjusted, debtMinted)
}

// Precision returns the shared 18-decimal fixed-point scale.
func Precision() *big.Int { return new(big.Int).Set(precision) }

// AdditionalFeedPrecision returns the factor applied to 8-decimal feed prices.
func AdditionalFeedPrecision() *big.Int { return new(big.Int).Set(additionalFeedPrecision) }

// LiquidationThreshold returns the collateral discount numerator.
func LiquidationThreshold() *big.Int { return new(big.Int).Set(liquidationThreshold) }

// LiquidationPrecision returns the collateral discount denominator.
func LiquidationPrecision() *big.Int { return new(big.Int).Set(liquidationPrecision) }

// LiquidationBonus returns the liquidator premium numerator.
func LiquidationBonus() *big.Int { return new(big.Int).Set(liquidationBonus) }

// MinHealthFactor returns the solvency floor on the 1e18 scale.
func MinHealthFactor() *big.Int { return new(big.Int).Set(minHealthFactor) }

// MaxHealthFactor returns the sentinel used for debt-free positions.
func MaxHealthFactor() *big.Int { return new(big.Int).Set(maxHealthFactor) }
