package stable

import "math/big"

// Collateral and debt bookkeeping over a Position. Credits cannot underflow
// and are unchecked; debits are all-or-nothing and pre-check the available
// balance before mutating anything.

func creditCollateral(p *Position, asset string, amount *big.Int) {
	p.EnsureDefaults()
	current := p.CollateralAmount(asset)
	p.Collateral[asset] = new(big.Int).Add(current, amount)
}

func debitCollateral(p *Position, asset string, amount *big.Int) error {
	p.EnsureDefaults()
	current := p.CollateralAmount(asset)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	p.Collateral[asset] = new(big.Int).Sub(current, amount)
	return nil
}

func creditDebt(p *Position, amount *big.Int) {
	p.EnsureDefaults()
	p.DebtMinted = new(big.Int).Add(p.DebtMinted, amount)
}

func debitDebt(p *Position, amount *big.Int) error {
	p.EnsureDefaults()
	if p.DebtMinted.Cmp(amount) < 0 {
		return ErrInsufficientDebt
	}
	p.DebtMinted = new(big.Int).Sub(p.DebtMinted, amount)
	return nil
}
