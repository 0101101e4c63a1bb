package stable

import (
	"math/big"

	"pegcore/crypto"
)

// Position is the engine-side ledger entry for a single account: the amount
// of each allowed collateral asset deposited and the stable debt minted
// against it. Amounts are wei-denominated big integers and never observably
// negative.
type Position struct {
	// Address is the unique account identifier.
	Address crypto.Address
	// Collateral maps an asset symbol to the deposited amount.
	Collateral map[string]*big.Int
	// DebtMinted is the amount of pegged stable token minted against the
	// collateral.
	DebtMinted *big.Int
}

// EnsureDefaults populates nil fields so bookkeeping is safe on fresh
// positions.
func (p *Position) EnsureDefaults() {
	if p.Collateral == nil {
		p.Collateral = make(map[string]*big.Int)
	}
	if p.DebtMinted == nil {
		p.DebtMinted = big.NewInt(0)
	}
}

// CollateralAmount returns the deposited amount for the given asset, treating
// missing entries as zero.
func (p *Position) CollateralAmount(asset string) *big.Int {
	p.EnsureDefaults()
	if amount, ok := p.Collateral[asset]; ok && amount != nil {
		return amount
	}
	return big.NewInt(0)
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{Address: p.Address, Collateral: make(map[string]*big.Int, len(p.Collateral))}
	for asset, amount := range p.Collateral {
		if amount != nil {
			clone.Collateral[asset] = new(big.Int).Set(amount)
		}
	}
	if p.DebtMinted != nil {
		clone.DebtMinted = new(big.Int).Set(p.DebtMinted)
	}
	clone.EnsureDefaults()
	return clone
}
