package types

import "math/big"

// Account holds the externally-custodied token balances for a single address:
// one entry per collateral asset plus the pegged stable balance. Balance
// values are denominated in wei and expressed as big integers to match the
// 18-decimal precision used throughout the engine.
type Account struct {
	Nonce uint64 `json:"nonce"`
	// Balances maps a collateral asset symbol to the amount held.
	Balances map[string]*big.Int `json:"balances"`
	// BalanceStable is the pegged stable-token balance.
	BalanceStable *big.Int `json:"balanceStable"`
}

// EnsureDefaults populates nil fields so lookups and arithmetic are safe.
func (a *Account) EnsureDefaults() {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if a.BalanceStable == nil {
		a.BalanceStable = big.NewInt(0)
	}
}

// Balance returns the held amount for the given collateral asset, treating
// missing entries as zero.
func (a *Account) Balance(symbol string) *big.Int {
	a.EnsureDefaults()
	if amount, ok := a.Balances[symbol]; ok && amount != nil {
		return amount
	}
	return big.NewInt(0)
}

// SetBalance records the held amount for the given collateral asset.
func (a *Account) SetBalance(symbol string, amount *big.Int) {
	a.EnsureDefaults()
	a.Balances[symbol] = amount
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce, Balances: make(map[string]*big.Int, len(a.Balances))}
	for symbol, amount := range a.Balances {
		if amount != nil {
			clone.Balances[symbol] = new(big.Int).Set(amount)
		}
	}
	if a.BalanceStable != nil {
		clone.BalanceStable = new(big.Int).Set(a.BalanceStable)
	}
	clone.EnsureDefaults()
	return clone
}
