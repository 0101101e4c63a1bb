package stable

import (
	"bytes"
	"errors"
	"math/big"

	"pegcore/core/types"
	"pegcore/crypto"
)

var (
	// errTokenUnauthorized indicates a mint or burn attempt by an address
	// other than the authority handed to the ledger at construction.
	errTokenUnauthorized = errors.New("stable token: caller is not the mint/burn authority")
	// errTokenBalance indicates a transfer or burn exceeding the source
	// balance.
	errTokenBalance = errors.New("stable token: insufficient balance")
)

// StableToken is the pegged-token ledger. Balances live on core account
// records; the ledger validates moves and tracks total supply. The engine
// address handed at construction is the exclusive mint and burn authority —
// the capability model replaces ownership inheritance.
type StableToken struct {
	authority crypto.Address
}

// NewStableToken builds the ledger with the given exclusive authority.
func NewStableToken(authority crypto.Address) *StableToken {
	return &StableToken{authority: authority}
}

// Authority returns the address permitted to mint and burn.
func (t *StableToken) Authority() crypto.Address {
	return t.authority
}

func (t *StableToken) isAuthority(caller crypto.Address) bool {
	return caller.Prefix() == t.authority.Prefix() && bytes.Equal(caller.Bytes(), t.authority.Bytes())
}

// Mint credits amount to the recipient account and returns the new total
// supply. Only the configured authority may mint.
func (t *StableToken) Mint(caller crypto.Address, to *types.Account, supply, amount *big.Int) (*big.Int, error) {
	if !t.isAuthority(caller) {
		return nil, errTokenUnauthorized
	}
	to.EnsureDefaults()
	to.BalanceStable = new(big.Int).Add(to.BalanceStable, amount)
	if supply == nil {
		supply = big.NewInt(0)
	}
	return new(big.Int).Add(supply, amount), nil
}

// Burn destroys amount from the holder account and returns the new total
// supply. Only the configured authority may burn.
func (t *StableToken) Burn(caller crypto.Address, from *types.Account, supply, amount *big.Int) (*big.Int, error) {
	if !t.isAuthority(caller) {
		return nil, errTokenUnauthorized
	}
	from.EnsureDefaults()
	if from.BalanceStable.Cmp(amount) < 0 {
		return nil, errTokenBalance
	}
	from.BalanceStable = new(big.Int).Sub(from.BalanceStable, amount)
	if supply == nil {
		supply = big.NewInt(0)
	}
	if supply.Cmp(amount) < 0 {
		return nil, errTokenBalance
	}
	return new(big.Int).Sub(supply, amount), nil
}

// Transfer moves amount between two account records.
func (t *StableToken) Transfer(from, to *types.Account, amount *big.Int) error {
	from.EnsureDefaults()
	to.EnsureDefaults()
	if from.BalanceStable.Cmp(amount) < 0 {
		return errTokenBalance
	}
	from.BalanceStable = new(big.Int).Sub(from.BalanceStable, amount)
	to.BalanceStable = new(big.Int).Add(to.BalanceStable, amount)
	return nil
}
