package types

import (
	"math/big"
	"testing"
)

func TestAccountBalanceDefaults(t *testing.T) {
	acc := &Account{}
	if acc.Balance("WETH").Sign() != 0 {
		t.Fatalf("expected zero balance for missing entry")
	}
	acc.SetBalance("WETH", big.NewInt(5))
	if acc.Balance("WETH").Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected balance: %s", acc.Balance("WETH"))
	}
	if acc.BalanceStable.Sign() != 0 {
		t.Fatalf("expected zero stable balance")
	}
}

func TestAccountCloneIsDeep(t *testing.T) {
	acc := &Account{
		Nonce:         3,
		Balances:      map[string]*big.Int{"WETH": big.NewInt(10)},
		BalanceStable: big.NewInt(20),
	}
	clone := acc.Clone()

	clone.SetBalance("WETH", big.NewInt(99))
	clone.BalanceStable.SetInt64(99)

	if acc.Balance("WETH").Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("clone mutation leaked into balances")
	}
	if acc.BalanceStable.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("clone mutation leaked into stable balance")
	}
	if clone.Nonce != 3 {
		t.Fatalf("nonce not copied: %d", clone.Nonce)
	}
}
