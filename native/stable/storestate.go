package stable

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"pegcore/core/types"
	"pegcore/crypto"
	"pegcore/storage"
)

// StoreState persists engine records to a key-value database using RLP
// encoding. Missing records read as nil; the engine treats nil as a fresh
// zero-valued record.
type StoreState struct {
	db storage.Database
}

// NewStoreState creates a state backed by the provided database.
func NewStoreState(db storage.Database) *StoreState {
	return &StoreState{db: db}
}

var supplyKey = []byte("stable/supply")

func positionKey(addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("stable/position/%s/%x", addr.Prefix(), addr.Bytes()))
}

func accountKey(addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("stable/account/%s/%x", addr.Prefix(), addr.Bytes()))
}

// RLP cannot encode maps, so balances are stored as symbol-sorted entry
// lists for deterministic bytes.
type storedBalance struct {
	Symbol string
	Amount *big.Int
}

type storedPosition struct {
	Prefix     string
	Address    []byte
	Collateral []storedBalance
	DebtMinted *big.Int
}

type storedAccount struct {
	Nonce         uint64
	Balances      []storedBalance
	BalanceStable *big.Int
}

func sortedBalances(balances map[string]*big.Int) []storedBalance {
	entries := make([]storedBalance, 0, len(balances))
	for symbol, amount := range balances {
		if amount == nil {
			amount = big.NewInt(0)
		}
		entries = append(entries, storedBalance{Symbol: symbol, Amount: amount})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Symbol < entries[j].Symbol })
	return entries
}

func balanceMap(entries []storedBalance) map[string]*big.Int {
	balances := make(map[string]*big.Int, len(entries))
	for _, entry := range entries {
		amount := entry.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		balances[entry.Symbol] = amount
	}
	return balances
}

// GetPosition implements engineState.
func (s *StoreState) GetPosition(addr crypto.Address) (*Position, error) {
	key := positionKey(addr)
	exists, err := s.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	encoded, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	var stored storedPosition
	if err := rlp.DecodeBytes(encoded, &stored); err != nil {
		return nil, fmt.Errorf("stable store: decode position: %w", err)
	}
	pos := &Position{
		Address:    crypto.NewAddress(crypto.AddressPrefix(stored.Prefix), stored.Address),
		Collateral: balanceMap(stored.Collateral),
		DebtMinted: stored.DebtMinted,
	}
	pos.EnsureDefaults()
	return pos, nil
}

// PutPosition implements engineState.
func (s *StoreState) PutPosition(pos *Position) error {
	pos.EnsureDefaults()
	stored := storedPosition{
		Prefix:     string(pos.Address.Prefix()),
		Address:    pos.Address.Bytes(),
		Collateral: sortedBalances(pos.Collateral),
		DebtMinted: pos.DebtMinted,
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("stable store: encode position: %w", err)
	}
	return s.db.Put(positionKey(pos.Address), encoded)
}

// GetAccount implements engineState.
func (s *StoreState) GetAccount(addr crypto.Address) (*types.Account, error) {
	key := accountKey(addr)
	exists, err := s.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	encoded, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(encoded, &stored); err != nil {
		return nil, fmt.Errorf("stable store: decode account: %w", err)
	}
	acc := &types.Account{
		Nonce:         stored.Nonce,
		Balances:      balanceMap(stored.Balances),
		BalanceStable: stored.BalanceStable,
	}
	acc.EnsureDefaults()
	return acc, nil
}

// PutAccount implements engineState.
func (s *StoreState) PutAccount(addr crypto.Address, acc *types.Account) error {
	acc.EnsureDefaults()
	stored := storedAccount{
		Nonce:         acc.Nonce,
		Balances:      sortedBalances(acc.Balances),
		BalanceStable: acc.BalanceStable,
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("stable store: encode account: %w", err)
	}
	return s.db.Put(accountKey(addr), encoded)
}

// StableSupply implements engineState.
func (s *StoreState) StableSupply() (*big.Int, error) {
	exists, err := s.db.Has(supplyKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	encoded, err := s.db.Get(supplyKey)
	if err != nil {
		return nil, err
	}
	supply := new(big.Int)
	if err := rlp.DecodeBytes(encoded, supply); err != nil {
		return nil, fmt.Errorf("stable store: decode supply: %w", err)
	}
	return supply, nil
}

// PutStableSupply implements engineState.
func (s *StoreState) PutStableSupply(supply *big.Int) error {
	if supply == nil {
		supply = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(supply)
	if err != nil {
		return fmt.Errorf("stable store: encode supply: %w", err)
	}
	return s.db.Put(supplyKey, encoded)
}
