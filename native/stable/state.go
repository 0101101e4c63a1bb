package stable

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"pegcore/core/types"
	"pegcore/crypto"
)

// engineState is the persistence boundary for the solvency engine. A nil
// result from the getters means the record does not exist yet; the engine
// fills in zero-valued defaults.
type engineState interface {
	GetPosition(addr crypto.Address) (*Position, error)
	PutPosition(pos *Position) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, acc *types.Account) error
	StableSupply() (*big.Int, error)
	PutStableSupply(supply *big.Int) error
}

// stagedState buffers writes over a backing state so an aborted operation
// leaves the backing state untouched. Reads fall through to the backing
// state and are cloned into the buffer, so mutations never reach backing
// records before flush; writes land in the buffer until flush.
type stagedState struct {
	backing   engineState
	positions map[string]*Position
	accounts  map[string]*types.Account
	supply    *big.Int
}

func newStagedState(backing engineState) *stagedState {
	return &stagedState{
		backing:   backing,
		positions: make(map[string]*Position),
		accounts:  make(map[string]*types.Account),
	}
}

func stateKey(addr crypto.Address) string {
	return fmt.Sprintf("%s/%x", addr.Prefix(), addr.Bytes())
}

func (s *stagedState) GetPosition(addr crypto.Address) (*Position, error) {
	if pos, ok := s.positions[stateKey(addr)]; ok {
		return pos, nil
	}
	pos, err := s.backing.GetPosition(addr)
	if err != nil || pos == nil {
		return nil, err
	}
	clone := pos.Clone()
	s.positions[stateKey(addr)] = clone
	return clone, nil
}

func (s *stagedState) PutPosition(pos *Position) error {
	s.positions[stateKey(pos.Address)] = pos
	return nil
}

func (s *stagedState) GetAccount(addr crypto.Address) (*types.Account, error) {
	if acc, ok := s.accounts[stateKey(addr)]; ok {
		return acc, nil
	}
	acc, err := s.backing.GetAccount(addr)
	if err != nil || acc == nil {
		return nil, err
	}
	clone := acc.Clone()
	s.accounts[stateKey(addr)] = clone
	return clone, nil
}

func (s *stagedState) PutAccount(addr crypto.Address, acc *types.Account) error {
	s.accounts[stateKey(addr)] = acc
	return nil
}

func (s *stagedState) StableSupply() (*big.Int, error) {
	if s.supply != nil {
		return s.supply, nil
	}
	supply, err := s.backing.StableSupply()
	if err != nil {
		return nil, err
	}
	if supply == nil {
		supply = big.NewInt(0)
	}
	return new(big.Int).Set(supply), nil
}

func (s *stagedState) PutStableSupply(supply *big.Int) error {
	s.supply = supply
	return nil
}

// flush persists every buffered write to the backing state.
func (s *stagedState) flush() error {
	for _, pos := range s.positions {
		if err := s.backing.PutPosition(pos); err != nil {
			return err
		}
	}
	for key, acc := range s.accounts {
		addr, err := addressFromStateKey(key)
		if err != nil {
			return err
		}
		if err := s.backing.PutAccount(addr, acc); err != nil {
			return err
		}
	}
	if s.supply != nil {
		if err := s.backing.PutStableSupply(s.supply); err != nil {
			return err
		}
	}
	return nil
}

func addressFromStateKey(key string) (crypto.Address, error) {
	prefix, encoded, found := strings.Cut(key, "/")
	if !found || prefix == "" {
		return crypto.Address{}, fmt.Errorf("stable state: malformed key %q", key)
	}
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) != 20 {
		return crypto.Address{}, fmt.Errorf("stable state: malformed key %q", key)
	}
	return crypto.NewAddress(crypto.AddressPrefix(prefix), raw), nil
}
