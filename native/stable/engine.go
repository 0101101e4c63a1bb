package stable

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"pegcore/core/events"
	"pegcore/core/types"
	"pegcore/crypto"
	nativecommon "pegcore/native/common"
	"pegcore/observability"
)

var (
	errNilState                = errors.New("stable engine: state not configured")
	ErrInvalidAmount           = errors.New("stable engine: amount must be positive")
	ErrUnsupportedAsset        = errors.New("stable engine: collateral asset not allowed")
	ErrInsufficientCollateral  = errors.New("stable engine: insufficient collateral balance")
	ErrInsufficientDebt        = errors.New("stable engine: burn exceeds outstanding debt")
	ErrTransferFailed          = errors.New("stable engine: token transfer failed")
	ErrMintFailed              = errors.New("stable engine: stable token mint refused")
	ErrBurnFailed              = errors.New("stable engine: stable token burn refused")
	ErrHealthFactorOk          = errors.New("stable engine: account health factor above minimum")
	ErrHealthFactorNotImproved = errors.New("stable engine: liquidation did not improve health factor")
	ErrAssetFeedMismatch       = errors.New("stable engine: asset and feed lists must have equal length")
	ErrDuplicateAsset          = errors.New("stable engine: duplicate collateral asset")
	ErrNoCollateralAssets      = errors.New("stable engine: at least one collateral asset required")
	// ErrBreaksHealthFactor is the match target for solvency failures; the
	// concrete error is a HealthFactorError carrying the computed ratio.
	ErrBreaksHealthFactor = errors.New("stable engine: operation breaks health factor")
)

// HealthFactorError reports a failed solvency check together with the
// computed 1e18-scaled ratio that triggered it.
type HealthFactorError struct {
	HealthFactor *big.Int
}

func (e *HealthFactorError) Error() string {
	return fmt.Sprintf("stable engine: health factor %s below minimum", e.HealthFactor)
}

func (e *HealthFactorError) Unwrap() error { return ErrBreaksHealthFactor }

const moduleName = "stable"

// Engine orchestrates the solvency state transitions: collateral deposits and
// redemptions, stable mint and burn, and third-party liquidation. Every
// operation is all-or-nothing: mutations are staged over the backing state
// and persisted only after all checks pass.
type Engine struct {
	state         engineState
	oracle        *OracleAdapter
	token         *StableToken
	assets        []string
	engineAddress crypto.Address
	vaultAddress  crypto.Address
	guard         opGuard
	pauses        nativecommon.PauseView
	emitter       events.Emitter
	metrics       *observability.StableMetrics
}

// NewEngine constructs the engine over a fixed collateral configuration. The
// assets and feeds lists are parallel; a length mismatch or an empty asset
// set fails before any state exists. The engine address becomes the exclusive
// mint/burn authority of the stable token; the vault address holds deposited
// collateral in custody.
func NewEngine(engineAddr, vaultAddr crypto.Address, assets []string, feeds []PriceFeed, maxPriceAge time.Duration) (*Engine, error) {
	if len(assets) != len(feeds) {
		return nil, ErrAssetFeedMismatch
	}
	if len(assets) == 0 {
		return nil, ErrNoCollateralAssets
	}
	feedMap := make(map[string]PriceFeed, len(assets))
	ordered := make([]string, 0, len(assets))
	for i, asset := range assets {
		if _, exists := feedMap[asset]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, asset)
		}
		feedMap[asset] = feeds[i]
		ordered = append(ordered, asset)
	}
	return &Engine{
		oracle:        NewOracleAdapter(feedMap, maxPriceAge),
		token:         NewStableToken(engineAddr),
		assets:        ordered,
		engineAddress: engineAddr,
		vaultAddress:  vaultAddr,
	}, nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses wires the module pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter wires the audit event sink. Events are emitted only after an
// operation has fully persisted.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	e.emitter = emitter
}

// SetMetrics wires the operation metrics registry.
func (e *Engine) SetMetrics(metrics *observability.StableMetrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// run executes one public operation under the re-entrancy latch and the
// module pause guard. The operation stages all writes; they are flushed to
// the backing state only when it returns without error, so any failure leaves
// no observable state change. Collected events are emitted after the flush.
func (e *Engine) run(operation string, fn func(s *stagedState) ([]events.Event, error)) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard.acquire(); err != nil {
		return err
	}
	defer e.guard.release()

	start := time.Now()
	var collected []events.Event
	err := func() error {
		if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
			return err
		}
		staged := newStagedState(e.state)
		evts, err := fn(staged)
		if err != nil {
			return err
		}
		collected = evts
		return staged.flush()
	}()
	e.metrics.ObserveOperation(operation, err, time.Since(start))
	if err != nil {
		return err
	}
	if e.emitter != nil {
		for _, ev := range collected {
			e.emitter.Emit(ev)
		}
	}
	return nil
}

func (e *Engine) assetAllowed(asset string) bool {
	for _, allowed := range e.assets {
		if allowed == asset {
			return true
		}
	}
	return false
}

func (e *Engine) ensurePosition(s *stagedState, addr crypto.Address) (*Position, error) {
	pos, err := s.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	pos.EnsureDefaults()
	return pos, nil
}

func (e *Engine) loadAccount(s *stagedState, addr crypto.Address) (*types.Account, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

// collateralValueUsd sums the USD value of every allowed asset, including
// zero balances, so valuation never depends on which entries exist.
func (e *Engine) collateralValueUsd(pos *Position) (*big.Int, error) {
	total := big.NewInt(0)
	for _, asset := range e.assets {
		value, err := e.oracle.UsdValue(asset, pos.CollateralAmount(asset))
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

func (e *Engine) healthFactorOf(pos *Position) (*big.Int, error) {
	collateralUsd, err := e.collateralValueUsd(pos)
	if err != nil {
		return nil, err
	}
	return HealthFactor(pos.DebtMinted, collateralUsd), nil
}

// requireHealthy re-validates the position's solvency after a state mutation.
// It is evaluated even on paths where analysis says it cannot fail.
func (e *Engine) requireHealthy(pos *Position) error {
	hf, err := e.healthFactorOf(pos)
	if err != nil {
		return err
	}
	if hf.Cmp(minHealthFactor) < 0 {
		return &HealthFactorError{HealthFactor: hf}
	}
	return nil
}

// depositCollateral pulls amount of the asset from the caller into vault
// custody and credits the caller's position.
func (e *Engine) depositCollateral(s *stagedState, caller crypto.Address, asset string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !e.assetAllowed(asset) {
		return ErrUnsupportedAsset
	}

	pos, err := e.ensurePosition(s, caller)
	if err != nil {
		return err
	}
	creditCollateral(pos, asset, amount)

	callerAcc, err := e.loadAccount(s, caller)
	if err != nil {
		return err
	}
	if callerAcc.Balance(asset).Cmp(amount) < 0 {
		return ErrTransferFailed
	}
	vaultAcc, err := e.loadAccount(s, e.vaultAddress)
	if err != nil {
		return err
	}
	callerAcc.SetBalance(asset, new(big.Int).Sub(callerAcc.Balance(asset), amount))
	vaultAcc.SetBalance(asset, new(big.Int).Add(vaultAcc.Balance(asset), amount))

	if err := s.PutPosition(pos); err != nil {
		return err
	}
	if err := s.PutAccount(caller, callerAcc); err != nil {
		return err
	}
	return s.PutAccount(e.vaultAddress, vaultAcc)
}

// redeemCollateral debits amount of the asset from the from position and
// pushes it out of vault custody to the to account. Callers are responsible
// for the post-redemption health check.
func (e *Engine) redeemCollateral(s *stagedState, from, to crypto.Address, asset string, amount *big.Int) (*Position, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.assetAllowed(asset) {
		return nil, ErrUnsupportedAsset
	}

	pos, err := e.ensurePosition(s, from)
	if err != nil {
		return nil, err
	}
	if err := debitCollateral(pos, asset, amount); err != nil {
		return nil, err
	}

	vaultAcc, err := e.loadAccount(s, e.vaultAddress)
	if err != nil {
		return nil, err
	}
	if vaultAcc.Balance(asset).Cmp(amount) < 0 {
		return nil, ErrTransferFailed
	}
	toAcc, err := e.loadAccount(s, to)
	if err != nil {
		return nil, err
	}
	vaultAcc.SetBalance(asset, new(big.Int).Sub(vaultAcc.Balance(asset), amount))
	toAcc.SetBalance(asset, new(big.Int).Add(toAcc.Balance(asset), amount))

	if err := s.PutPosition(pos); err != nil {
		return nil, err
	}
	if err := s.PutAccount(e.vaultAddress, vaultAcc); err != nil {
		return nil, err
	}
	if err := s.PutAccount(to, toAcc); err != nil {
		return nil, err
	}
	return pos, nil
}

// mintStable credits debt to the caller's position, validates solvency and
// mints the pegged tokens to the caller.
func (e *Engine) mintStable(s *stagedState, caller crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pos, err := e.ensurePosition(s, caller)
	if err != nil {
		return err
	}
	creditDebt(pos, amount)
	if err := e.requireHealthy(pos); err != nil {
		return err
	}

	callerAcc, err := e.loadAccount(s, caller)
	if err != nil {
		return err
	}
	supply, err := s.StableSupply()
	if err != nil {
		return err
	}
	newSupply, err := e.token.Mint(e.engineAddress, callerAcc, supply, amount)
	if err != nil {
		return ErrMintFailed
	}

	if err := s.PutPosition(pos); err != nil {
		return err
	}
	if err := s.PutAccount(caller, callerAcc); err != nil {
		return err
	}
	return s.PutStableSupply(newSupply)
}

// burnStable debits debt from the onBehalfOf position, pulls the pegged
// tokens from the payer and destroys them.
func (e *Engine) burnStable(s *stagedState, onBehalfOf, payer crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pos, err := e.ensurePosition(s, onBehalfOf)
	if err != nil {
		return err
	}
	if err := debitDebt(pos, amount); err != nil {
		return err
	}

	payerAcc, err := e.loadAccount(s, payer)
	if err != nil {
		return err
	}
	supply, err := s.StableSupply()
	if err != nil {
		return err
	}
	newSupply, err := e.token.Burn(e.engineAddress, payerAcc, supply, amount)
	if err != nil {
		if errors.Is(err, errTokenBalance) {
			return ErrTransferFailed
		}
		return ErrBurnFailed
	}

	// Burning debt can only improve the ratio; the check stays regardless.
	if err := e.requireHealthy(pos); err != nil {
		return err
	}

	if err := s.PutPosition(pos); err != nil {
		return err
	}
	if err := s.PutAccount(payer, payerAcc); err != nil {
		return err
	}
	return s.PutStableSupply(newSupply)
}

// DepositCollateral pulls amount of the allowed asset from the caller into
// engine custody and credits the caller's collateral ledger.
func (e *Engine) DepositCollateral(caller crypto.Address, asset string, amount *big.Int) error {
	return e.run("deposit_collateral", func(s *stagedState) ([]events.Event, error) {
		if err := e.depositCollateral(s, caller, asset, amount); err != nil {
			return nil, err
		}
		return []events.Event{events.CollateralDeposited{Account: caller, Asset: asset, Amount: amount}}, nil
	})
}

// RedeemCollateral releases amount of the asset back to the caller, provided
// the remaining position stays above the minimum health factor.
func (e *Engine) RedeemCollateral(caller crypto.Address, asset string, amount *big.Int) error {
	return e.run("redeem_collateral", func(s *stagedState) ([]events.Event, error) {
		pos, err := e.redeemCollateral(s, caller, caller, asset, amount)
		if err != nil {
			return nil, err
		}
		if err := e.requireHealthy(pos); err != nil {
			return nil, err
		}
		return []events.Event{events.CollateralRedeemed{RedeemedFrom: caller, RedeemedTo: caller, Asset: asset, Amount: amount}}, nil
	})
}

// MintStable mints amount of the pegged token to the caller, provided the
// resulting position stays above the minimum health factor.
func (e *Engine) MintStable(caller crypto.Address, amount *big.Int) error {
	return e.run("mint_stable", func(s *stagedState) ([]events.Event, error) {
		if err := e.mintStable(s, caller, amount); err != nil {
			return nil, err
		}
		return []events.Event{events.StableMinted{Account: caller, Amount: amount}}, nil
	})
}

// BurnStable repays amount of the caller's debt, destroying the tokens.
func (e *Engine) BurnStable(caller crypto.Address, amount *big.Int) error {
	return e.run("burn_stable", func(s *stagedState) ([]events.Event, error) {
		if err := e.burnStable(s, caller, caller, amount); err != nil {
			return nil, err
		}
		return []events.Event{events.StableBurned{OnBehalfOf: caller, PaidBy: caller, Amount: amount}}, nil
	})
}

// DepositCollateralAndMint composes a deposit and a mint into one atomic
// operation; each primitive applies its own checks.
func (e *Engine) DepositCollateralAndMint(caller crypto.Address, asset string, collateralAmount, debtAmount *big.Int) error {
	return e.run("deposit_and_mint", func(s *stagedState) ([]events.Event, error) {
		if err := e.depositCollateral(s, caller, asset, collateralAmount); err != nil {
			return nil, err
		}
		if err := e.mintStable(s, caller, debtAmount); err != nil {
			return nil, err
		}
		return []events.Event{
			events.CollateralDeposited{Account: caller, Asset: asset, Amount: collateralAmount},
			events.StableMinted{Account: caller, Amount: debtAmount},
		}, nil
	})
}

// RedeemCollateralForStable composes a burn and a redemption into one atomic
// operation.
func (e *Engine) RedeemCollateralForStable(caller crypto.Address, asset string, collateralAmount, debtAmount *big.Int) error {
	return e.run("redeem_for_stable", func(s *stagedState) ([]events.Event, error) {
		if err := e.burnStable(s, caller, caller, debtAmount); err != nil {
			return nil, err
		}
		pos, err := e.redeemCollateral(s, caller, caller, asset, collateralAmount)
		if err != nil {
			return nil, err
		}
		if err := e.requireHealthy(pos); err != nil {
			return nil, err
		}
		return []events.Event{
			events.StableBurned{OnBehalfOf: caller, PaidBy: caller, Amount: debtAmount},
			events.CollateralRedeemed{RedeemedFrom: caller, RedeemedTo: caller, Asset: asset, Amount: collateralAmount},
		}, nil
	})
}

// Liquidate lets a third party repay debtToCover (a USD-denominated debt
// amount) of an under-collateralized account in exchange for the equivalent
// collateral plus the liquidation bonus. The target's health factor must
// strictly improve and the liquidator's own position must stay solvent.
func (e *Engine) Liquidate(liquidator, account crypto.Address, asset string, debtToCover *big.Int) error {
	err := e.run("liquidate", func(s *stagedState) ([]events.Event, error) {
		if debtToCover == nil || debtToCover.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		if !e.assetAllowed(asset) {
			return nil, ErrUnsupportedAsset
		}

		targetPos, err := e.ensurePosition(s, account)
		if err != nil {
			return nil, err
		}
		startingHF, err := e.healthFactorOf(targetPos)
		if err != nil {
			return nil, err
		}
		if startingHF.Cmp(minHealthFactor) >= 0 {
			return nil, ErrHealthFactorOk
		}

		tokenAmount, err := e.oracle.TokenAmountFromUsd(asset, debtToCover)
		if err != nil {
			return nil, err
		}
		bonus := new(big.Int).Mul(tokenAmount, liquidationBonus)
		bonus.Quo(bonus, liquidationPrecision)
		seizeAmount := new(big.Int).Add(tokenAmount, bonus)

		pos, err := e.redeemCollateral(s, account, liquidator, asset, seizeAmount)
		if err != nil {
			return nil, err
		}
		if err := e.burnStable(s, account, liquidator, debtToCover); err != nil {
			return nil, err
		}

		endingHF, err := e.healthFactorOf(pos)
		if err != nil {
			return nil, err
		}
		if endingHF.Cmp(startingHF) <= 0 {
			return nil, ErrHealthFactorNotImproved
		}

		liquidatorPos, err := e.ensurePosition(s, liquidator)
		if err != nil {
			return nil, err
		}
		if err := e.requireHealthy(liquidatorPos); err != nil {
			return nil, err
		}

		return []events.Event{
			events.CollateralRedeemed{RedeemedFrom: account, RedeemedTo: liquidator, Asset: asset, Amount: seizeAmount},
			events.StableBurned{OnBehalfOf: account, PaidBy: liquidator, Amount: debtToCover},
			events.Liquidation{
				Liquidator:        liquidator,
				Account:           account,
				Asset:             asset,
				DebtCovered:       debtToCover,
				CollateralSeized:  seizeAmount,
				HealthFactorAfter: endingHF,
			},
		}, nil
	})
	if err == nil {
		e.metrics.ObserveLiquidation()
	}
	return err
}

// --- Read-only surface ---
//
// Getters accept any reachable state: untouched accounts read as zero
// positions. They can only propagate a storage backend failure.

// CollateralAssets returns the configured allow-list in construction order.
func (e *Engine) CollateralAssets() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.assets...)
}

// Oracle exposes the price adapter for conversions and feed inspection.
func (e *Engine) Oracle() *OracleAdapter {
	if e == nil {
		return nil
	}
	return e.oracle
}

// TokenAuthority returns the exclusive mint/burn authority of the stable
// token.
func (e *Engine) TokenAuthority() crypto.Address {
	return e.token.Authority()
}

// VaultAddress returns the custody address holding deposited collateral.
func (e *Engine) VaultAddress() crypto.Address {
	return e.vaultAddress
}

// CollateralBalance returns the amount of the asset deposited by the account.
func (e *Engine) CollateralBalance(addr crypto.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(pos.CollateralAmount(asset)), nil
}

// DebtMinted returns the stable debt minted against the account.
func (e *Engine) DebtMinted(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if pos == nil || pos.DebtMinted == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(pos.DebtMinted), nil
}

// AccountInformation returns the account's minted debt and aggregate
// collateral value in USD.
func (e *Engine) AccountInformation(addr crypto.Address) (*big.Int, *big.Int, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	pos, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, nil, err
	}
	if pos == nil {
		pos = &Position{Address: addr}
	}
	pos.EnsureDefaults()
	collateralUsd, err := e.collateralValueUsd(pos)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Set(pos.DebtMinted), collateralUsd, nil
}

// AccountHealthFactor returns the account's current 1e18-scaled health
// factor.
func (e *Engine) AccountHealthFactor(addr crypto.Address) (*big.Int, error) {
	debt, collateralUsd, err := e.AccountInformation(addr)
	if err != nil {
		return nil, err
	}
	return HealthFactor(debt, collateralUsd), nil
}

// UsdValue converts an asset amount into USD at the current feed price.
func (e *Engine) UsdValue(asset string, amount *big.Int) (*big.Int, error) {
	return e.oracle.UsdValue(asset, amount)
}

// TokenAmountFromUsd converts a USD amount into the asset amount it buys at
// the current feed price.
func (e *Engine) TokenAmountFromUsd(asset string, usd *big.Int) (*big.Int, error) {
	return e.oracle.TokenAmountFromUsd(asset, usd)
}

// StableSupply returns the total pegged-token supply.
func (e *Engine) StableSupply() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	supply, err := e.state.StableSupply()
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(supply), nil
}

// StableBalance returns the account's pegged-token balance.
func (e *Engine) StableBalance(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.BalanceStable == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(acc.BalanceStable), nil
}

// AssetBalance returns the account's externally-held balance of the asset.
func (e *Engine) AssetBalance(addr crypto.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(acc.Balance(asset)), nil
}
