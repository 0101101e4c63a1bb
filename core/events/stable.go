package events

import (
	"math/big"

	"pegcore/core/types"
	"pegcore/crypto"
)

const (
	// TypeCollateralDeposited is emitted when collateral enters engine custody.
	TypeCollateralDeposited = "stable.collateralDeposited"
	// TypeCollateralRedeemed is emitted when collateral leaves engine custody,
	// either back to its owner or to a liquidator.
	TypeCollateralRedeemed = "stable.collateralRedeemed"
	// TypeStableMinted is emitted when stable debt is minted against a position.
	TypeStableMinted = "stable.minted"
	// TypeStableBurned is emitted when stable debt is repaid and destroyed.
	TypeStableBurned = "stable.burned"
	// TypeLiquidation is emitted when a third party liquidates a position.
	TypeLiquidation = "stable.liquidation"
)

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

type CollateralDeposited struct {
	Account crypto.Address
	Asset   string
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeCollateralDeposited,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"asset":   e.Asset,
			"amount":  amountString(e.Amount),
		},
	}
}

// CollateralRedeemed distinguishes the account the collateral was debited
// from and the account it was paid to; the two differ during liquidation.
type CollateralRedeemed struct {
	RedeemedFrom crypto.Address
	RedeemedTo   crypto.Address
	Asset        string
	Amount       *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

func (e CollateralRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeCollateralRedeemed,
		Attributes: map[string]string{
			"redeemedFrom": e.RedeemedFrom.String(),
			"redeemedTo":   e.RedeemedTo.String(),
			"asset":        e.Asset,
			"amount":       amountString(e.Amount),
		},
	}
}

type StableMinted struct {
	Account crypto.Address
	Amount  *big.Int
}

func (StableMinted) EventType() string { return TypeStableMinted }

func (e StableMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeStableMinted,
		Attributes: map[string]string{
			"account": e.Account.String(),
			"amount":  amountString(e.Amount),
		},
	}
}

// StableBurned records the position whose debt was reduced and the account
// that paid the tokens; the two differ during liquidation.
type StableBurned struct {
	OnBehalfOf crypto.Address
	PaidBy     crypto.Address
	Amount     *big.Int
}

func (StableBurned) EventType() string { return TypeStableBurned }

func (e StableBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeStableBurned,
		Attributes: map[string]string{
			"onBehalfOf": e.OnBehalfOf.String(),
			"paidBy":     e.PaidBy.String(),
			"amount":     amountString(e.Amount),
		},
	}
}

type Liquidation struct {
	Liquidator        crypto.Address
	Account           crypto.Address
	Asset             string
	DebtCovered       *big.Int
	CollateralSeized  *big.Int
	HealthFactorAfter *big.Int
}

func (Liquidation) EventType() string { return TypeLiquidation }

func (e Liquidation) Event() *types.Event {
	return &types.Event{
		Type: TypeLiquidation,
		Attributes: map[string]string{
			"liquidator":        e.Liquidator.String(),
			"account":           e.Account.String(),
			"asset":             e.Asset,
			"debtCovered":       amountString(e.DebtCovered),
			"collateralSeized":  amountString(e.CollateralSeized),
			"healthFactorAfter": amountString(e.HealthFactorAfter),
		},
	}
}
