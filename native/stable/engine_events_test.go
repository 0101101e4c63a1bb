package stable

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"pegcore/core/events"
	"pegcore/crypto"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(ev events.Event) {
	c.events = append(c.events, ev)
}

func TestSuccessfulOperationsEmitEvents(t *testing.T) {
	engine, state, _ := newTestEngine(t, map[string]*big.Int{assetWETH: e8(2000)})
	sink := &captureEmitter{}
	engine.SetEmitter(sink)
	caller := makeAddress(crypto.AccountPrefix, 0x10)
	fundAccount(state, caller, assetWETH, e18(10))

	if err := engine.DepositCollateral(caller, assetWETH, e18(4)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	deposited, ok := sink.events[0].(events.CollateralDeposited)
	if !ok {
		t.Fatalf("unexpected event type %T", sink.events[0])
	}
	if deposited.Asset != assetWETH || deposited.Amount.Cmp(e18(4)) != 0 {
		t.Fatalf("unexpected event payload: %+v", deposited)
	}
	if deposited.Account.String() != caller.String() {
		t.Fatalf("unexpected event account: %s", deposited.Account)
	}

	sink.events = nil
	if err := engine.DepositCollateralAndMint(caller, assetWETH, e18(6), e18(5000)); err != nil {
		t.Fatalf("deposit and mint: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected two events, got %d", len(sink.events))
	}
	if sink.events[0].EventType() != events.TypeCollateralDeposited {
		t.Fatalf("unexpected first event: %s", sink.events[0].EventType())
	}
	minted, ok := sink.events[1].(events.StableMinted)
	if !ok {
		t.Fatalf("unexpected second event type %T", sink.events[1])
	}
	if minted.Amount.Cmp(e18(5000)) != 0 {
		t.Fatalf("unexpected minted amount: %s", minted.Amount)
	}
}

func TestAbortedOperationsEmitNothing(t *testing.T) {
	engine, state, _ := newTestEngine(t, map[string]*big.Int{assetWETH: e8(2000)})
	sink := &captureEmitter{}
	engine.SetEmitter(sink)
	caller := makeAddress(crypto.AccountPrefix, 0x10)
	fundAccount(state, caller, assetWETH, e18(10))

	if err := engine.DepositCollateral(caller, assetWETH, e18(50)); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if err := engine.DepositCollateralAndMint(caller, assetWETH, e18(10), e18(10001)); !errors.Is(err, ErrBreaksHealthFactor) {
		t.Fatalf("expected ErrBreaksHealthFactor, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("aborted operations emitted %d events", len(sink.events))
	}
}

func TestLiquidationEmitsAuditTrail(t *testing.T) {
	engine, state, feeds := newTestEngine(t, map[string]*big.Int{assetWETH: e8(2000)})
	target, liquidator := seedPositions(t, engine, state, e18(900), e18(10), e18(500))
	sink := &captureEmitter{}
	engine.SetEmitter(sink)

	feeds[assetWETH].SetPrice(e8(1500), time.Now())
	if err := engine.Liquidate(liquidator, target, assetWETH, e18(300)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	if len(sink.events) != 3 {
		t.Fatalf("expected three events, got %d", len(sink.events))
	}
	redeemed, ok := sink.events[0].(events.CollateralRedeemed)
	if !ok {
		t.Fatalf("unexpected first event type %T", sink.events[0])
	}
	if redeemed.RedeemedFrom.String() != target.String() || redeemed.RedeemedTo.String() != liquidator.String() {
		t.Fatalf("unexpected redemption parties: %+v", redeemed)
	}
	burned, ok := sink.events[1].(events.StableBurned)
	if !ok {
		t.Fatalf("unexpected second event type %T", sink.events[1])
	}
	if burned.OnBehalfOf.String() != target.String() || burned.PaidBy.String() != liquidator.String() {
		t.Fatalf("unexpected burn parties: %+v", burned)
	}
	liquidation, ok := sink.events[2].(events.Liquidation)
	if !ok {
		t.Fatalf("unexpected third event type %T", sink.events[2])
	}
	if liquidation.DebtCovered.Cmp(e18(300)) != 0 {
		t.Fatalf("unexpected covered debt: %s", liquidation.DebtCovered)
	}
	if liquidation.CollateralSeized.Cmp(mustBigInt("220000000000000000")) != 0 {
		t.Fatalf("unexpected seizure: %s", liquidation.CollateralSeized)
	}
}
