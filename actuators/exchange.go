package actuators

import (
	"math/big"

	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeExchangeCreate, exchangeCreateActuator{})
	Register(types.ContractTypeExchangeInject, exchangeInjectActuator{})
	Register(types.ContractTypeExchangeWithdraw, exchangeWithdrawActuator{})
	Register(types.ContractTypeExchangeTransaction, exchangeTransactionActuator{})
}

// exchangeBalanceLimit is a cap on a single exchange pool's token balance
// (ported constant from the reference exchange actuator); no actuator in
// this file checks a balance against it.
const exchangeBalanceLimit = 1_000_000_000_000_000

// ratio computes floor(a*b/c) using arbitrary precision, the Go equivalent
// of the reference actuator's i128 arithmetic (no dedicated 128-bit integer
// type exists in the standard library).
func ratio(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	r := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	r.Quo(r, big.NewInt(c))
	return r.Int64()
}

// ExchangeCreateParameter is Contract.Parameter for ContractTypeExchangeCreate.
type ExchangeCreateParameter struct {
	FirstTokenID        int64 // 0 denotes TRX
	FirstTokenBalance   int64
	SecondTokenID       int64
	SecondTokenBalance  int64
}

type exchangeCreateActuator struct{}

func (exchangeCreateActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ExchangeCreateParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "exchange-create: bad parameter type")
	}
	if p.FirstTokenID == p.SecondTokenID {
		return types.Newf(types.KindPrecondition, "exchange-create: cannot exchange the same token with itself")
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "exchange-create: owner %s does not exist", contract.Owner.Hex())
	}
	fee, err := ctx.State.GetParam(types.ParamExchangeCreateFee)
	if err != nil {
		return err
	}
	if err := checkTokenHeld(owner, p.FirstTokenID, p.FirstTokenBalance, fee); err != nil {
		return err
	}
	if err := checkTokenHeld(owner, p.SecondTokenID, p.SecondTokenBalance, 0); err != nil {
		return err
	}
	return nil
}

func checkTokenHeld(owner *types.Account, tokenID, amount, extraTRXFee int64) error {
	if tokenID == 0 {
		if owner.Balance < amount+extraTRXFee {
			return types.Newf(types.KindResourceExhaustion, "exchange-create: insufficient TRX balance")
		}
		return nil
	}
	if owner.TokenBalances[tokenID] < amount {
		return types.Newf(types.KindResourceExhaustion, "exchange-create: insufficient token balance")
	}
	return nil
}

func (exchangeCreateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ExchangeCreateParameter)
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-create: owner vanished")
	}

	fee, err := ctx.State.GetParam(types.ParamExchangeCreateFee)
	if err != nil {
		return err
	}
	debitToken(owner, p.FirstTokenID, p.FirstTokenBalance)
	debitToken(owner, p.SecondTokenID, p.SecondTokenBalance)
	owner.Balance -= fee

	id := assetIDFromHash(ctx.TxHash)
	exch := &types.Exchange{
		ID:                 id,
		Creator:            contract.Owner,
		CreateTime:         ctx.Now,
		FirstTokenID:       p.FirstTokenID,
		FirstTokenBalance:  p.FirstTokenBalance,
		SecondTokenID:      p.SecondTokenID,
		SecondTokenBalance: p.SecondTokenBalance,
	}
	if err := ctx.State.PutExchange(exch); err != nil {
		return err
	}
	return ctx.State.PutAccount(owner)
}

func debitToken(acc *types.Account, tokenID, amount int64) {
	if tokenID == 0 {
		acc.Balance -= amount
	} else {
		acc.TokenBalances[tokenID] -= amount
	}
}

func creditToken(acc *types.Account, tokenID, amount int64) {
	if tokenID == 0 {
		acc.Balance += amount
	} else {
		acc.TokenBalances[tokenID] += amount
	}
}

// ExchangeInjectParameter is Contract.Parameter for ContractTypeExchangeInject.
type ExchangeInjectParameter struct {
	ExchangeID int64
	TokenID    int64
	Quant      int64
}

type exchangeInjectActuator struct{}

func (exchangeInjectActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ExchangeInjectParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "exchange-inject: bad parameter type")
	}
	if p.Quant <= 0 {
		return types.Newf(types.KindMalformedInput, "exchange-inject: quant must be positive")
	}
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "exchange-inject: exchange %d not found", p.ExchangeID)
	}
	if exch.Creator != contract.Owner {
		return types.Newf(types.KindAuthorizationFailure, "exchange-inject: exchange not created by owner")
	}
	if exch.FirstTokenBalance == 0 || exch.SecondTokenBalance == 0 {
		return types.Newf(types.KindPrecondition, "exchange-inject: exchange has no liquidity")
	}
	_, otherAmount, err := exchangeCounterpart(exch, p.TokenID, p.Quant)
	if err != nil {
		return err
	}
	if otherAmount <= 0 {
		return types.Newf(types.KindPrecondition, "exchange-inject: inject amount must be positive")
	}
	return nil
}

func (exchangeInjectActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ExchangeInjectParameter)
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-inject: exchange vanished")
	}
	otherID, otherAmount, err := exchangeCounterpart(exch, p.TokenID, p.Quant)
	if err != nil {
		return err
	}
	applyExchangeDelta(exch, p.TokenID, p.Quant, otherID, otherAmount)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-inject: owner vanished")
	}
	debitToken(owner, p.TokenID, p.Quant)
	debitToken(owner, otherID, otherAmount)

	if err := ctx.State.PutExchange(exch); err != nil {
		return err
	}
	return ctx.State.PutAccount(owner)
}

// ExchangeWithdrawParameter is Contract.Parameter for ContractTypeExchangeWithdraw.
type ExchangeWithdrawParameter struct {
	ExchangeID int64
	TokenID    int64
	Quant      int64
}

type exchangeWithdrawActuator struct{}

func (exchangeWithdrawActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ExchangeWithdrawParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "exchange-withdraw: bad parameter type")
	}
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "exchange-withdraw: exchange %d not found", p.ExchangeID)
	}
	if exch.Creator != contract.Owner {
		return types.Newf(types.KindAuthorizationFailure, "exchange-withdraw: exchange not created by owner")
	}
	poolBalance, _ := exchangeSide(exch, p.TokenID)
	if poolBalance < p.Quant {
		return types.Newf(types.KindResourceExhaustion, "exchange-withdraw: insufficient token balance in exchange")
	}
	return nil
}

func (exchangeWithdrawActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ExchangeWithdrawParameter)
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-withdraw: exchange vanished")
	}
	otherID, otherAmount, err := exchangeCounterpart(exch, p.TokenID, p.Quant)
	if err != nil {
		return err
	}
	applyExchangeDelta(exch, p.TokenID, -p.Quant, otherID, -otherAmount)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-withdraw: owner vanished")
	}
	creditToken(owner, p.TokenID, p.Quant)
	creditToken(owner, otherID, otherAmount)

	if err := ctx.State.PutExchange(exch); err != nil {
		return err
	}
	return ctx.State.PutAccount(owner)
}

// ExchangeTransactionParameter is Contract.Parameter for
// ContractTypeExchangeTransaction: a swap against the pool.
type ExchangeTransactionParameter struct {
	ExchangeID int64
	TokenID    int64
	Quant      int64
}

type exchangeTransactionActuator struct{}

func (exchangeTransactionActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ExchangeTransactionParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "exchange-transaction: bad parameter type")
	}
	if p.Quant <= 0 {
		return types.Newf(types.KindMalformedInput, "exchange-transaction: quant must be positive")
	}
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "exchange-transaction: exchange %d not found", p.ExchangeID)
	}
	poolBalance, _ := exchangeSide(exch, p.TokenID)
	if poolBalance < p.Quant {
		return types.Newf(types.KindResourceExhaustion, "exchange-transaction: insufficient token balance in exchange")
	}
	_, otherAmount, err := exchangeCounterpart(exch, p.TokenID, p.Quant)
	if err != nil {
		return err
	}
	if otherAmount <= 0 {
		return types.Newf(types.KindPrecondition, "exchange-transaction: withdrawal amount must be greater than 0")
	}
	return nil
}

func (exchangeTransactionActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ExchangeTransactionParameter)
	exch, ok, err := ctx.State.GetExchange(p.ExchangeID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-transaction: exchange vanished")
	}
	otherID, otherAmount, err := exchangeCounterpart(exch, p.TokenID, p.Quant)
	if err != nil {
		return err
	}
	applyExchangeDelta(exch, p.TokenID, p.Quant, otherID, -otherAmount)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "exchange-transaction: owner vanished")
	}
	debitToken(owner, p.TokenID, p.Quant)
	creditToken(owner, otherID, otherAmount)

	if err := ctx.State.PutExchange(exch); err != nil {
		return err
	}
	return ctx.State.PutAccount(owner)
}

// exchangeSide returns the pool-side balance for tokenID.
func exchangeSide(exch *types.Exchange, tokenID int64) (int64, bool) {
	if tokenID == exch.FirstTokenID {
		return exch.FirstTokenBalance, true
	}
	if tokenID == exch.SecondTokenID {
		return exch.SecondTokenBalance, false
	}
	return 0, false
}

// exchangeCounterpart is the proportional ratio math shared by
// inject/withdraw/transaction (ported from the reference actuator's i128
// arithmetic): quant scaled by the pool's other-side/this-side balances.
func exchangeCounterpart(exch *types.Exchange, tokenID, quant int64) (otherID, otherAmount int64, err error) {
	switch tokenID {
	case exch.FirstTokenID:
		return exch.SecondTokenID, ratio(exch.SecondTokenBalance, quant, exch.FirstTokenBalance), nil
	case exch.SecondTokenID:
		return exch.FirstTokenID, ratio(exch.FirstTokenBalance, quant, exch.SecondTokenBalance), nil
	default:
		return 0, 0, types.Newf(types.KindPrecondition, "exchange: token %d is not in the exchange", tokenID)
	}
}

// applyExchangeDelta mutates the pool's two balances by deltaA/deltaB for
// tokenA/tokenB respectively.
func applyExchangeDelta(exch *types.Exchange, tokenA, deltaA, tokenB, deltaB int64) {
	applyExchangeSideDelta(exch, tokenA, deltaA)
	applyExchangeSideDelta(exch, tokenB, deltaB)
}

func applyExchangeSideDelta(exch *types.Exchange, tokenID, delta int64) {
	if tokenID == exch.FirstTokenID {
		exch.FirstTokenBalance += delta
	} else if tokenID == exch.SecondTokenID {
		exch.SecondTokenBalance += delta
	}
}
