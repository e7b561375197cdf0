package actuators

import (
	"github.com/opentron/opentron-sub001/reward"
	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeWithdrawBalance, withdrawBalanceActuator{})
}

type withdrawBalanceActuator struct{}

func (withdrawBalanceActuator) Validate(ctx *Context, contract *types.Contract) error {
	_, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "withdraw-balance: account %s does not exist", contract.Owner.Hex())
	}
	return nil
}

func (withdrawBalanceActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	amount, err := reward.WithdrawBalance(ctx.State, contract.Owner, ctx.Now)
	if err != nil {
		return err
	}
	receipt.WithdrawAmount = amount
	return nil
}
