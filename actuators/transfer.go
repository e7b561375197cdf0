package actuators

import "github.com/opentron/opentron-sub001/types"

func init() {
	Register(types.ContractTypeTransfer, transferActuator{})
}

// TransferParameter is Contract.Parameter for ContractTypeTransfer.
type TransferParameter struct {
	ToAddress types.Address
	Amount    int64
}

type transferActuator struct{}

func (transferActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(TransferParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "transfer: bad parameter type")
	}
	if contract.Owner == p.ToAddress {
		return types.Newf(types.KindPrecondition, "transfer: owner and recipient must differ")
	}
	if p.Amount <= 0 {
		return types.Newf(types.KindMalformedInput, "transfer: amount must be positive")
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "transfer: owner account %s does not exist", contract.Owner.Hex())
	}
	if owner.Balance < p.Amount {
		return types.Newf(types.KindResourceExhaustion, "transfer: insufficient balance")
	}

	recipient, ok, err := ctx.State.GetAccount(p.ToAddress)
	if err != nil {
		return err
	}
	if !ok {
		ctx.NewAccountCreated = true
	} else if recipient.Type == types.AccountTypeContract {
		forbid, err := ctx.State.GetParam(types.ParamForbidTransferToContract)
		if err != nil {
			return err
		}
		if forbid != 0 {
			return types.Newf(types.KindAuthorizationFailure, "transfer: transfers to contracts are forbidden")
		}
	}
	return nil
}

func (transferActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(TransferParameter)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "transfer: owner vanished between validate and execute")
	}
	owner.Balance -= p.Amount
	if err := ctx.State.PutAccount(owner); err != nil {
		return err
	}

	recipient, ok, err := ctx.State.GetAccount(p.ToAddress)
	if err != nil {
		return err
	}
	if !ok {
		recipient = &types.Account{
			Address:       p.ToAddress,
			Type:          types.AccountTypeNormal,
			TokenBalances: map[int64]int64{},
			CreationTime:  ctx.Now,
		}
	}
	recipient.Balance += p.Amount
	return ctx.State.PutAccount(recipient)
}
