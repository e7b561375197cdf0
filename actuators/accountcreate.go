package actuators

import "github.com/opentron/opentron-sub001/types"

func init() {
	Register(types.ContractTypeAccountCreate, accountCreateActuator{})
}

// AccountCreateParameter is Contract.Parameter for ContractTypeAccountCreate.
type AccountCreateParameter struct {
	AccountAddress types.Address
	Type           types.AccountType
}

type accountCreateActuator struct{}

func (accountCreateActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(AccountCreateParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "account-create: bad parameter type")
	}
	if _, ok, err := ctx.State.GetAccount(p.AccountAddress); err != nil {
		return err
	} else if ok {
		return types.Newf(types.KindPrecondition, "account-create: account %s already exists", p.AccountAddress.Hex())
	}
	ctx.NewAccountCreated = true
	return nil
}

func (accountCreateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(AccountCreateParameter)
	acc := &types.Account{
		Address:       p.AccountAddress,
		Type:          p.Type,
		TokenBalances: map[int64]int64{},
		CreationTime:  ctx.Now,
	}
	return ctx.State.PutAccount(acc)
}
