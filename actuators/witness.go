package actuators

import "github.com/opentron/opentron-sub001/types"

func init() {
	Register(types.ContractTypeWitnessCreate, witnessCreateActuator{})
	Register(types.ContractTypeWitnessUpdate, witnessUpdateActuator{})
}

// WitnessCreateParameter is Contract.Parameter for ContractTypeWitnessCreate.
type WitnessCreateParameter struct {
	URL []byte
}

type witnessCreateActuator struct{}

func (witnessCreateActuator) Validate(ctx *Context, contract *types.Contract) error {
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "witness-create: owner %s does not exist", contract.Owner.Hex())
	}
	if owner.IsWitness {
		return types.Newf(types.KindPrecondition, "witness-create: %s is already a witness", contract.Owner.Hex())
	}
	fee, err := ctx.State.GetParam(types.ParamAccountUpgradeCost)
	if err != nil {
		return err
	}
	if owner.Balance < fee {
		return types.Newf(types.KindResourceExhaustion, "witness-create: insufficient balance for account-upgrade fee")
	}
	return nil
}

func (witnessCreateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(WitnessCreateParameter)
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "witness-create: owner vanished")
	}
	fee, err := ctx.State.GetParam(types.ParamAccountUpgradeCost)
	if err != nil {
		return err
	}
	owner.Balance -= fee
	owner.IsWitness = true
	if err := ctx.State.PutAccount(owner); err != nil {
		return err
	}
	return ctx.State.PutWitness(&types.Witness{
		Address: contract.Owner,
		URL:     string(p.URL),
	})
}

// WitnessUpdateParameter is Contract.Parameter for ContractTypeWitnessUpdate.
type WitnessUpdateParameter struct {
	URL []byte
}

type witnessUpdateActuator struct{}

func (witnessUpdateActuator) Validate(ctx *Context, contract *types.Contract) error {
	_, ok, err := ctx.State.GetWitness(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "witness-update: %s is not a witness", contract.Owner.Hex())
	}
	return nil
}

func (witnessUpdateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(WitnessUpdateParameter)
	w, ok, err := ctx.State.GetWitness(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "witness-update: witness vanished")
	}
	w.URL = string(p.URL)
	return ctx.State.PutWitness(w)
}
