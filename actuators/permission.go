package actuators

import "github.com/opentron/opentron-sub001/types"

func init() {
	Register(types.ContractTypeAccountPermissionUpdate, permissionUpdateActuator{})
}

// AccountPermissionUpdateParameter is Contract.Parameter for
// ContractTypeAccountPermissionUpdate.
type AccountPermissionUpdateParameter struct {
	Owner  types.Permission
	Actives []types.Permission
}

type permissionUpdateActuator struct{}

func (permissionUpdateActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(AccountPermissionUpdateParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "account-permission-update: bad parameter type")
	}
	if _, ok, err := ctx.State.GetAccount(contract.Owner); err != nil {
		return err
	} else if !ok {
		return types.Newf(types.KindPrecondition, "account-permission-update: owner %s does not exist", contract.Owner.Hex())
	}
	if p.Owner.Threshold <= 0 {
		return types.Newf(types.KindMalformedInput, "account-permission-update: owner threshold must be positive")
	}
	for _, active := range p.Actives {
		if active.Threshold <= 0 {
			return types.Newf(types.KindMalformedInput, "account-permission-update: active threshold must be positive")
		}
	}
	fee, err := ctx.State.GetParam(types.ParamUpdateAccountPermissionFee)
	if err != nil {
		return err
	}
	owner, _, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if owner.Balance < fee {
		return types.Newf(types.KindResourceExhaustion, "account-permission-update: insufficient balance for fee")
	}
	return nil
}

func (permissionUpdateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(AccountPermissionUpdateParameter)
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "account-permission-update: owner vanished")
	}
	fee, err := ctx.State.GetParam(types.ParamUpdateAccountPermissionFee)
	if err != nil {
		return err
	}
	owner.Balance -= fee
	owner.OwnerPermission = p.Owner
	owner.ActivePermission = p.Actives
	return ctx.State.PutAccount(owner)
}
