package actuators

import (
	"time"

	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeProposalCreate, proposalCreateActuator{})
	Register(types.ContractTypeProposalApprove, proposalApproveActuator{})
	Register(types.ContractTypeProposalDelete, proposalDeleteActuator{})
}

// ProposalCreateParameter is Contract.Parameter for ContractTypeProposalCreate.
type ProposalCreateParameter struct {
	ID             int64
	Parameters     map[int64]int64
	ExpirationTime int64 // unix-millis
}

type proposalCreateActuator struct{}

func (proposalCreateActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ProposalCreateParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "proposal-create: bad parameter type")
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok || !owner.IsWitness {
		return types.Newf(types.KindAuthorizationFailure, "proposal-create: proposer must be a witness")
	}
	if _, exists, err := ctx.State.GetProposal(p.ID); err != nil {
		return err
	} else if exists {
		return types.Newf(types.KindPrecondition, "proposal-create: proposal %d already exists", p.ID)
	}
	for paramID, value := range p.Parameters {
		if err := checkParamRange(types.ParamID(paramID), value); err != nil {
			return err
		}
		if err := checkFeatureGate(ctx, types.ParamID(paramID)); err != nil {
			return err
		}
	}
	return nil
}

// checkParamRange enforces spec §4.6 "each parameter change is type-checked
// against its range".
func checkParamRange(id types.ParamID, value int64) error {
	r, ok := types.ParamRanges[id]
	if !ok {
		return nil
	}
	if value < r.Min || value > r.Max {
		return types.Newf(types.KindPrecondition, "proposal-create: parameter %d value %d out of range [%d,%d]", id, value, r.Min, r.Max)
	}
	return nil
}

// checkFeatureGate enforces spec §4.6's fork-gate table: a gate cannot be
// proposed before its prerequisites are already enabled, and the current
// block version must meet the gate's minimum.
func checkFeatureGate(ctx *Context, id types.ParamID) error {
	for _, gate := range types.FeatureGates {
		if gate.Param != id {
			continue
		}
		if types.CurrentBlockVersion < gate.MinVersion {
			return types.Newf(types.KindPrecondition, "proposal-create: gate requires block version >= %d", gate.MinVersion)
		}
		for _, req := range gate.Requires {
			v, err := ctx.State.GetParam(req)
			if err != nil {
				return err
			}
			if v == 0 {
				return types.Newf(types.KindPrecondition, "proposal-create: gate requires parameter %d to be enabled first", req)
			}
		}
	}
	return nil
}

func (proposalCreateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ProposalCreateParameter)
	proposal := &types.Proposal{
		ID:             p.ID,
		Proposer:       contract.Owner,
		Parameters:     p.Parameters,
		CreationTime:   ctx.Now,
		ExpirationTime: time.UnixMilli(p.ExpirationTime).UTC(),
		Approvers:      map[types.Address]bool{},
		State:          types.ProposalPending,
	}
	return ctx.State.PutProposal(proposal)
}

// ProposalApproveParameter is Contract.Parameter for ContractTypeProposalApprove.
type ProposalApproveParameter struct {
	ID       int64
	Approve  bool
}

type proposalApproveActuator struct{}

func (proposalApproveActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ProposalApproveParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "proposal-approve: bad parameter type")
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok || !owner.IsWitness {
		return types.Newf(types.KindAuthorizationFailure, "proposal-approve: approver must be a witness")
	}
	proposal, ok, err := ctx.State.GetProposal(p.ID)
	if err != nil {
		return err
	}
	if !ok || proposal.State != types.ProposalPending {
		return types.Newf(types.KindPrecondition, "proposal-approve: proposal %d is not pending", p.ID)
	}
	return nil
}

func (proposalApproveActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ProposalApproveParameter)
	proposal, ok, err := ctx.State.GetProposal(p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "proposal-approve: proposal %d vanished", p.ID)
	}
	if p.Approve {
		proposal.Approvers[contract.Owner] = true
	} else {
		delete(proposal.Approvers, contract.Owner)
	}
	return ctx.State.PutProposal(proposal)
}

// ProposalDeleteParameter is Contract.Parameter for ContractTypeProposalDelete.
type ProposalDeleteParameter struct {
	ID int64
}

type proposalDeleteActuator struct{}

func (proposalDeleteActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(ProposalDeleteParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "proposal-delete: bad parameter type")
	}
	proposal, ok, err := ctx.State.GetProposal(p.ID)
	if err != nil {
		return err
	}
	if !ok || proposal.State != types.ProposalPending {
		return types.Newf(types.KindPrecondition, "proposal-delete: proposal %d is not pending", p.ID)
	}
	if proposal.Proposer != contract.Owner {
		return types.Newf(types.KindAuthorizationFailure, "proposal-delete: only the proposer may delete")
	}
	return nil
}

func (proposalDeleteActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(ProposalDeleteParameter)
	proposal, ok, err := ctx.State.GetProposal(p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "proposal-delete: proposal %d vanished", p.ID)
	}
	proposal.State = types.ProposalCancelled
	return ctx.State.PutProposal(proposal)
}
