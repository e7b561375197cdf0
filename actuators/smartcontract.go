package actuators

import (
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/types"
	"github.com/opentron/opentron-sub001/vm"
)

func init() {
	Register(types.ContractTypeSmartContractCreate, smartContractCreateActuator{})
	Register(types.ContractTypeSmartContractTrigger, smartContractTriggerActuator{})
}

// TVM is the VM backend smart-contract actuators hand execution off to
// (spec §1, §4.6). It is nil until a caller wires one in; dispatching to a
// nil TVM fails closed rather than silently skipping execution.
var TVM vm.Backend

// maxFeeLimit bounds Contract.FeeLimit (spec §4.6 "fee_limit ∈ [0, 10^9]").
const maxFeeLimit = 1_000_000_000

// SmartContractCreateParameter is Contract.Parameter for
// ContractTypeSmartContractCreate.
type SmartContractCreateParameter struct {
	Bytecode                   []byte
	ABI                        []byte
	ConsumeUserResourcePercent int64
	OriginEnergyLimit          int64
}

type smartContractCreateActuator struct{}

func (smartContractCreateActuator) Validate(ctx *Context, contract *types.Contract) error {
	if _, ok := contract.Parameter.(SmartContractCreateParameter); !ok {
		return types.Newf(types.KindMalformedInput, "smart-contract-create: bad parameter type")
	}
	allowTvm, err := ctx.State.GetParam(types.ParamAllowTvm)
	if err != nil {
		return err
	}
	if allowTvm == 0 {
		return types.Newf(types.KindPrecondition, "smart-contract-create: AllowTvm is disabled")
	}
	if ctx.FeeLimit < 0 || ctx.FeeLimit > maxFeeLimit {
		return types.Newf(types.KindMalformedInput, "smart-contract-create: fee_limit out of range")
	}
	if _, ok, err := ctx.State.GetAccount(contract.Owner); err != nil {
		return err
	} else if !ok {
		return types.Newf(types.KindPrecondition, "smart-contract-create: owner %s does not exist", contract.Owner.Hex())
	}
	return nil
}

func (smartContractCreateActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(SmartContractCreateParameter)

	contractAddr := deriveContractAddress(ctx.TxHash, contract.Owner)

	energyLimit, err := energyLimitFor(ctx, contract.Owner)
	if err != nil {
		return err
	}

	result, err := runTVM(ctx, contract.Owner, contractAddr, p.Bytecode, energyLimit)
	if err != nil {
		return err
	}

	sc := &types.SmartContract{
		Address:                    contractAddr,
		Owner:                      contract.Owner,
		Bytecode:                   p.Bytecode,
		ABI:                        p.ABI,
		ConsumeUserResourcePercent: p.ConsumeUserResourcePercent,
		OriginEnergyLimit:          p.OriginEnergyLimit,
	}
	if err := ctx.State.PutContract(sc); err != nil {
		return err
	}

	fillReceiptFromResult(receipt, result)
	receipt.CreatedContract = &contractAddr

	contractAcc := &types.Account{
		Address:       contractAddr,
		Type:          types.AccountTypeContract,
		TokenBalances: map[int64]int64{},
		CreationTime:  ctx.Now,
	}
	if err := ctx.State.PutAccount(contractAcc); err != nil {
		return err
	}

	return nil
}

// deriveContractAddress is spec §4.6: keccak256(txn_hash ‖ owner_address)[12..],
// rightmost 20 bytes prefixed with the network byte.
func deriveContractAddress(txHash types.Hash, owner types.Address) types.Address {
	seed := append(append([]byte{}, txHash.Bytes()...), owner.Bytes()...)
	digest := crypto.Keccak256(seed)
	var addr types.Address
	addr[0] = types.AddressPrefix
	copy(addr[1:], digest[12:])
	return addr
}

// energyLimitFor computes spec §4.6's energy_limit: the account's
// frozen-energy headroom plus fee_limit/EnergyFee (the fixed post-fork
// ratio; the pre-fork float ratio derived from global energy weight is not
// reproduced here, see DESIGN.md).
func energyLimitFor(ctx *Context, owner types.Address) (int64, error) {
	account, ok, err := ctx.State.GetAccount(owner)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, types.Newf(types.KindPrecondition, "energy-limit: owner %s does not exist", owner.Hex())
	}
	energyFee, err := ctx.State.GetParam(types.ParamEnergyFee)
	if err != nil {
		return 0, err
	}
	fromHeadroom := account.TotalFrozenEnergy() / 1_000_000
	fromFee := int64(0)
	if energyFee > 0 {
		fromFee = ctx.FeeLimit / energyFee
	}
	return fromHeadroom + fromFee, nil
}

func runTVM(ctx *Context, caller, contract types.Address, input []byte, energyLimit int64) (vm.ExecutionResult, error) {
	if TVM == nil {
		return vm.ExecutionResult{}, types.Newf(types.KindStateConsistency, "smart-contract: no TVM backend wired")
	}
	return TVM.Execute(vm.ExecutionContext{
		Caller:      caller,
		Contract:    contract,
		Input:       input,
		EnergyLimit: energyLimit,
	})
}

func fillReceiptFromResult(receipt *types.TransactionReceipt, result vm.ExecutionResult) {
	receipt.EnergyUsage = result.EnergyUsed
	receipt.Logs = result.Logs
	receipt.InternalTransactions = result.InternalTransactions
	if result.Reverted {
		receipt.ContractStatus = types.ContractStatusRevert
	} else {
		receipt.ContractStatus = types.ContractStatusSuccess
	}
}

// SmartContractTriggerParameter is Contract.Parameter for
// ContractTypeSmartContractTrigger.
type SmartContractTriggerParameter struct {
	ContractAddress types.Address
	Data            []byte
	CallValue       int64
}

type smartContractTriggerActuator struct{}

func (smartContractTriggerActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(SmartContractTriggerParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "smart-contract-trigger: bad parameter type")
	}
	if _, ok, err := ctx.State.GetContract(p.ContractAddress); err != nil {
		return err
	} else if !ok {
		return types.Newf(types.KindPrecondition, "smart-contract-trigger: contract %s not found", p.ContractAddress.Hex())
	}
	if ctx.FeeLimit < 0 || ctx.FeeLimit > maxFeeLimit {
		return types.Newf(types.KindMalformedInput, "smart-contract-trigger: fee_limit out of range")
	}
	return nil
}

func (smartContractTriggerActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(SmartContractTriggerParameter)

	energyLimit, err := energyLimitFor(ctx, contract.Owner)
	if err != nil {
		return err
	}
	result, err := runTVM(ctx, contract.Owner, p.ContractAddress, p.Data, energyLimit)
	if err != nil {
		return err
	}
	fillReceiptFromResult(receipt, result)
	return nil
}
