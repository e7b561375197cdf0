package actuators

import (
	"encoding/binary"
	"time"

	"github.com/opentron/opentron-sub001/types"
)

func init() {
	Register(types.ContractTypeAssetIssue, assetIssueActuator{})
}

// AssetIssueParameter is Contract.Parameter for ContractTypeAssetIssue.
type AssetIssueParameter struct {
	Name        string
	Abbr        string
	TotalSupply int64
	TRXNum      int64
	Num         int64
	StartTime   time.Time
	EndTime     time.Time
	FreeAssetNetLimit       int64
	PublicFreeAssetNetLimit int64
}

type assetIssueActuator struct{}

func (assetIssueActuator) Validate(ctx *Context, contract *types.Contract) error {
	p, ok := contract.Parameter.(AssetIssueParameter)
	if !ok {
		return types.Newf(types.KindMalformedInput, "asset-issue: bad parameter type")
	}
	if p.TotalSupply <= 0 || p.TRXNum <= 0 || p.Num <= 0 {
		return types.Newf(types.KindMalformedInput, "asset-issue: supply and exchange rate must be positive")
	}
	if !p.EndTime.After(p.StartTime) {
		return types.Newf(types.KindMalformedInput, "asset-issue: end_time must be after start_time")
	}
	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "asset-issue: owner %s does not exist", contract.Owner.Hex())
	}
	fee, err := ctx.State.GetParam(types.ParamAssetIssueFee)
	if err != nil {
		return err
	}
	if owner.Balance < fee {
		return types.Newf(types.KindResourceExhaustion, "asset-issue: insufficient balance for issue fee")
	}
	return nil
}

func (assetIssueActuator) Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error {
	p := contract.Parameter.(AssetIssueParameter)

	owner, ok, err := ctx.State.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "asset-issue: owner vanished")
	}
	fee, err := ctx.State.GetParam(types.ParamAssetIssueFee)
	if err != nil {
		return err
	}
	owner.Balance -= fee

	id := assetIDFromHash(ctx.TxHash)
	asset := &types.Asset{
		ID:                      id,
		Owner:                   contract.Owner,
		Name:                    p.Name,
		Abbr:                    p.Abbr,
		TotalSupply:             p.TotalSupply,
		TRXNum:                  p.TRXNum,
		Num:                     p.Num,
		StartTime:               p.StartTime,
		EndTime:                 p.EndTime,
		FreeAssetNetLimit:       p.FreeAssetNetLimit,
		PublicFreeAssetNetLimit: p.PublicFreeAssetNetLimit,
	}
	if err := ctx.State.PutAsset(asset); err != nil {
		return err
	}
	owner.TokenBalances[id] = p.TotalSupply
	receipt.CreatedAssetID = id
	return ctx.State.PutAccount(owner)
}

// assetIDFromHash derives a deterministic, tx-scoped token id from the
// issuing transaction's hash (no dedicated id-counter column exists; the
// hash is already unique per transaction, spec §3).
func assetIDFromHash(h types.Hash) int64 {
	b := h.Bytes()
	v := int64(binary.BigEndian.Uint64(b[len(b)-8:]))
	if v < 0 {
		v = -v
	}
	if v == 0 {
		v = 1
	}
	return v
}
