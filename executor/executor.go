// Package executor runs spec §4.4's per-transaction pipeline: TaPoS check,
// size/expiration check, duplicate check, signature recovery, multisig
// permission check, bandwidth accounting, actuator dispatch, and receipt
// write.
package executor

import (
	"crypto/sha256"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opentron/opentron-sub001/actuators"
	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/resource"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// recentTxidWindow bounds the duplicate-check LRU (spec §4.4 step 3
// "implementation-defined window").
const recentTxidWindow = 65536

// Executor runs transactions against a StateDB overlay, tracking the
// recent-transaction-id set used for duplicate rejection (spec §5 "the
// recent-block-id set"; the analogous per-transaction set here).
type Executor struct {
	state  *statedb.StateDB
	recent *lru.Cache[types.Hash, struct{}]
}

// New builds an Executor over state.
func New(state *statedb.StateDB) (*Executor, error) {
	cache, err := lru.New[types.Hash, struct{}](recentTxidWindow)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "allocate recent-txid cache")
	}
	return &Executor{state: state, recent: cache}, nil
}

// Execute runs the full spec §4.4 pipeline for tx against ring and the
// block it is being included in (latestTimestamp is the prior block's
// timestamp, the basis for the expiration window).
func (e *Executor) Execute(tx *types.Transaction, ring *types.RefBlockRing, latestTimestamp time.Time) (*types.TransactionReceipt, error) {
	encoded := codec.EncodeTransactionRawData(&tx.RawData, EncodeParameter)
	digest := sha256.Sum256(encoded)
	hash := types.Hash(digest)

	if err := checkTaPoS(tx, ring); err != nil {
		return nil, err
	}
	if err := checkSizeAndExpiration(encoded, tx, latestTimestamp); err != nil {
		return nil, err
	}
	if err := e.checkDuplicate(hash); err != nil {
		return nil, err
	}

	recovered, err := recoverSigners(digest, tx.Signatures)
	if err != nil {
		return nil, err
	}
	contract := &tx.RawData.Contract
	if err := validateMultisig(e.state, contract, recovered); err != nil {
		return nil, err
	}
	if len(recovered) > 1 {
		allowMultisig, err := e.state.GetParam(types.ParamAllowMultisig)
		if err != nil {
			return nil, err
		}
		if allowMultisig != 0 {
			if err := chargeMultisigFee(e.state, contract.Owner); err != nil {
				return nil, err
			}
		}
	}

	nbytes := int64(len(encoded))
	tvmEnabled, err := e.state.GetParam(types.ParamAllowTvm)
	if err != nil {
		return nil, err
	}
	if tvmEnabled != 0 {
		nbytes += 64
	}
	createsAccount, assetID, hasAsset, err := classify(e.state, contract)
	if err != nil {
		return nil, err
	}
	now := tx.RawData.Timestamp
	if now.IsZero() {
		now = latestTimestamp
	}
	if err := resource.ChargeBandwidth(e.state, contract.Owner, nbytes, now, createsAccount, assetID, hasAsset); err != nil {
		return nil, err
	}

	receipt := &types.TransactionReceipt{BandwidthUsage: nbytes}

	actuator, ok := actuators.For(contract.Type)
	if !ok {
		return nil, types.Newf(types.KindMalformedInput, "no actuator registered for contract type %d", contract.Type)
	}
	actx := &actuators.Context{State: e.state, Now: now, TxHash: hash, FeeLimit: tx.RawData.FeeLimit}
	if err := actuator.Validate(actx, contract); err != nil {
		return nil, types.Wrap(types.KindOf(err), err, "actuator validate")
	}
	if err := actuator.Execute(actx, contract, receipt); err != nil {
		receipt.ContractStatus = types.ContractStatusUnknown
	}

	if err := e.state.PutTransactionReceipt(hash, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func checkTaPoS(tx *types.Transaction, ring *types.RefBlockRing) error {
	stored, ok := ring.Lookup(tx.RawData.RefBlockBytes)
	if !ok {
		return types.Newf(types.KindInvariantViolation, "tapos: unknown ref_block_bytes")
	}
	storedBytes := stored.Bytes()
	if len(storedBytes) < 16 {
		return types.Newf(types.KindInvariantViolation, "tapos: ref block hash too short")
	}
	if [8]byte(storedBytes[8:16]) != tx.RawData.RefBlockHash {
		return types.Newf(types.KindInvariantViolation, "tapos: ref_block_hash mismatch")
	}
	return nil
}

func checkSizeAndExpiration(encoded []byte, tx *types.Transaction, latestTimestamp time.Time) error {
	if len(encoded) > types.MaxTransactionSize {
		return types.Newf(types.KindMalformedInput, "transaction exceeds max size")
	}
	exp := tx.RawData.Expiration
	if !exp.After(latestTimestamp) {
		return types.Newf(types.KindPrecondition, "transaction already expired")
	}
	if exp.After(latestTimestamp.Add(time.Duration(types.MaxTransactionExpirationMillis) * time.Millisecond)) {
		return types.Newf(types.KindPrecondition, "transaction expiration too far in the future")
	}
	return nil
}

func (e *Executor) checkDuplicate(hash types.Hash) error {
	if e.recent.Contains(hash) {
		return types.Newf(types.KindPrecondition, "duplicate transaction %x", hash.Bytes())
	}
	e.recent.Add(hash, struct{}{})
	return nil
}

func recoverSigners(digest [32]byte, sigs [][65]byte) ([]types.Address, error) {
	seen := map[types.Address]bool{}
	out := make([]types.Address, 0, len(sigs))
	for _, sig := range sigs {
		addr, err := crypto.RecoverAddress(digest, sig)
		if err != nil {
			return nil, types.Wrap(types.KindMalformedInput, err, "recover signature")
		}
		if seen[addr] {
			return nil, types.Newf(types.KindMalformedInput, "duplicate recovered signer %s", addr.Hex())
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}

// validateMultisig implements spec §4.4 step 5.
func validateMultisig(s *statedb.StateDB, contract *types.Contract, recovered []types.Address) error {
	owner, ok, err := s.GetAccount(contract.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindPrecondition, "owner account %s does not exist", contract.Owner.Hex())
	}

	if len(recovered) == 1 && recovered[0] == contract.Owner {
		if contract.PermissionID == 0 {
			return nil
		}
		if contract.Type != types.ContractTypeAccountPermissionUpdate {
			return nil
		}
	}

	if contract.PermissionID == 0 {
		return checkThreshold(owner.OwnerPermission, recovered)
	}
	if contract.PermissionID < 2 {
		return types.Newf(types.KindAuthorizationFailure, "invalid permission_id %d", contract.PermissionID)
	}
	idx := int(contract.PermissionID) - 2
	if idx < 0 || idx >= len(owner.ActivePermission) {
		return types.Newf(types.KindAuthorizationFailure, "active permission %d not found", idx)
	}
	active := owner.ActivePermission[idx]
	byteIdx, mask := contract.Type.OperationBit()
	if byteIdx >= len(active.Operations) || active.Operations[byteIdx]&mask == 0 {
		return types.Newf(types.KindAuthorizationFailure, "contract type %d disabled on this permission", contract.Type)
	}
	return checkThreshold(active, recovered)
}

func checkThreshold(perm types.Permission, recovered []types.Address) error {
	var weight int64
	for _, addr := range recovered {
		weight += perm.Keys[addr]
	}
	if weight < perm.Threshold {
		return types.Newf(types.KindAuthorizationFailure, "insufficient signature weight: %d < %d", weight, perm.Threshold)
	}
	return nil
}

func chargeMultisigFee(s *statedb.StateDB, owner types.Address) error {
	fee, err := s.GetParam(types.ParamMultisigFee)
	if err != nil {
		return err
	}
	account, ok, err := s.GetAccount(owner)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindStateConsistency, "multisig-fee: owner vanished")
	}
	if account.Balance < fee {
		return types.Newf(types.KindResourceExhaustion, "insufficient balance for multisig fee")
	}
	account.Balance -= fee
	return s.PutAccount(account)
}

// classify determines the bandwidth-accounting inputs the actuator itself
// will also check (spec §4.5 steps 1-2): whether this transaction creates
// an account, and whether it carries the legacy TransferAsset path.
func classify(s *statedb.StateDB, contract *types.Contract) (createsAccount bool, assetID int64, hasAsset bool, err error) {
	switch contract.Type {
	case types.ContractTypeTransfer:
		p := contract.Parameter.(actuators.TransferParameter)
		_, ok, err := s.GetAccount(p.ToAddress)
		if err != nil {
			return false, 0, false, err
		}
		return !ok, 0, false, nil
	case types.ContractTypeAccountCreate:
		return true, 0, false, nil
	default:
		return false, 0, false, nil
	}
}
