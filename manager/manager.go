// Package manager implements push_block, the single-writer block-ingress
// pipeline (spec §4.3): signature/Merkle/progress/schedule checks, a new
// StateDB overlay, per-transaction execution, maintenance processing, block
// reward payment, statistics update, solid-block advance, and commit.
package manager

import (
	"sort"
	"sync"
	"time"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/executor"
	"github.com/opentron/opentron-sub001/logger"
	"github.com/opentron/opentron-sub001/maintenance"
	"github.com/opentron/opentron-sub001/merkle"
	"github.com/opentron/opentron-sub001/reward"
	"github.com/opentron/opentron-sub001/schedule"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

var log, _ = logger.Get(logger.SubsystemTags.MANR)

// Manager owns the single write-lock over chain state (spec §5 "the Manager
// holds an exclusive lock across an entire push_block").
type Manager struct {
	mu    sync.Mutex
	state *statedb.StateDB
	exec  *executor.Executor
	chain *chaindb.ChainDB
}

// New builds a Manager over an already-genesis-initialized StateDB and the
// finalized-block store it commits each accepted block into (spec §2
// data-flow note "ChainDB.insert → StateDB.solidify_layer()").
func New(state *statedb.StateDB, chain *chaindb.ChainDB) (*Manager, error) {
	exec, err := executor.New(state)
	if err != nil {
		return nil, err
	}
	return &Manager{state: state, exec: exec, chain: chain}, nil
}

// PushBlock runs the full spec §4.3 pipeline. It returns an error and leaves
// state untouched on any failure before step 6; failures from step 6 onward
// discard the speculative overlay before returning.
func (m *Manager) PushBlock(block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dp, err := m.state.GetDynamicProperties()
	if err != nil {
		return err
	}

	// Step 1: witness signature check.
	headerEncoded := codec.EncodeBlockHeaderRaw(&block.Header.RawData)
	digest := crypto.SHA256(headerEncoded)
	signer, err := crypto.RecoverAddress(digest, block.Header.Signature)
	if err != nil {
		return types.Wrap(types.KindMalformedInput, err, "recover block signer")
	}
	if signer != block.Header.RawData.WitnessAddress {
		return types.Newf(types.KindInvariantViolation, "block signer %s != witness_address %s", signer.Hex(), block.Header.RawData.WitnessAddress.Hex())
	}

	// Step 2: Merkle root check.
	leaves := make([]types.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		encoded := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
		leaves[i] = types.Hash(crypto.SHA256(encoded))
	}
	if root := merkle.Root(leaves); root != block.Header.RawData.MerkleRootHash {
		return types.Newf(types.KindInvariantViolation, "merkle root mismatch")
	}

	// Step 3: progress check.
	if block.Number() <= dp.LatestBlockNumber {
		return types.Newf(types.KindPrecondition, "stale block %d <= latest %d", block.Number(), dp.LatestBlockNumber)
	}

	// Step 4: version warning.
	if block.Header.RawData.Version > types.CurrentBlockVersion {
		log.Warnf("block %d carries version %d newer than supported %d", block.Number(), block.Header.RawData.Version, types.CurrentBlockVersion)
	}

	// Step 5: schedule check.
	scheduleList, err := m.state.GetWitnessSchedule()
	if err != nil {
		return err
	}
	active := schedule.Active(scheduleList)
	absSlot := schedule.AbsoluteSlot(block.Header.RawData.Timestamp, dp.GenesisTimestamp)
	if absSlot < 0 {
		return types.Newf(types.KindPrecondition, "block timestamp precedes genesis")
	}
	latestSlot := schedule.AbsoluteSlot(dp.LatestBlockTimestamp, dp.GenesisTimestamp)
	if absSlot <= latestSlot {
		return types.Newf(types.KindInvariantViolation, "block slot %d not strictly after latest slot %d", absSlot, latestSlot)
	}
	scheduled, ok := schedule.WitnessForSlot(active, absSlot)
	if !ok || scheduled != block.Header.RawData.WitnessAddress {
		return types.Newf(types.KindInvariantViolation, "block witness %s does not match scheduled witness", block.Header.RawData.WitnessAddress.Hex())
	}

	// Step 6: new overlay layer. Any failure from here discards it.
	m.state.NewLayer()
	if err := m.pushBlockBody(block, dp, active, absSlot, latestSlot); err != nil {
		m.state.DiscardLayers()
		return err
	}
	return nil
}

// pushBlockBody runs spec §4.3 steps 7-13 against the overlay NewLayer has
// already pushed.
func (m *Manager) pushBlockBody(block *types.Block, dp *types.DynamicProperties, active []types.Address, absSlot, latestSlot int64) error {
	// Step 7: per-transaction execution.
	ring, err := m.state.GetRefBlockRing()
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		if _, err := m.exec.Execute(tx, ring, dp.LatestBlockTimestamp); err != nil {
			return types.Wrap(types.KindOf(err), err, "execute transaction")
		}
	}

	// Step 8: maintenance processing.
	if !block.Header.RawData.Timestamp.Before(dp.NextMaintenanceTime) {
		if err := maintenance.Run(m.state, block.Header.RawData.Timestamp, block.Number()); err != nil {
			return types.Wrap(types.KindOf(err), err, "maintenance")
		}
		scheduleList, err := m.state.GetWitnessSchedule()
		if err != nil {
			return err
		}
		active = schedule.Active(scheduleList)
	}

	// Step 9: block reward payment, only if the producer is in the current schedule.
	producerScheduled := false
	for _, addr := range active {
		if addr == block.Header.RawData.WitnessAddress {
			producerScheduled = true
			break
		}
	}
	if producerScheduled {
		if err := reward.PayBlockReward(m.state, block.Header.RawData.WitnessAddress, active); err != nil {
			return err
		}
	}

	// Step 10: statistics update.
	if err := m.updateStatistics(block, active, absSlot, latestSlot); err != nil {
		return err
	}

	// Step 11: solid-block advance.
	solid, err := m.solidBlockNumber(active, dp.LatestSolidBlockNumber)
	if err != nil {
		return err
	}

	// Step 12: ref-block ring update.
	hash := chaindb.BlockHash(block)
	ring.Put(block.Number(), hash)
	if err := m.state.PutRefBlockRing(ring); err != nil {
		return err
	}

	// Step 13: update latest-block properties, commit the finalized block to
	// ChainDB, then solidify the StateDB overlay (spec §2 data-flow note
	// "ChainDB.insert → StateDB.solidify_layer()"). ChainDB.Insert runs first
	// so a crash between the two never leaves a solidified block unreachable
	// by number/hash; a duplicate Insert retried after a restart is rejected
	// by ChainDB's append-only check, which is harmless since solidify either
	// already ran or never will for this block.
	dp.LatestBlockHash = hash
	dp.LatestBlockNumber = block.Number()
	dp.LatestBlockTimestamp = block.Header.RawData.Timestamp
	dp.LatestSolidBlockNumber = solid
	if err := m.state.PutDynamicProperties(dp); err != nil {
		return err
	}
	if m.chain != nil {
		if err := m.chain.Insert(block, hash); err != nil {
			return err
		}
	}
	return m.state.SolidifyLayer()
}

// updateStatistics implements spec §4.3 step 10: producer's total_produced,
// latest_block_number/slot/version, missed-slot bookkeeping for every
// scheduled-but-unfilled slot since the last block, and the filled-slots
// ring.
func (m *Manager) updateStatistics(block *types.Block, active []types.Address, absSlot, latestSlot int64) error {
	w, ok, err := m.state.GetWitness(block.Header.RawData.WitnessAddress)
	if err != nil {
		return err
	}
	if ok {
		w.TotalProduced++
		w.LatestBlockNum = block.Number()
		w.LatestSlotNum = uint64(absSlot)
		w.Version = block.Header.RawData.Version
		if err := m.state.PutWitness(w); err != nil {
			return err
		}
	}

	fs, err := m.state.GetFilledSlots()
	if err != nil {
		return err
	}
	for slot := latestSlot + 1; slot < absSlot; slot++ {
		missed, ok := schedule.WitnessForSlot(active, slot)
		if ok {
			if mw, wok, werr := m.state.GetWitness(missed); werr == nil && wok {
				mw.TotalMissed++
				if err := m.state.PutWitness(mw); err != nil {
					return err
				}
			}
		}
		fs.Advance(false)
	}
	fs.Advance(true)
	return m.state.PutFilledSlots(fs)
}

// solidBlockNumber implements spec §4.3 step 11: sort the active witnesses'
// latest_block_number and take the value at the 70%-confirmation index.
func (m *Manager) solidBlockNumber(active []types.Address, current uint64) (uint64, error) {
	if len(active) == 0 {
		return current, nil
	}
	nums := make([]uint64, 0, len(active))
	for _, addr := range active {
		w, ok, err := m.state.GetWitness(addr)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		nums = append(nums, w.LatestBlockNum)
	}
	if len(nums) == 0 {
		return current, nil
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	idx := len(nums) * (100 - types.SolidThresholdPercent) / 100
	if idx >= len(nums) {
		idx = len(nums) - 1
	}
	solid := nums[idx]
	if solid < current {
		return current, nil
	}
	return solid, nil
}

// Snapshot returns a point-in-time read of the chain head a producer needs
// to assemble a candidate block: dynamic properties, the active witness
// schedule, and the TaPoS ring. Taken under the same lock PushBlock holds
// (spec §5), so it never observes state mid-mutation.
func (m *Manager) Snapshot() (*types.DynamicProperties, []types.Address, *types.RefBlockRing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dp, err := m.state.GetDynamicProperties()
	if err != nil {
		return nil, nil, nil, err
	}
	scheduleList, err := m.state.GetWitnessSchedule()
	if err != nil {
		return nil, nil, nil, err
	}
	ring, err := m.state.GetRefBlockRing()
	if err != nil {
		return nil, nil, nil, err
	}
	return dp, schedule.Active(scheduleList), ring, nil
}

// NextSlotTimestamp exposes schedule.SlotTimestamp against the manager's
// current chain head, used by the producer package to compute when it is
// next due to produce.
func (m *Manager) NextSlotTimestamp(s int64, justPassedMaintenance bool) (time.Time, error) {
	dp, err := m.state.GetDynamicProperties()
	if err != nil {
		return time.Time{}, err
	}
	return schedule.SlotTimestamp(dp.LatestBlockTimestamp, s, justPassedMaintenance), nil
}
