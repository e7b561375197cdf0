// Package mempool buffers transactions the node has seen but not yet
// included in a block (spec §2 "Mempool + Producer"), admitting only
// transactions that pass the cheap checks the Producer can't afford to
// discover are wrong only after the Manager rejects a whole block: TaPoS,
// size, expiration window, signature well-formedness, and local duplicate
// detection. Full validation (permissions, resource accounting, actuator
// effects) only happens once a transaction is actually pushed through a
// block via manager.PushBlock — the mempool is an admission filter and a
// priority queue, not a second copy of the executor.
//
// Grounded on mining/mining.go's txPrioItem/txPriorityQueue
// (container/heap over a fee-ordered slice): this pool keeps the same
// heap-of-priority-items shape, ordered by FeeLimit instead of a mined
// fee-per-kilobyte (a pending transaction's actual resource cost isn't known
// until the executor runs it against a specific block).
package mempool

import (
	"container/heap"
	"sync"
	"time"

	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/crypto"
	"github.com/opentron/opentron-sub001/executor"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// MaxPoolSize bounds the number of buffered transactions (spec §2 does not
// name a constant; chosen in proportion to MaxTransactionSize so a full pool
// can never exceed a few block's worth of encoded bytes).
const MaxPoolSize = 10000

// item is one buffered transaction plus its heap ordering key.
type item struct {
	tx       *types.Transaction
	hash     types.Hash
	feeLimit int64
	seq      uint64 // insertion order, breaks fee ties deterministically
	index    int
}

type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].feeLimit != pq[j].feeLimit {
		return pq[i].feeLimit > pq[j].feeLimit
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[:n-1]
	return it
}

// Pool is the node's pending-transaction buffer.
type Pool struct {
	mu    sync.Mutex
	state *statedb.StateDB
	queue priorityQueue
	byID  map[types.Hash]*item
	seq   uint64
}

// New builds an empty Pool reading chain-head context from state (the
// current ref_block ring and latest block timestamp, both needed for
// admission checks).
func New(state *statedb.StateDB) *Pool {
	return &Pool{
		state: state,
		byID:  make(map[types.Hash]*item),
	}
}

// Add admits tx into the pool, or rejects it with the same Kind taxonomy the
// executor uses (spec §7). Admission is intentionally cheaper than full
// execution: it does not touch StateDB's overlay stack, so it never
// conflicts with a concurrent manager.PushBlock.
func (p *Pool) Add(tx *types.Transaction) error {
	encoded := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
	if len(encoded) > types.MaxTransactionSize {
		return types.Newf(types.KindMalformedInput, "transaction exceeds max size")
	}
	digest := crypto.SHA256(encoded)
	hash := types.Hash(digest)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byID[hash]; ok {
		return types.Newf(types.KindPrecondition, "duplicate transaction %x", hash.Bytes())
	}
	if len(p.queue) >= MaxPoolSize {
		return types.Newf(types.KindResourceExhaustion, "mempool full")
	}

	dp, err := p.state.GetDynamicProperties()
	if err != nil {
		return err
	}
	if !tx.RawData.Expiration.After(dp.LatestBlockTimestamp) {
		return types.Newf(types.KindPrecondition, "transaction already expired")
	}
	maxExpiration := dp.LatestBlockTimestamp.Add(time.Duration(types.MaxTransactionExpirationMillis) * time.Millisecond)
	if tx.RawData.Expiration.After(maxExpiration) {
		return types.Newf(types.KindPrecondition, "transaction expiration too far in the future")
	}

	ring, err := p.state.GetRefBlockRing()
	if err != nil {
		return err
	}
	stored, ok := ring.Lookup(tx.RawData.RefBlockBytes)
	if !ok {
		return types.Newf(types.KindInvariantViolation, "tapos: unknown ref_block_bytes")
	}
	storedBytes := stored.Bytes()
	if len(storedBytes) < 16 || [8]byte(storedBytes[8:16]) != tx.RawData.RefBlockHash {
		return types.Newf(types.KindInvariantViolation, "tapos: ref_block_hash mismatch")
	}

	if len(tx.Signatures) == 0 {
		return types.Newf(types.KindMalformedInput, "transaction carries no signatures")
	}
	for _, sig := range tx.Signatures {
		if _, err := crypto.RecoverAddress(digest, sig); err != nil {
			return types.Wrap(types.KindMalformedInput, err, "recover signature")
		}
	}

	p.seq++
	it := &item{tx: tx, hash: hash, feeLimit: tx.RawData.FeeLimit, seq: p.seq}
	heap.Push(&p.queue, it)
	p.byID[hash] = it
	return nil
}

// Remove drops a transaction from the pool (called once it's been included
// in an accepted block, or if it's expired).
func (p *Pool) Remove(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.byID[hash]
	if !ok {
		return
	}
	heap.Remove(&p.queue, it.index)
	delete(p.byID, hash)
}

// Has reports whether hash is currently buffered.
func (p *Pool) Has(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byID[hash]
	return ok
}

// Get returns the buffered transaction for hash, if any, the way a peer
// session answers a FetchInventoryData{TRX} request (spec §4.10).
func (p *Pool) Get(hash types.Hash) (*types.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.byID[hash]
	if !ok {
		return nil, false
	}
	return it.tx, true
}

// Len returns the number of buffered transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Peek returns up to max pending transactions in priority order without
// removing them, the way producer.Assemble fills a block body (spec §2).
func (p *Pool) Peek(max int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	cp := make(priorityQueue, len(p.queue))
	copy(cp, p.queue)
	heap.Init(&cp)

	out := make([]*types.Transaction, 0, max)
	for cp.Len() > 0 && len(out) < max {
		it := heap.Pop(&cp).(*item)
		out = append(out, it.tx)
	}
	return out
}

// ExpireBefore drops every buffered transaction whose expiration is at or
// before cutoff, returning how many were removed.
func (p *Pool) ExpireBefore(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stale []types.Hash
	for hash, it := range p.byID {
		if !it.tx.RawData.Expiration.After(cutoff) {
			stale = append(stale, hash)
		}
	}
	for _, hash := range stale {
		it := p.byID[hash]
		heap.Remove(&p.queue, it.index)
		delete(p.byID, hash)
	}
	return len(stale)
}
