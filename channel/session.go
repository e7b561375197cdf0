package channel

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/types"
)

// State is a peer session's position in the spec §4.10 sync state machine.
type State int

const (
	StateIdle State = iota
	StateWaitChainInv
	StateWaitBlocks
)

func (st State) String() string {
	switch st {
	case StateIdle:
		return "Idle"
	case StateWaitChainInv:
		return "WaitChainInv"
	case StateWaitBlocks:
		return "WaitBlocks"
	default:
		return "Unknown"
	}
}

// Session drives one peer connection's handshake and sync state machine
// (spec §4.10). Within a session, frames are processed strictly in receive
// order (spec §5); writeMu only exists because BroadcastInventory can write
// to this same connection concurrently with the session's own loop.
type Session struct {
	svc  *Service
	conn net.Conn

	writeMu sync.Mutex

	mu            sync.Mutex
	state         State
	pending       []types.Hash // ids still to fetch beyond the current batch
	batch         []types.Hash // ids requested in the most recent FetchInventoryData
	lastInvRemain int64        // remain_num carried by the most recent BlockchainInventory
}

// runSession performs the handshake and, on success, registers the peer and
// runs its state machine loop until the connection ends or Shutdown's
// termination_signal fires.
func (s *Service) runSession(conn net.Conn) {
	defer conn.Close()

	hello, err := s.shakeHands(conn)
	if err != nil {
		log.Infof("handshake with %s failed: %v", conn.RemoteAddr(), err)
		return
	}

	p := &Session{svc: s, conn: conn, state: StateIdle}
	s.register(p)
	defer s.unregister(p)

	log.Infof("peer %s connected (from=%s head=%x)", conn.RemoteAddr(), hello.From.Hex(), hello.HeadBlockID.Bytes())
	p.loop()
}

// shakeHands exchanges HandshakeHello and enforces version/genesis
// agreement (spec §4.10 "Mismatched version or genesis_block_id ⇒
// HandshakeDisconnect").
func (s *Service) shakeHands(conn net.Conn) (*HandshakeHelloFrame, error) {
	dp, _, _, err := s.mgr.Snapshot()
	if err != nil {
		return nil, err
	}
	solidHash := s.genesis
	if dp.LatestSolidBlockNumber > 0 {
		if h, ok, err := s.chain.HashAtNumber(dp.LatestSolidBlockNumber); err != nil {
			return nil, err
		} else if ok {
			solidHash = h
		}
	}

	ours := &HandshakeHelloFrame{
		From:           s.local,
		Version:        s.version,
		Timestamp:      time.Now().Unix(),
		GenesisBlockID: s.genesis,
		SolidBlockID:   solidHash,
		HeadBlockID:    dp.LatestBlockHash,
	}

	conn.SetDeadline(time.Now().Add(ReadTimeoutSeconds * time.Second))
	defer conn.SetDeadline(time.Time{})

	if err := WriteFrame(conn, ours); err != nil {
		return nil, err
	}
	frame, err := ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	theirs, ok := frame.(*HandshakeHelloFrame)
	if !ok {
		return nil, types.Newf(types.KindMalformedInput, "expected HandshakeHello, got %T", frame)
	}
	if theirs.Version != s.version {
		_ = WriteFrame(conn, &HandshakeDisconnectFrame{Reason: DisconnectIncompatibleVersion})
		return nil, types.Newf(types.KindPrecondition, "peer version %d != ours %d", theirs.Version, s.version)
	}
	if theirs.GenesisBlockID != s.genesis {
		_ = WriteFrame(conn, &HandshakeDisconnectFrame{Reason: DisconnectIncompatibleChain})
		return nil, types.Newf(types.KindPrecondition, "peer genesis %x != ours %x", theirs.GenesisBlockID.Bytes(), s.genesis.Bytes())
	}
	return theirs, nil
}

// send writes one frame to the peer, serialized against concurrent
// broadcast writers.
func (p *Session) send(f Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(ReadTimeoutSeconds * time.Second))
	defer p.conn.SetWriteDeadline(time.Time{})
	return WriteFrame(p.conn, f)
}

// loop is the per-peer read/dispatch cycle. The per-frame read deadline
// doubles as the cancellation-check interval (spec §5 "every network
// read/write" is a suspension point): a timed-out read just loops back to
// check svc.done rather than closing the connection.
func (p *Session) loop() {
	p.maybeStartSync()
	for {
		select {
		case <-p.svc.done:
			return
		default:
		}

		p.conn.SetReadDeadline(time.Now().Add(ReadTimeoutSeconds * time.Second))
		frame, err := ReadFrame(p.conn)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			log.Infof("peer %s: %v", p.conn.RemoteAddr(), err)
			return
		}

		if err := p.handle(frame); err != nil {
			log.Infof("peer %s: %v", p.conn.RemoteAddr(), err)
			return
		}
		p.maybeStartSync()
	}
}

// maybeStartSync implements the Idle transition: "on local flag syncing:
// send SyncBlockchain{ids: [our_head_id]}. Transition WaitChainInv."
func (p *Session) maybeStartSync() {
	p.mu.Lock()
	idle := p.state == StateIdle
	p.mu.Unlock()
	if !idle || !p.svc.isSyncing() {
		return
	}
	if err := p.startChainInv(); err != nil {
		log.Warnf("peer %s: start sync: %v", p.conn.RemoteAddr(), err)
	}
}

func (p *Session) startChainInv() error {
	dp, _, _, err := p.svc.mgr.Snapshot()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.state = StateWaitChainInv
	p.mu.Unlock()
	return p.send(&SyncBlockchainFrame{IDs: []types.Hash{dp.LatestBlockHash}})
}

func (p *Session) handle(frame Frame) error {
	switch f := frame.(type) {
	case PingFrame:
		return p.send(PongFrame{})
	case PongFrame:
		return nil
	case *HandshakeDisconnectFrame:
		return types.Newf(types.KindTransient, "peer disconnected: reason %d", f.Reason)
	case *SyncBlockchainFrame:
		return p.handleSyncBlockchain(f)
	case *BlockchainInventoryFrame:
		return p.handleBlockchainInventory(f)
	case *FetchInventoryDataFrame:
		return p.handleFetchInventoryData(f)
	case *InventoryFrame:
		return p.handleInventory(f)
	case *BlockFrame:
		return p.handleBlock(f)
	case *TransactionsFrame:
		return p.handleTransactions(f)
	default:
		return types.Newf(types.KindMalformedInput, "unexpected frame %T", frame)
	}
}

// handleSyncBlockchain answers a peer's SyncBlockchain request from either
// Idle or WaitBlocks (spec §4.10): find the highest-numbered id we both
// share, reply with our inventory from there, or disconnect if nothing
// matches.
func (p *Session) handleSyncBlockchain(f *SyncBlockchainFrame) error {
	var unfork uint64
	unforkHash := p.svc.genesis
	matched := false
	for _, id := range f.IDs {
		if id == p.svc.genesis {
			matched = true
			continue
		}
		blk, ok, err := p.svc.chain.GetBlockByHash(id)
		if err != nil {
			return err
		}
		if ok {
			matched = true
			if blk.Number() > unfork {
				unfork = blk.Number()
				unforkHash = id
			}
		}
	}
	if !matched {
		return p.send(&HandshakeDisconnectFrame{Reason: DisconnectSyncFail})
	}

	// ids[0] echoes the shared point (the peer strips it before buffering,
	// spec §4.10 "buffer ids[1..]"); the rest are our_block_hashes_from(unfork).
	descendants, err := p.svc.chain.HashesFrom(unfork, MaxInventoryIDs-1)
	if err != nil {
		return err
	}
	ids := make([]types.Hash, 0, len(descendants)+1)
	ids = append(ids, unforkHash)
	ids = append(ids, descendants...)

	height, haveAny, err := p.svc.chain.Height()
	if err != nil {
		return err
	}
	lastReturned := unfork + uint64(len(descendants))
	var remain int64
	if haveAny && height > lastReturned {
		remain = int64(height - lastReturned)
	}
	return p.send(&BlockchainInventoryFrame{IDs: ids, RemainNum: remain})
}

// handleBlockchainInventory implements the WaitChainInv transition.
func (p *Session) handleBlockchainInventory(f *BlockchainInventoryFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateWaitChainInv {
		return types.Newf(types.KindMalformedInput, "unexpected BlockchainInventory outside WaitChainInv")
	}

	ids := f.IDs
	if len(ids) > 0 {
		ids = ids[1:] // ids[0] is the shared id both sides already agreed on
	}
	p.pending = ids
	p.lastInvRemain = f.RemainNum

	n := len(p.pending)
	if n > MaxBatchSize {
		n = MaxBatchSize
	}
	p.batch = append([]types.Hash{}, p.pending[:n]...)
	p.pending = p.pending[n:]

	if len(p.batch) == 0 && p.lastInvRemain == 0 {
		p.state = StateIdle
		return nil
	}
	p.state = StateWaitBlocks
	if len(p.batch) == 0 {
		return nil
	}
	return p.sendLocked(&FetchInventoryDataFrame{Type: InventoryBlock, IDs: p.batch})
}

// handleBlock implements the WaitBlocks per-block transition, but also
// accepts live single-block gossip outside an active sync round.
func (p *Session) handleBlock(f *BlockFrame) error {
	if f.Block == nil {
		return types.Newf(types.KindMalformedInput, "nil block")
	}
	hash := chaindb.BlockHash(f.Block)
	if _, seen := p.svc.recent.Get(hash); seen {
		return nil
	}
	p.svc.recent.Add(hash, struct{}{})

	if err := p.svc.mgr.PushBlock(f.Block); err != nil {
		log.Warnf("push block %d from %s: %v", f.Block.Number(), p.conn.RemoteAddr(), err)
	} else {
		p.svc.BroadcastInventory([]types.Hash{hash})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateWaitBlocks || len(p.batch) == 0 || hash != p.batch[len(p.batch)-1] {
		return nil
	}
	return p.advanceBatchLocked()
}

// advanceBatchLocked implements "if the block equals the last of the
// current batch, pull the next 500 ... ; if the last of the last-chain-
// inventory reply, request the next SyncBlockchain." Caller holds p.mu.
func (p *Session) advanceBatchLocked() error {
	if len(p.pending) > 0 {
		n := len(p.pending)
		if n > MaxBatchSize {
			n = MaxBatchSize
		}
		p.batch = append([]types.Hash{}, p.pending[:n]...)
		p.pending = p.pending[n:]
		return p.sendLocked(&FetchInventoryDataFrame{Type: InventoryBlock, IDs: p.batch})
	}
	p.batch = nil
	if p.lastInvRemain > 0 {
		p.state = StateIdle // maybeStartSync immediately re-kicks into WaitChainInv
		return nil
	}
	p.state = StateIdle
	return nil
}

// handleInventory requests bodies for any advertised id we don't already
// have (spec §4.10 "Inventory{BLOCK} (live advertisement) → request only
// unknown ids; Inventory{TRX} → forward to mempool").
func (p *Session) handleInventory(f *InventoryFrame) error {
	var unknown []types.Hash
	switch f.Type {
	case InventoryBlock:
		for _, id := range f.IDs {
			if _, seen := p.svc.recent.Get(id); seen {
				continue
			}
			if _, ok, err := p.svc.chain.GetBlockByHash(id); err != nil {
				return err
			} else if !ok {
				unknown = append(unknown, id)
			}
		}
	case InventoryTRX:
		for _, id := range f.IDs {
			if !p.svc.pool.Has(id) {
				unknown = append(unknown, id)
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return p.send(&FetchInventoryDataFrame{Type: f.Type, IDs: unknown})
}

// handleFetchInventoryData answers a peer's batch request with the bodies
// we have, skipping ids we don't (spec §4.10 doesn't define a not-found
// reply; silently omitting is equivalent to the peer never having asked).
func (p *Session) handleFetchInventoryData(f *FetchInventoryDataFrame) error {
	switch f.Type {
	case InventoryBlock:
		for _, id := range f.IDs {
			blk, ok, err := p.svc.chain.GetBlockByHash(id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := p.send(&BlockFrame{Block: blk}); err != nil {
				return err
			}
		}
	case InventoryTRX:
		var txs []*types.Transaction
		for _, id := range f.IDs {
			if tx, ok := p.svc.pool.Get(id); ok {
				txs = append(txs, tx)
			}
		}
		if len(txs) > 0 {
			return p.send(&TransactionsFrame{Transactions: txs})
		}
	}
	return nil
}

// handleTransactions admits each transaction into the local mempool, the
// way a FetchInventoryData{TRX} reply (or an unsolicited push) is consumed.
func (p *Session) handleTransactions(f *TransactionsFrame) error {
	for _, tx := range f.Transactions {
		if err := p.svc.pool.Add(tx); err != nil {
			log.Debugf("peer %s: reject transaction: %v", p.conn.RemoteAddr(), err)
		}
	}
	return nil
}

// sendLocked is send, for call sites already holding p.mu (send itself only
// touches writeMu, so this is just a documented-safe alias).
func (p *Session) sendLocked(f Frame) error {
	return p.send(f)
}
