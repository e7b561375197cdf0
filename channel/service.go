package channel

import (
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/logger"
	"github.com/opentron/opentron-sub001/manager"
	"github.com/opentron/opentron-sub001/mempool"
	"github.com/opentron/opentron-sub001/types"
)

var log, _ = logger.Get(logger.SubsystemTags.CHAN)

// recentBlockWindow bounds the LRU dedup set every session consults before
// handing a live Block frame to the Manager (spec §5 "the recent-block-id
// set (RwLock)").
const recentBlockWindow = 4096

// Service runs the peer-to-peer sync protocol (spec §4.10): it accepts and
// dials plain TCP connections, handshakes each one, and drives every peer's
// independent session state machine. Grounded on netadapter.NetAdapter's
// listener-plus-connection-registry shape (netadapter/netadapter.go), but
// adapted off its gRPC transport onto the length-prefixed TCP stream spec
// §4.10 actually describes, with per-peer queuing modeled on
// netadapter/router/route.go's channel-of-Message Route.
type Service struct {
	mgr     *manager.Manager
	chain   *chaindb.ChainDB
	pool    *mempool.Pool
	local   types.Address
	genesis types.Hash
	version int32

	listener net.Listener

	mu      sync.RWMutex
	syncing bool
	peers   map[string]*Session

	recent *lru.Cache[types.Hash, struct{}]

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Service identified locally as local, for the network whose
// block 0 is genesis and whose wire version is version (spec §6
// "chain.p2p_version"). mgr, chain, and pool are shared with the rest of the
// node: every accepted block is pushed through mgr exactly as a
// locally-produced one is (spec §2 data flow).
func New(mgr *manager.Manager, chain *chaindb.ChainDB, pool *mempool.Pool, local types.Address, genesis types.Hash, version int32) (*Service, error) {
	recent, err := lru.New[types.Hash, struct{}](recentBlockWindow)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "build recent-block cache")
	}
	return &Service{
		mgr:     mgr,
		chain:   chain,
		pool:    pool,
		local:   local,
		genesis: genesis,
		version: version,
		peers:   make(map[string]*Session),
		recent:  recent,
		done:    make(chan struct{}),
	}, nil
}

// Listen starts accepting inbound connections on addr. Each accepted
// connection runs its own session goroutine until Shutdown's
// termination_signal fires (spec §5 "independent TCP connections running in
// their own tasks").
func (s *Service) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return types.Wrap(types.KindTransient, err, "channel listen")
	}
	s.listener = ln
	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the address Listen bound to, or nil before Listen is called.
func (s *Service) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Service) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Warnf("channel accept: %v", err)
				return
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runSession(conn)
		}()
	}
}

// Dial opens an outbound connection to addr and runs its session until it
// ends or Shutdown fires.
func (s *Service) Dial(addr string) error {
	conn, err := net.DialTimeout("tcp", addr, ReadTimeoutSeconds*time.Second)
	if err != nil {
		return types.Wrap(types.KindTransient, err, "channel dial")
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSession(conn)
	}()
	return nil
}

// SetSyncing flips the local syncing flag (spec §5 "the syncing flag
// (RwLock)"); every Idle session checks it before starting a SyncBlockchain
// round.
func (s *Service) SetSyncing(syncing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = syncing
}

func (s *Service) isSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

// Shutdown broadcasts the process-wide termination_signal (spec §5): every
// session drops its connection and returns, and Shutdown waits for all of
// them before returning itself.
func (s *Service) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.RLock()
		for _, p := range s.peers {
			p.conn.Close()
		}
		s.mu.RUnlock()
	})
	s.wg.Wait()
}

func (s *Service) register(p *Session) {
	s.mu.Lock()
	s.peers[p.conn.RemoteAddr().String()] = p
	s.mu.Unlock()
}

func (s *Service) unregister(p *Session) {
	s.mu.Lock()
	delete(s.peers, p.conn.RemoteAddr().String())
	s.mu.Unlock()
}

// PeerCount reports the number of currently connected, handshaken peers.
func (s *Service) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// BroadcastInventory advertises newly accepted block ids to every connected
// peer, in batches of up to MaxAdvertiseBatch (spec §4.10 "Outgoing
// Inventory is advertised in batches of up to 1000 IDs").
func (s *Service) BroadcastInventory(ids []types.Hash) {
	if len(ids) == 0 {
		return
	}
	s.mu.RLock()
	peers := make([]*Session, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.RUnlock()

	for start := 0; start < len(ids); start += MaxAdvertiseBatch {
		end := start + MaxAdvertiseBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := &InventoryFrame{Type: InventoryBlock, IDs: ids[start:end]}
		for _, p := range peers {
			if err := p.send(batch); err != nil {
				log.Warnf("advertise to %s: %v", p.conn.RemoteAddr(), err)
			}
		}
	}
}
