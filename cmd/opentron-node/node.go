package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/opentron/opentron-sub001/chaindb"
	"github.com/opentron/opentron-sub001/channel"
	"github.com/opentron/opentron-sub001/config"
	"github.com/opentron/opentron-sub001/logger"
	"github.com/opentron/opentron-sub001/manager"
	"github.com/opentron/opentron-sub001/mempool"
	"github.com/opentron/opentron-sub001/producer"
	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// node bundles every subsystem spec §2's data-flow diagram names, the way
// kaspad.go's kaspad struct bundles its own (networkAdapter, addressManager,
// connectionManager, rpcServer) behind one lifecycle.
type node struct {
	cfg *config.Config

	lock *flock.Flock

	store *statedb.PersistentStore
	db    *statedb.StateDB
	chain *chaindb.ChainDB
	mgr   *manager.Manager
	pool  *mempool.Pool

	prod *producer.Producer // nil unless producer.enable
	svc  *channel.Service
}

// openNode loads cfg, acquires the single-instance data-dir lock, opens both
// databases, and initializes genesis on a fresh data directory (spec §4.2
// "Genesis init" runs exactly once per chain).
func openNode(cfgPath string) (*node, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "create data dir")
	}
	lock := flock.New(filepath.Join(cfg.Storage.DataDir, "LOCK"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "acquire data dir lock")
	}
	if !locked {
		return nil, types.Newf(types.KindPrecondition, "data dir %s is locked by another opentron-node instance", cfg.Storage.DataDir)
	}

	n := &node{cfg: cfg, lock: lock}

	n.store, err = statedb.OpenPersistentStore(cfg.Storage.StateDataDir)
	if err != nil {
		n.lock.Unlock()
		return nil, err
	}
	n.db = statedb.New(n.store)
	n.db.NewLayer()

	dp, err := n.db.GetDynamicProperties()
	if err != nil {
		n.closeErr()
		return nil, err
	}
	if dp.GenesisTimestamp.IsZero() {
		gcfg, err := config.LoadGenesis(cfg.Chain.Genesis)
		if err != nil {
			n.closeErr()
			return nil, err
		}
		if err := n.db.InitGenesis(gcfg); err != nil {
			n.closeErr()
			return nil, err
		}
		if err := n.db.SolidifyLayer(); err != nil {
			n.closeErr()
			return nil, err
		}
	}

	n.chain, err = chaindb.Open(cfg.Storage.DataDir)
	if err != nil {
		n.closeErr()
		return nil, err
	}
	n.mgr, err = manager.New(n.db, n.chain)
	if err != nil {
		n.closeErr()
		return nil, err
	}
	n.pool = mempool.New(n.db)

	return n, nil
}

// genesisHash recomputes block 0's identity straight from the genesis
// document, independent of how far the chain has since advanced
// (statedb.GenesisHash is pure and touches no layer).
func (n *node) genesisHash() (types.Hash, error) {
	gcfg, err := config.LoadGenesis(n.cfg.Chain.Genesis)
	if err != nil {
		return types.Hash{}, err
	}
	return statedb.GenesisHash(gcfg), nil
}

func (n *node) closeErr() {
	if n.chain != nil {
		_ = n.chain.Close()
	}
	if n.store != nil {
		_ = n.store.Close()
	}
	if n.lock != nil {
		_ = n.lock.Unlock()
	}
}

func (n *node) close() {
	if n.svc != nil {
		n.svc.Shutdown()
	}
	n.closeErr()
}

// runCheck opens everything runNode would, reports a one-line summary, and
// exits without starting the producer or the channel service (spec §6
// "check" subcommand).
func runCheck(cfgPath string) error {
	n, err := openNode(cfgPath)
	if err != nil {
		return err
	}
	defer n.closeErr()

	dp, err := n.db.GetDynamicProperties()
	if err != nil {
		return err
	}
	height, ok, err := n.chain.Height()
	if err != nil {
		return err
	}
	if !ok {
		log.Infof("check: state ok, head block %d, chaindb has no finalized blocks yet", dp.LatestBlockNumber)
		return nil
	}
	log.Infof("check: state ok, head block %d, chaindb height %d", dp.LatestBlockNumber, height)
	return nil
}

// runFix rebuilds the chaindb number→hash index (spec §6 "fix" subcommand).
func runFix(cfgPath string) error {
	n, err := openNode(cfgPath)
	if err != nil {
		return err
	}
	defer n.closeErr()

	count, err := n.chain.RebuildHashIndex()
	if err != nil {
		return err
	}
	log.Infof("fix: rebuilt hash index for %d blocks", count)
	return nil
}

// runNode opens the node and runs it until Ctrl-C or SIGTERM, starting the
// producer loop (if producer.enable) and the channel service (spec §5 "Ctrl-C
// triggers graceful termination"). dev forces the producer on for a
// single-node development chain even if the config left it disabled (spec §6
// "dev" subcommand).
func runNode(cfgPath string, dev bool) error {
	n, err := openNode(cfgPath)
	if err != nil {
		return err
	}
	defer n.close()

	genesis, err := n.genesisHash()
	if err != nil {
		return err
	}

	producerEnabled := n.cfg.Producer.Enable || dev
	var local types.Address
	if producerEnabled {
		if len(n.cfg.Producer.Keypair) == 0 {
			return types.Newf(types.KindMalformedInput, "producer.keystore loading is not implemented; configure producer.keypair directly")
		}
		kp := n.cfg.Producer.Keypair[0]
		sk, err := config.ParsePrivateKey(kp.PrivateKey)
		if err != nil {
			return err
		}
		n.prod, err = producer.New(n.mgr, n.pool, sk)
		if err != nil {
			return err
		}
		local = n.prod.Address()
		log.Infof("producer enabled for witness %s", local.Hex())
	}

	version := n.cfg.Chain.P2PVersion
	if version == 0 {
		version = types.CurrentBlockVersion
	}
	n.svc, err = channel.New(n.mgr, n.chain, n.pool, local, genesis, version)
	if err != nil {
		return err
	}

	if n.cfg.Protocol.Channel.Enable && n.cfg.Protocol.Channel.EnablePassive {
		if err := n.svc.Listen(n.cfg.Protocol.Channel.Endpoint); err != nil {
			return err
		}
		log.Infof("listening for peers on %s", n.svc.Addr())
	}
	if n.cfg.Protocol.Channel.Enable && n.cfg.Protocol.Channel.EnableActive {
		n.svc.SetSyncing(true)
		for _, addr := range n.cfg.Protocol.Channel.ActiveNodes {
			if err := n.svc.Dial(addr); err != nil {
				log.Warnf("dial %s: %v", addr, err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if n.prod != nil {
		go n.runProducerLoop(ctx)
	}

	<-ctx.Done()
	log.Infof("termination_signal received, shutting down")
	return nil
}

// runProducerLoop drives the producer once per slot until ctx is canceled,
// the same polling shape spec §4.8's "at each slot boundary" schedule
// describes.
func (n *node) runProducerLoop(ctx context.Context) {
	interval := time.Duration(types.BlockProducingIntervalMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			block, err := n.prod.TryProduce(now)
			if err != nil {
				log.Warnf("produce block: %v", err)
				continue
			}
			if block == nil {
				continue
			}
			log.Infof("produced block %d", block.Number())
			if n.svc != nil {
				n.svc.BroadcastInventory([]types.Hash{chaindb.BlockHash(block)})
			}
		}
	}
}
