// Package channel implements the sync wire protocol (spec §4.10): a 1-byte
// command code plus a type-specific payload, framed the way the teacher's
// own wire.Message/MessageCommand pair describes a kaspad protocol message,
// with a length-prefixed stream carrying them (grounded on
// netadapter/router/route.go's channel-of-Message idiom for the per-peer
// queue).
package channel

import (
	"github.com/opentron/opentron-sub001/types"
)

// Command identifies a frame's payload type (spec §4.10).
type Command uint8

const (
	CmdBlock               Command = 0x02
	CmdTransactions        Command = 0x03
	CmdInventory           Command = 0x06
	CmdFetchInventoryData  Command = 0x07
	CmdSyncBlockchain      Command = 0x08
	CmdBlockchainInventory Command = 0x09
	CmdHandshakeHello      Command = 0x20
	CmdHandshakeDisconnect Command = 0x21
	CmdPing                Command = 0x22
	CmdPong                Command = 0x23
)

func (c Command) String() string {
	switch c {
	case CmdBlock:
		return "Block"
	case CmdTransactions:
		return "Transactions"
	case CmdInventory:
		return "Inventory"
	case CmdFetchInventoryData:
		return "FetchInventoryData"
	case CmdSyncBlockchain:
		return "SyncBlockchain"
	case CmdBlockchainInventory:
		return "BlockchainInventory"
	case CmdHandshakeHello:
		return "HandshakeHello"
	case CmdHandshakeDisconnect:
		return "HandshakeDisconnect"
	case CmdPing:
		return "Ping"
	case CmdPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// Frame is a decoded protocol message: a command plus its payload, the way
// wire.Message pairs a MessageCommand with a concrete struct.
type Frame interface {
	Command() Command
}

// InventoryType distinguishes the two kinds of id lists Inventory/FetchInventoryData
// carry (spec §4.10 "Inventory subtype (TRX vs BLOCK)").
type InventoryType uint8

const (
	InventoryTRX InventoryType = iota
	InventoryBlock
)

// PingFrame/PongFrame are the 1-byte-body keepalive frames (spec §4.10).
type PingFrame struct{}

func (PingFrame) Command() Command { return CmdPing }

type PongFrame struct{}

func (PongFrame) Command() Command { return CmdPong }

// HandshakeHelloFrame is exchanged by both sides on connect (spec §4.10).
type HandshakeHelloFrame struct {
	From           types.Address
	Version        int32
	Timestamp      int64
	GenesisBlockID types.Hash
	SolidBlockID   types.Hash
	HeadBlockID    types.Hash
}

func (*HandshakeHelloFrame) Command() Command { return CmdHandshakeHello }

// DisconnectReason classifies why a peer sent HandshakeDisconnect.
type DisconnectReason uint8

const (
	DisconnectIncompatibleVersion DisconnectReason = iota
	DisconnectIncompatibleChain
	DisconnectSyncFail
)

type HandshakeDisconnectFrame struct {
	Reason DisconnectReason
}

func (*HandshakeDisconnectFrame) Command() Command { return CmdHandshakeDisconnect }

// BlockFrame carries one block (spec §4.10 Cmd 0x02).
type BlockFrame struct {
	Block *types.Block
}

func (*BlockFrame) Command() Command { return CmdBlock }

// TransactionsFrame carries a batch of transactions (spec §4.10 Cmd 0x03).
type TransactionsFrame struct {
	Transactions []*types.Transaction
}

func (*TransactionsFrame) Command() Command { return CmdTransactions }

// InventoryFrame is a live advertisement of known ids (spec §4.10, advertised
// in batches of up to 1000).
type InventoryFrame struct {
	Type InventoryType
	IDs  []types.Hash
}

func (*InventoryFrame) Command() Command { return CmdInventory }

// FetchInventoryDataFrame requests the bodies for a batch of ids.
type FetchInventoryDataFrame struct {
	Type InventoryType
	IDs  []types.Hash
}

func (*FetchInventoryDataFrame) Command() Command { return CmdFetchInventoryData }

// SyncBlockchainFrame asks the peer for the chain inventory following the
// most recent of the given ids.
type SyncBlockchainFrame struct {
	IDs []types.Hash
}

func (*SyncBlockchainFrame) Command() Command { return CmdSyncBlockchain }

// BlockchainInventoryFrame answers SyncBlockchain with up to 2000 ids plus
// the count remaining beyond them.
type BlockchainInventoryFrame struct {
	IDs       []types.Hash
	RemainNum int64
}

func (*BlockchainInventoryFrame) Command() Command { return CmdBlockchainInventory }

// MaxBatchSize bounds FetchInventoryData/SyncBlockchain batches (spec §4.10
// "take the first ≤ 500").
const MaxBatchSize = 500

// MaxInventoryIDs bounds one BlockchainInventory reply (spec §4.10 "≤2000").
const MaxInventoryIDs = 2000

// MaxAdvertiseBatch bounds one live Inventory advertisement (spec §4.10
// "batches of up to 1000 IDs").
const MaxAdvertiseBatch = 1000

// ReadTimeoutSeconds is the per-frame read deadline (spec §4.10).
const ReadTimeoutSeconds = 20
