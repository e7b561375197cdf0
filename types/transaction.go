package types

import "time"

// ContractType identifies a builtin contract payload type (spec §4.6). The
// numeric values match the bit index used by the active-permission
// operations bitmask (spec §4.4 step 5).
type ContractType uint8

const (
	ContractTypeTransfer ContractType = iota
	ContractTypeTransferAsset
	ContractTypeFreezeBalance
	ContractTypeUnfreezeBalance
	ContractTypeVoteWitness
	ContractTypeWitnessCreate
	ContractTypeWitnessUpdate
	ContractTypeAssetIssue
	ContractTypeProposalCreate
	ContractTypeProposalApprove
	ContractTypeProposalDelete
	ContractTypeExchangeCreate
	ContractTypeExchangeInject
	ContractTypeExchangeWithdraw
	ContractTypeExchangeTransaction
	ContractTypeSmartContractCreate
	ContractTypeSmartContractTrigger
	ContractTypeAccountPermissionUpdate
	ContractTypeWithdrawBalance
	ContractTypeAccountCreate

	numContractTypes // sentinel, keep last
)

// OperationBit returns bit t as used in an Active permission's 32-byte
// operations bitmask: bit t lives at operations[t/8] >> (t%8) (spec §4.4).
func (t ContractType) OperationBit() (byteIndex int, bitMask byte) {
	return int(t) / 8, 1 << (uint(t) % 8)
}

// Contract is the single payload of a transaction: a type code plus its
// type-specific parameters. Parameters are kept as an opaque value here; each
// actuator knows how to interpret its own contract type's Parameter field
// (the wire format in spec §6 carries this as a protobuf Any equivalent).
type Contract struct {
	Type         ContractType
	Owner        Address
	Parameter    interface{}
	PermissionID int32
}

// TransactionRaw is the signed portion of a transaction (spec §3, §6).
type TransactionRaw struct {
	RefBlockBytes [2]byte
	RefBlockHash  [8]byte
	Expiration    time.Time
	Timestamp     time.Time
	Data          []byte // memo, <= 512_000 bytes
	Contract      Contract
	FeeLimit      int64
}

// MaxMemoSize bounds TransactionRaw.Data (spec §6).
const MaxMemoSize = 512_000

// MaxTransactionSize bounds a transaction's encoded size (spec §4.4 step 2).
const MaxTransactionSize = 500 * 1024

// ContractStatus classifies the outcome recorded in a TransactionReceipt
// (spec §7): only VM-backed transactions are expected to fail mid-execution.
type ContractStatus uint8

const (
	ContractStatusDefault ContractStatus = iota
	ContractStatusSuccess
	ContractStatusRevert
	ContractStatusUnknown
	ContractStatusOutOfEnergy
	ContractStatusOutOfTime
)

// TransactionReceipt records the resource usage and outcome of one
// transaction (spec §4.4 step 8, §6 column family TransactionReceipt).
type TransactionReceipt struct {
	BandwidthUsage      int64
	BandwidthFee        int64
	EnergyUsage         int64
	EnergyFee           int64
	ContractStatus      ContractStatus
	Logs                []byte
	InternalTransactions [][]byte
	WithdrawAmount      int64
	CreatedContract     *Address
	CreatedAssetID      int64
}

// Transaction is raw_data plus one or more signatures and an optional
// execution-result tail (spec §3). Identity is SHA-256(raw_data).
type Transaction struct {
	RawData    TransactionRaw
	Signatures [][65]byte
	Receipt    *TransactionReceipt
}

// Hash computes the transaction identity over its encoded raw_data. Encoding
// is delegated to the codec package so signature verification and hashing
// always see the exact same bytes (design note §9: cache the digest).
type Hasher interface {
	Hash(tx *Transaction) Hash
}
