package statedb

// Column identifies one of the ~13 logical column families StateDB
// persists into (spec §4.2). Keys are namespaced by column so a single
// goleveldb instance can back every family without cross-talk.
type Column string

const (
	ColumnAccount                  Column = "account"
	ColumnContract                 Column = "contract"
	ColumnContractCode             Column = "contractcode"
	ColumnContractStorage          Column = "contractstorage"
	ColumnWitness                  Column = "witness"
	ColumnProposal                 Column = "proposal"
	ColumnAsset                    Column = "asset"
	ColumnExchange                 Column = "exchange"
	ColumnVotes                    Column = "votes"
	ColumnResourceDelegation       Column = "resourcedelegation"
	ColumnResourceDelegationIndex  Column = "resourcedelegationindex"
	ColumnTransactionReceipt       Column = "transactionreceipt"
	ColumnTransactionLog           Column = "transactionlog"
	// ColumnVoterReward holds one bucket per (epoch, witness) seeded at
	// maintenance time and swept by withdraw_reward (spec §4.7 step 6, §4.9).
	ColumnVoterReward              Column = "voterreward"
	// ColumnDefault holds singletons: chain parameters, dynamic
	// properties, the latest block hash, the witness schedule, and the
	// filled-slot ring buffer (spec §4.2).
	ColumnDefault Column = "default"
)

// namespace prepends the column name to key so distinct families never
// collide inside the single underlying keyspace.
func namespace(col Column, key []byte) []byte {
	out := make([]byte, 0, len(col)+1+len(key))
	out = append(out, col...)
	out = append(out, ':')
	out = append(out, key...)
	return out
}
