package types

// Witness is an elected validator record (spec §3, GLOSSARY "Witness/SR").
type Witness struct {
	Address        Address
	URL            string
	VoteCount      int64
	BrokerageRate  int32 // percent 0-100
	TotalProduced  int64
	TotalMissed    int64
	LatestBlockNum uint64
	LatestSlotNum  uint64
	Version        int32
	SigningKey     []byte // witness signing public key
	IsJobs         bool   // present in the active (top-27) schedule
}

// Votes is one account's current vote allocation (spec §3), keyed by owner
// address. It also tracks the voter's epoch pointer used by withdraw_reward
// (spec §4.9).
type Votes struct {
	Owner      Address
	Ballots    map[Address]int64 // witness address -> vote count
	LastEpoch  int64
}

// VoterReward is one (epoch, witness) reward bucket seeded at maintenance
// time (spec §4.7 step 6) and swept by withdraw_reward (spec §4.9).
type VoterReward struct {
	Epoch         int64
	Witness       Address
	VoteCount     int64
	RewardAmount  int64
}
