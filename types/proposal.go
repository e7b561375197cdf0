package types

import "time"

// ProposalState is the lifecycle state of a Proposal (spec §3).
type ProposalState uint8

const (
	ProposalPending ProposalState = iota
	ProposalDisapproved
	ProposalApproved
	ProposalCancelled
)

// Proposal is a chain-parameter change proposal (spec §3, §4.6).
type Proposal struct {
	ID             int64
	Proposer       Address
	Parameters     map[int64]int64 // param-id -> new value
	CreationTime   time.Time
	ExpirationTime time.Time
	Approvers      map[Address]bool
	State          ProposalState
}
