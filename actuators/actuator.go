// Package actuators implements the per-contract-type (validate, execute)
// pair dispatched by the transaction executor (spec §4.6). Every actuator
// mutates StateDB only from Execute; Validate is pure (aside from fee
// computation written into the Context).
package actuators

import (
	"time"

	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// Context carries everything an actuator needs beyond the contract payload
// itself: the overlay to read/write, the block this transaction is being
// executed in, and fee accumulators Validate may fill in for Execute.
type Context struct {
	State   *statedb.StateDB
	Now     time.Time
	TxHash  types.Hash
	FeeLimit int64

	NewAccountCreated bool
}

// Actuator is the (validate, execute) pair spec §4.6 requires of every
// builtin contract type.
type Actuator interface {
	// Validate performs pure checks and fee computation; it must not
	// mutate ctx.State.
	Validate(ctx *Context, contract *types.Contract) error
	// Execute performs the state mutation and fills in receipt fields
	// specific to this contract type.
	Execute(ctx *Context, contract *types.Contract, receipt *types.TransactionReceipt) error
}

var registry = map[types.ContractType]Actuator{}

// Register installs an actuator for a contract type. Called from each
// actuator's own init().
func Register(t types.ContractType, a Actuator) {
	registry[t] = a
}

// For returns the actuator registered for t, or ok=false if none is
// (spec §4.4 step 7 "load actuator for contract.type_code").
func For(t types.ContractType) (Actuator, bool) {
	a, ok := registry[t]
	return a, ok
}
