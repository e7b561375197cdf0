package types

// ParamID enumerates the chain parameters persisted in StateDB's Default
// column family (spec §4.2 "Chain parameters"). Values double as the
// Proposal.Parameters map key (spec §3).
type ParamID int64

const (
	ParamMaintenanceTimeInterval ParamID = iota
	ParamAccountUpgradeCost
	ParamCreateAccountFee
	ParamTransactionFee
	ParamAssetIssueFee
	ParamWitnessPayPerBlock
	ParamStandbyWitnessPayPerBlock
	ParamWitnessStandbyAllowance
	ParamCreateNewAccountFeeInSystemContract
	ParamCreateNewAccountBandwidthRate
	ParamAllowCreationOfContracts
	ParamRemoveThePowerOfTheGr
	ParamEnergyFee
	ParamExchangeCreateFee
	ParamMaxCPUTimeOfOneTx
	ParamAllowUpdateAccountName
	ParamAllowSameTokenName
	ParamAllowDelegateResource
	ParamTotalEnergyLimit
	ParamAllowTvm
	ParamAllowTvmTransferTrc10Upgrade
	ParamTotalEnergyCurrentLimit
	ParamAllowMultisig
	ParamAllowAdaptiveEnergy
	ParamTotalEnergyTargetLimit
	ParamTotalEnergyAverageUsage
	ParamUpdateAccountPermissionFee
	ParamMultisigFee
	ParamAllowTvmConstantinopleUpgrade
	ParamAllowAccountStateRoot
	ParamAllowTvmSolidity059Upgrade
	ParamAdaptiveResourceLimitTargetRatio
	ParamAdaptiveResourceLimitMultiplier
	ParamAllowChangeDelegation
	ParamForbidTransferToContract
	ParamAllowTvmShieldedUpgrade
	ParamAllowProtoFilterNum
	ParamAllowAccountAssetOptimization
	ParamBandwidthFee // "BandwidthFee" used by spec §8 scenario 4

	numParamIDs // sentinel
)

// FeatureGate describes a boolean parameter that unlocks protocol behavior,
// along with the minimum block version and the prior gates it requires
// (spec §4.6 "Proposal Create", §9 "Feature gates are ordered").
type FeatureGate struct {
	Param        ParamID
	MinVersion   int32
	Requires     []ParamID
}

// FeatureGates is the ordered table of fork gates. Proposal validation walks
// this table so a gate cannot be enabled before its prerequisites are.
var FeatureGates = []FeatureGate{
	{Param: ParamAllowTvm, MinVersion: 1},
	{Param: ParamAllowMultisig, MinVersion: 1},
	{Param: ParamAllowAdaptiveEnergy, MinVersion: 2, Requires: []ParamID{ParamAllowTvm}},
	{Param: ParamAllowTvmTransferTrc10Upgrade, MinVersion: 3, Requires: []ParamID{ParamAllowTvm}},
	{Param: ParamAllowTvmConstantinopleUpgrade, MinVersion: 6, Requires: []ParamID{ParamAllowTvmTransferTrc10Upgrade}},
	{Param: ParamAllowTvmSolidity059Upgrade, MinVersion: 7, Requires: []ParamID{ParamAllowTvmConstantinopleUpgrade}},
	{Param: ParamAllowChangeDelegation, MinVersion: 9},
	{Param: ParamAllowTvmShieldedUpgrade, MinVersion: 10, Requires: []ParamID{ParamAllowTvmSolidity059Upgrade}},
	{Param: ParamAllowAccountAssetOptimization, MinVersion: 10},
}

// ParamRange bounds the values a proposal may set for a given parameter
// (spec §4.6 "each parameter change is type-checked against its range").
type ParamRange struct {
	Min, Max int64
}

// ParamRanges gives the declared valid range for every range-checked
// parameter; parameters absent from this map accept any int64 (e.g. the
// free-form fee/interval params are clamped only by their own actuators).
var ParamRanges = map[ParamID]ParamRange{
	ParamCreateNewAccountBandwidthRate:  {Min: 0, Max: 1_000_000_000},
	ParamRemoveThePowerOfTheGr:          {Min: -1, Max: 1},
	ParamAllowTvm:                       {Min: 0, Max: 1},
	ParamAllowMultisig:                  {Min: 0, Max: 1},
	ParamAllowDelegateResource:          {Min: 0, Max: 1},
	ParamAllowChangeDelegation:          {Min: 0, Max: 1},
	ParamForbidTransferToContract:       {Min: 0, Max: 1},
	ParamAllowTvmTransferTrc10Upgrade:   {Min: 0, Max: 1},
	ParamAllowTvmConstantinopleUpgrade:  {Min: 0, Max: 1},
	ParamAllowTvmSolidity059Upgrade:     {Min: 0, Max: 1},
	ParamAllowTvmShieldedUpgrade:        {Min: 0, Max: 1},
	ParamAllowAccountAssetOptimization:  {Min: 0, Max: 1},
	ParamAdaptiveResourceLimitTargetRatio: {Min: 1, Max: 1000},
}

// DefaultParams gives the compile-time default for every parameter
// (spec §4.2 genesis init), mirroring the ~40 named values listed in §4.2.
func DefaultParams() map[ParamID]int64 {
	return map[ParamID]int64{
		ParamMaintenanceTimeInterval:              6 * 60 * 60 * 1000,
		ParamAccountUpgradeCost:                   9_999_000_000,
		ParamCreateAccountFee:                      100_000,
		ParamTransactionFee:                        10,
		ParamAssetIssueFee:                         1024_000_000,
		ParamWitnessPayPerBlock:                    32_000_000,
		ParamStandbyWitnessPayPerBlock:              16_000_000,
		ParamWitnessStandbyAllowance:                115_200_000_000,
		ParamCreateNewAccountFeeInSystemContract:    0,
		ParamCreateNewAccountBandwidthRate:          1,
		ParamAllowCreationOfContracts:               0,
		ParamRemoveThePowerOfTheGr:                  0,
		ParamEnergyFee:                              10,
		ParamExchangeCreateFee:                      1024_000_000,
		ParamMaxCPUTimeOfOneTx:                       50,
		ParamAllowUpdateAccountName:                  0,
		ParamAllowSameTokenName:                      1,
		ParamAllowDelegateResource:                   0,
		ParamTotalEnergyLimit:                        50_000_000_000,
		ParamAllowTvm:                                1,
		ParamAllowTvmTransferTrc10Upgrade:            0,
		ParamTotalEnergyCurrentLimit:                 50_000_000_000,
		ParamAllowMultisig:                           1,
		ParamAllowAdaptiveEnergy:                      0,
		ParamTotalEnergyTargetLimit:                   50_000_000_000 / 14400,
		ParamTotalEnergyAverageUsage:                  0,
		ParamUpdateAccountPermissionFee:               100_000_000,
		ParamMultisigFee:                              1_000_000,
		ParamAllowTvmConstantinopleUpgrade:            0,
		ParamAllowAccountStateRoot:                    0,
		ParamAllowTvmSolidity059Upgrade:               0,
		ParamAdaptiveResourceLimitTargetRatio:         14400,
		ParamAdaptiveResourceLimitMultiplier:          1000,
		ParamAllowChangeDelegation:                    1,
		ParamForbidTransferToContract:                 0,
		ParamAllowTvmShieldedUpgrade:                  0,
		ParamAllowProtoFilterNum:                      0,
		ParamAllowAccountAssetOptimization:             0,
		ParamBandwidthFee:                              10,
	}
}

// Resource distinguishes bandwidth from energy (spec GLOSSARY).
type Resource uint8

const (
	ResourceBandwidth Resource = iota
	ResourceEnergy
)

const (
	// FreeNetLimit is the per-account daily free bandwidth quota (spec §4.5).
	FreeNetLimit = 5000
	// MaxVoteCount bounds the number of distinct witnesses one account may
	// vote for (spec §4.6 Vote).
	MaxVoteCount = 30
	// BlockProducingInterval is the slot width (spec §4.3 step 5, §4.8).
	BlockProducingIntervalMillis = 3000
	// ActiveWitnessCount is the size of the active (top) schedule slice
	// (spec §4.8).
	ActiveWitnessCount = 27
	// MaxSchedule is the total schedule size, top-127 by vote count
	// (spec §3 "witness schedule").
	MaxSchedule = 127
	// SolidThresholdPercent is the 70%-of-active-witnesses confirmation
	// threshold for solid-block advance (spec §4.3 step 11).
	SolidThresholdPercent = 70
	// NumConsecutiveBlocksPerRound is how many blocks in a row one
	// scheduled witness produces (spec §4.8).
	NumConsecutiveBlocksPerRound = 1
	// MaxTransactionExpirationMillis bounds tx.Expiration from
	// latest_block_timestamp (spec §4.4 step 2).
	MaxTransactionExpirationMillis = 24 * 60 * 60 * 1000
	// RefBlockRingSize is the size of the ref-block ring buffer
	// (spec §4.3 step 12): number & 0xffff.
	RefBlockRingSize = 1 << 16
	// FilledSlotsWindowSize is the width of the filled-slots ring buffer
	// (spec §4.3 step 10).
	FilledSlotsWindowSize = 128
	// CurrentBlockVersion is compared against incoming block versions
	// (spec §4.3 step 4).
	CurrentBlockVersion = int32(22)
	// ResourceWindowMillis is the decay window bandwidth/energy usage
	// counters slide over (spec §4.5.1): one day.
	ResourceWindowMillis = 24 * 60 * 60 * 1000
	// ResourcePrecision is the fixed-point scale used by the decay formula
	// (spec §4.5.1 "PRECISION = 10^6").
	ResourcePrecision = 1_000_000
)

// ResourceWindowSlots is the decay window expressed in block-producing
// slots (spec §4.5.1 "sliding window of RESOURCE_WINDOW_SIZE /
// BLOCK_PRODUCING_INTERVAL slots").
func ResourceWindowSlots() int64 {
	return ResourceWindowMillis / BlockProducingIntervalMillis
}
