package resource

import (
	"time"

	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// ChargeEnergy debits energyUsed from payer's frozen-energy allowance,
// falling back to burning the equivalent TRX at EnergyFee (spec §4.6
// "Smart contract create/trigger" energy accounting; same decay formula as
// bandwidth, spec §4.5.1, applied to the energy counters instead).
func ChargeEnergy(s *statedb.StateDB, payer types.Address, energyUsed int64, now time.Time) error {
	if energyUsed <= 0 {
		return nil
	}
	nowMillis := now.UnixMilli()

	account, ok, err := s.GetAccount(payer)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindResourceExhaustion, "energy payer %s has no account", payer.Hex())
	}

	ok, err = tryFrozenEnergy(s, account, energyUsed, nowMillis)
	if err != nil {
		return err
	}
	if !ok {
		if err := chargeBurntEnergy(s, account, energyUsed); err != nil {
			return err
		}
	}
	return s.PutAccount(account)
}

func tryFrozenEnergy(s *statedb.StateDB, account *types.Account, energyUsed, nowMillis int64) (bool, error) {
	global, err := s.GetGlobalResourceState()
	if err != nil {
		return false, err
	}
	if global.TotalEnergyWeight <= 0 {
		return false, nil
	}
	weight := account.TotalFrozenEnergy() / 1_000_000
	if weight <= 0 {
		return false, nil
	}
	limit := weight * global.TotalEnergyLimit / global.TotalEnergyWeight

	lastMillis := account.EnergyUsageAt.UnixMilli()
	decayed := AdjustUsage(account.EnergyUsage, energyUsed, lastMillis, nowMillis)
	if decayed > limit {
		return false, nil
	}
	account.EnergyUsage = decayed
	account.EnergyUsageAt = time.UnixMilli(nowMillis)
	return true, nil
}

func chargeBurntEnergy(s *statedb.StateDB, account *types.Account, energyUsed int64) error {
	fee, err := s.GetParam(types.ParamEnergyFee)
	if err != nil {
		return err
	}
	cost := energyUsed * fee
	if account.Balance < cost {
		return types.Newf(types.KindResourceExhaustion, "account %s has insufficient energy and balance", account.Address.Hex())
	}
	account.Balance -= cost
	return nil
}
