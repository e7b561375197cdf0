package resource

import (
	"time"

	"github.com/opentron/opentron-sub001/statedb"
	"github.com/opentron/opentron-sub001/types"
)

// ChargeBandwidth runs the consumption order from spec §4.5 for a
// transaction of nbytes against payer, falling through new-account
// surcharge → asset-specific bandwidth → frozen bandwidth → free bandwidth
// → burnt bandwidth → rejection. assetID/hasAsset carry the legacy
// TransferAsset path (step 2); pass hasAsset=false for every other
// contract type.
func ChargeBandwidth(s *statedb.StateDB, payer types.Address, nbytes int64, now time.Time, createsAccount bool, assetID int64, hasAsset bool) error {
	nowMillis := now.UnixMilli()

	account, ok, err := s.GetAccount(payer)
	if err != nil {
		return err
	}
	if !ok {
		return types.Newf(types.KindResourceExhaustion, "bandwidth payer %s has no account", payer.Hex())
	}

	if createsAccount {
		if err := chargeNewAccountSurcharge(s, account, nbytes, nowMillis); err != nil {
			return err
		}
	}

	if hasAsset {
		ok, err := tryAssetBandwidth(s, account, assetID, nbytes, now)
		if err != nil {
			return err
		}
		if ok {
			return s.PutAccount(account)
		}
	}

	ok, err := tryFrozenBandwidth(s, account, nbytes, nowMillis)
	if err != nil {
		return err
	}
	if ok {
		return s.PutAccount(account)
	}

	ok, err = tryFreeBandwidth(s, account, nbytes, nowMillis)
	if err != nil {
		return err
	}
	if ok {
		return s.PutAccount(account)
	}

	if err := chargeBurntBandwidth(s, account, nbytes); err != nil {
		return err
	}
	return s.PutAccount(account)
}

// chargeNewAccountSurcharge is spec §4.5 step 1: weighted frozen-bandwidth
// consumption first, falling back to a flat balance fee that (per spec)
// "zeroes the bandwidth portion" — i.e. does not also debit bandwidth.
func chargeNewAccountSurcharge(s *statedb.StateDB, account *types.Account, nbytes, nowMillis int64) error {
	rate, err := s.GetParam(types.ParamCreateNewAccountBandwidthRate)
	if err != nil {
		return err
	}
	cost := nbytes * rate
	if cost > 0 {
		ok, err := tryFrozenBandwidth(s, account, cost, nowMillis)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	fee, err := s.GetParam(types.ParamCreateAccountFee)
	if err != nil {
		return err
	}
	if account.Balance < fee {
		return types.Newf(types.KindResourceExhaustion, "account %s cannot pay create-account fee", account.Address.Hex())
	}
	account.Balance -= fee
	return nil
}

// tryAssetBandwidth is spec §4.5 step 2, the legacy TransferAsset
// per-account-per-asset quota.
func tryAssetBandwidth(s *statedb.StateDB, account *types.Account, assetID, nbytes int64, now time.Time) (bool, error) {
	asset, ok, err := s.GetAsset(assetID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	nowMillis := now.UnixMilli()
	lastMillis := asset.PublicLatestFreeNetTime.UnixMilli()
	decayed := AdjustUsage(asset.PublicFreeAssetNetUsage, nbytes, lastMillis, nowMillis)
	if decayed > asset.PublicFreeAssetNetLimit {
		return false, nil
	}
	asset.PublicFreeAssetNetUsage = decayed
	asset.PublicLatestFreeNetTime = now
	if err := s.PutAsset(asset); err != nil {
		return false, err
	}
	return true, nil
}

// tryFrozenBandwidth is spec §4.5 step 3: the payer's decayed usage against
// its share of the global bandwidth limit, derived from frozen TRX weight.
func tryFrozenBandwidth(s *statedb.StateDB, account *types.Account, nbytes, nowMillis int64) (bool, error) {
	global, err := s.GetGlobalResourceState()
	if err != nil {
		return false, err
	}
	if global.TotalNetWeight <= 0 {
		return false, nil
	}
	weight := account.TotalFrozenBandwidth() / 1_000_000
	if weight <= 0 {
		return false, nil
	}
	limit := weight * global.TotalNetLimit / global.TotalNetWeight

	lastMillis := account.NetUsageAt.UnixMilli()
	decayed := AdjustUsage(account.NetUsage, nbytes, lastMillis, nowMillis)
	if decayed > limit {
		return false, nil
	}
	account.NetUsage = decayed
	account.NetUsageAt = time.UnixMilli(nowMillis)
	return true, nil
}

// tryFreeBandwidth is spec §4.5 step 4: the per-account daily free quota
// plus the chain-wide free pool, both decayed the same way.
func tryFreeBandwidth(s *statedb.StateDB, account *types.Account, nbytes, nowMillis int64) (bool, error) {
	lastMillis := account.NetUsageAt.UnixMilli()
	decayed := AdjustUsage(account.NetUsage, nbytes, lastMillis, nowMillis)
	if decayed > types.FreeNetLimit {
		return false, nil
	}

	global, err := s.GetGlobalResourceState()
	if err != nil {
		return false, err
	}
	globalDecayed := AdjustUsage(global.PublicNetUsage, nbytes, global.PublicNetUsageAt.UnixMilli(), nowMillis)
	if globalDecayed > global.TotalNetLimit {
		return false, nil
	}

	account.NetUsage = decayed
	account.NetUsageAt = time.UnixMilli(nowMillis)
	global.PublicNetUsage = globalDecayed
	global.PublicNetUsageAt = time.UnixMilli(nowMillis)
	return true, s.PutGlobalResourceState(global)
}

// chargeBurntBandwidth is spec §4.5 step 5/6: charge nbytes*BandwidthFee to
// TRX balance, or reject if the balance can't cover it.
func chargeBurntBandwidth(s *statedb.StateDB, account *types.Account, nbytes int64) error {
	fee, err := s.GetParam(types.ParamBandwidthFee)
	if err != nil {
		return err
	}
	cost := nbytes * fee
	if account.Balance < cost {
		return types.Newf(types.KindResourceExhaustion, "account %s has insufficient bandwidth and balance", account.Address.Hex())
	}
	account.Balance -= cost
	return nil
}
