// Package resource implements bandwidth/energy accounting: the decayed
// sliding-window usage counters and the consumption order a transaction's
// size is charged against (spec §4.5).
package resource

import "github.com/opentron/opentron-sub001/types"

// AdjustUsage applies the decay formula from spec §4.5.1 to a single usage
// counter: u' = ceil(u*PRECISION/W)*decay + ceil(du*PRECISION/W), rescaled
// back by W/PRECISION, where decay = max(0, (W-(tNow-tLast))/W) and the
// window W is expressed in slots. tLast/tNow are unix-millis timestamps.
func AdjustUsage(u, du, tLast, tNow int64) int64 {
	w := types.ResourceWindowSlots()
	if w <= 0 {
		return u + du
	}
	precision := int64(types.ResourcePrecision)

	elapsedSlots := (tNow - tLast) / types.BlockProducingIntervalMillis
	decay := w - elapsedSlots
	if decay < 0 {
		decay = 0
	}

	scaledU := ceilDiv(u*precision, w)
	scaledDu := ceilDiv(du*precision, w)

	decayed := scaledU*decay/w + scaledDu
	return decayed * w / precision
}

func ceilDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if a%b == 0 {
		return a / b
	}
	if (a < 0) == (b < 0) {
		return a/b + 1
	}
	return a / b
}
