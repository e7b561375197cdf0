package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/opentron/opentron-sub001/types"
)

// genesisDoc is the on-disk shape of the file chain.genesis names: a JSON
// document an operator hand-edits once per network, parsed here and handed
// to statedb.InitGenesis as a types.GenesisConfig (spec §1 "out-of-core
// genesis-JSON parser", §4.2 "Genesis init"). JSON rather than TOML because
// this is a single generated artifact checked into a chain's genesis
// repository, not an operator-tuned runtime setting.
type genesisDoc struct {
	Timestamp time.Time `json:"timestamp"`
	Witnesses []struct {
		Address   string `json:"address"`
		URL       string `json:"url"`
		VoteCount int64  `json:"vote_count"`
	} `json:"witnesses"`
	Allocs []struct {
		Address string `json:"address"`
		Balance int64  `json:"balance"`
	} `json:"allocs"`
	Parameter ChainParameter `json:"parameter"`
}

// LoadGenesis reads the genesis document at path and builds the
// types.GenesisConfig statedb.InitGenesis expects.
func LoadGenesis(path string) (*types.GenesisConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "read genesis file")
	}

	var doc genesisDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "parse genesis json")
	}

	cfg := &types.GenesisConfig{
		Timestamp: doc.Timestamp,
		Params:    doc.Parameter.Overrides(),
	}
	for _, w := range doc.Witnesses {
		addr, err := ParseAddress(w.Address)
		if err != nil {
			return nil, types.Wrap(types.KindMalformedInput, err, "genesis witness address")
		}
		cfg.Witnesses = append(cfg.Witnesses, types.GenesisWitness{
			Address:   addr,
			URL:       w.URL,
			VoteCount: w.VoteCount,
		})
	}
	for _, a := range doc.Allocs {
		addr, err := ParseAddress(a.Address)
		if err != nil {
			return nil, types.Wrap(types.KindMalformedInput, err, "genesis alloc address")
		}
		cfg.Allocs = append(cfg.Allocs, types.GenesisAlloc{
			Address: addr,
			Balance: a.Balance,
		})
	}
	return cfg, nil
}
