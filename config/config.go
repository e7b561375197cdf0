// Package config loads the node's TOML configuration (spec §6 "Config
// (toml)"): the chain/storage/protocol/producer struct tree a node needs to
// open its databases, seed genesis, and join the network. Grounded on
// kasparov/kasparovd/config.Config's load-into-struct shape, but built on
// pelletier/go-toml/v2 instead of the teacher's flags-only surface, since
// spec §6 calls for a config *file* rather than a flat flag set.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/opentron/opentron-sub001/types"
)

// Chain carries the parameters StateDB's genesis init needs, plus the
// values a running node consults outside of any one transaction (spec §4.2,
// §4.6 "Proposal Create").
type Chain struct {
	Genesis                     string          `toml:"genesis"`
	P2PVersion                  int32           `toml:"p2p_version"`
	ProposalExpirationDuration  string          `toml:"proposal_expiration_duration"`
	Parameter                   ChainParameter  `toml:"parameter"`
}

// ChainParameter is the subset of types.ParamID the operator can override at
// genesis time (spec §6 "parameter { maintenance_interval, allow_* flags,
// energy_fee, bandwidth_fee }"). Zero-valued fields are left at
// types.DefaultParams()'s compiled-in defaults.
type ChainParameter struct {
	MaintenanceInterval      int64 `toml:"maintenance_interval" json:"maintenance_interval"`
	AllowCreationOfContracts bool  `toml:"allow_creation_of_contracts" json:"allow_creation_of_contracts"`
	AllowTvm                 bool  `toml:"allow_tvm" json:"allow_tvm"`
	AllowMultisig            bool  `toml:"allow_multisig" json:"allow_multisig"`
	AllowAdaptiveEnergy      bool  `toml:"allow_adaptive_energy" json:"allow_adaptive_energy"`
	AllowDelegateResource    bool  `toml:"allow_delegate_resource" json:"allow_delegate_resource"`
	EnergyFee                int64 `toml:"energy_fee" json:"energy_fee"`
	BandwidthFee              int64 `toml:"bandwidth_fee" json:"bandwidth_fee"`
}

// Storage names the on-disk locations for each of the node's independent
// databases (spec §2 "StateDB ... ChainDB"; neither shares a directory,
// since solidify/discard never touches chain history).
type Storage struct {
	DataDir       string `toml:"data_dir"`
	StateDataDir  string `toml:"state_data_dir"`
	StateCacheDir string `toml:"state_cache_dir"`
}

// Discovery names a peer-discovery endpoint the node can query for seed
// addresses (spec §6 "discovery { enable, endpoint }").
type Discovery struct {
	Enable   bool   `toml:"enable"`
	Endpoint string `toml:"endpoint"`
}

// Channel configures the §4.10 sync protocol's TCP surface.
type Channel struct {
	Enable                bool   `toml:"enable"`
	EnablePassive         bool   `toml:"enable_passive"`
	EnableActive          bool   `toml:"enable_active"`
	Endpoint              string `toml:"endpoint"`
	AdvertisedEndpoint    string `toml:"advertised_endpoint"`
	ActiveNodes           []string `toml:"active_nodes"`
	MaxActiveConnections  int    `toml:"max_active_connections"`
	SyncBatchSize         int    `toml:"sync_batch_size"`
}

// Protocol groups everything that governs how this node talks to its peers
// (spec §6 "protocol { seed_nodes, discovery, channel }").
type Protocol struct {
	SeedNodes []string  `toml:"seed_nodes"`
	Discovery Discovery `toml:"discovery"`
	Channel   Channel   `toml:"channel"`
}

// Keypair is one witness signing key the producer loop may use, carried as
// hex the same way cmd/txsigner.parsePrivateKey reads one off the command
// line (spec §6 "producer { keypair: [{address, private_key}] }").
type Keypair struct {
	Address    string `toml:"address"`
	PrivateKey string `toml:"private_key"`
}

// Producer configures the block-assembly loop (spec §6 "producer { enable,
// keystore?, keypair }").
type Producer struct {
	Enable   bool      `toml:"enable"`
	Keystore string    `toml:"keystore"`
	Keypair  []Keypair `toml:"keypair"`
}

// Config is the complete TOML document a node is started from.
type Config struct {
	Chain    Chain    `toml:"chain"`
	Storage  Storage  `toml:"storage"`
	Protocol Protocol `toml:"protocol"`
	Producer Producer `toml:"producer"`
}

// defaultChannelSyncBatchSize mirrors spec §6's documented default for
// protocol.channel.sync_batch_size.
const defaultChannelSyncBatchSize = 200

// Load reads and parses the TOML document at path, filling in the
// spec-documented defaults for any field the file omits.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "read config file")
	}

	cfg := &Config{
		Protocol: Protocol{
			Channel: Channel{
				SyncBatchSize: defaultChannelSyncBatchSize,
			},
		},
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "parse config toml")
	}
	if cfg.Protocol.Channel.SyncBatchSize == 0 {
		cfg.Protocol.Channel.SyncBatchSize = defaultChannelSyncBatchSize
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.DataDir == "" {
		return types.Newf(types.KindMalformedInput, "storage.data_dir is required")
	}
	if c.Storage.StateDataDir == "" {
		return types.Newf(types.KindMalformedInput, "storage.state_data_dir is required")
	}
	if c.Producer.Enable && len(c.Producer.Keypair) == 0 && c.Producer.Keystore == "" {
		return types.Newf(types.KindMalformedInput, "producer.enable requires a keypair or a keystore")
	}
	for _, kp := range c.Producer.Keypair {
		if _, err := ParseAddress(kp.Address); err != nil {
			return types.Wrap(types.KindMalformedInput, err, "producer.keypair address")
		}
		if _, err := ParsePrivateKey(kp.PrivateKey); err != nil {
			return types.Wrap(types.KindMalformedInput, err, "producer.keypair private_key")
		}
	}
	return nil
}

// ProposalExpiration parses Chain.ProposalExpirationDuration, defaulting to
// 72h (spec §4.6 "Proposal ... expiration") when the field is left blank.
func (c *Chain) ProposalExpiration() (time.Duration, error) {
	if c.ProposalExpirationDuration == "" {
		return 72 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.ProposalExpirationDuration)
	if err != nil {
		return 0, types.Wrap(types.KindMalformedInput, err, "chain.proposal_expiration_duration")
	}
	return d, nil
}

// Overrides builds the types.ParamID override map InitGenesis layers on top
// of types.DefaultParams() (spec §4.2). Boolean allow_* fields are only
// applied when true, since "false" and "unset" are indistinguishable in
// TOML and the compiled-in default for most allow_* gates is already off.
func (p *ChainParameter) Overrides() map[types.ParamID]int64 {
	out := make(map[types.ParamID]int64)
	if p.MaintenanceInterval != 0 {
		out[types.ParamMaintenanceTimeInterval] = p.MaintenanceInterval
	}
	if p.AllowCreationOfContracts {
		out[types.ParamAllowCreationOfContracts] = 1
	}
	if p.AllowTvm {
		out[types.ParamAllowTvm] = 1
	}
	if p.AllowMultisig {
		out[types.ParamAllowMultisig] = 1
	}
	if p.AllowAdaptiveEnergy {
		out[types.ParamAllowAdaptiveEnergy] = 1
	}
	if p.AllowDelegateResource {
		out[types.ParamAllowDelegateResource] = 1
	}
	if p.EnergyFee != 0 {
		out[types.ParamEnergyFee] = p.EnergyFee
	}
	if p.BandwidthFee != 0 {
		out[types.ParamBandwidthFee] = p.BandwidthFee
	}
	return out
}
