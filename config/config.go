package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

// EngineParams are the consensus-critical knobs of the escrow and
// governance engine. Every node in a chain must run the same values
// or app hashes diverge.
type EngineParams struct {
	VotingPeriodBlocks uint64 `mapstructure:"voting_period_blocks"`
	MinVoterStake      uint64 `mapstructure:"min_voter_stake"`
}

func DefaultEngineParams() EngineParams {
	return EngineParams{
		VotingPeriodBlocks: 120,
		MinVoterStake:      1000,
	}
}

type RFEAppConfig struct {
	Home string `mapstructure:"-"`

	Engine EngineParams `mapstructure:",squash"`
}

func NewRFEAppConfig(home string) *RFEAppConfig {
	return &RFEAppConfig{
		Home:   home,
		Engine: DefaultEngineParams(),
	}
}

// StakePerPower is the amount of registered stake backing one unit of
// validator power.
func StakePerPower(height uint64) uint64 {
	return 1000
}

func PowerPerStake(stake uint64, height uint64) int64 {
	return int64(stake / StakePerPower(height))
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *RFEAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.rfe")
	}
	config := &Config{
		DefaultRFECometConfig(),
		NewRFEAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func NewRFEConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.rfe")
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultRFECometConfig(),
		NewRFEAppConfig(home),
	}
	config.RootDir = home
	return config
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func InitializeNodeOnly(config *Config) {
	_, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return
	}

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return
	}
	privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	os.Remove(pvKeyFile)
}

func DefaultRFECometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 10
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
