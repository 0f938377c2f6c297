package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/agentpay/payproof/types"
)

// Config is the process-level configuration an agent loads to stand up
// the payment and proof pipelines.
type Config struct {
	Agent   AgentConfig   `mapstructure:"agent"`
	Payment PaymentConfig `mapstructure:"payment"`
	Proof   ProofConfig   `mapstructure:"proof"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
}

type AgentConfig struct {
	ID       string `mapstructure:"id"`
	LogLevel string `mapstructure:"log_level"`
	Metrics  bool   `mapstructure:"metrics"`
}

type PaymentConfig struct {
	// Networks this agent will honor 402 demands on.
	Networks []string `mapstructure:"networks"`

	// PayerKey is the hex private key used for authorization signing
	// and, in execute-on-chain mode, for transfers.
	PayerKey string `mapstructure:"payer_key"`

	RPCURL         string `mapstructure:"rpc_url"`
	ExecuteOnChain bool   `mapstructure:"execute_on_chain"`
	TimeoutSec     int64  `mapstructure:"timeout_sec"`
}

type ProofConfig struct {
	ProverURL   string `mapstructure:"prover_url"`
	VerifierURL string `mapstructure:"verifier_url"`
	TimeoutSec  int64  `mapstructure:"timeout_sec"`
}

type LedgerConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	SigningKey      string `mapstructure:"signing_key"`
	ValidatorAddr   string `mapstructure:"validator_address"`
	ChainID         int64  `mapstructure:"chain_id"`
}

// Timeout returns the payment timeout with the default applied.
func (p PaymentConfig) Timeout() time.Duration {
	if p.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSec) * time.Second
}

// Timeout returns the proof timeout with the default applied.
func (p ProofConfig) Timeout() time.Duration {
	if p.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSec) * time.Second
}

// Load reads config.yaml (optional) plus environment bindings.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("payment.networks", []string{"base", "base-sepolia"})
	v.SetDefault("payment.timeout_sec", 30)
	v.SetDefault("proof.timeout_sec", 30)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"agent.id":                 "AGENT_ID",
		"agent.log_level":          "LOG_LEVEL",
		"agent.metrics":            "ENABLE_METRICS",
		"payment.payer_key":        "PAYER_KEY",
		"payment.rpc_url":          "PAYMENT_RPC_URL",
		"payment.execute_on_chain": "EXECUTE_ON_CHAIN",
		"proof.prover_url":         "PROVER_URL",
		"proof.verifier_url":       "VERIFIER_URL",
		"ledger.rpc_url":           "LEDGER_RPC_URL",
		"ledger.contract_address":  "LEDGER_CONTRACT",
		"ledger.signing_key":       "LEDGER_SIGNING_KEY",
		"ledger.validator_address": "VALIDATOR_ADDRESS",
		"ledger.chain_id":          "LEDGER_CHAIN_ID",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

// ClientConfig projects the process configuration into the library's
// client configuration.
func (c *Config) ClientConfig() *types.Config {
	networks := make([]types.Network, 0, len(c.Payment.Networks))
	for _, n := range c.Payment.Networks {
		networks = append(networks, types.Network(n))
	}
	return &types.Config{
		AgentID:           c.Agent.ID,
		SupportedNetworks: networks,
		DefaultTimeout:    c.Payment.Timeout(),
		ProverURL:         c.Proof.ProverURL,
		VerifierURL:       c.Proof.VerifierURL,
		ExecuteOnChain:    c.Payment.ExecuteOnChain,
		LogLevel:          c.Agent.LogLevel,
		EnableMetrics:     c.Agent.Metrics,
	}
}

func (c *Config) validate() error {
	if c.Agent.ID == "" {
		return fmt.Errorf("required config missing: AGENT_ID")
	}
	if c.Payment.PayerKey == "" {
		return fmt.Errorf("required config missing: PAYER_KEY")
	}
	if c.Ledger.ContractAddress != "" && c.Ledger.ChainID == 0 {
		return fmt.Errorf("required config missing: LEDGER_CHAIN_ID")
	}
	return nil
}
