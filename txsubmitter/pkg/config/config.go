/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"strings"
	"time"

	logging "github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/viper"
)

const (
	configFileName = "txsubmit"
	envPrefix      = "txsubmit"

	defaultConfigPath      = "/etc/txsubmit"
	defaultFunction        = "invoke"
	defaultTimeout         = 30 * time.Second
	defaultLogLevel        = "info"
	defaultStatsdPrefix    = "txsubmit"
	defaultStatsdFlushTime = time.Second
	defaultStatsdFlushSize = 1440
)

// Configuration keys
const (
	LogLevelKey          = "txsubmit.loglevel"
	ConnectionProfileKey = "txsubmit.connectionProfile"
	WalletKey            = "txsubmit.wallet"
	UserKey              = "txsubmit.user"
	OrganizationKey      = "txsubmit.organization"
	ChannelKey           = "txsubmit.channel"
	ChaincodeKey         = "txsubmit.chaincode"
	FunctionKey          = "txsubmit.function"
	TimeoutKey           = "txsubmit.timeout"
	PolicyKey            = "txsubmit.endorsement.policy"
	QuorumKey            = "txsubmit.endorsement.quorum"
	PeersKey             = "txsubmit.peers"
	OrderersKey          = "txsubmit.orderers"
	StatsdAddressKey     = "txsubmit.metrics.statsd.address"
	StatsdPrefixKey      = "txsubmit.metrics.statsd.prefix"
	StatsdFlushKey       = "txsubmit.metrics.statsd.flushInterval"
	StatsdFlushBytesKey  = "txsubmit.metrics.statsd.flushBytes"
)

var logger = logging.NewLogger("txsubmit")

type peerEntry struct {
	Name               string `mapstructure:"name"`
	URL                string `mapstructure:"url"`
	MSPID              string `mapstructure:"mspid"`
	TLSCACert          string `mapstructure:"tlscacert"`
	ServerHostOverride string `mapstructure:"serverhostoverride"`
}

// Config implements the api.Config interface on top of viper
type Config struct {
	txSubmitConfig *viper.Viper
}

// NewConfig loads the configuration from the given file. If configFile is
// empty then txsubmit.yaml is searched for in the working directory and in
// /etc/txsubmit.
func NewConfig(configFile string) (*Config, error) {
	replacer := strings.NewReplacer(".", "_")

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigPath)
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(replacer)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithMessage(errors.MissingConfigDataError, err, "Fatal error reading txsubmit config file")
	}

	c := &Config{txSubmitConfig: v}
	if err := c.initializeLogging(); err != nil {
		return nil, errors.WithMessage(errors.GeneralError, err, "Error initializing logging")
	}
	return c, nil
}

// Override sets the value of the given key, taking precedence over the
// config file and environment. Empty strings are ignored.
func (c *Config) Override(key string, value interface{}) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	logger.Debugf("Overriding config key [%s]", key)
	c.txSubmitConfig.Set(key, value)
}

// GetConnectionProfilePath returns the absolute path of the SDK connection profile
func (c *Config) GetConnectionProfilePath() string {
	path := c.txSubmitConfig.GetString(ConnectionProfileKey)
	if path == "" {
		return ""
	}
	return c.GetConfigPath(path)
}

// GetWalletPath returns the absolute path of the file-system wallet
func (c *Config) GetWalletPath() string {
	path := c.txSubmitConfig.GetString(WalletKey)
	if path == "" {
		path = "wallet"
	}
	return c.GetConfigPath(path)
}

// GetUser returns the wallet label of the submitting identity
func (c *Config) GetUser() string {
	return c.txSubmitConfig.GetString(UserKey)
}

// GetOrganization returns the client organization as named in the connection profile
func (c *Config) GetOrganization() string {
	return c.txSubmitConfig.GetString(OrganizationKey)
}

// GetChannelID returns the channel ID
func (c *Config) GetChannelID() string {
	return c.txSubmitConfig.GetString(ChannelKey)
}

// GetChaincodeID returns the chaincode ID
func (c *Config) GetChaincodeID() string {
	return c.txSubmitConfig.GetString(ChaincodeKey)
}

// GetFunction returns the chaincode function name
func (c *Config) GetFunction() string {
	fcn := c.txSubmitConfig.GetString(FunctionKey)
	if fcn == "" {
		return defaultFunction
	}
	return fcn
}

// GetTimeout is the amount of time to wait for a single submission
func (c *Config) GetTimeout() time.Duration {
	timeout := c.txSubmitConfig.GetDuration(TimeoutKey)
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}

// GetEndorsementPolicy returns the client-side endorsement policy
func (c *Config) GetEndorsementPolicy() (api.EndorsementPolicy, error) {
	policyType := api.PolicyType(strings.ToLower(c.txSubmitConfig.GetString(PolicyKey)))
	if policyType == "" {
		policyType = api.PolicyAll
	}

	policy := api.EndorsementPolicy{Type: policyType}
	switch policyType {
	case api.PolicyAll, api.PolicyFirst:
	case api.PolicyQuorum:
		policy.Quorum = c.txSubmitConfig.GetInt(QuorumKey)
		if policy.Quorum <= 0 {
			return api.EndorsementPolicy{}, errors.Errorf(errors.ValidationError, "invalid endorsement quorum [%d]: must be greater than 0", policy.Quorum)
		}
	default:
		return api.EndorsementPolicy{}, errors.Errorf(errors.ValidationError, "unsupported endorsement policy [%s]", policyType)
	}
	return policy, nil
}

// GetPeers returns the configured endorsing peers
func (c *Config) GetPeers() ([]api.PeerConfig, error) {
	var entries []peerEntry
	if err := c.txSubmitConfig.UnmarshalKey(PeersKey, &entries); err != nil {
		return nil, errors.WithMessage(errors.UnmarshallError, err, "Error reading peers from config")
	}

	peers := make([]api.PeerConfig, 0, len(entries))
	for i, e := range entries {
		if e.URL == "" {
			return nil, errors.Errorf(errors.MissingConfigDataError, "peer at index %d has no URL", i)
		}
		name := e.Name
		if name == "" {
			name = e.URL
		}
		peers = append(peers, api.PeerConfig{
			Name:               name,
			URL:                e.URL,
			MSPID:              e.MSPID,
			TLSCACertPath:      c.optionalPath(e.TLSCACert),
			ServerHostOverride: e.ServerHostOverride,
		})
	}
	return peers, nil
}

// GetOrderers returns the configured orderers
func (c *Config) GetOrderers() ([]api.OrdererConfig, error) {
	var entries []peerEntry
	if err := c.txSubmitConfig.UnmarshalKey(OrderersKey, &entries); err != nil {
		return nil, errors.WithMessage(errors.UnmarshallError, err, "Error reading orderers from config")
	}

	orderers := make([]api.OrdererConfig, 0, len(entries))
	for i, e := range entries {
		if e.URL == "" {
			return nil, errors.Errorf(errors.MissingConfigDataError, "orderer at index %d has no URL", i)
		}
		name := e.Name
		if name == "" {
			name = e.URL
		}
		orderers = append(orderers, api.OrdererConfig{
			Name:               name,
			URL:                e.URL,
			TLSCACertPath:      c.optionalPath(e.TLSCACert),
			ServerHostOverride: e.ServerHostOverride,
		})
	}
	return orderers, nil
}

// GetStatsdConfig returns the statsd reporter settings or nil if no statsd address is configured
func (c *Config) GetStatsdConfig() *api.StatsdConfig {
	address := c.txSubmitConfig.GetString(StatsdAddressKey)
	if address == "" {
		return nil
	}

	cfg := &api.StatsdConfig{
		Address:       address,
		Prefix:        c.txSubmitConfig.GetString(StatsdPrefixKey),
		FlushInterval: c.txSubmitConfig.GetDuration(StatsdFlushKey),
		FlushBytes:    c.txSubmitConfig.GetInt(StatsdFlushBytesKey),
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultStatsdPrefix
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultStatsdFlushTime
	}
	if cfg.FlushBytes <= 0 {
		cfg.FlushBytes = defaultStatsdFlushSize
	}
	return cfg
}

// GetLogLevel returns the configured log level
func (c *Config) GetLogLevel() string {
	level := c.txSubmitConfig.GetString(LogLevelKey)
	if level == "" {
		return defaultLogLevel
	}
	return level
}

// GetConfigPath returns the absolute value of the given path that is
// relative to the config file
// For example, if the config file is at /etc/txsubmit/txsubmit.yaml,
// calling GetConfigPath("tls/ca.pem") will return /etc/txsubmit/tls/ca.pem
func (c *Config) GetConfigPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	basePath := filepath.Dir(c.txSubmitConfig.ConfigFileUsed())
	return filepath.Join(basePath, path)
}

func (c *Config) optionalPath(path string) string {
	if path == "" {
		return ""
	}
	return c.GetConfigPath(path)
}

// initializeLogging initializes the logger
func (c *Config) initializeLogging() error {
	logLevel := c.GetLogLevel()

	level, err := logging.LogLevel(logLevel)
	if err != nil {
		return errors.WithMessage(errors.GeneralError, err, "Error initializing log level")
	}

	logging.SetLevel("txsubmit", level)
	logger.Debugf("Txsubmit logging initialized. Log level: %s", logLevel)

	return nil
}
