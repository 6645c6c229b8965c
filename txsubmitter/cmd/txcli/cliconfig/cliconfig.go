/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cliconfig

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/config"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/pflag"
)

const loggerName = "txcli"

// Flags
const (
	loggingLevelFlag        = "logging-level"
	loggingLevelDescription = "Logging level - ERROR, WARN, INFO, DEBUG"
	defaultLoggingLevel     = ""

	configFileFlag        = "config"
	configFileDescription = "The path of the txsubmit.yaml file"
	defaultConfigFile     = ""

	userFlag        = "user"
	userDescription = "The wallet label of the identity that signs the transaction"
	defaultUser     = ""

	channelIDFlag        = "cid"
	channelIDDescription = "The channel ID"
	defaultChannelID     = ""

	chaincodeIDFlag        = "ccid"
	chaincodeIDDescription = "The chaincode ID"
	defaultChaincodeID     = ""

	fcnFlag        = "fcn"
	fcnDescription = "The chaincode function"
	defaultFcn     = ""

	timeoutFlag        = "timeout"
	timeoutDescription = "The timeout for the submission, e.g. 30s"
	defaultTimeout     = ""

	walletFlag        = "wallet"
	walletDescription = "The path of the file-system wallet"
	defaultWallet     = ""

	policyFlag        = "policy"
	policyDescription = "The endorsement policy - all, first, quorum"
	defaultPolicy     = ""

	quorumFlag        = "quorum"
	quorumDescription = "The number of successful endorsements required by the quorum policy"
	defaultQuorum     = 0

	targetsFlag        = "targets"
	targetsDescription = "A comma-separated list of peer names to send the proposal to, e.g. 'peer0.org1.example.com,peer1.org1.example.com'"
	defaultTargets     = ""

	mspIDFlag        = "mspid"
	mspIDDescription = "The ID of the MSP that issued the certificate"
	defaultMSPID     = ""

	certFileFlag        = "cert"
	certFileDescription = "The path of the PEM encoded X.509 certificate"
	defaultCertFile     = ""

	keyFileFlag        = "key"
	keyFileDescription = "The path of the PEM encoded private key"
	defaultKeyFile     = ""

	batchFileFlag        = "file"
	batchFileDescription = "The path of the JSON batch document"
	defaultBatchFile     = ""
)

const (
	gatewayFlag        = "gateway"
	gatewayDescription = "Evaluate through the Fabric gateway instead of sending the proposal to the target peers"
	defaultGateway     = false
)

var opts *options
var instance *CLIConfig

type options struct {
	loggingLevel string
	configFile   string
	user         string
	channelID    string
	chaincodeID  string
	fcn          string
	timeout      string
	wallet       string
	policy       string
	quorum       int
	targets      string
	mspID        string
	certFile     string
	keyFile      string
	batchFile    string
	gateway      bool
}

func init() {
	opts = &options{
		loggingLevel: defaultLoggingLevel,
	}
}

// CLIConfig overrides the values of the txsubmit configuration with those supplied on the command-line
type CLIConfig struct {
	*config.Config
	logger *logging.Logger
}

// InitConfig loads the configuration file and applies the command-line overrides
func InitConfig() error {
	cfg, err := config.NewConfig(opts.configFile)
	if err != nil {
		return err
	}

	cfg.Override(config.LogLevelKey, opts.loggingLevel)
	cfg.Override(config.UserKey, opts.user)
	cfg.Override(config.ChannelKey, opts.channelID)
	cfg.Override(config.ChaincodeKey, opts.chaincodeID)
	cfg.Override(config.FunctionKey, opts.fcn)
	cfg.Override(config.PolicyKey, opts.policy)
	if opts.quorum > 0 {
		cfg.Override(config.QuorumKey, opts.quorum)
	}
	if opts.timeout != "" {
		timeout, err := time.ParseDuration(opts.timeout)
		if err != nil {
			return errors.Wrapf(errors.ValidationError, err, "invalid timeout [%s]", opts.timeout)
		}
		cfg.Override(config.TimeoutKey, timeout)
	}
	if opts.wallet != "" {
		path, err := filepath.Abs(opts.wallet)
		if err != nil {
			return errors.Wrapf(errors.ValidationError, err, "invalid wallet path [%s]", opts.wallet)
		}
		cfg.Override(config.WalletKey, path)
	}

	level, err := logging.LogLevel(cfg.GetLogLevel())
	if err != nil {
		return errors.WithMessage(errors.ValidationError, err, "invalid logging level")
	}
	logging.SetLevel("", level)

	instance = &CLIConfig{
		Config: cfg,
		logger: logging.NewLogger(loggerName),
	}
	return nil
}

// Config returns the CLI configuration
func Config() *CLIConfig {
	return instance
}

// Logger returns the Logger for the CLI tool
func (c *CLIConfig) Logger() *logging.Logger {
	return c.logger
}

// Request returns the request template built from the configuration.
// The given args are passed to the chaincode as-is.
func (c *CLIConfig) Request(args []string) *api.Request {
	return &api.Request{
		User:        c.GetUser(),
		ChannelID:   c.GetChannelID(),
		ChaincodeID: c.GetChaincodeID(),
		Fcn:         c.GetFunction(),
		Args:        args,
		Targets:     c.Targets(),
	}
}

// Targets returns the names of the peers that were given on the command-line
func (c *CLIConfig) Targets() []string {
	var targets []string
	for _, t := range strings.Split(opts.targets, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// InitLoggingLevel initializes the logging level from the provided arguments
func InitLoggingLevel(flags *pflag.FlagSet) {
	flags.StringVar(&opts.loggingLevel, loggingLevelFlag, defaultLoggingLevel, loggingLevelDescription)
}

// InitConfigFile initializes the config file path from the provided arguments
func InitConfigFile(flags *pflag.FlagSet) {
	flags.StringVar(&opts.configFile, configFileFlag, defaultConfigFile, configFileDescription)
}

// InitUserName initializes the user from the provided arguments
func InitUserName(flags *pflag.FlagSet) {
	flags.StringVar(&opts.user, userFlag, defaultUser, userDescription)
}

// InitChannelID initializes the channel ID from the provided arguments
func InitChannelID(flags *pflag.FlagSet) {
	flags.StringVar(&opts.channelID, channelIDFlag, defaultChannelID, channelIDDescription)
}

// InitChaincodeID initializes the chaincode ID from the provided arguments
func InitChaincodeID(flags *pflag.FlagSet) {
	flags.StringVar(&opts.chaincodeID, chaincodeIDFlag, defaultChaincodeID, chaincodeIDDescription)
}

// InitFcn initializes the chaincode function from the provided arguments
func InitFcn(flags *pflag.FlagSet) {
	flags.StringVar(&opts.fcn, fcnFlag, defaultFcn, fcnDescription)
}

// InitTimeout initializes the timeout from the provided arguments
func InitTimeout(flags *pflag.FlagSet) {
	flags.StringVar(&opts.timeout, timeoutFlag, defaultTimeout, timeoutDescription)
}

// InitWallet initializes the wallet path from the provided arguments
func InitWallet(flags *pflag.FlagSet) {
	flags.StringVar(&opts.wallet, walletFlag, defaultWallet, walletDescription)
}

// InitPolicy initializes the endorsement policy from the provided arguments
func InitPolicy(flags *pflag.FlagSet) {
	flags.StringVar(&opts.policy, policyFlag, defaultPolicy, policyDescription)
}

// InitQuorum initializes the endorsement quorum from the provided arguments
func InitQuorum(flags *pflag.FlagSet) {
	flags.IntVar(&opts.quorum, quorumFlag, defaultQuorum, quorumDescription)
}

// InitTargets initializes the target peers from the provided arguments
func InitTargets(flags *pflag.FlagSet) {
	flags.StringVar(&opts.targets, targetsFlag, defaultTargets, targetsDescription)
}

// MspID returns the MSP ID of the identity being imported
func (c *CLIConfig) MspID() string {
	return opts.mspID
}

// InitMspID initializes the MSP ID from the provided arguments
func InitMspID(flags *pflag.FlagSet) {
	flags.StringVar(&opts.mspID, mspIDFlag, defaultMSPID, mspIDDescription)
}

// CertFile returns the path of the certificate being imported
func (c *CLIConfig) CertFile() string {
	return opts.certFile
}

// InitCertFile initializes the certificate path from the provided arguments
func InitCertFile(flags *pflag.FlagSet) {
	flags.StringVar(&opts.certFile, certFileFlag, defaultCertFile, certFileDescription)
}

// KeyFile returns the path of the private key being imported
func (c *CLIConfig) KeyFile() string {
	return opts.keyFile
}

// InitKeyFile initializes the private key path from the provided arguments
func InitKeyFile(flags *pflag.FlagSet) {
	flags.StringVar(&opts.keyFile, keyFileFlag, defaultKeyFile, keyFileDescription)
}

// BatchFile returns the path of the batch document
func (c *CLIConfig) BatchFile() string {
	return opts.batchFile
}

// InitBatchFile initializes the batch document path from the provided arguments
func InitBatchFile(flags *pflag.FlagSet) {
	flags.StringVar(&opts.batchFile, batchFileFlag, defaultBatchFile, batchFileDescription)
}

// UseGateway returns true if the gateway was requested on the command-line
func (c *CLIConfig) UseGateway() bool {
	return opts.gateway
}

// InitGateway initializes the gateway option from the provided arguments
func InitGateway(flags *pflag.FlagSet) {
	flags.BoolVar(&opts.gateway, gatewayFlag, defaultGateway, gatewayDescription)
}
