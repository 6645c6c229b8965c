/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"fmt"
	"io"

	fabconfig "github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/endorsement"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/fabric"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/gateway"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/metrics"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/pipeline"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/wallet"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/pflag"
	"github.com/uber-go/tally"
)

// Importer writes an identity into the wallet
type Importer interface {
	Import(label, mspID string, certPEM, keyPEM []byte) error
}

// Action defines the common methods for a command action
type Action interface {
	Initialize() error
	GatewayClient() (api.Client, error)
	PipelineClient() (api.Client, error)
	Importer() (Importer, error)
	Close()
}

// action is the base implementation of the Action interface.
type action struct {
	closers []func()
}

// New returns a new Action
func New() Action {
	return &action{}
}

// Initialize initializes the action
func (a *action) Initialize() error {
	return cliconfig.InitConfig()
}

// GatewayClient returns a client that submits and evaluates through the SDK gateway
func (a *action) GatewayClient() (api.Client, error) {
	cfg := cliconfig.Config()

	profile, err := connectionProfile()
	if err != nil {
		return nil, err
	}

	store, err := wallet.Open(cfg.GetWalletPath())
	if err != nil {
		return nil, err
	}

	scope, err := a.scope()
	if err != nil {
		return nil, err
	}

	connect := gateway.NewConnectFunc(fabconfig.FromFile(profile), store.Wallet(), cfg.GetTimeout())
	return gateway.New(store, connect, cfg.GetTimeout(), scope), nil
}

// PipelineClient returns a client that drives the proposal, endorsement
// and ordering steps itself
func (a *action) PipelineClient() (api.Client, error) {
	cfg := cliconfig.Config()

	profile, err := connectionProfile()
	if err != nil {
		return nil, err
	}

	policyConfig, err := cfg.GetEndorsementPolicy()
	if err != nil {
		return nil, err
	}
	policy, err := endorsement.New(policyConfig)
	if err != nil {
		return nil, err
	}

	peers, err := cfg.GetPeers()
	if err != nil {
		return nil, err
	}
	orderers, err := cfg.GetOrderers()
	if err != nil {
		return nil, err
	}

	store, err := wallet.Open(cfg.GetWalletPath())
	if err != nil {
		return nil, err
	}

	scope, err := a.scope()
	if err != nil {
		return nil, err
	}

	connector, err := fabric.NewConnector(fabconfig.FromFile(profile), cfg.GetOrganization(), peers, orderers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, connector.Close)

	cfg.Logger().Debugf("Using endorsement policy [%s]", policy)

	return pipeline.New(store, connector,
		pipeline.WithPolicy(policy),
		pipeline.WithTimeout(cfg.GetTimeout()),
		pipeline.WithScope(scope),
	), nil
}

// Importer returns the wallet that identities are imported into. The wallet
// is created if it does not exist.
func (a *action) Importer() (Importer, error) {
	store, err := wallet.New(cliconfig.Config().GetWalletPath())
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Close releases the resources held by the action
func (a *action) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *action) scope() (tally.Scope, error) {
	scope, closer, err := metrics.NewScope(cliconfig.Config().GetStatsdConfig())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := closer.Close(); err != nil {
			cliconfig.Config().Logger().Warnf("Error closing metrics reporter: %s", err)
		}
	})
	return scope, nil
}

func connectionProfile() (string, error) {
	profile := cliconfig.Config().GetConnectionProfilePath()
	if profile == "" {
		return "", errors.New(errors.MissingConfigDataError, "no connection profile specified")
	}
	return profile, nil
}

// InitGlobalFlags initializes the global command flags
func InitGlobalFlags(flags *pflag.FlagSet) {
	cliconfig.InitLoggingLevel(flags)
	cliconfig.InitConfigFile(flags)
	cliconfig.InitUserName(flags)
	cliconfig.InitChannelID(flags)
	cliconfig.InitTimeout(flags)
	cliconfig.InitWallet(flags)
}

// PrintResult displays the result of a submission or evaluation
func PrintResult(out io.Writer, result *api.Result) {
	if result.TxnID != "" {
		fmt.Fprintf(out, "Transaction [%s] %s", result.TxnID, result.Outcome)
	} else {
		fmt.Fprintf(out, "Transaction %s", result.Outcome)
	}
	if result.Orderer != "" {
		fmt.Fprintf(out, " to orderer [%s]", result.Orderer)
	}
	fmt.Fprintln(out)
	if len(result.Payload) > 0 {
		fmt.Fprintf(out, "Payload: %s\n", result.Payload)
	}
}
