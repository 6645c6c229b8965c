/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

// MockAction provides a mock implementation of Action. The configuration is
// loaded as usual but the clients and importer are supplied by the test.
// GatewayClient returns Gateway if set, otherwise Client.
type MockAction struct {
	Client       api.Client
	Gateway      api.Client
	Imports      Importer
	ClientErr    error
	Closed       int
	GatewayUsed  bool
	PipelineUsed bool
}

// Initialize initializes the action
func (a *MockAction) Initialize() error {
	return cliconfig.InitConfig()
}

// GatewayClient returns the mock gateway client
func (a *MockAction) GatewayClient() (api.Client, error) {
	a.GatewayUsed = true
	if a.Gateway != nil && a.ClientErr == nil {
		return a.Gateway, nil
	}
	return a.client()
}

// PipelineClient returns the mock client
func (a *MockAction) PipelineClient() (api.Client, error) {
	a.PipelineUsed = true
	return a.client()
}

// Importer returns the mock importer
func (a *MockAction) Importer() (Importer, error) {
	if a.Imports == nil {
		return nil, errors.New(errors.SystemError, "no importer")
	}
	return a.Imports, nil
}

// Close counts the number of times the action was closed
func (a *MockAction) Close() {
	a.Closed++
}

func (a *MockAction) client() (api.Client, error) {
	if a.ClientErr != nil {
		return nil, a.ClientErr
	}
	return a.Client, nil
}
