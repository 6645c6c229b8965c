/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bddtests

import (
	"bytes"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/invokecmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/querycmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/submitcmd"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/gateway"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/mocks"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/pipeline"
	"github.com/spf13/cobra"
)

var logger = logging.NewLogger("txsubmit_bddtests")

const configFile = "./fixtures/config/txsubmit.yaml"

// BDDContext holds the in-process network and the outcome of the last CLI run
type BDDContext struct {
	identities *mocks.MockIdentityStore
	session    *mocks.MockSession
	connector  *mocks.MockConnector

	gatewayConnects int32
	gatewayCloses   int32
	gatewayOrdered  int32

	output     string
	err        error
	exitStatus int
}

// NewBDDContext create new BDDContext
func NewBDDContext() *BDDContext {
	c := &BDDContext{}
	c.reset()
	return c
}

// BeforeScenario execute code before bdd scenario
func (b *BDDContext) BeforeScenario(scenarioOrScenarioOutline interface{}) {
	b.reset()
}

// AfterScenario execute code after bdd scenario
func (b *BDDContext) AfterScenario(interface{}, error) {
	if b.err != nil {
		logger.Debugf("Last CLI run failed: %s", b.err)
	}
}

func (b *BDDContext) reset() {
	b.identities = mocks.NewMockIdentityStore()
	b.session = mocks.NewMockSession()
	b.connector = mocks.NewMockConnector(b.session)
	b.gatewayConnects = 0
	b.gatewayCloses = 0
	b.gatewayOrdered = 0
	b.output = ""
	b.err = nil
	b.exitStatus = 0
}

// runCLI runs the given txcli command the same way main does and records
// the exit status
func (b *BDDContext) runCLI(command string, user string, args []string) {
	a := &action.MockAction{
		Client:  pipeline.New(b.identities, b.connector, pipeline.WithTimeout(5*time.Second)),
		Gateway:   gateway.New(b.identities, b.connectGateway, 5*time.Second, nil),
	}

	root := &cobra.Command{Use: "txcli", SilenceUsage: true, SilenceErrors: true}
	action.InitGlobalFlags(root.PersistentFlags())
	root.AddCommand(submitcmd.NewCmd(a), invokecmd.NewCmd(a), querycmd.NewCmd(a))

	out := &bytes.Buffer{}
	root.SetOutput(out)
	root.SetArgs(append([]string{command, "--config", configFile, "--user", user}, args...))

	b.err = root.Execute()
	b.output = out.String()
	b.exitStatus = 0
	if b.err != nil {
		b.exitStatus = 1
	}
	logger.Infof("txcli %s: exit status %d, output: %s", command, b.exitStatus, strings.TrimSpace(b.output))
}

func (b *BDDContext) connectGateway(label string) (gateway.Connection, error) {
	atomic.AddInt32(&b.gatewayConnects, 1)
	return &gatewayConnection{context: b}, nil
}

func (b *BDDContext) networkCalls() int {
	return b.connector.ConnectCount() + int(atomic.LoadInt32(&b.gatewayConnects))
}

func (b *BDDContext) ordered() int {
	return len(b.session.CommitRequests()) + int(atomic.LoadInt32(&b.gatewayOrdered))
}

// gatewayConnection answers for the gateway from the same peers and orderer
// that back the session
type gatewayConnection struct {
	context *BDDContext
}

func (c *gatewayConnection) Contract(channelID, chaincodeID string) (gateway.Contract, error) {
	return &gatewayContract{context: c.context}, nil
}

func (c *gatewayConnection) Close() {
	atomic.AddInt32(&c.context.gatewayCloses, 1)
}

type gatewayContract struct {
	context *BDDContext
}

func (c *gatewayContract) SubmitTransaction(name string, args ...string) ([]byte, error) {
	payload, err := c.EvaluateTransaction(name, args...)
	if err != nil {
		return nil, err
	}

	session := c.context.session
	atomic.AddInt32(&c.context.gatewayOrdered, 1)
	if session.OrdererStatus != api.OrdererSuccess {
		return nil, status.New(status.OrdererServerStatus, common.Status_value[session.OrdererStatus], "broadcast rejected", nil)
	}
	return payload, nil
}

func (c *gatewayContract) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	var payload []byte
	for i, peer := range c.context.session.Peers {
		if peer.Status != api.StatusOK {
			return nil, status.New(status.EndorserServerStatus, peer.Status, peer.Message, nil)
		}
		if i == 0 {
			payload = peer.Payload
		}
	}
	return payload, nil
}
