/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bddtests

import (
	"fmt"
	"strings"

	"github.com/DATA-DOG/godog"
	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/mocks"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

// SubmitSteps transaction submission BDD test steps
type SubmitSteps struct {
	BDDContext *BDDContext
}

// NewSubmitSteps new submit steps
func NewSubmitSteps(context *BDDContext) *SubmitSteps {
	return &SubmitSteps{BDDContext: context}
}

func (s *SubmitSteps) identityInWallet(label, mspID string) error {
	s.BDDContext.identities.Put(mocks.NewMockIdentity(label, mspID))
	return nil
}

func (s *SubmitSteps) walletIsEmpty() error {
	s.BDDContext.identities = mocks.NewMockIdentityStore()
	return nil
}

func (s *SubmitSteps) peerEndorses(name string, status int, payload string) error {
	peer := mocks.NewMockPeer(name, []byte(payload))
	peer.Status = int32(status)
	if status != 200 {
		peer.Message = fmt.Sprintf("chaincode returned status %d", status)
	}

	session := s.BDDContext.session
	for i, p := range session.Peers {
		if p.Name == name {
			session.Peers[i] = peer
			return nil
		}
	}
	session.Peers = append(session.Peers, peer)
	return nil
}

func (s *SubmitSteps) ordererResponds(status string) error {
	if _, ok := common.Status_value[status]; !ok {
		return fmt.Errorf("unknown orderer status [%s]", status)
	}
	s.BDDContext.session.OrdererStatus = status
	return nil
}

func (s *SubmitSteps) runCommand(command, user, args string) error {
	var cmdArgs []string
	if args != "" {
		cmdArgs = strings.Split(args, ",")
	}
	s.BDDContext.runCLI(command, user, cmdArgs)
	return nil
}

func (s *SubmitSteps) exitStatusIs(expected int) error {
	if s.BDDContext.exitStatus != expected {
		return fmt.Errorf("expecting exit status %d but got %d (error: %v)", expected, s.BDDContext.exitStatus, s.BDDContext.err)
	}
	return nil
}

func (s *SubmitSteps) outputContains(value string) error {
	if !strings.Contains(s.BDDContext.output, value) {
		return fmt.Errorf("output (%s) doesn't contain expected value (%s)", s.BDDContext.output, value)
	}
	return nil
}

func (s *SubmitSteps) errorIs(kind string) error {
	if s.BDDContext.err == nil {
		return fmt.Errorf("expecting error [%s] but got none", kind)
	}
	if code := errors.Code(s.BDDContext.err); code.String() != kind {
		return fmt.Errorf("expecting error [%s] but got [%s]: %s", kind, code, s.BDDContext.err)
	}
	return nil
}

func (s *SubmitSteps) noNetworkCalls() error {
	if n := s.BDDContext.networkCalls(); n != 0 {
		return fmt.Errorf("expecting no network calls but got %d", n)
	}
	return nil
}

func (s *SubmitSteps) peersReceived(expected int) error {
	if n := len(s.BDDContext.session.Proposals()); n != expected {
		return fmt.Errorf("expecting %d proposals but got %d", expected, n)
	}
	return nil
}

func (s *SubmitSteps) ordererReceived(expected int) error {
	if n := s.BDDContext.ordered(); n != expected {
		return fmt.Errorf("expecting %d transactions at the orderer but got %d", expected, n)
	}
	return nil
}

func (s *SubmitSteps) txnIDsDistinct() error {
	seen := make(map[string]bool)
	for _, p := range s.BDDContext.session.Proposals() {
		if seen[p.TxnID.ID] {
			return fmt.Errorf("transaction ID [%s] was used more than once", p.TxnID.ID)
		}
		seen[p.TxnID.ID] = true
	}
	return nil
}

func (s *SubmitSteps) sessionsClosed() error {
	connects := s.BDDContext.connector.ConnectCount()
	if closes := s.BDDContext.session.CloseCount(); closes != connects {
		return fmt.Errorf("%d sessions were opened but %d were closed", connects, closes)
	}
	return nil
}

func (s *SubmitSteps) registerSteps(suite *godog.Suite) {
	suite.BeforeScenario(s.BDDContext.BeforeScenario)
	suite.AfterScenario(s.BDDContext.AfterScenario)
	suite.Step(`^identity "([^"]*)" of "([^"]*)" is in the wallet$`, s.identityInWallet)
	suite.Step(`^the wallet is empty$`, s.walletIsEmpty)
	suite.Step(`^peer "([^"]*)" endorses with status (\d+) and payload "([^"]*)"$`, s.peerEndorses)
	suite.Step(`^the orderer responds with status "([^"]*)"$`, s.ordererResponds)
	suite.Step(`^client runs "([^"]*)" as "([^"]*)" with args "([^"]*)"$`, s.runCommand)
	suite.Step(`^the exit status is (\d+)$`, s.exitStatusIs)
	suite.Step(`^the output contains "([^"]*)"$`, s.outputContains)
	suite.Step(`^the error is "([^"]*)"$`, s.errorIs)
	suite.Step(`^there were no network calls$`, s.noNetworkCalls)
	suite.Step(`^the peers received (\d+) proposals$`, s.peersReceived)
	suite.Step(`^the orderer received (\d+) transactions$`, s.ordererReceived)
	suite.Step(`^the transaction IDs are distinct$`, s.txnIDsDistinct)
	suite.Step(`^every session was closed$`, s.sessionsClosed)
}
