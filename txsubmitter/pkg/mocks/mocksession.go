/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	fcmocks "github.com/hyperledger/fabric-sdk-go/pkg/fab/mocks"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/txn"
	"github.com/hyperledger/fabric-sdk-go/pkg/msp/test/mockmsp"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

// MockPeer is the canned behaviour of a single endorser
type MockPeer struct {
	Name    string
	Status  int32
	Message string
	Payload []byte
	// Result is the proposal response payload. Payload is used if not set.
	Result []byte
	Err    error
	// Delay is applied before responding. A cancelled context yields a TransportError.
	Delay time.Duration
}

// NewMockPeer returns a peer that endorses with status 200 and the given payload
func NewMockPeer(name string, payload []byte) *MockPeer {
	return &MockPeer{Name: name, Status: api.StatusOK, Payload: payload}
}

// MockSession is a session against a set of mock peers and a single mock orderer
type MockSession struct {
	mutex sync.RWMutex

	Peers         []*MockPeer
	OrdererName   string
	OrdererStatus string

	ProposalErr error
	EndorseErr  error
	OrderErr    error

	identity       *api.Identity
	channelID      string
	proposals      []*api.Proposal
	commitRequests []*api.CommitRequest
	closes         int32
}

// NewMockSession returns a session whose orderer accepts every transaction
func NewMockSession(peers ...*MockPeer) *MockSession {
	return &MockSession{
		Peers:         peers,
		OrdererName:   "orderer.example.com",
		OrdererStatus: api.OrdererSuccess,
	}
}

func (s *MockSession) connected(identity *api.Identity, channelID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.identity = identity
	s.channelID = channelID
}

// NewProposal records and returns a proposal for the request. The transaction
// ID is computed by the SDK from the connected identity.
func (s *MockSession) NewProposal(request *api.Request) (*api.Proposal, error) {
	if s.ProposalErr != nil {
		return nil, s.ProposalErr
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	targets := request.Targets
	if len(targets) == 0 {
		for _, p := range s.Peers {
			targets = append(targets, p.Name)
		}
	}

	if s.identity == nil {
		return nil, errors.New(errors.SystemError, "session is not connected")
	}

	ctx := fcmocks.NewMockContext(mockmsp.NewMockSigningIdentity(s.identity.Label, s.identity.MSPID))
	txh, err := txn.NewHeader(ctx, s.channelID)
	if err != nil {
		return nil, errors.Wrap(errors.SystemError, err, "Error creating transaction header")
	}

	proposal := &api.Proposal{
		TxnID: api.TransactionID{
			ID:      string(txh.TransactionID()),
			Nonce:   txh.Nonce(),
			Creator: txh.Creator(),
		},
		ChannelID:   s.channelID,
		ChaincodeID: request.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        request.Args,
		Targets:     targets,
	}
	s.proposals = append(s.proposals, proposal)
	return proposal, nil
}

// Endorse returns one response per target in target order
func (s *MockSession) Endorse(ctx context.Context, proposal *api.Proposal) ([]*api.EndorsementResponse, error) {
	if s.EndorseErr != nil {
		return nil, s.EndorseErr
	}

	var responses []*api.EndorsementResponse
	for _, target := range proposal.Targets {
		responses = append(responses, s.endorse(ctx, target))
	}
	return responses, nil
}

func (s *MockSession) endorse(ctx context.Context, target string) *api.EndorsementResponse {
	peer := s.peer(target)
	if peer == nil {
		return &api.EndorsementResponse{Endorser: target, Err: errors.Errorf(errors.TransportError, "peer [%s] not found", target)}
	}

	if peer.Delay > 0 {
		select {
		case <-time.After(peer.Delay):
		case <-ctx.Done():
			return &api.EndorsementResponse{Endorser: target, Err: errors.Wrapf(errors.TransportError, ctx.Err(), "peer [%s] did not respond", target)}
		}
	}

	if peer.Err != nil {
		return &api.EndorsementResponse{Endorser: target, Err: peer.Err}
	}
	result := peer.Result
	if result == nil {
		result = peer.Payload
	}
	return &api.EndorsementResponse{
		Endorser: target,
		Status:   peer.Status,
		Message:  peer.Message,
		Payload:  peer.Payload,
		Result:   result,
	}
}

func (s *MockSession) peer(name string) *MockPeer {
	for _, p := range s.Peers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Order records the commit request and returns the configured orderer status
func (s *MockSession) Order(ctx context.Context, request *api.CommitRequest) (*api.CommitResult, error) {
	s.mutex.Lock()
	s.commitRequests = append(s.commitRequests, request)
	s.mutex.Unlock()

	if s.OrderErr != nil {
		return nil, s.OrderErr
	}
	return &api.CommitResult{Orderer: s.OrdererName, Status: s.OrdererStatus}, nil
}

// Close records the release of the session
func (s *MockSession) Close() {
	atomic.AddInt32(&s.closes, 1)
}

// CloseCount returns the number of times Close was called
func (s *MockSession) CloseCount() int {
	return int(atomic.LoadInt32(&s.closes))
}

// Proposals returns the proposals that were created
func (s *MockSession) Proposals() []*api.Proposal {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.proposals
}

// CommitRequests returns the requests that were sent for ordering
func (s *MockSession) CommitRequests() []*api.CommitRequest {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.commitRequests
}
