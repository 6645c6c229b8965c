/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"
	"strings"
	"sync"

	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	contextApi "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	contextImpl "github.com/hyperledger/fabric-sdk-go/pkg/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/txn"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

type endorser struct {
	name string
	peer fab.Peer
}

// proposalHandle is the SDK representation of an api.Proposal
type proposalHandle struct {
	proposal *fab.TransactionProposal
	targets  []*endorser
}

// session drives a single transaction for one identity on one channel
type session struct {
	ctx       contextApi.Client
	channelID string
	endorsers []*endorser
	orderers  []fab.Orderer
	release   func()
	closeOnce sync.Once
}

// NewProposal creates a chaincode invoke proposal. The SDK transaction header
// supplies the nonce and creator from which the transaction ID is computed.
func (s *session) NewProposal(request *api.Request) (*api.Proposal, error) {
	targets, err := s.targets(request.Targets)
	if err != nil {
		return nil, err
	}

	txh, err := txn.NewHeader(s.ctx, s.channelID)
	if err != nil {
		return nil, errors.Wrap(errors.SystemError, err, "Error creating transaction header")
	}

	args := make([][]byte, len(request.Args))
	for i, arg := range request.Args {
		args[i] = []byte(arg)
	}

	tp, err := txn.CreateChaincodeInvokeProposal(txh, fab.ChaincodeInvokeRequest{
		ChaincodeID:  request.ChaincodeID,
		Fcn:          request.Fcn,
		Args:         args,
		TransientMap: request.TransientMap,
	})
	if err != nil {
		return nil, errors.Wrap(errors.SystemError, err, "Error creating transaction proposal")
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.name
	}

	return &api.Proposal{
		TxnID: api.TransactionID{
			ID:      string(txh.TransactionID()),
			Nonce:   txh.Nonce(),
			Creator: txh.Creator(),
		},
		ChannelID:   s.channelID,
		ChaincodeID: request.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        request.Args,
		Targets:     names,
		Handle:      &proposalHandle{proposal: tp, targets: targets},
	}, nil
}

// Endorse sends the proposal to each target concurrently and returns the
// responses in target order
func (s *session) Endorse(ctx context.Context, proposal *api.Proposal) ([]*api.EndorsementResponse, error) {
	h, ok := proposal.Handle.(*proposalHandle)
	if !ok {
		return nil, errors.New(errors.ValidationError, "proposal was not created by this session")
	}

	reqCtx, cancel := contextImpl.NewRequest(s.ctx, contextImpl.WithParent(ctx))
	defer cancel()

	responses := make([]*api.EndorsementResponse, len(h.targets))

	var wg sync.WaitGroup
	for i, t := range h.targets {
		wg.Add(1)
		go func(i int, t *endorser) {
			defer wg.Done()
			responses[i] = endorse(reqCtx, h.proposal, t)
		}(i, t)
	}
	wg.Wait()

	return responses, nil
}

func endorse(reqCtx context.Context, tp *fab.TransactionProposal, t *endorser) *api.EndorsementResponse {
	resps, err := txn.SendProposal(reqCtx, tp, []fab.ProposalProcessor{t.peer})
	if err != nil {
		logger.Debugf("Endorser [%s] returned error: %s", t.name, err)
		r := &api.EndorsementResponse{
			Endorser: t.name,
			Err:      Classify(err, errors.ProposalFailed, "Error sending proposal to "+t.name),
		}
		if s, ok := status.FromError(err); ok && (s.Group == status.EndorserServerStatus || s.Group == status.ChaincodeStatus) {
			r.Status = s.Code
			r.Message = s.Message
		}
		return r
	}

	if len(resps) == 0 || resps[0] == nil {
		return &api.EndorsementResponse{
			Endorser: t.name,
			Err:      errors.Errorf(errors.TransportError, "no response received from [%s]", t.name),
		}
	}

	tpr := resps[0]
	r := &api.EndorsementResponse{
		Endorser: t.name,
		Status:   tpr.Status,
		Handle:   tpr,
	}
	if tpr.ProposalResponse != nil {
		r.Result = tpr.ProposalResponse.Payload
		if tpr.ProposalResponse.Response != nil {
			r.Status = tpr.ProposalResponse.Response.Status
			r.Message = tpr.ProposalResponse.Response.Message
			r.Payload = tpr.ProposalResponse.Response.Payload
		}
	}
	return r
}

// Order creates the transaction from the accepted endorsements and broadcasts it
func (s *session) Order(ctx context.Context, request *api.CommitRequest) (*api.CommitResult, error) {
	if request.Proposal == nil {
		return nil, errors.New(errors.ValidationError, "proposal is required")
	}
	h, ok := request.Proposal.Handle.(*proposalHandle)
	if !ok {
		return nil, errors.New(errors.ValidationError, "proposal was not created by this session")
	}

	var tprs []*fab.TransactionProposalResponse
	for _, r := range request.Responses {
		tpr, ok := r.Handle.(*fab.TransactionProposalResponse)
		if !ok {
			return nil, errors.Errorf(errors.ValidationError, "response from [%s] was not received by this session", r.Endorser)
		}
		tprs = append(tprs, tpr)
	}

	tx, err := txn.New(fab.TransactionRequest{Proposal: h.proposal, ProposalResponses: tprs})
	if err != nil {
		return nil, Classify(err, errors.ProposalFailed, "Error creating transaction")
	}

	reqCtx, cancel := contextImpl.NewRequest(s.ctx, contextImpl.WithParent(ctx))
	defer cancel()

	resp, err := txn.Send(reqCtx, tx, s.orderers)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Group == status.OrdererServerStatus {
			return &api.CommitResult{Orderer: s.ordererURLs(), Status: common.Status(st.Code).String()}, nil
		}
		return nil, Classify(err, errors.TransportError, "Error sending transaction to orderer")
	}

	return &api.CommitResult{Orderer: resp.Orderer, Status: api.OrdererSuccess}, nil
}

// Close releases the session. Calls after the first have no effect.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		logger.Debugf("Releasing session on channel [%s]", s.channelID)
		s.release()
	})
}

func (s *session) targets(names []string) ([]*endorser, error) {
	if len(names) == 0 {
		return s.endorsers, nil
	}

	var targets []*endorser
	for _, name := range names {
		e := s.endorser(name)
		if e == nil {
			return nil, errors.Errorf(errors.ValidationError, "target peer [%s] is not configured", name)
		}
		targets = append(targets, e)
	}
	return targets, nil
}

func (s *session) endorser(name string) *endorser {
	for _, e := range s.endorsers {
		if e.name == name {
			return e
		}
	}
	return nil
}

func (s *session) ordererURLs() string {
	urls := make([]string, len(s.orderers))
	for i, o := range s.orderers {
		urls[i] = o.URL()
	}
	return strings.Join(urls, ",")
}
