/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/endorsement"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/mocks"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
)

const (
	user1     = "user1"
	mspID     = "Org1MSP"
	channelID = "mychannel"
	ccID      = "mycc"
)

var (
	requestAccess = []string{"request_access", "eyJyZXF1ZXN0ZXIiOiJ1c2VyMSJ9"}
	payload       = []byte("OK")
)

func newRequest() *api.Request {
	return &api.Request{
		User:        user1,
		ChannelID:   channelID,
		ChaincodeID: ccID,
		Fcn:         "invoke",
		Args:        requestAccess,
	}
}

func newFixture(peers ...*mocks.MockPeer) (*mocks.MockIdentityStore, *mocks.MockSession, *mocks.MockConnector) {
	if len(peers) == 0 {
		peers = []*mocks.MockPeer{mocks.NewMockPeer("peer0", payload)}
	}
	store := mocks.NewMockIdentityStore(mocks.NewMockIdentity(user1, mspID))
	session := mocks.NewMockSession(peers...)
	return store, session, mocks.NewMockConnector(session)
}

func TestSubmit(t *testing.T) {
	store, session, connector := newFixture()
	scope := tally.NewTestScope("", nil)

	s := New(store, connector, WithScope(scope))
	result, err := s.Submit(context.Background(), newRequest())
	require.NoError(t, err)

	assert.Equal(t, api.Submitted, result.Outcome)
	assert.Equal(t, payload, result.Payload)
	assert.Equal(t, "orderer.example.com", result.Orderer)
	assert.NotEmpty(t, result.TxnID)
	assert.Equal(t, 1, session.CloseCount())

	proposals := session.Proposals()
	require.Len(t, proposals, 1)
	assert.Equal(t, result.TxnID, proposals[0].TxnID.ID)
	assert.Equal(t, channelID, proposals[0].ChannelID)
	assert.Equal(t, ccID, proposals[0].ChaincodeID)
	assert.Equal(t, "invoke", proposals[0].Fcn)
	assert.Equal(t, requestAccess, proposals[0].Args, "args must be passed through unmodified")

	assert.NotEmpty(t, proposals[0].TxnID.Nonce)
	assert.Equal(t, []byte(user1+mspID), proposals[0].TxnID.Creator, "creator must be the submitting identity")

	commits := session.CommitRequests()
	require.Len(t, commits, 1)
	assert.Equal(t, proposals[0], commits[0].Proposal)
	require.Len(t, commits[0].Responses, 1)

	assert.Equal(t, int64(1), counterValue(scope, submitCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, submittedCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, endorsementCounterName, nil))
	assert.Equal(t, int64(0), counterValue(scope, endorsementErrorCounterName, nil))
}

func TestSubmitIdentityNotFound(t *testing.T) {
	store, session, connector := newFixture()
	store.Remove(user1)
	scope := tally.NewTestScope("", nil)

	_, err := New(store, connector, WithScope(scope)).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.IdentityNotFound))
	assert.Equal(t, 0, connector.ConnectCount(), "no network interaction expected")
	assert.Equal(t, 0, session.CloseCount())
	assert.Equal(t, int64(1), counterValue(scope, submitErrorCounterName, map[string]string{codeTag: "IdentityNotFound"}))
}

func TestSubmitIdentityStoreError(t *testing.T) {
	store, _, connector := newFixture()
	store.Err = pkgerrors.New("wallet is corrupt")

	_, err := New(store, connector).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.False(t, errors.HasCode(err, errors.IdentityNotFound))
	assert.Contains(t, err.Error(), "wallet is corrupt")
	assert.Equal(t, 0, connector.ConnectCount())
}

func TestSubmitInvalidRequest(t *testing.T) {
	store, _, connector := newFixture()
	s := New(store, connector)

	for _, modify := range []func(r *api.Request){
		func(r *api.Request) { r.User = "" },
		func(r *api.Request) { r.ChannelID = "" },
		func(r *api.Request) { r.ChaincodeID = "" },
		func(r *api.Request) { r.Fcn = "" },
	} {
		r := newRequest()
		modify(r)
		_, err := s.Submit(context.Background(), r)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.MissingRequiredParameterError))
	}

	_, err := s.Submit(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.MissingRequiredParameterError))
	assert.Equal(t, 0, connector.ConnectCount())
}

func TestSubmitProposalRejected(t *testing.T) {
	rejecting := mocks.NewMockPeer("peer1", nil)
	rejecting.Status = 500
	rejecting.Message = "access denied"

	store, session, connector := newFixture(mocks.NewMockPeer("peer0", payload), rejecting)
	scope := tally.NewTestScope("", nil)

	_, err := New(store, connector, WithScope(scope)).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, session.CommitRequests(), "ordering must not be reached")
	assert.Equal(t, 1, session.CloseCount())
	assert.Equal(t, int64(2), counterValue(scope, endorsementCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, endorsementErrorCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, submitErrorCounterName, map[string]string{codeTag: "ProposalFailed"}))
}

func TestSubmitEndorserError(t *testing.T) {
	failing := mocks.NewMockPeer("peer0", nil)
	failing.Err = pkgerrors.New("chaincode mycc not found")

	store, session, connector := newFixture(failing)

	_, err := New(store, connector).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))
	assert.Contains(t, err.Error(), "chaincode mycc not found")
	assert.Empty(t, session.CommitRequests())
}

func TestSubmitFirstPolicy(t *testing.T) {
	rejecting := mocks.NewMockPeer("peer1", nil)
	rejecting.Status = 500

	store, session, connector := newFixture(mocks.NewMockPeer("peer0", payload), rejecting)

	policy, err := endorsement.New(api.EndorsementPolicy{Type: api.PolicyFirst})
	require.NoError(t, err)

	result, err := New(store, connector, WithPolicy(policy)).Submit(context.Background(), newRequest())
	require.NoError(t, err)
	assert.Equal(t, api.Submitted, result.Outcome)

	commits := session.CommitRequests()
	require.Len(t, commits, 1)
	require.Len(t, commits[0].Responses, 1)
	assert.Equal(t, "peer0", commits[0].Responses[0].Endorser)
}

func TestSubmitExplicitTargets(t *testing.T) {
	store, session, connector := newFixture(mocks.NewMockPeer("peer0", payload), mocks.NewMockPeer("peer1", payload))

	r := newRequest()
	r.Targets = []string{"peer1"}
	_, err := New(store, connector).Submit(context.Background(), r)
	require.NoError(t, err)

	commits := session.CommitRequests()
	require.Len(t, commits, 1)
	require.Len(t, commits[0].Responses, 1)
	assert.Equal(t, "peer1", commits[0].Responses[0].Endorser)
}

func TestSubmitOrderingFailed(t *testing.T) {
	store, session, connector := newFixture()
	session.OrdererStatus = "BAD_REQUEST"

	_, err := New(store, connector).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.OrderingFailed))
	assert.Contains(t, err.Error(), "BAD_REQUEST")
	assert.Len(t, session.CommitRequests(), 1, "endorsement must have completed")
	assert.Equal(t, 1, session.CloseCount())
}

func TestSubmitTimeout(t *testing.T) {
	slow := mocks.NewMockPeer("peer0", payload)
	slow.Delay = time.Second

	store, session, connector := newFixture(slow)

	_, err := New(store, connector, WithTimeout(10*time.Millisecond)).Submit(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.TransportError))
	assert.Empty(t, session.CommitRequests())
	assert.Equal(t, 1, session.CloseCount())
}

func TestSubmitCancelled(t *testing.T) {
	store, session, connector := newFixture()
	session.EndorseErr = pkgerrors.New("rpc error: context canceled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store, connector).Submit(ctx, newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.TransportError))
	assert.Contains(t, err.Error(), context.Canceled.Error())
	assert.Equal(t, 1, session.CloseCount())
}

func TestReleaseExactlyOnce(t *testing.T) {
	testCases := []struct {
		name   string
		inject func(store *mocks.MockIdentityStore, session *mocks.MockSession, connector *mocks.MockConnector)
		code   errors.ErrorCode
		closes int
	}{
		{
			name:   "identity",
			inject: func(store *mocks.MockIdentityStore, _ *mocks.MockSession, _ *mocks.MockConnector) { store.Remove(user1) },
			code:   errors.IdentityNotFound,
		},
		{
			name: "connect",
			inject: func(_ *mocks.MockIdentityStore, _ *mocks.MockSession, connector *mocks.MockConnector) {
				connector.ConnectErr = pkgerrors.New("connection refused")
			},
			code: errors.TransportError,
		},
		{
			name: "proposal",
			inject: func(_ *mocks.MockIdentityStore, session *mocks.MockSession, _ *mocks.MockConnector) {
				session.ProposalErr = pkgerrors.New("marshal failed")
			},
			code:   errors.SystemError,
			closes: 1,
		},
		{
			name: "endorse",
			inject: func(_ *mocks.MockIdentityStore, session *mocks.MockSession, _ *mocks.MockConnector) {
				session.EndorseErr = pkgerrors.New("no targets")
			},
			code:   errors.TransportError,
			closes: 1,
		},
		{
			name: "policy",
			inject: func(_ *mocks.MockIdentityStore, session *mocks.MockSession, _ *mocks.MockConnector) {
				session.Peers[0].Status = 404
			},
			code:   errors.ProposalFailed,
			closes: 1,
		},
		{
			name: "order",
			inject: func(_ *mocks.MockIdentityStore, session *mocks.MockSession, _ *mocks.MockConnector) {
				session.OrderErr = errors.New(errors.OrderingFailed, "SERVICE_UNAVAILABLE")
			},
			code:   errors.OrderingFailed,
			closes: 1,
		},
		{
			name: "commit status",
			inject: func(_ *mocks.MockIdentityStore, session *mocks.MockSession, _ *mocks.MockConnector) {
				session.OrdererStatus = "FORBIDDEN"
			},
			code:   errors.OrderingFailed,
			closes: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, session, connector := newFixture()
			tc.inject(store, session, connector)

			_, err := New(store, connector).Submit(context.Background(), newRequest())
			require.Error(t, err)
			assert.Equal(t, tc.code, errors.Code(err), err.Error())
			assert.Equal(t, tc.closes, session.CloseCount())
		})
	}
}

func TestDistinctTxnIDs(t *testing.T) {
	store, session, connector := newFixture()
	s := New(store, connector)

	result1, err := s.Submit(context.Background(), newRequest())
	require.NoError(t, err)
	result2, err := s.Submit(context.Background(), newRequest())
	require.NoError(t, err)

	assert.NotEqual(t, result1.TxnID, result2.TxnID)
	assert.Equal(t, 2, connector.ConnectCount())
	assert.Equal(t, 2, session.CloseCount())
}

func TestEvaluate(t *testing.T) {
	store, session, connector := newFixture(
		mocks.NewMockPeer("peer0", payload),
		mocks.NewMockPeer("peer1", payload),
	)
	scope := tally.NewTestScope("", nil)

	s := New(store, connector, WithScope(scope))
	result, err := s.Evaluate(context.Background(), newRequest())
	require.NoError(t, err)

	assert.Equal(t, api.Evaluated, result.Outcome)
	assert.Equal(t, payload, result.Payload)
	assert.Empty(t, result.Orderer)
	assert.NotEmpty(t, result.TxnID)
	assert.Empty(t, session.CommitRequests(), "an evaluation must not be sent for ordering")
	assert.Equal(t, 1, session.CloseCount())

	assert.Equal(t, int64(1), counterValue(scope, evaluateCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, evaluatedCounterName, nil))
	assert.Equal(t, int64(2), counterValue(scope, endorsementCounterName, nil))
	assert.Equal(t, int64(0), counterValue(scope, submitCounterName, nil))
}

func TestEvaluatePolicyNotSatisfied(t *testing.T) {
	peer1 := mocks.NewMockPeer("peer1", payload)
	peer1.Status = 500
	peer1.Message = "chaincode error"
	store, session, connector := newFixture(mocks.NewMockPeer("peer0", payload), peer1)
	scope := tally.NewTestScope("", nil)

	_, err := New(store, connector, WithScope(scope)).Evaluate(context.Background(), newRequest())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))
	assert.Contains(t, err.Error(), "chaincode error")
	assert.Empty(t, session.CommitRequests())
	assert.Equal(t, 1, session.CloseCount())

	assert.Equal(t, int64(0), counterValue(scope, evaluatedCounterName, nil))
	assert.Equal(t, int64(1), counterValue(scope, submitErrorCounterName, map[string]string{codeTag: errors.ProposalFailed.String()}))
}

func counterValue(scope tally.TestScope, name string, tags map[string]string) int64 {
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() != name {
			continue
		}
		if !tagsMatch(c.Tags(), tags) {
			continue
		}
		return c.Value()
	}
	return 0
}

func tagsMatch(actual, expected map[string]string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for k, v := range expected {
		if actual[k] != v {
			return false
		}
	}
	return true
}
