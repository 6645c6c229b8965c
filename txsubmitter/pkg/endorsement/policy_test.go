/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endorsement

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(endorser string, payload string) *api.EndorsementResponse {
	return &api.EndorsementResponse{Endorser: endorser, Status: api.StatusOK, Payload: []byte(payload), Result: []byte("rwset|" + payload)}
}

func rejected(endorser string, status int32) *api.EndorsementResponse {
	return &api.EndorsementResponse{Endorser: endorser, Status: status, Message: "chaincode error"}
}

func failed(endorser string, err error) *api.EndorsementResponse {
	return &api.EndorsementResponse{Endorser: endorser, Err: err}
}

func TestNew(t *testing.T) {
	p, err := New(api.EndorsementPolicy{})
	require.NoError(t, err)
	assert.Equal(t, "all", p.String())

	p, err = New(api.EndorsementPolicy{Type: api.PolicyFirst})
	require.NoError(t, err)
	assert.Equal(t, "first", p.String())

	p, err = New(api.EndorsementPolicy{Type: api.PolicyQuorum, Quorum: 2})
	require.NoError(t, err)
	assert.Equal(t, "quorum(2)", p.String())

	_, err = New(api.EndorsementPolicy{Type: api.PolicyQuorum})
	assert.True(t, errors.HasCode(err, errors.ValidationError))

	_, err = New(api.EndorsementPolicy{Type: "majority"})
	assert.True(t, errors.HasCode(err, errors.ValidationError))
}

func TestRequireAll(t *testing.T) {
	p, err := New(api.EndorsementPolicy{Type: api.PolicyAll})
	require.NoError(t, err)

	t.Run("all succeed", func(t *testing.T) {
		responses := []*api.EndorsementResponse{ok("peer0", "x"), ok("peer1", "x")}
		accepted, err := p.Evaluate(responses)
		require.NoError(t, err)
		assert.Equal(t, responses, accepted)
	})

	t.Run("second rejects", func(t *testing.T) {
		_, err := p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), rejected("peer1", 500)})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ProposalFailed))
		assert.Contains(t, err.Error(), "peer1")
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), ok("peer1", "y")})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ProposalFailed))
		assert.Contains(t, err.Error(), "mismatch")
		e, _ := errors.GetError(err)
		assert.Len(t, e.Details(), 2)
	})

	t.Run("read-write set mismatch", func(t *testing.T) {
		diverged := ok("peer1", "x")
		diverged.Result = []byte("other-rwset|x")

		_, err := p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), diverged})
		require.Error(t, err, "same chaincode payload but different simulation results")
		assert.True(t, errors.HasCode(err, errors.ProposalFailed))
		assert.Contains(t, err.Error(), "peer1")
	})

	t.Run("no responses", func(t *testing.T) {
		_, err := p.Evaluate(nil)
		assert.True(t, errors.HasCode(err, errors.ProposalFailed))
	})
}

func TestRequireFirst(t *testing.T) {
	p, err := New(api.EndorsementPolicy{Type: api.PolicyFirst})
	require.NoError(t, err)

	accepted, err := p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), rejected("peer1", 500)})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "peer0", accepted[0].Endorser)

	_, err = p.Evaluate([]*api.EndorsementResponse{rejected("peer0", 404), ok("peer1", "x")})
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))

	_, err = p.Evaluate(nil)
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))
}

func TestRequireQuorum(t *testing.T) {
	p, err := New(api.EndorsementPolicy{Type: api.PolicyQuorum, Quorum: 2})
	require.NoError(t, err)

	accepted, err := p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), rejected("peer1", 500), ok("peer2", "x")})
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	assert.Equal(t, "peer0", accepted[0].Endorser)
	assert.Equal(t, "peer2", accepted[1].Endorser)

	_, err = p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), rejected("peer1", 500)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ProposalFailed))
	assert.Contains(t, err.Error(), "1 of 2")

	transport := errors.New(errors.TransportError, "connection refused")
	_, err = p.Evaluate([]*api.EndorsementResponse{ok("peer0", "x"), failed("peer1", transport)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.TransportError), "quorum failing only on transport errors is a transport error")
}

func TestCheck(t *testing.T) {
	assert.Nil(t, Check(ok("peer0", "x")))

	err := Check(failed("peer0", pkgerrors.New("simulation failed")))
	require.NotNil(t, err)
	assert.Equal(t, errors.ProposalFailed, err.ErrorCode())
	assert.Contains(t, err.Error(), "simulation failed")

	transport := errors.New(errors.TransportError, "deadline exceeded")
	err = Check(failed("peer0", pkgerrors.WithMessage(transport, "endorse")))
	require.NotNil(t, err)
	assert.Equal(t, errors.TransportError, err.ErrorCode())

	err = Check(rejected("peer0", 500))
	require.NotNil(t, err)
	assert.Equal(t, errors.ProposalFailed, err.ErrorCode())
	require.Len(t, err.Details(), 1)
	assert.Contains(t, err.Details()[0], "status:500")
}
