/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"testing"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCause(t *testing.T) {
	rootCause := status.New(status.EndorserServerStatus, 500, "chaincode error", nil)
	err1 := WithMessage(ProposalFailed, rootCause, "proposal rejected")

	cause := errors.Cause(err1)
	assert.NotNil(t, cause)
	assert.Equal(t, rootCause, cause)

	err2 := WithMessage(SystemError, err1, "some other error")
	cause = errors.Cause(err2)
	assert.NotNil(t, cause)
	assert.Equal(t, rootCause, cause)

	stat, ok := status.FromError(err1)
	assert.True(t, ok)
	assert.Equal(t, rootCause, stat)

	stat, ok = status.FromError(err2)
	assert.True(t, ok)
	assert.Equal(t, rootCause, stat)
}

func TestGetError(t *testing.T) {
	coded := New(IdentityNotFound, "identity [user1] not found")

	e, ok := GetError(coded)
	require.True(t, ok)
	assert.Equal(t, IdentityNotFound, e.ErrorCode())

	wrapped := errors.Wrap(coded, "submit failed")
	e, ok = GetError(wrapped)
	require.True(t, ok)
	assert.Equal(t, IdentityNotFound, e.ErrorCode())
	assert.Equal(t, coded.ErrorID(), e.ErrorID())

	_, ok = GetError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = GetError(nil)
	assert.False(t, ok)
}

func TestHasCode(t *testing.T) {
	err := Wrap(TransportError, errors.New("connection refused"), "endorse failed")
	assert.True(t, HasCode(err, TransportError))
	assert.False(t, HasCode(err, ProposalFailed))
	assert.False(t, HasCode(errors.New("plain"), GeneralError))

	assert.Equal(t, TransportError, Code(errors.WithMessage(err, "outer")))
	assert.Equal(t, GeneralError, Code(errors.New("plain")))
}

func TestCreateError(t *testing.T) {
	coded := New(OrderingFailed, "orderer returned BAD_REQUEST")
	assert.Equal(t, coded, CreateError(errors.WithMessage(coded, "x"), GeneralError, "y"))

	e := CreateError(errors.New("plain"), ValidationError, "bad input")
	assert.Equal(t, ValidationError, e.ErrorCode())
	assert.Contains(t, e.Error(), "bad input")
}

func TestWithDetails(t *testing.T) {
	base := New(ProposalFailed, "bad endorsement")
	e := WithDetails(base, "peer0", int32(500))

	assert.Equal(t, ProposalFailed, e.ErrorCode())
	assert.Equal(t, base.ErrorID(), e.ErrorID())
	assert.Equal(t, []interface{}{"peer0", int32(500)}, e.Details())
	assert.Equal(t, base.Error(), e.Error())
	assert.Contains(t, e.GenerateLogMsg(), "errorCode:ProposalFailed")
	assert.Contains(t, e.GenerateLogMsg(), "peer0")
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "TransportError", TransportError.String())
	assert.Equal(t, "ErrorCode(99)", ErrorCode(99).String())
}
