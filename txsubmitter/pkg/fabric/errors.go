/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/status"
	pkgerrors "github.com/pkg/errors"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Classify returns a coded error for an error returned by the SDK. A coded
// error in err's chain is returned as is. SDK status groups and gRPC status
// codes are mapped onto ProposalFailed, OrderingFailed and TransportError;
// anything else is given defaultCode.
func Classify(err error, defaultCode errors.ErrorCode, msg string) errors.Error {
	if err == nil {
		return nil
	}

	if e, ok := errors.GetError(err); ok {
		return e
	}

	code := classify(err, defaultCode)

	e := errors.WithMessage(code, err, msg)
	if s, ok := status.FromError(err); ok && len(s.Details) > 0 {
		return errors.WithDetails(e, s.Details...)
	}
	return e
}

func classify(err error, defaultCode errors.ErrorCode) errors.ErrorCode {
	if s, ok := status.FromError(err); ok {
		switch s.Group {
		case status.EndorserServerStatus, status.ChaincodeStatus:
			return errors.ProposalFailed
		case status.OrdererServerStatus:
			return errors.OrderingFailed
		case status.GRPCTransportStatus, status.HTTPTransportStatus, status.EndorserClientStatus, status.OrdererClientStatus:
			return errors.TransportError
		case status.ClientStatus:
			if s.Code == status.Timeout.ToInt32() {
				return errors.TransportError
			}
		}
		return defaultCode
	}

	cause := pkgerrors.Cause(err)
	if cause == context.DeadlineExceeded || cause == context.Canceled {
		return errors.TransportError
	}

	if s, ok := grpcstatus.FromError(cause); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Unauthenticated:
			return errors.TransportError
		}
	}

	return defaultCode
}
