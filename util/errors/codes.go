/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import "fmt"

//ErrorCode error code
type ErrorCode int

const (
	// GeneralError generic error
	GeneralError ErrorCode = 0

	// ValidationError ...
	ValidationError ErrorCode = 1

	// MissingConfigDataError ...
	MissingConfigDataError ErrorCode = 2

	// CryptoConfigError ...
	CryptoConfigError ErrorCode = 3

	// ParseCertError ...
	ParseCertError ErrorCode = 7

	// UnmarshallError ...
	UnmarshallError ErrorCode = 11

	// MissingRequiredParameterError ...
	MissingRequiredParameterError ErrorCode = 12

	// SystemError ...
	SystemError ErrorCode = 14

	// IdentityNotFound the requested identity is not in the wallet
	IdentityNotFound ErrorCode = 15

	// ProposalFailed an endorser rejected or failed to simulate the proposal
	ProposalFailed ErrorCode = 16

	// OrderingFailed the ordering service did not accept the transaction
	OrderingFailed ErrorCode = 17

	// TransportError connection, TLS or timeout failure talking to the network
	TransportError ErrorCode = 18
)

var codeNames = map[ErrorCode]string{
	GeneralError:                  "GeneralError",
	ValidationError:               "ValidationError",
	MissingConfigDataError:        "MissingConfigDataError",
	CryptoConfigError:             "CryptoConfigError",
	ParseCertError:                "ParseCertError",
	UnmarshallError:               "UnmarshallError",
	MissingRequiredParameterError: "MissingRequiredParameterError",
	SystemError:                   "SystemError",
	IdentityNotFound:              "IdentityNotFound",
	ProposalFailed:                "ProposalFailed",
	OrderingFailed:                "OrderingFailed",
	TransportError:                "TransportError",
}

// String returns the name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}
