/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"context"
)

// IdentityStore provides read access to enrolled identities
type IdentityStore interface {
	// Get returns the identity with the given label. An IdentityNotFound
	// error is returned if the identity does not exist.
	Get(label string) (*Identity, error)
}

// Connector opens sessions against the network for a given identity
type Connector interface {
	// Connect opens a session on the given channel. The session must be
	// closed by the caller.
	Connect(ctx context.Context, identity *Identity, channelID string) (Session, error)
}

// Session holds everything needed to drive a single transaction through
// proposal, endorsement and ordering. It replaces an ambient client object:
// every step is given the session explicitly.
type Session interface {
	// NewProposal builds a proposal for the given request. The transaction ID
	// is derived from a fresh nonce and the session user's serialized identity.
	NewProposal(request *Request) (*Proposal, error)

	// Endorse sends the proposal to each target and returns one response per
	// target in target order. The returned error is only set if no
	// proposal could be sent at all.
	Endorse(ctx context.Context, proposal *Proposal) ([]*EndorsementResponse, error)

	// Order sends the commit request to the ordering service
	Order(ctx context.Context, request *CommitRequest) (*CommitResult, error)

	// Close releases the network resources held by the session
	Close()
}

// Submitter submits a transaction and reports the outcome
type Submitter interface {
	Submit(ctx context.Context, request *Request) (*Result, error)
}

// Evaluator runs a transaction on the endorsing peers and returns the result
// without sending it for ordering
type Evaluator interface {
	Evaluate(ctx context.Context, request *Request) (*Result, error)
}

// Client submits and evaluates transactions
type Client interface {
	Submitter
	Evaluator
}
