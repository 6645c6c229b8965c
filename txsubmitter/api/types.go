/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

// StatusOK is the status an endorser returns for a successful simulation
const StatusOK = 200

// OrdererSuccess is the broadcast status returned when the ordering service
// accepts a transaction
const OrdererSuccess = "SUCCESS"

// Identity is an enrolled user credential held in the wallet
type Identity struct {
	Label       string
	MSPID       string
	Certificate []byte
	PrivateKey  []byte
}

// TransactionID identifies a transaction. ID is derived from Nonce and Creator.
type TransactionID struct {
	ID      string
	Nonce   []byte
	Creator []byte
}

// Request contains the parameters of a single transaction submission
type Request struct {
	// User is the wallet label of the identity that signs the transaction
	User string
	// ChannelID is the channel the chaincode is deployed to
	ChannelID string
	// ChaincodeID identifies the chaincode to invoke
	ChaincodeID string
	// Fcn is the chaincode function (e.g. "invoke")
	Fcn string
	// Args are passed to the chaincode as-is
	Args []string
	// TransientMap is private data that is not recorded on the ledger (optional)
	TransientMap map[string][]byte
	// Targets are the names of the peers to send the proposal to (optional).
	// If empty then all configured peers are used.
	Targets []string
}

// Proposal is a transaction proposal. It is immutable once sent.
type Proposal struct {
	TxnID       TransactionID
	ChannelID   string
	ChaincodeID string
	Fcn         string
	Args        []string
	Targets     []string
	// Handle is the transport-specific representation of the proposal
	Handle interface{}
}

// EndorsementResponse is the result of a single peer simulating the proposal.
// Either Err is set or Status/Payload hold the peer's response.
type EndorsementResponse struct {
	Endorser string
	Status   int32
	Message  string
	// Payload is the chaincode response payload
	Payload []byte
	// Result is the signed proposal response payload: the hash of the
	// proposal together with the read-write set and chaincode response
	Result []byte
	Err    error
	// Handle is the transport-specific representation of the response
	Handle interface{}
}

// CommitRequest pairs a proposal with the endorsements that are sent for ordering
type CommitRequest struct {
	Proposal  *Proposal
	Responses []*EndorsementResponse
}

// CommitResult is the ordering service's answer to a commit request. A successful
// result means the transaction was queued for ordering, not that it was committed.
type CommitResult struct {
	Orderer string
	Status  string
}

// Outcome of a submission
type Outcome string

const (
	// Submitted the transaction was endorsed and accepted by the ordering service
	Submitted Outcome = "Submitted"
	// Evaluated the transaction was endorsed but not sent for ordering
	Evaluated Outcome = "Evaluated"
)

// Result is returned from a successful submission
type Result struct {
	TxnID   string
	Outcome Outcome
	// Payload is the chaincode response payload
	Payload []byte
	// Orderer that accepted the transaction (empty for the gateway path and
	// for evaluations)
	Orderer string
}
