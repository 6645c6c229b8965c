/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"time"
)

// PolicyType is the endorsement policy applied to the responses of the target peers
type PolicyType string

const (
	// PolicyAll requires every targeted peer to endorse successfully (default)
	PolicyAll PolicyType = "all"
	// PolicyFirst only inspects the first response
	PolicyFirst PolicyType = "first"
	// PolicyQuorum requires at least N successful endorsements
	PolicyQuorum PolicyType = "quorum"
)

// EndorsementPolicy contains the client-side endorsement policy settings
type EndorsementPolicy struct {
	Type   PolicyType
	Quorum int
}

// PeerConfig represents the endpoint of an endorsing peer
type PeerConfig struct {
	Name               string
	URL                string
	MSPID              string
	TLSCACertPath      string
	ServerHostOverride string
}

// OrdererConfig represents the endpoint of an orderer
type OrdererConfig struct {
	Name               string
	URL                string
	TLSCACertPath      string
	ServerHostOverride string
}

// StatsdConfig holds the settings of the statsd metrics reporter
type StatsdConfig struct {
	Address       string
	Prefix        string
	FlushInterval time.Duration
	FlushBytes    int
}

// Config configuration interface
type Config interface {
	GetConnectionProfilePath() string
	GetWalletPath() string
	GetUser() string
	GetOrganization() string
	GetChannelID() string
	GetChaincodeID() string
	GetFunction() string
	GetTimeout() time.Duration
	GetEndorsementPolicy() (EndorsementPolicy, error)
	GetPeers() ([]PeerConfig, error)
	GetOrderers() ([]OrdererConfig, error)
	GetStatsdConfig() *StatsdConfig
	GetLogLevel() string
	GetConfigPath(path string) string
}
