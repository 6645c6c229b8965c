/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	fabgateway "github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

// sdkGateway is the subset of *fabgateway.Gateway that is used
type sdkGateway interface {
	GetNetwork(name string) (*fabgateway.Network, error)
	Close()
}

type sdkConnection struct {
	gw sdkGateway
}

// Contract returns the contract for the chaincode on the given channel
func (c *sdkConnection) Contract(channelID, chaincodeID string) (Contract, error) {
	network, err := c.gw.GetNetwork(channelID)
	if err != nil {
		return nil, err
	}
	return network.GetContract(chaincodeID), nil
}

// Close disconnects from the gateway
func (c *sdkConnection) Close() {
	c.gw.Close()
}

// NewConnectFunc returns a ConnectFunc that connects with the given
// connection profile and wallet
func NewConnectFunc(configProvider core.ConfigProvider, wallet *fabgateway.Wallet, timeout time.Duration) ConnectFunc {
	return func(label string) (Connection, error) {
		opts := []fabgateway.Option{}
		if timeout > 0 {
			opts = append(opts, fabgateway.WithTimeout(timeout))
		}

		gw, err := fabgateway.Connect(
			fabgateway.WithConfig(configProvider),
			fabgateway.WithIdentity(wallet, label),
			opts...,
		)
		if err != nil {
			return nil, err
		}
		return &sdkConnection{gw: gw}, nil
	}
}
