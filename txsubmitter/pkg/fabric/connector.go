/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"context"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	contextApi "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	mspctx "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/securekey/fabric-txsubmit/util/refcount"
)

var logger = logging.NewLogger("txsubmit")

// Connector opens sessions using a shared SDK instance. The SDK is closed
// once Close has been called and every open session has been released.
type Connector struct {
	sdk      *fabsdk.FabricSDK
	org      string
	peers    []api.PeerConfig
	orderers []api.OrdererConfig
	sessions *refcount.ReferenceCounter
}

// NewConnector creates the SDK from the given connection profile. If no peers
// (orderers) are given then the channel's peers (orderers) from the connection
// profile are used.
func NewConnector(configProvider core.ConfigProvider, org string, peers []api.PeerConfig, orderers []api.OrdererConfig) (*Connector, error) {
	if org == "" {
		return nil, errors.New(errors.MissingConfigDataError, "organization is required")
	}

	sdk, err := fabsdk.New(configProvider)
	if err != nil {
		return nil, Classify(err, errors.TransportError, "Error creating fabric SDK")
	}

	return &Connector{
		sdk:      sdk,
		org:      org,
		peers:    peers,
		orderers: orderers,
		sessions: refcount.New(sdk.Close),
	}, nil
}

// Connect opens a session for the given identity on the given channel
func (c *Connector) Connect(ctx context.Context, identity *api.Identity, channelID string) (api.Session, error) {
	if !c.sessions.Acquire() {
		return nil, errors.New(errors.TransportError, "connector is closed")
	}

	s, err := c.connect(identity, channelID)
	if err != nil {
		c.sessions.Release()
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, errors.Wrap(errors.TransportError, err, "connect aborted")
	}

	logger.Debugf("Opened session for [%s] on channel [%s] with %d peers and %d orderers", identity.Label, channelID, len(s.endorsers), len(s.orderers))
	return s, nil
}

// Close closes the SDK once all open sessions are released
func (c *Connector) Close() {
	logger.Debugf("Closing connector with %d open sessions", c.sessions.Count())
	c.sessions.Close()
}

func (c *Connector) connect(identity *api.Identity, channelID string) (*session, error) {
	mspClient, err := msp.New(c.sdk.Context(), msp.WithOrg(c.org))
	if err != nil {
		return nil, Classify(err, errors.TransportError, "Error creating MSP client")
	}

	signingIdentity, err := mspClient.CreateSigningIdentity(mspctx.WithCert(identity.Certificate), mspctx.WithPrivateKey(identity.PrivateKey))
	if err != nil {
		return nil, errors.Wrapf(errors.CryptoConfigError, err, "Error creating signing identity for [%s]", identity.Label)
	}

	clientCtx, err := c.sdk.Context(fabsdk.WithIdentity(signingIdentity), fabsdk.WithOrg(c.org))()
	if err != nil {
		return nil, Classify(err, errors.TransportError, "Error creating client context")
	}

	endorsers, err := c.resolvePeers(clientCtx, channelID)
	if err != nil {
		return nil, err
	}

	orderers, err := c.resolveOrderers(clientCtx, channelID)
	if err != nil {
		return nil, err
	}

	return &session{
		ctx:       clientCtx,
		channelID: channelID,
		endorsers: endorsers,
		orderers:  orderers,
		release:   func() { c.sessions.Release() },
	}, nil
}

func (c *Connector) resolvePeers(ctx contextApi.Client, channelID string) ([]*endorser, error) {
	var endorsers []*endorser

	if len(c.peers) > 0 {
		for _, p := range c.peers {
			peerCfg, err := newNetworkPeer(p)
			if err != nil {
				return nil, err
			}
			peer, err := ctx.InfraProvider().CreatePeerFromConfig(peerCfg)
			if err != nil {
				return nil, Classify(err, errors.TransportError, "Error creating peer "+p.Name)
			}
			endorsers = append(endorsers, &endorser{name: p.Name, peer: peer})
		}
		return endorsers, nil
	}

	for _, p := range ctx.EndpointConfig().ChannelPeers(channelID) {
		if !p.EndorsingPeer {
			continue
		}
		peerCfg := p.NetworkPeer
		peer, err := ctx.InfraProvider().CreatePeerFromConfig(&peerCfg)
		if err != nil {
			return nil, Classify(err, errors.TransportError, "Error creating peer "+p.URL)
		}
		endorsers = append(endorsers, &endorser{name: p.URL, peer: peer})
	}

	if len(endorsers) == 0 {
		return nil, errors.Errorf(errors.MissingConfigDataError, "no endorsing peers configured for channel [%s]", channelID)
	}
	return endorsers, nil
}

func (c *Connector) resolveOrderers(ctx contextApi.Client, channelID string) ([]fab.Orderer, error) {
	var orderers []fab.Orderer

	if len(c.orderers) > 0 {
		for _, o := range c.orderers {
			ordererCfg, err := newOrdererConfig(o)
			if err != nil {
				return nil, err
			}
			orderer, err := ctx.InfraProvider().CreateOrdererFromConfig(ordererCfg)
			if err != nil {
				return nil, Classify(err, errors.TransportError, "Error creating orderer "+o.Name)
			}
			orderers = append(orderers, orderer)
		}
		return orderers, nil
	}

	ordererCfgs := ctx.EndpointConfig().ChannelOrderers(channelID)
	if len(ordererCfgs) == 0 {
		ordererCfgs = ctx.EndpointConfig().OrderersConfig()
	}
	for _, cfg := range ordererCfgs {
		ordererCfg := cfg
		orderer, err := ctx.InfraProvider().CreateOrdererFromConfig(&ordererCfg)
		if err != nil {
			return nil, Classify(err, errors.TransportError, "Error creating orderer "+cfg.URL)
		}
		orderers = append(orderers, orderer)
	}

	if len(orderers) == 0 {
		return nil, errors.Errorf(errors.MissingConfigDataError, "no orderers configured for channel [%s]", channelID)
	}
	return orderers, nil
}
