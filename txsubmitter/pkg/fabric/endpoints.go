/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabric

import (
	"crypto/x509"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config/endpoint"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

const (
	sslTargetOverrideKey = "ssl-target-name-override"
	failFastKey          = "fail-fast"
)

// loadTLSCACert loads the PEM certificate at the given path. Nil is
// returned if path is empty.
func loadTLSCACert(path string) (*x509.Certificate, error) {
	if path == "" {
		return nil, nil
	}

	tlsConfig := &endpoint.TLSConfig{Path: path}
	if err := tlsConfig.LoadBytes(); err != nil {
		return nil, errors.Wrapf(errors.TransportError, err, "failed to load TLS CA certificate [%s]", path)
	}

	cert, ok, err := tlsConfig.TLSCert()
	if err != nil {
		return nil, errors.Wrapf(errors.TransportError, err, "failed to parse TLS CA certificate [%s]", path)
	}
	if !ok {
		return nil, errors.Errorf(errors.TransportError, "no PEM certificate found in [%s]", path)
	}
	return cert, nil
}

func grpcOptions(serverHostOverride string) map[string]interface{} {
	opts := map[string]interface{}{
		failFastKey: true,
	}
	if serverHostOverride != "" {
		opts[sslTargetOverrideKey] = serverHostOverride
	}
	return opts
}

// newNetworkPeer returns the SDK configuration of the given peer endpoint
func newNetworkPeer(cfg api.PeerConfig) (*fab.NetworkPeer, error) {
	cert, err := loadTLSCACert(cfg.TLSCACertPath)
	if err != nil {
		return nil, err
	}

	return &fab.NetworkPeer{
		PeerConfig: fab.PeerConfig{
			URL:         cfg.URL,
			GRPCOptions: grpcOptions(cfg.ServerHostOverride),
			TLSCACert:   cert,
		},
		MSPID: cfg.MSPID,
	}, nil
}

// newOrdererConfig returns the SDK configuration of the given orderer endpoint
func newOrdererConfig(cfg api.OrdererConfig) (*fab.OrdererConfig, error) {
	cert, err := loadTLSCACert(cfg.TLSCACertPath)
	if err != nil {
		return nil, err
	}

	return &fab.OrdererConfig{
		URL:         cfg.URL,
		GRPCOptions: grpcOptions(cfg.ServerHostOverride),
		TLSCACert:   cert,
	}, nil
}
