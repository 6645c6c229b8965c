/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"os"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config/endpoint"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
	"github.com/securekey/fabric-txsubmit/util/errors"
)

var logger = logging.NewLogger("txsubmit")

// Store provides access to the identities held in a Fabric wallet
type Store struct {
	wallet *gateway.Wallet
}

// Open opens the existing file-system wallet at the given path. Unlike New,
// a missing wallet is an error and nothing is created.
func Open(path string) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf(errors.MissingConfigDataError, "wallet [%s] does not exist; run the import command first", path)
		}
		return nil, errors.Wrapf(errors.SystemError, err, "failed to open wallet at [%s]", path)
	}
	if !info.IsDir() {
		return nil, errors.Errorf(errors.MissingConfigDataError, "wallet [%s] is not a directory", path)
	}
	return New(path)
}

// New opens (or creates) the file-system wallet at the given path
func New(path string) (*Store, error) {
	w, err := gateway.NewFileSystemWallet(path)
	if err != nil {
		return nil, errors.Wrapf(errors.SystemError, err, "failed to open wallet at [%s]", path)
	}
	logger.Debugf("Opened wallet at [%s]", path)
	return &Store{wallet: w}, nil
}

// Wallet returns the underlying gateway wallet
func (s *Store) Wallet() *gateway.Wallet {
	return s.wallet
}

// Exists returns true if the wallet holds an identity with the given label
func (s *Store) Exists(label string) bool {
	return s.wallet.Exists(label)
}

// List returns the labels in the wallet
func (s *Store) List() ([]string, error) {
	labels, err := s.wallet.List()
	if err != nil {
		return nil, errors.Wrap(errors.SystemError, err, "failed to list wallet")
	}
	return labels, nil
}

// Get returns the identity with the given label
func (s *Store) Get(label string) (*api.Identity, error) {
	if !s.wallet.Exists(label) {
		return nil, errors.Errorf(errors.IdentityNotFound, "an identity for the user [%s] does not exist in the wallet (available: [%s]); run the import command first", label, s.available())
	}

	id, err := s.wallet.Get(label)
	if err != nil {
		return nil, errors.Wrapf(errors.UnmarshallError, err, "failed to read identity [%s] from wallet", label)
	}

	x509ID, ok := id.(*gateway.X509Identity)
	if !ok {
		return nil, errors.Errorf(errors.ValidationError, "identity [%s] is not an X.509 identity", label)
	}

	return &api.Identity{
		Label:       label,
		MSPID:       x509ID.MspID,
		Certificate: []byte(x509ID.Certificate()),
		PrivateKey:  []byte(x509ID.Key()),
	}, nil
}

func (s *Store) available() string {
	labels, err := s.List()
	if err != nil {
		logger.Debugf("Unable to list wallet: %s", err)
		return ""
	}
	return strings.Join(labels, ", ")
}

// Import stores an X.509 identity under the given label, replacing any existing identity
func (s *Store) Import(label, mspID string, certPEM, keyPEM []byte) error {
	if label == "" {
		return errors.New(errors.MissingRequiredParameterError, "label is required")
	}
	if mspID == "" {
		return errors.New(errors.MissingRequiredParameterError, "MSP ID is required")
	}
	if len(keyPEM) == 0 {
		return errors.New(errors.MissingRequiredParameterError, "private key is required")
	}

	cert := &endpoint.TLSConfig{Pem: string(certPEM)}
	if err := cert.LoadBytes(); err != nil {
		return errors.Wrap(errors.ParseCertError, err, "failed to load certificate")
	}
	if _, ok, err := cert.TLSCert(); err != nil || !ok {
		if err == nil {
			return errors.Errorf(errors.ParseCertError, "no PEM certificate found for [%s]", label)
		}
		return errors.Wrapf(errors.ParseCertError, err, "invalid certificate for [%s]", label)
	}

	if err := s.wallet.Put(label, gateway.NewX509Identity(mspID, string(certPEM), string(keyPEM))); err != nil {
		return errors.Wrapf(errors.SystemError, err, "failed to store identity [%s]", label)
	}

	logger.Infof("Imported identity [%s] for MSP [%s]", label, mspID)
	return nil
}
