/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package importcmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"

	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/pkg/wallet"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	configPath = "../testdata/txsubmit.yaml"
	certPath   = "../testdata/cert.pem"
	keyPath    = "../testdata/priv_sk"
)

func TestImport(t *testing.T) {
	store := newStore(t)
	a := &action.MockAction{Imports: store}

	out, err := run(a, "--config", configPath, "--user", "admin", "--mspid", "Org1MSP", "--cert", certPath, "--key", keyPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Identity [admin] of [Org1MSP] imported")
	assert.Equal(t, 1, a.Closed)

	identity, err := store.Get("admin")
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP", identity.MSPID)
}

func TestImportMissingFlags(t *testing.T) {
	a := &action.MockAction{Imports: newStore(t)}

	_, err := run(a, "--config", configPath, "--mspid", "Org1MSP", "--cert", certPath)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.MissingRequiredParameterError))

	_, err = run(a, "--config", configPath, "--cert", certPath, "--key", keyPath)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.MissingRequiredParameterError), "MSP ID is required")
}

func TestImportMissingFile(t *testing.T) {
	a := &action.MockAction{Imports: newStore(t)}

	_, err := run(a, "--config", configPath, "--mspid", "Org1MSP", "--cert", "../testdata/missing.pem", "--key", keyPath)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.MissingConfigDataError))
}

func TestImportInvalidCert(t *testing.T) {
	store := newStore(t)
	a := &action.MockAction{Imports: store}

	_, err := run(a, "--config", configPath, "--user", "admin", "--mspid", "Org1MSP", "--cert", keyPath, "--key", keyPath)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ParseCertError))
	assert.False(t, store.Exists("admin"))
}

func run(a action.Action, args ...string) (string, error) {
	cmd := newCmd(a)
	action.InitGlobalFlags(cmd.PersistentFlags())

	out := &bytes.Buffer{}
	cmd.SetOutput(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newStore(t *testing.T) *wallet.Store {
	dir, err := ioutil.TempDir("", "txcli-wallet")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := wallet.New(dir)
	require.NoError(t, err)
	return store
}
