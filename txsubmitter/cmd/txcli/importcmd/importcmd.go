/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package importcmd

import (
	"fmt"
	"io/ioutil"

	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/action"
	"github.com/securekey/fabric-txsubmit/txsubmitter/cmd/txcli/cliconfig"
	"github.com/securekey/fabric-txsubmit/util/errors"
	"github.com/spf13/cobra"
)

const description = `
The import command stores an enrolled X.509 identity in the wallet under the label
given by --user. The submit, invoke and batch commands load the identity by label.
An existing identity with the same label is replaced.
`

const examples = `
- Import user1 of Org1MSP:
    $ ./txcli import --config ./txsubmit.yaml --user user1 --mspid Org1MSP --cert ./user1/signcerts/cert.pem --key ./user1/keystore/priv_sk

... results in the following output:

    Identity [user1] of [Org1MSP] imported
`

// Cmd returns the Import command
func Cmd() *cobra.Command {
	return newCmd(action.New())
}

func newCmd(baseAction action.Action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Import an identity into the wallet",
		Long:         description,
		Example:      examples,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := baseAction.Initialize(); err != nil {
				return err
			}
			defer baseAction.Close()

			cfg := cliconfig.Config()
			if cfg.CertFile() == "" || cfg.KeyFile() == "" {
				return errors.New(errors.MissingRequiredParameterError, "both --cert and --key must be specified")
			}

			cert, err := ioutil.ReadFile(cfg.CertFile())
			if err != nil {
				return errors.Wrapf(errors.MissingConfigDataError, err, "failed to read certificate [%s]", cfg.CertFile())
			}
			key, err := ioutil.ReadFile(cfg.KeyFile())
			if err != nil {
				return errors.Wrapf(errors.MissingConfigDataError, err, "failed to read private key [%s]", cfg.KeyFile())
			}

			importer, err := baseAction.Importer()
			if err != nil {
				return err
			}

			if err := importer.Import(cfg.GetUser(), cfg.MspID(), cert, key); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Identity [%s] of [%s] imported\n", cfg.GetUser(), cfg.MspID())
			return nil
		},
	}

	flags := cmd.Flags()
	cliconfig.InitMspID(flags)
	cliconfig.InitCertFile(flags)
	cliconfig.InitKeyFile(flags)

	return cmd
}
