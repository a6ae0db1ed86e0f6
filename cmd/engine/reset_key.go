package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"

	"hackhub-engine/internal/config"
	"hackhub-engine/internal/secrets"
)

func newResetSigningKeyCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "reset-signing-key",
		Short: "Delete the session signing key from the OS keyring",
		Long:  "Delete the session signing key from the OS keyring. A new key is generated on the next serve, which signs out every admin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := secrets.DeleteSigningKey(account)
			if errors.Is(err, keyring.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no signing key stored for", account)
				return nil
			}
			if err != nil {
				return fmt.Errorf("reset signing key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signing key removed for", account)
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", config.Defaults().Auth.KeyringAccount, "keyring account holding the key (auth.keyring_account)")
	return cmd
}
