package system

import (
	"fmt"

	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
)

func NewKeygenCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate PASETO key material for authentication.paseto",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := pasetotoken.GenerateKeys(pasetotoken.Mode(mode))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode: %s\n", keys.Mode)
			if keys.Symmetric != nil {
				fmt.Fprintf(out, "local_key_hex: %s\n", keys.Symmetric.ExportHex())
			}
			if keys.Secret != nil {
				fmt.Fprintf(out, "secret_key_hex: %s\n", keys.Secret.ExportHex())
				fmt.Fprintf(out, "public_key_hex: %s\n", keys.Public.ExportHex())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "local or public")

	return cmd
}
