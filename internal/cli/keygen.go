package cli

import (
	"github.com/spf13/cobra"

	"cantonwatch/internal/app"
)

var keygenLabel string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create an API key for the query endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Keygen(cmd.Context(), app.KeygenOptions{Label: keygenLabel})
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenLabel, "label", "", "Free-form label describing the key's owner")
}
