package main

import (
	"fmt"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/push"
	"github.com/spf13/cobra"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Web push key tools",
}

var vapidGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a VAPID key pair for push.vapid_public_key and push.vapid_private_key",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ACME_VAPID_PUBLIC_KEY=%s\n", pub)
		fmt.Fprintf(out, "ACME_VAPID_PRIVATE_KEY=%s\n", priv)
		return nil
	},
}

func init() {
	vapidCmd.AddCommand(vapidGenerateCmd)
}
