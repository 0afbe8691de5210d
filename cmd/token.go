package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pulse/internal/services"
)

var tokenClient string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token",
	Long: `Issue a token signed with the server key so a client can reach /api and
/ws without calling /auth/token. Uses server.secret_key, or the key
persisted in ~/.pulse-secret-key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

		auth, err := services.NewAuthService(cfg.Server.SecretKey, cfg.Server.TokenTTL, services.DefaultKeyFile(), logger)
		if err != nil {
			return err
		}
		token, expiresAt, err := auth.GenerateToken(tokenClient)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(out, "expires: %s\n", expiresAt.Format(time.RFC3339))
		fmt.Fprintf(out, "url:     ws://%s/ws?token=%s\n", cfg.Server.Address, token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVarP(&tokenClient, "name", "n", "cli", "client name embedded in the token")
}
