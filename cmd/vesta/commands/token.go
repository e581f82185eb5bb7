package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vesta-core/internal/api"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token",
	Long: `Mint an HS256 bearer token for the HTTP API and WebSocket, signed with
security.jwt.secret from the config file (or VESTA_JWT_SECRET).

The token is printed on stdout so it can be captured:

  export VESTA_TOKEN=$(vesta token --subject dashboard)`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "operator", "token subject (who the token is for)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default security.jwt.access_token_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Could not load configuration", err.Error())
	}
	if cfg.Security.JWT.Secret == "" {
		return printError(cmd.ErrOrStderr(), "No JWT secret configured",
			"Set security.jwt.secret in the config file or VESTA_JWT_SECRET.")
	}

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.GetAccessTokenTTL()
	}
	token, err := api.IssueToken(cfg.Security.JWT.Secret, tokenSubject, ttl)
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Could not sign token", err.Error())
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
