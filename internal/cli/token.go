package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcfw/didkms/internal/api"
	"github.com/tcfw/didkms/internal/config"
)

var (
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token with the configured api secret",
		RunE:  runToken,
	}
)

func init() {
	tokenCmd.Flags().String("subject", "", "principal the token authenticates")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if len(cfg.API().TokenSecret) == 0 {
		return errors.Errorf("%s is not configured", config.Cfg_api_tokenSecret)
	}

	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	tok, err := api.IssueToken(cfg.API().TokenSecret, subject, ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}
