package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tcfw/didkms/internal/api"
	"github.com/tcfw/didkms/internal/config"
)

const clientTimeout = 3 * time.Minute

var (
	rotateCmd = &cobra.Command{
		Use:   "rotate <id>",
		Short: "Rotate the current key of an identifier",
		Args:  cobra.ExactArgs(1),
		RunE:  runRotate,
	}
)

func init() {
	rotateCmd.Flags().StringP("use", "u", "", "key use to rotate (signing or agreement). blank defaults to signing")
	rotateCmd.Flags().StringP("alg", "a", "", "algorithm of the new key. blank keeps the current algorithm")
	rotateCmd.Flags().IntP("size", "s", 0, "RSA key size of the new key")
	rotateCmd.Flags().StringP("curve", "c", "", "curve of the new key")

	addClientFlags(rotateCmd)
}

// addClientFlags binds the daemon address and token flags of a client
// command
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "daemon api address")
	cmd.Flags().String("token", "", "bearer token")
}

func newClient(cmd *cobra.Command) (*api.Client, error) {
	viper.BindPFlag(config.Cfg_client_addr, cmd.Flags().Lookup("addr"))
	viper.BindPFlag(config.Cfg_client_token, cmd.Flags().Lookup("token"))

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	return api.NewClient(cfg.Client().Addr, cfg.Client().Token, api.WithMaxAttempts(cfg.Client().MaxAttempts)), nil
}

func runRotate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	use, _ := cmd.Flags().GetString("use")
	alg, _ := cmd.Flags().GetString("alg")
	size, _ := cmd.Flags().GetInt("size")
	curve, _ := cmd.Flags().GetString("curve")

	params, err := api.ParseRotateParams(use, alg, size, curve)
	if err != nil {
		return err
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	doc, err := c.Rotate(ctx, args[0], params)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), doc)
}
