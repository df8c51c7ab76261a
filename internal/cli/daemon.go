package cli

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tcfw/didkms/internal/api"
	"github.com/tcfw/didkms/internal/config"
	"github.com/tcfw/didkms/internal/storage"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did/resolver"
	"github.com/tcfw/didkms/pkg/rotation"
)

const shutdownTimeout = 10 * time.Second

var (
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		RunE:  runDaemon,
		Short: "run the key rotation api",
	}
)

func init() {
	daemonCmd.Flags().StringP("listen", "l", ":8080", "api listen address")
	viper.BindPFlag(config.Cfg_api_listen, daemonCmd.Flags().Lookup("listen"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.API().Listen)
	if err != nil {
		return errors.Wrap(err, "resolving listen address")
	}

	store, err := storage.Open(cfg.Storage().Driver, cfg.Storage().Path, cfg.Storage().CacheTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Stop(); err != nil {
			logging.WithError(err).Error("stopping store")
		}
	}()

	rotator, err := rotation.NewRotator(store, rotation.WithLogger(logging.Entry().WithField("component", "rotation")))
	if err != nil {
		return errors.Wrap(err, "initing rotator")
	}

	res := resolver.New()
	res.Register(cfg.DID().Method, store)

	a, err := api.NewAPI(store, rotator,
		api.WithMethod(cfg.DID().Method),
		api.WithResolver(res),
		api.WithTokenSecret(cfg.API().TokenSecret),
		api.WithConcealForbidden(cfg.API().ConcealForbidden),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)

	go func() {
		if err := a.ListenAndServe(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitExit(ctx):
		logging.Entry().Info("shutting down")

		sctx, scancel := context.WithTimeout(ctx, shutdownTimeout)
		defer scancel()

		return a.Shutdown(sctx)
	}
}
