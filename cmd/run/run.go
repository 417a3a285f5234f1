package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pollherd/pollherd/classroom"
	"github.com/pollherd/pollherd/config"
	"github.com/pollherd/pollherd/console"
	"github.com/pollherd/pollherd/swarm"
	"github.com/pollherd/pollherd/tools"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configFile = tools.GetenvDefault(config.EnvPrefix+"CONFIG", "config.yaml")
	guestCount int

	Cmd = &cobra.Command{
		Use:   "run",
		Short: "Provision guest sessions and start the operator console",
		Args:  cobra.NoArgs,
		RunE:  runHarness,
	}
)

func init() {
	Cmd.Flags().StringVarP(&configFile, "config", "c", configFile, "path of config file")
	Cmd.Flags().IntVarP(&guestCount, "guests", "n", 0, "override guest_count from the config file")
}

func runHarness(cmd *cobra.Command, args []string) error {
	logger := log.With().Str("component", "run-cmd").Logger()

	logger.Info().Str("config", configFile).Msg("loading configuration")
	cfg, err := config.LoadHarnessConfig(configFile)
	if err != nil {
		return err
	}
	if guestCount > 0 {
		cfg.GuestCount = guestCount
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth, err := swarm.NewHTTPAuthenticator(cfg.TargetURL, cfg.ClassKey, log.Logger)
	if err != nil {
		return err
	}
	binder := swarm.NewChannelBinder(cfg.TargetURL, log.Logger)
	pool := swarm.NewPool(log.Logger)
	provisioner := swarm.NewProvisioner(pool, auth, binder, log.Logger)
	cache := &classroom.OptionCache{}
	reconciler := classroom.NewReconciler(cache, log.Logger)
	fanout := swarm.NewFanout(pool, cache, reconciler, log.Logger)

	logger.Info().Int("guest_count", cfg.GuestCount).Msg("creating fake guest users")
	provisioner.Provision(ctx, cfg.GuestCount)
	if pool.Len() == 0 {
		logger.Warn().Msg("no active user sessions available for poll interactions")
	}

	d := newDriver(cfg, pool, fanout, provisioner, reconciler, log.Logger)
	d.ensureWatch()

	c := console.New(d, os.Stdin, os.Stdout, log.Logger)
	return c.Run(ctx)
}
