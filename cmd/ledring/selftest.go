package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/wyoming-ledring/internal/ring"
	"github.com/coreman2200/wyoming-ledring/internal/selftest"
)

var (
	selftestKinds []string
	selftestHold  time.Duration
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Walk test patterns across the ring to check wiring and color order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags(), configPath, flagCfg)
		if err != nil {
			return err
		}
		var plans []selftest.Plan
		for _, k := range selftestKinds {
			kind, err := selftest.ParseKind(k)
			if err != nil {
				return err
			}
			plans = append(plans, selftest.Plan{Kind: kind})
		}

		strip, err := openStrip(cfg)
		if err != nil {
			return err
		}
		e := ring.New(strip, ring.Config{JoinTimeout: cfg.JoinTimeout})
		defer e.Deinit()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := selftest.Run(ctx, e, selftestHold, plans...); err != nil {
			return fmt.Errorf("selftest: %w", err)
		}
		log.Info().Int("plans", len(plans)).Msg("selftest complete")
		return nil
	},
}

func init() {
	defaults := make([]string, len(selftest.Kinds))
	for i, k := range selftest.Kinds {
		defaults[i] = string(k)
	}
	selftestCmd.Flags().StringSliceVar(&selftestKinds, "kind", defaults, "patterns to run, in order")
	selftestCmd.Flags().DurationVar(&selftestHold, "hold", 300*time.Millisecond, "time each step stays lit")
}
