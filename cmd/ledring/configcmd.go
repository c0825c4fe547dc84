package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/wyoming-ledring/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Print the effective config, or write it to path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags(), configPath, flagCfg)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		}
		if err := config.Save(args[0], cfg); err != nil {
			return err
		}
		log.Info().Str("path", args[0]).Msg("config written")
		return nil
	},
}
