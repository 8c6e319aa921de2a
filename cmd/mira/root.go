package main

import (
	"github.com/spf13/cobra"

	"github.com/PabloGalante/mira-agent/internal/config"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mira",
		Short: "Mira - a journaling companion with Therapist, Coach and Friend modes",
		Long: `Mira is a conversational journaling companion. Configuration comes from
MIRA_* environment variables, optionally layered on a YAML file named by MIRA_CONFIG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.SetLevel(cfg.LogLevel)
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(newServeCmd(a), newChatCmd(a), newReframeCmd(a))
	return root
}
