package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/sitecheck/internal/zone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Load the zone dataset and print cascade diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("zones"); err != nil {
			return err
		}

		env, err := initEngine(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.Close()

		counts := make(map[string]int)
		for t, n := range env.Zones.CountByType() {
			counts[string(t)] = n
		}

		out := struct {
			Origin   string         `json:"origin"`
			Zones    int            `json:"zones"`
			ByType   map[string]int `json:"by_type"`
			Fallback bool           `json:"fallback"`
			Attempts []zone.Attempt `json:"attempts,omitempty"`
		}{
			Origin:   env.Zones.Origin(),
			Zones:    len(env.Zones.Zones()),
			ByType:   counts,
			Fallback: env.Zones.Origin() == zone.SourceFallback,
			Attempts: env.Loader.Attempts(),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}
