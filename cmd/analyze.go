package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sitecheck/internal/session"
	"github.com/sells-group/sitecheck/pkg/advisor"
	"github.com/sells-group/sitecheck/pkg/anthropic"
)

var (
	analyzeLat float64
	analyzeLng float64
	analyzeAI  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one candidate site and print the report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEngine(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Controller.Analyze(ctx, analyzeLat, analyzeLng)
		if err != nil {
			return eris.Wrap(err, "analyze site")
		}

		if analyzeAI {
			report.Enrichment = enrichOnce(ctx, report)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// enrichOnce runs the AI stage synchronously for the one-shot command. The
// deterministic fallback covers a missing key or a failed call.
func enrichOnce(ctx context.Context, report *session.Report) *advisor.Enrichment {
	var client anthropic.Client
	if cfg.Anthropic.Key != "" {
		client = anthropic.NewClient(cfg.Anthropic.Key)
	}
	adv := advisor.New(client,
		advisor.WithModel(cfg.Anthropic.Model),
		advisor.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second),
	)

	enr, _ := adv.Advise(ctx, advisor.Request{
		Lat:             report.Site.Lat,
		Lon:             report.Site.Lon,
		Findings:        report.Findings,
		Proximities:     report.Proximities,
		Recommendations: report.Recommendations,
	})
	return enr
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "site latitude")
	analyzeCmd.Flags().Float64Var(&analyzeLng, "lng", 0, "site longitude")
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "attach AI enrichment to the report")
	_ = analyzeCmd.MarkFlagRequired("lat")
	_ = analyzeCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(analyzeCmd)
}
