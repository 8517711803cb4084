package main

import (
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/config"
	"github.com/fmo-detect/fmoeval/pkg/report"
	"github.com/fmo-detect/fmoeval/pkg/results"
)

// Regenerates a report from saved results, optionally against a new baseline
func runReport(logger logs.Log, cfg *config.Config, resultsFile string, names []string) error {
	res := results.NewStore()
	if err := res.Load(resultsFile); err != nil {
		return err
	}
	baseline := results.NewStore()
	if cfg.Baseline != "" {
		if err := baseline.Load(cfg.Baseline); err != nil {
			return err
		}
	}
	rep := report.Generate(res, baseline, report.Params{
		Parameters:    cfg.Parameters(),
		Names:         names,
		Date:          time.Now(),
		HistogramBins: cfg.HistogramBins,
	})
	if len(rep.Rows) == 0 {
		logger.Warnf("%v contains no evaluated frames", resultsFile)
	}
	fmt.Print(rep.Text())

	artifacts, err := saveArtifacts(logger, cfg, rep)
	if err != nil {
		return err
	}
	return publishArtifacts(logger, cfg, rep, artifacts)
}
