package main

import (
	"os"

	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/config"
	"github.com/fmo-detect/fmoeval/pkg/rundb"
	"github.com/pkg/errors"
)

func runHistory(logger logs.Log, cfg *config.Config, n int) error {
	if !cfg.HistoryDB.Enabled() {
		return errors.Errorf("No run history database configured. Use --history or historyDB in the config file.")
	}
	db, err := rundb.Open(logger, cfg.HistoryDB.DBConfig)
	if err != nil {
		return err
	}
	defer db.Close()
	runs, err := db.RecentRuns(n)
	if err != nil {
		return err
	}
	rundb.WriteHistory(os.Stdout, runs)
	return nil
}
