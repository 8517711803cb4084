package rundb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/report"
	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RunDB is the history of scored runs
type RunDB struct {
	Log logs.Log
	DB  *gorm.DB
}

func Open(log logs.Log, cfg dbh.DBConfig) (*RunDB, error) {
	if cfg.Driver == dbh.DriverSqlite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database), 0777); err != nil {
			return nil, errors.Wrapf(err, "Failed to create run history directory for %v", cfg.Database)
		}
	}
	db, err := dbh.OpenDB(log, cfg, Migrations(log, cfg.Driver), 0)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open run history %v", cfg.LogSafeDescription())
	}
	return &RunDB{
		Log: log,
		DB:  db,
	}, nil
}

func (r *RunDB) Close() {
	if sqlDB, err := r.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// RecordRun stores the headline numbers of a report, and the counts of each of its sequences
func (r *RunDB) RecordRun(rep *report.Report, parameters string, seconds float64, scoreFile string) (*Run, error) {
	s := &rep.Stats
	run := &Run{
		Date:           dbh.MakeIntTime(rep.Date),
		Parameters:     parameters,
		Seconds:        seconds,
		AvgPrecision:   s.Avg[report.StatPrecision],
		AvgRecall:      s.Avg[report.StatRecall],
		AvgF05:         s.Avg[report.StatF05],
		AvgF10:         s.Avg[report.StatF10],
		AvgF20:         s.Avg[report.StatF20],
		TotalPrecision: s.Total[report.StatPrecision],
		TotalRecall:    s.Total[report.StatRecall],
		TotalF05:       s.Total[report.StatF05],
		TotalF10:       s.Total[report.StatF10],
		TotalF20:       s.Total[report.StatF20],
		IOU:            s.IOU,
		ScoreFile:      scoreFile,
	}
	for _, row := range rep.Rows {
		run.Sequences = append(run.Sequences, RunSequence{
			Name:   row.Sequence,
			Frames: row.Frames,
			TP:     row.Counts[results.EventTP],
			TN:     row.Counts[results.EventTN],
			FP:     row.Counts[results.EventFP],
			FN:     row.Counts[results.EventFN],
		})
	}
	if err := r.DB.Create(run).Error; err != nil {
		return nil, errors.Wrap(err, "Failed to record run")
	}
	r.Log.Infof("Recorded run %v (%v sequences)", run.ID, len(run.Sequences))
	return run, nil
}

// RecentRuns returns up to 'n' runs, most recent first
func (r *RunDB) RecentRuns(n int) ([]Run, error) {
	runs := []Run{}
	if err := r.DB.Preload("Sequences").Order("id DESC").Limit(n).Find(&runs).Error; err != nil {
		return nil, errors.Wrap(err, "Failed to read run history")
	}
	return runs, nil
}

// WriteHistory prints one line per run
func WriteHistory(w io.Writer, runs []Run) {
	fmt.Fprintf(w, "%-6v %-19v %-9v %-9v %-9v %-9v %-9v %v\n", "id", "date", "seqs", "avg P", "avg R", "avg F1", "iou", "parameters")
	for _, run := range runs {
		fmt.Fprintf(w, "%-6v %-19v %-9v %-9v %-9v %-9v %-9v %v\n",
			run.ID,
			run.Date.Get().Local().Format("2006-01-02 15:04:05"),
			len(run.Sequences),
			fmt.Sprintf("%.2f%%", run.AvgPrecision*100),
			fmt.Sprintf("%.2f%%", run.AvgRecall*100),
			fmt.Sprintf("%.2f%%", run.AvgF10*100),
			fmt.Sprintf("%.2f%%", run.IOU*100),
			run.Parameters)
	}
}
