package rundb

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/report"
	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/stretchr/testify/require"
)

func sampleReport(date time.Time, tp int) *report.Report {
	res := results.NewStore()
	a := res.NewSequence("a")
	a.Frames = []results.Counts{{results.EventTP: tp}, {results.EventFN: 1}}
	a.IOU = []int{800}
	res.NewSequence("b").Frames = []results.Counts{{results.EventTN: 1}}
	return report.Generate(res, nil, report.Params{Date: date})
}

func TestRecordAndList(t *testing.T) {
	log := logs.NewTestingLog(t)
	db, err := Open(log, dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "sub", "history.sqlite")))
	require.NoError(t, err)
	defer db.Close()

	d1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	d2 := d1.Add(time.Hour)
	r1, err := db.RecordRun(sampleReport(d1, 1), "--iou 0.5", 3.5, "")
	require.NoError(t, err)
	require.NotZero(t, r1.ID)
	_, err = db.RecordRun(sampleReport(d2, 3), "--iou 0.6", 1, "/tmp/score.txt")
	require.NoError(t, err)

	runs, err := db.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "--iou 0.6", runs[0].Parameters)
	require.True(t, d2.Equal(runs[0].Date.Get()))
	require.Equal(t, "/tmp/score.txt", runs[0].ScoreFile)
	require.Equal(t, "", runs[1].ScoreFile)
	require.InDelta(t, 0.8, runs[0].IOU, 1e-12)
	// a: recall 3/4, b: recall 1
	require.InDelta(t, 0.875, runs[0].AvgRecall, 1e-12)
	require.InDelta(t, 0.75, runs[0].TotalRecall, 1e-12)

	require.Len(t, runs[0].Sequences, 2)
	seqA := runs[0].Sequences[0]
	if seqA.Name != "a" {
		seqA = runs[0].Sequences[1]
	}
	require.Equal(t, "a", seqA.Name)
	require.Equal(t, 2, seqA.Frames)
	require.Equal(t, results.Counts{results.EventTP: 3, results.EventFN: 1}, seqA.Counts())

	runs, err = db.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	buf := bytes.Buffer{}
	WriteHistory(&buf, runs)
	require.Contains(t, buf.String(), "--iou 0.6")
	require.Contains(t, buf.String(), "80.00%")
}

func TestOpenUnwritableDir(t *testing.T) {
	log := logs.NewTestingLog(t)
	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	_, err := Open(log, dbh.MakeSqliteConfig(filepath.Join(blocker, "sub", "history.sqlite")))
	require.Error(t, err)
}
