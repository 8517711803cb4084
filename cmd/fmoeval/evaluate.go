package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/config"
	"github.com/fmo-detect/fmoeval/pkg/detection"
	"github.com/fmo-detect/fmoeval/pkg/detreport"
	"github.com/fmo-detect/fmoeval/pkg/eval"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/fmo-detect/fmoeval/pkg/report"
	"github.com/fmo-detect/fmoeval/pkg/results"
	"github.com/fmo-detect/fmoeval/pkg/rundb"
	"github.com/fmo-detect/fmoeval/pkg/storage"
	"github.com/pkg/errors"
)

type evaluateOptions struct {
	detections string
	inputs     []string
	gts        []string
	gtDir      string
	names      []string
	dims       pixset.Dims
}

// Replays a detection report through the evaluator, as if the detector were running live
func runEvaluate(logger logs.Log, cfg *config.Config, opt evaluateOptions) error {
	start := time.Now()

	ctx := &eval.RunContext{
		Log:          logger,
		Results:      results.NewStore(),
		Baseline:     results.NewStore(),
		IOUThreshold: cfg.IOUThreshold,
	}
	if cfg.Baseline != "" {
		if err := ctx.Baseline.Load(cfg.Baseline); err != nil {
			return err
		}
		logger.Infof("Loaded baseline %v (%v sequences)", cfg.Baseline, ctx.Baseline.Len())
	}

	dets, err := detreport.Load(opt.detections)
	if err != nil {
		return err
	}
	inputs := opt.inputs
	if len(inputs) == 0 {
		for _, seq := range dets.Sequences {
			inputs = append(inputs, seq.Input)
		}
	}
	if len(opt.gts) == 0 && opt.gtDir == "" {
		return errors.Errorf("Either --gt or --gt-dir is required")
	}
	if len(opt.gts) != 0 && len(opt.gts) != len(inputs) {
		return errors.Errorf("--gt must be used as many times as there are inputs (%v), but was used %v times", len(inputs), len(opt.gts))
	}

	var detWriter *detreport.Writer
	if cfg.DetectDir != "" {
		detWriter = detreport.NewWriter(start)
	}
	detStats := detection.Statistics{
		Speed: detection.SpeedParams{
			FPS:        cfg.FPS,
			RadiusCm:   cfg.RadiusCm,
			CmPerPixel: cfg.CmPerPixel,
		},
	}

	for i, input := range inputs {
		seq := dets.Find(input)
		if seq == nil {
			return errors.Errorf("Input '%v' is not in the detection report %v", input, opt.detections)
		}
		gtFile := ""
		if len(opt.gts) != 0 {
			gtFile = opt.gts[i]
		} else {
			name := eval.SequenceName(input)
			if i < len(opt.names) {
				name = opt.names[i]
			}
			gtFile = filepath.Join(opt.gtDir, name+".txt")
		}
		dims := seq.Dims
		if dims.Width == 0 || dims.Height == 0 {
			dims = opt.dims
		}
		if dims.Width == 0 || dims.Height == 0 {
			return errors.Errorf("The video size of '%v' is unknown. Use --dims to specify it.", input)
		}

		var seqWriter *detreport.SequenceWriter
		if detWriter != nil {
			seqWriter = detWriter.BeginSequence(input, dims)
		}
		if err := replaySequence(logger, cfg, ctx, seq, gtFile, dims, &detStats, seqWriter); err != nil {
			return errors.WithMessagef(err, "Input '%v'", input)
		}
	}

	seconds := time.Since(start).Seconds()
	rep := report.Generate(ctx.Results, ctx.Baseline, report.Params{
		Parameters:    cfg.Parameters(),
		Names:         opt.names,
		Date:          start,
		Seconds:       seconds,
		HistogramBins: cfg.HistogramBins,
	})
	fmt.Print(rep.Text())
	fmt.Print("\n" + detStats.Summary().String())

	artifacts, err := saveArtifacts(logger, cfg, rep)
	if err != nil {
		return err
	}
	if detWriter != nil {
		if err := os.MkdirAll(cfg.DetectDir, 0755); err != nil {
			return err
		}
		fn, err := detWriter.Save(cfg.DetectDir)
		if err != nil {
			return err
		}
		logger.Infof("Detection report saved to %v", fn)
		artifacts = append(artifacts, fn)
	}
	if err := recordHistory(logger, cfg, rep, seconds); err != nil {
		return err
	}
	return publishArtifacts(logger, cfg, rep, artifacts)
}

func replaySequence(logger logs.Log, cfg *config.Config, ctx *eval.RunContext, seq *detreport.Sequence, gtFile string, dims pixset.Dims, detStats *detection.Statistics, seqWriter *detreport.SequenceWriter) error {
	ev, err := eval.NewEvaluator(ctx, gtFile, dims)
	if err != nil {
		return err
	}
	if seq.LastFrame > ev.GroundTruth().NumFrames() {
		logger.Warnf("%v: detection report has frames up to %v, but the ground truth only has %v", ev.Name(), seq.LastFrame, ev.GroundTruth().NumFrames())
	}
	detStats.BeginSequence()
	feeder := eval.NewFeeder(ev, cfg.OutputOffset)
	r := &eval.EvalResult{}
	for {
		outFrame := feeder.OutFrame()
		out := seq.Output(outFrame)
		done, err := feeder.Feed(out, r)
		if err != nil {
			return err
		}
		if done {
			break
		}
		if outFrame < 1 {
			continue
		}
		detStats.AddFrame(out)
		if seqWriter != nil {
			seqWriter.WriteFrame(outFrame, out, r)
		}
		if cfg.Pause.ShouldPause(r) {
			logger.Infof("%v frame %v: %v", ev.Name(), outFrame, r)
		}
	}
	logger.Infof("%v: evaluated %v frames in %.3f s", ev.Name(), ev.LastFrame(), ev.EvalTime.Seconds())
	return nil
}

// Writes the report, histogram and score file, as configured. Returns the files written.
func saveArtifacts(logger logs.Log, cfg *config.Config, rep *report.Report) ([]string, error) {
	artifacts := []string{}
	if cfg.EvalDir != "" {
		if err := os.MkdirAll(cfg.EvalDir, 0755); err != nil {
			return nil, err
		}
		fn, err := rep.Save(cfg.EvalDir)
		if err != nil {
			return nil, err
		}
		if fn != "" {
			logger.Infof("Report saved to %v", fn)
			artifacts = append(artifacts, fn)
			png, err := rep.SaveHistogram(cfg.EvalDir)
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, png)
		}
	}
	if cfg.ScoreFile != "" {
		if err := rep.SaveScore(cfg.ScoreFile); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, cfg.ScoreFile)
	}
	return artifacts, nil
}

func recordHistory(logger logs.Log, cfg *config.Config, rep *report.Report, seconds float64) error {
	if !cfg.HistoryDB.Enabled() || len(rep.Rows) == 0 {
		return nil
	}
	db, err := rundb.Open(logger, cfg.HistoryDB.DBConfig)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.RecordRun(rep, cfg.Parameters(), seconds, cfg.ScoreFile)
	return err
}

func publishArtifacts(logger logs.Log, cfg *config.Config, rep *report.Report, artifacts []string) error {
	if cfg.Publish == "" || len(artifacts) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	store, err := storage.Open(ctx, logger, cfg.Publish)
	if err != nil {
		return err
	}
	stamp := rep.Date.Format("20060102_150405")
	_, err = storage.Publish(ctx, logger, store, stamp, artifacts)
	return err
}
