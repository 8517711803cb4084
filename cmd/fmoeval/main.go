package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/fmo-detect/fmoeval/pkg/config"
	"github.com/fmo-detect/fmoeval/pkg/pixset"
	"github.com/pkg/errors"
)

func main() {
	parser := argparse.NewParser("fmoeval", "Detection quality evaluation for fast moving objects")
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON configuration file", Default: ""})

	// evaluate
	evalCmd := parser.NewCommand("evaluate", "Score recorded detections against ground truth")
	detections := evalCmd.String("d", "detections", &argparse.Options{Help: "XML detection report to replay", Required: true})
	inputs := evalCmd.StringList("i", "input", &argparse.Options{Help: "Input name, as it appears in the detection report. Can be used multiple times. Default is every sequence in the report."})
	gts := evalCmd.StringList("", "gt", &argparse.Options{Help: "Ground truth file. If used at all, must be used as many times as --input."})
	gtDir := evalCmd.String("", "gt-dir", &argparse.Options{Help: "Directory of ground truth files, named <sequence>.txt", Default: ""})
	names := evalCmd.StringList("", "name", &argparse.Options{Help: "Display name of an input in the report. Can be used multiple times."})
	dimsStr := evalCmd.String("", "dims", &argparse.Options{Help: "Video size WxH, for reports that don't record it", Default: ""})
	detectDir := evalCmd.String("", "detect-dir", &argparse.Options{Help: "Directory to write the XML detection report of this run to", Default: ""})
	// 1 is never a valid offset, so it means "not specified"
	offset := evalCmd.Int("", "offset", &argparse.Options{Help: "Detector output offset (zero or negative)", Default: 1})
	pauseFN := evalCmd.Flag("", "pause-fn", &argparse.Options{Help: "Log frames with false negatives"})
	pauseFP := evalCmd.Flag("", "pause-fp", &argparse.Options{Help: "Log frames with false positives"})
	pauseRG := evalCmd.Flag("", "pause-rg", &argparse.Options{Help: "Log regressions against the baseline"})
	pauseIM := evalCmd.Flag("", "pause-im", &argparse.Options{Help: "Log improvements over the baseline"})
	fps := evalCmd.Float("", "fps", &argparse.Options{Help: "Frame rate of the inputs, for speed estimates", Default: 0.0})
	radius := evalCmd.Float("", "radius", &argparse.Options{Help: "Object radius in cm, for speed estimates", Default: 0.0})
	p2cm := evalCmd.Float("", "p2cm", &argparse.Options{Help: "Centimeters per pixel, for speed estimates. Takes precedence over --radius.", Default: 0.0})

	// report
	reportCmd := parser.NewCommand("report", "Produce a report from saved results")
	resultsFile := reportCmd.String("r", "results", &argparse.Options{Help: "Results file, or a report saved with --eval-dir", Required: true})
	reportNames := reportCmd.StringList("", "name", &argparse.Options{Help: "Display name of a sequence in the report. Can be used multiple times."})

	// history
	historyCmd := parser.NewCommand("history", "List previous runs")
	numRuns := historyCmd.Int("n", "num", &argparse.Options{Help: "Number of runs to list", Default: 20})

	// shared by evaluate and report
	baseline := parser.String("b", "baseline", &argparse.Options{Help: "Results to compare against", Default: ""})
	evalDir := parser.String("e", "eval-dir", &argparse.Options{Help: "Directory to save the evaluation report to", Default: ""})
	scoreFile := parser.String("s", "score-file", &argparse.Options{Help: "File to write the numeric score to", Default: ""})
	iou := parser.Float("", "iou", &argparse.Options{Help: "IoU threshold", Default: -1.0})
	bins := parser.Int("", "bins", &argparse.Options{Help: "IoU histogram bins", Default: 0})
	publish := parser.String("", "publish", &argparse.Options{Help: "Publish artifacts to gs://bucket/prefix or dir:/path", Default: ""})
	history := parser.String("", "history", &argparse.Options{Help: "Run history sqlite database", Default: ""})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	// command line overrides config
	setString(&cfg.Baseline, *baseline)
	setString(&cfg.EvalDir, *evalDir)
	setString(&cfg.ScoreFile, *scoreFile)
	setString(&cfg.Publish, *publish)
	if *iou >= 0 {
		cfg.IOUThreshold = *iou
	}
	if *bins > 0 {
		cfg.HistogramBins = *bins
	}
	if *history != "" {
		cfg.HistoryDB = config.HistoryDB{DBConfig: dbh.MakeSqliteConfig(*history)}
	}

	switch {
	case evalCmd.Happened():
		if *offset != 1 {
			cfg.OutputOffset = *offset
		}
		setString(&cfg.DetectDir, *detectDir)
		cfg.Pause.OnFN = cfg.Pause.OnFN || *pauseFN
		cfg.Pause.OnFP = cfg.Pause.OnFP || *pauseFP
		cfg.Pause.OnRegression = cfg.Pause.OnRegression || *pauseRG
		cfg.Pause.OnImprovement = cfg.Pause.OnImprovement || *pauseIM
		setFloat(&cfg.FPS, *fps)
		setFloat(&cfg.RadiusCm, *radius)
		setFloat(&cfg.CmPerPixel, *p2cm)
		opt := evaluateOptions{
			detections: *detections,
			inputs:     *inputs,
			gts:        *gts,
			gtDir:      *gtDir,
			names:      *names,
		}
		if *dimsStr != "" {
			opt.dims, err = parseDims(*dimsStr)
			if err != nil {
				logger.Errorf("%v", err)
				os.Exit(1)
			}
		}
		err = cfg.Validate()
		if err == nil {
			err = runEvaluate(logger, cfg, opt)
		}
	case reportCmd.Happened():
		err = runReport(logger, cfg, *resultsFile, *reportNames)
	case historyCmd.Happened():
		err = runHistory(logger, cfg, *numRuns)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst *float32, v float64) {
	if v > 0 {
		*dst = float32(v)
	}
}

func parseDims(s string) (pixset.Dims, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		width, errW := strconv.Atoi(w)
		height, errH := strconv.Atoi(h)
		if errW == nil && errH == nil && width > 0 && height > 0 {
			return pixset.Dims{Width: width, Height: height}, nil
		}
	}
	return pixset.Dims{}, errors.Errorf("Invalid dimensions '%v'. Expected WxH, such as 1280x720", s)
}
