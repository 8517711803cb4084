package config

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/cyclopcam/dbh"
	"github.com/fmo-detect/fmoeval/pkg/eval"
	"github.com/fmo-detect/fmoeval/pkg/report"
	"github.com/pkg/errors"
)

// Config controls an evaluation run. Command line flags override these values.
type Config struct {
	IOUThreshold  float64           `json:"iouThreshold"`  // Detections must overlap ground truth by more than this
	HistogramBins int               `json:"histogramBins"` // Bins of the IoU histogram in the report
	OutputOffset  int               `json:"outputOffset"`  // Frame lag of the detector output, zero or negative
	EvalDir       string            `json:"evalDir"`       // Directory for the text report and histogram image
	ScoreFile     string            `json:"scoreFile"`     // Numeric score output file
	Baseline      string            `json:"baseline"`      // Previous results, for comparison
	DetectDir     string            `json:"detectDir"`     // Directory for the XML detection report
	Publish       string            `json:"publish"`       // "gs://bucket/prefix" or "dir:/path"
	HistoryDB     HistoryDB         `json:"historyDB"`     // Run history database
	Pause         eval.PausePolicy  `json:"pause"`         // Frames to log as worth inspecting
	FPS           float32           `json:"fps"`           // Frame rate of the inputs, for speed estimates
	RadiusCm      float32           `json:"radiusCm"`      // Real object radius, for speed estimates
	CmPerPixel    float32           `json:"cmPerPixel"`    // Scene scale, for speed estimates
	Detector      map[string]string `json:"detector"`      // Detector parameters, recorded in the report
}

// HistoryDB is either a sqlite filename, or a full database config
type HistoryDB struct {
	dbh.DBConfig
}

func (h *HistoryDB) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var filename string
		if err := json.Unmarshal(b, &filename); err != nil {
			return err
		}
		h.DBConfig = dbh.MakeSqliteConfig(filename)
		return nil
	}
	return json.Unmarshal(b, &h.DBConfig)
}

// Enabled is true if a run history database is configured
func (h *HistoryDB) Enabled() bool {
	return h.Database != ""
}

func Default() *Config {
	return &Config{
		IOUThreshold:  eval.DefaultIOUThreshold,
		HistogramBins: report.DefaultHistogramBins,
		RadiusCm:      3.6,
	}
}

// Load reads a JSON config file. Missing fields keep their default values.
// An empty filename returns the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Error loading %v", filename)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "Error loading as JSON %v", filename)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid config %v", filename)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.IOUThreshold < 0 || c.IOUThreshold >= 1 {
		return errors.Errorf("iouThreshold must be in [0, 1), but is %v", c.IOUThreshold)
	}
	if c.HistogramBins < 1 {
		return errors.Errorf("histogramBins must be at least 1, but is %v", c.HistogramBins)
	}
	if c.OutputOffset > 0 {
		return errors.Errorf("outputOffset must be zero or negative, but is %v", c.OutputOffset)
	}
	if c.HistoryDB.Enabled() && c.HistoryDB.Driver != dbh.DriverSqlite && c.HistoryDB.Driver != dbh.DriverPostgres {
		return errors.Errorf("historyDB driver must be %v or %v", dbh.DriverSqlite, dbh.DriverPostgres)
	}
	return nil
}

// Parameters describes the settings that influence scores, in command line form
func (c *Config) Parameters() string {
	parts := []string{
		"--p-iou-thresh " + strconv.FormatFloat(c.IOUThreshold, 'g', -1, 64),
	}
	if c.OutputOffset != 0 {
		parts = append(parts, "--output-offset "+strconv.Itoa(c.OutputOffset))
	}
	keys := make([]string, 0, len(c.Detector))
	for k := range c.Detector {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		parts = append(parts, "--p-"+k+" "+c.Detector[k])
	}
	return strings.Join(parts, " ")
}
