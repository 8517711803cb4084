package rundb

import (
	"github.com/cyclopcam/dbh"
	"github.com/fmo-detect/fmoeval/pkg/results"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Run is one scored evaluation run
type Run struct {
	BaseModel
	Date           dbh.IntTime `json:"date"`
	Parameters     string      `json:"parameters"`
	Seconds        float64     `json:"seconds"`
	AvgPrecision   float64     `json:"avgPrecision" gorm:"column:avg_precision"`
	AvgRecall      float64     `json:"avgRecall" gorm:"column:avg_recall"`
	AvgF05         float64     `json:"avgF05" gorm:"column:avg_f05"`
	AvgF10         float64     `json:"avgF10" gorm:"column:avg_f10"`
	AvgF20         float64     `json:"avgF20" gorm:"column:avg_f20"`
	TotalPrecision float64     `json:"totalPrecision" gorm:"column:total_precision"`
	TotalRecall    float64     `json:"totalRecall" gorm:"column:total_recall"`
	TotalF05       float64     `json:"totalF05" gorm:"column:total_f05"`
	TotalF10       float64     `json:"totalF10" gorm:"column:total_f10"`
	TotalF20       float64     `json:"totalF20" gorm:"column:total_f20"`
	IOU            float64     `json:"iou" gorm:"column:iou"`
	ScoreFile      string      `json:"scoreFile"` // Where the score file was written, if anywhere

	Sequences []RunSequence `json:"sequences" gorm:"foreignKey:RunID"`
}

// RunSequence holds the summed classification counts of one sequence of a run
type RunSequence struct {
	BaseModel
	RunID  int64  `json:"runId"`
	Name   string `json:"name"`
	Frames int    `json:"frames"`
	TP     int    `json:"tp" gorm:"column:tp"`
	TN     int    `json:"tn" gorm:"column:tn"`
	FP     int    `json:"fp" gorm:"column:fp"`
	FN     int    `json:"fn" gorm:"column:fn"`
}

func (s *RunSequence) Counts() results.Counts {
	c := results.Counts{}
	c[results.EventTP] = s.TP
	c[results.EventTN] = s.TN
	c[results.EventFP] = s.FP
	c[results.EventFN] = s.FN
	return c
}
