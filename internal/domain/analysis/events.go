package analysis

import "time"

// ProgressEvent is published at every stage transition of a run. Events for a
// given analysis_id are delivered to each listener in emit order; Percent is
// non-decreasing per run.
type ProgressEvent struct {
	AnalysisID AnalysisID `json:"analysis_id"`
	Stage      State      `json:"stage"`
	Message    string     `json:"message"`
	Percent    int        `json:"percent"`
	At         time.Time  `json:"at"`
}
