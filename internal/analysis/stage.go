package analysis

import "fmt"

// Stage names one phase of the pipeline. The pipeline walks them strictly in
// order; a failure carries the stage it happened in.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageExtractData  Stage = "extract_data"
	StageCategorize   Stage = "categorize"
	StagePatterns     Stage = "analyze_patterns"
	StageInsights     Stage = "generate_insights"
	StageDone         Stage = "done"
)

// StageError marks a pipeline run as failed, recording which stage broke.
// The pipeline never retries and never reports partial results.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("analysis stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
