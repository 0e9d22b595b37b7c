package pipeline

// Stage identifies a phase of a pipeline run for progress reporting.
type Stage string

const (
	StageDetect  Stage = "detect"
	StageRectify Stage = "rectify"
	StageEnhance Stage = "enhance"
	StageDone    Stage = "done"
)

// ProgressFunc receives a notification when a stage begins (and StageDone
// when the run finishes). Callbacks run synchronously on the calling
// goroutine and should return quickly.
type ProgressFunc func(stage Stage)

func (p *Pipeline) notify(stage Stage) {
	if p.progress != nil {
		p.progress(stage)
	}
}
