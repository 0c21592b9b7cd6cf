package meditation

// Stage names a step of a render.
type Stage string

const (
	StageScript  Stage = "generating_script"
	StageSpeech  Stage = "generating_audio"
	StageStretch Stage = "stretching"
	StageMix     Stage = "mixing"
	StageDone    Stage = "done"
)

// Progress checkpoints in percent.
const (
	ProgressScript       = 10
	ProgressSpeech       = 40
	ProgressStretchStart = 40
	ProgressStretchEnd   = 90
	ProgressMix          = 95
	ProgressDone         = 100
)

// ProgressFunc receives the current stage and overall percent.
type ProgressFunc func(stage Stage, percent int)

func (r *Renderer) report(stage Stage, percent int) {
	if r.progress != nil {
		r.progress(stage, percent)
	}
}

// stretchPercent maps stretch progress onto the overall scale.
func stretchPercent(p int) int {
	p = min(max(p, 0), 100)
	return ProgressStretchStart + p*(ProgressStretchEnd-ProgressStretchStart)/100
}
