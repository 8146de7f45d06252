package pipeline

import "time"

// StageTimings records the elapsed wall time of each per-frame stage.
// Diagnostic only; it never influences the outputs.
type StageTimings struct {
	Load        time.Duration
	Depth       time.Duration
	Backscatter time.Duration
	Normalize   time.Duration
	Deattenuate time.Duration
	Write       time.Duration
}

// Model returns the combined model-evaluation time, excluding I/O.
func (t StageTimings) Model() time.Duration {
	return t.Backscatter + t.Normalize + t.Deattenuate
}

func (r *Runner) logTimings(frame string, t StageTimings) {
	r.log.Debug().
		Str("frame", frame).
		Dur("load", t.Load).
		Dur("depth", t.Depth).
		Dur("backscatter", t.Backscatter).
		Dur("normalize", t.Normalize).
		Dur("deattenuate", t.Deattenuate).
		Dur("write", t.Write).
		Dur("model_total", t.Model()).
		Msg("frame timings")
}
