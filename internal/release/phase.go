package release

// Phase is the coarse position of a release run in its lifecycle, recorded
// for logging and post-mortem context. Transitions move forward until the
// run ends; a fatal failure ends it in PhaseAborted.
type Phase int

const (
	PhaseConfigured Phase = iota
	PhasePrepared
	PhaseSynced
	PhaseCommitted
	PhaseNothingToCommit
	PhaseTagged
	PhaseSubmitted
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseConfigured:
		return "configured"
	case PhasePrepared:
		return "prepared"
	case PhaseSynced:
		return "synced"
	case PhaseCommitted:
		return "committed"
	case PhaseNothingToCommit:
		return "nothing-to-commit"
	case PhaseTagged:
		return "tagged"
	case PhaseSubmitted:
		return "submitted"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
