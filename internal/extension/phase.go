package extension

const (
	phaseIdleNameConstant       = "idle"
	phasePreInvokeNameConstant  = "pre-invoke"
	phaseInvokeNameConstant     = "invoke"
	phasePostInvokeNameConstant = "post-invoke"
	phaseDoneNameConstant       = "done"
	phaseFailedNameConstant     = "failed"
	phaseInitializeNameConstant = "initialize"
	phaseDescribeNameConstant   = "describe"
	phaseUnknownNameConstant    = "unknown"
)

// Phase identifies a step of the extension lifecycle.
type Phase int

// Lifecycle phases.
const (
	PhaseIdle Phase = iota
	PhasePreInvoke
	PhaseInvoke
	PhasePostInvoke
	PhaseDone
	PhaseFailed
	PhaseInitialize
	PhaseDescribe
)

var phaseNames = map[Phase]string{
	PhaseIdle:       phaseIdleNameConstant,
	PhasePreInvoke:  phasePreInvokeNameConstant,
	PhaseInvoke:     phaseInvokeNameConstant,
	PhasePostInvoke: phasePostInvokeNameConstant,
	PhaseDone:       phaseDoneNameConstant,
	PhaseFailed:     phaseFailedNameConstant,
	PhaseInitialize: phaseInitializeNameConstant,
	PhaseDescribe:   phaseDescribeNameConstant,
}

// String returns the phase name used in log entries.
func (phase Phase) String() string {
	if phaseName, known := phaseNames[phase]; known {
		return phaseName
	}
	return phaseUnknownNameConstant
}
