package models

// State is the questionnaire position; the stepwise variant walks these in order.
type State string

const (
	StateIdle     State = "idle"
	StateDuration State = "duration"
	StateReason   State = "reason"
	StateThoughts State = "thoughts"
	StateDesire   State = "desire"
	StateChoice   State = "choice"
	StateDone     State = "done"
)

// QuestionStates lists the answerable states in question order; the index is the step.
var QuestionStates = []State{StateDuration, StateReason, StateThoughts, StateDesire, StateChoice}

// StateForStep maps a stored step number to its state.
func StateForStep(step int) State {
	if step < 0 {
		return StateIdle
	}
	if step >= len(QuestionStates) {
		return StateDone
	}
	return QuestionStates[step]
}

// StepForState is the inverse of StateForStep.
func StepForState(s State) int {
	for i, q := range QuestionStates {
		if q == s {
			return i
		}
	}
	if s == StateDone {
		return len(QuestionStates)
	}
	return 0
}
