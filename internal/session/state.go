package session

// State is the position of a user in the assessment workflow.
type State int

const (
	StateIdle State = iota
	StateChoosingTopic
	StateInTest
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChoosingTopic:
		return "choosing_topic"
	case StateInTest:
		return "in_test"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// AcceptsAnswers reports whether free text should be routed to SubmitAnswer.
func (s State) AcceptsAnswers() bool {
	return s == StateInTest
}
