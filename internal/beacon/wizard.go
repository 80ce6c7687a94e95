package beacon

// Step is one stage of the guided reporting flow. The flow is a linear
// wizard with a strict total order and a single terminal state; there is no
// branching. The AI collaborator phrases the questions, but step advancement
// is decided here, never by parsing free text.
type Step int

const (
	StepGreeting Step = iota
	StepWhatHappened
	StepFullStory
	StepWhere
	StepWhen
	StepWho
	StepEvidence
	StepConfirm
	StepSubmitted
)

var stepNames = [...]string{
	StepGreeting:     "greeting",
	StepWhatHappened: "what_happened",
	StepFullStory:    "full_story",
	StepWhere:        "where",
	StepWhen:         "when",
	StepWho:          "who",
	StepEvidence:     "evidence",
	StepConfirm:      "confirm",
	StepSubmitted:    "submitted",
}

func (s Step) String() string {
	if s < StepGreeting || s > StepSubmitted {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep maps a stored step name back to its Step. Unknown names resolve
// to StepGreeting so a corrupt row restarts the flow rather than wedging it.
func ParseStep(name string) Step {
	for i, n := range stepNames {
		if n == name {
			return Step(i)
		}
	}
	return StepGreeting
}

// Next returns the following step. The terminal step is absorbing.
func (s Step) Next() Step {
	if s >= StepSubmitted {
		return StepSubmitted
	}
	return s + 1
}

// Terminal reports whether s is the end of the flow.
func (s Step) Terminal() bool {
	return s == StepSubmitted
}

// Prompt is the deterministic question for a step, used verbatim when the
// AI collaborator is unavailable and as grounding for its phrasing.
func (s Step) Prompt() string {
	switch s {
	case StepGreeting:
		return "Hello, I'm here to help you report a corruption incident safely and anonymously. What happened?"
	case StepWhatHappened:
		return "Thank you for telling me. What kind of incident was this?"
	case StepFullStory:
		return "Thank you for sharing. Could you walk me through what happened from start to finish?"
	case StepWhere:
		return "Could you tell me where this happened? The name of the office or place and the city would help."
	case StepWhen:
		return "Do you remember when this happened? Even an approximate date helps."
	case StepWho:
		return "Can you describe who was involved? Their role or position?"
	case StepEvidence:
		return "Do you have any evidence like a receipt or photo? You can upload it now. It's completely okay if you don't."
	case StepConfirm:
		return "Thank you. Is there anything you would like to add before I submit your report?"
	case StepSubmitted:
		return "Your report has been submitted."
	}
	return ""
}
