package evaluation

import "fmt"

// ModeKind identifies the operating context of an evaluation. The values
// double as the request contract's "mode" field.
type ModeKind string

const (
	ModeOnDemand    ModeKind = "on-demand"
	ModePullRequest ModeKind = "pr"
)

// Mode is the operating context threaded through rendering and verdicts.
// A PullRequest mode carries the compared refs; OnDemand carries nothing.
type Mode struct {
	Kind    ModeKind `json:"kind"`
	BaseRef string   `json:"baseRef,omitempty"`
	HeadRef string   `json:"headRef,omitempty"`
}

// OnDemand returns the mode for evaluating files in isolation.
func OnDemand() Mode {
	return Mode{Kind: ModeOnDemand}
}

// PullRequest returns the mode for comparing files between two refs.
func PullRequest(baseRef, headRef string) Mode {
	return Mode{Kind: ModePullRequest, BaseRef: baseRef, HeadRef: headRef}
}

// IsPullRequest reports whether m compares a prior version.
func (m Mode) IsPullRequest() bool {
	return m.Kind == ModePullRequest
}

func (m Mode) String() string {
	if m.IsPullRequest() && (m.BaseRef != "" || m.HeadRef != "") {
		return fmt.Sprintf("pr %s..%s", shortRef(m.BaseRef), shortRef(m.HeadRef))
	}
	if m.Kind == "" {
		return string(ModeOnDemand)
	}
	return string(m.Kind)
}

// ParseModeKind validates a mode string from configuration or flags.
func ParseModeKind(s string) (ModeKind, error) {
	switch ModeKind(s) {
	case ModeOnDemand, ModePullRequest:
		return ModeKind(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModePullRequest, ModeOnDemand)
	}
}

// InferMode derives the mode from payload shape alone: any insight carrying
// a change direction means a pull request comparison. Used only when the
// caller has no explicit mode, e.g. when re-rendering a saved response.
func InferMode(insights []FactorInsight) Mode {
	for _, in := range insights {
		if in.ChangeDirection != "" {
			return PullRequest("", "")
		}
	}
	return OnDemand()
}

func shortRef(ref string) string {
	if len(ref) == 40 {
		return ref[:7]
	}
	return ref
}
