package evaluation

import "testing"

func TestBandFor_PartitionsScores(t *testing.T) {
	for s := 1; s <= 10; s++ {
		b := BandFor(s)
		var want Band
		switch {
		case s >= 8:
			want = BandGood
		case s >= 5:
			want = BandNeedsWork
		default:
			want = BandCritical
		}
		if b != want {
			t.Errorf("BandFor(%d) = %v, want %v", s, b.Label(), want.Label())
		}
	}
}

func TestBandFor_Labels(t *testing.T) {
	tests := []struct {
		score int
		label string
		emoji string
	}{
		{0, "Critical", "🔴"},
		{1, "Critical", "🔴"},
		{4, "Critical", "🔴"},
		{5, "Needs Work", "🟡"},
		{7, "Needs Work", "🟡"},
		{8, "Good", "🟢"},
		{10, "Good", "🟢"},
		{11, "Good", "🟢"},
	}
	for _, tt := range tests {
		b := BandFor(tt.score)
		if b.Label() != tt.label || b.Emoji() != tt.emoji {
			t.Errorf("BandFor(%d) = (%q, %q), want (%q, %q)", tt.score, b.Label(), b.Emoji(), tt.label, tt.emoji)
		}
	}
}

func TestFactor_Label(t *testing.T) {
	if got := (Factor{Score: 3}).Label(); got != "Critical" {
		t.Errorf("derived label = %q, want Critical", got)
	}
	if got := (Factor{Score: 3, ScoreLabel: "Weak"}).Label(); got != "Weak" {
		t.Errorf("explicit label = %q, want Weak", got)
	}
}

func TestInferMode(t *testing.T) {
	if InferMode(nil).IsPullRequest() {
		t.Error("empty insights should infer on-demand")
	}
	insights := []FactorInsight{{FactorID: "a"}, {FactorID: "b", ChangeDirection: DirectionNoChange}}
	if !InferMode(insights).IsPullRequest() {
		t.Error("any change direction should infer pull request mode")
	}
}

func TestParseModeKind(t *testing.T) {
	for _, s := range []string{"pr", "on-demand"} {
		if _, err := ParseModeKind(s); err != nil {
			t.Errorf("ParseModeKind(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseModeKind("auto"); err == nil {
		t.Error("ParseModeKind(auto) expected error")
	}
}

func TestMode_String(t *testing.T) {
	m := PullRequest("0123456789abcdef0123456789abcdef01234567", "main")
	if got := m.String(); got != "pr 0123456..main" {
		t.Errorf("String() = %q", got)
	}
	if got := (Mode{}).String(); got != "on-demand" {
		t.Errorf("zero Mode String() = %q", got)
	}
}
