package evaluation

import (
	"fmt"
	"strings"
)

// Decision is the accept/reject outcome for one reviewed file.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Verdict is the decision plus a short human-readable rationale.
type Verdict struct {
	Decision  Decision `json:"decision"`
	Rationale string   `json:"rationale"`
}

// ComputeVerdict derives the verdict for one file. It returns false in
// on-demand mode, where there is no prior version to regress against.
//
// Any worse or mixed factor rejects. Otherwise the file is approved, and the
// rationale counts the critical and needs-work factors left for later.
func ComputeVerdict(mode Mode, insights []FactorInsight) (Verdict, bool) {
	if !mode.IsPullRequest() {
		return Verdict{}, false
	}

	var worse, mixed, improved []string
	for _, in := range insights {
		switch in.ChangeDirection {
		case DirectionWorse:
			worse = append(worse, in.FactorName)
		case DirectionMixed:
			mixed = append(mixed, in.FactorName)
		case DirectionImproved:
			improved = append(improved, in.FactorName)
		}
	}

	if len(worse) > 0 || len(mixed) > 0 {
		var clauses []string
		if len(worse) > 0 {
			clauses = append(clauses, strings.Join(worse, ", ")+" regressed")
		}
		if len(mixed) > 0 {
			clauses = append(clauses, strings.Join(mixed, ", ")+" had mixed changes (includes regressions)")
		}
		rationale := strings.Join(clauses, "; ")
		if len(improved) > 0 {
			rationale += fmt.Sprintf(". The improvements to %s would otherwise be accepted.", strings.Join(improved, ", "))
		}
		return Verdict{Decision: DecisionReject, Rationale: rationale}, true
	}

	var critical, opportunities int
	for _, in := range insights {
		switch BandFor(in.Score) {
		case BandCritical:
			critical++
		case BandNeedsWork:
			opportunities++
		}
	}

	if critical == 0 && opportunities == 0 {
		return Verdict{
			Decision:  DecisionApprove,
			Rationale: "No regressions detected; prompt quality is maintained or improved.",
		}, true
	}

	var remaining []string
	if critical > 0 {
		remaining = append(remaining, pluralize(critical, "critical gap", "critical gaps"))
	}
	if opportunities > 0 {
		remaining = append(remaining, pluralize(opportunities, "improvement opportunity", "improvement opportunities"))
	}
	return Verdict{
		Decision:  DecisionApprove,
		Rationale: fmt.Sprintf("No regressions detected. %s will remain for future work.", strings.Join(remaining, " and ")),
	}, true
}

// Markdown renders the verdict as a single bold-prefixed line.
func (v Verdict) Markdown() string {
	icon := "✅"
	if v.Decision == DecisionReject {
		icon = "❌"
	}
	return fmt.Sprintf("**Verdict: %s %s** - %s", icon, v.Decision, v.Rationale)
}

// ReviewEvent maps the decision to a GitHub pull request review event.
func (v Verdict) ReviewEvent() string {
	if v.Decision == DecisionReject {
		return "REQUEST_CHANGES"
	}
	return "APPROVE"
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
