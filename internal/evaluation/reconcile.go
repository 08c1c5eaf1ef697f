package evaluation

// Reconcile returns the synthesis insights of r with their findings replaced
// by the findings of the factor result sharing the same factor ID.
//
// The evaluator's synthesis step can drop or truncate findings, so the
// synthesis copy is never trusted: an insight whose factor ID has no match
// in FactorResults ends up with no findings. r is not modified.
func Reconcile(r ComparisonResult) []FactorInsight {
	byID := make(map[string][]Finding, len(r.FactorResults))
	for _, f := range r.FactorResults {
		byID[f.FactorID] = f.Findings
	}

	out := make([]FactorInsight, len(r.Synthesis.FactorInsights))
	for i, in := range r.Synthesis.FactorInsights {
		in.Findings = byID[in.FactorID]
		out[i] = in
	}
	return out
}

// InsightFor returns the insight matching factorID, if any.
func InsightFor(insights []FactorInsight, factorID string) (FactorInsight, bool) {
	for _, in := range insights {
		if in.FactorID == factorID {
			return in, true
		}
	}
	return FactorInsight{}, false
}
