package evaluation

// Band groups factor scores into the three quality bands used by the
// renderer and the verdict.
type Band int

const (
	BandCritical Band = iota + 1
	BandNeedsWork
	BandGood
)

// BandFor returns the band for a 1-10 score. Out-of-range scores fall into
// the nearest band.
func BandFor(score int) Band {
	switch {
	case score <= 4:
		return BandCritical
	case score <= 7:
		return BandNeedsWork
	default:
		return BandGood
	}
}

// Label returns the human-readable band name.
func (b Band) Label() string {
	switch b {
	case BandCritical:
		return "Critical"
	case BandNeedsWork:
		return "Needs Work"
	case BandGood:
		return "Good"
	default:
		return "Unknown"
	}
}

// Emoji returns the traffic-light marker for the band.
func (b Band) Emoji() string {
	switch b {
	case BandCritical:
		return "🔴"
	case BandNeedsWork:
		return "🟡"
	case BandGood:
		return "🟢"
	default:
		return "⚪"
	}
}
