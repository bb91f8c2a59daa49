package pipeline

// Summary holds the headline counts for one batch run.
type Summary struct {
	Total      int
	Successful int
	Failed     int
}

// Summarize counts outcomes by status. Pure: Total == Successful + Failed and
// calling it again on the same slice yields the same counts.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// Partition splits outcomes into successes and failures, preserving input
// order. Every outcome lands in exactly one side.
func Partition(outcomes []Outcome) (successes, failures []Outcome) {
	for _, o := range outcomes {
		if o.Status == StatusSuccess {
			successes = append(successes, o)
		} else {
			failures = append(failures, o)
		}
	}
	return successes, failures
}
