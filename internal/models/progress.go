package models

// ProgressDelta is added to a user's counters by one progress event.
type ProgressDelta struct {
	Points      int
	Analyzed    int
	Transformed int
}

// ProgressResult reports the balance after a progress event.
// Applied is false when the event had already been recorded.
type ProgressResult struct {
	Applied bool
	Points  int
	Level   int
}

// ChallengeCompletion is returned when a user crosses a challenge target.
type ChallengeCompletion struct {
	Challenge *Challenge
	Progress  ProgressResult
}
