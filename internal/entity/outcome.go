package entity

type DedupResult string

const (
	Fresh     DedupResult = "fresh"
	Duplicate DedupResult = "duplicate"
)

// Outcome is the terminal state a message reached. Both outcomes allow a commit.
type Outcome string

const (
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeForwarded Outcome = "forwarded"
)
