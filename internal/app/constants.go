package app

// Season size rules. The rotation engine balances 4..26 participants with a
// square and round-robins smaller parties, so the floor here is a product
// decision rather than an engine limit.
const (
	MinParticipantsToStartSeason = 2
	MaxParticipantsToStartSeason = 26
)
