package brackets

import (
	"sort"

	"clanhall/models"
)

// Round groups the matches of one bracket round, ordered by match
// number.
type Round struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
}

// ProjectRounds groups the ledger into rounds for an elimination
// bracket view. Rounds appear in ascending order and only if they hold
// at least one match; pairing winners into the next round stays an
// operator action, the projector never invents matches.
func ProjectRounds(matches []*models.Match) []Round {
	byRound := make(map[int][]*models.Match)
	for _, m := range matches {
		if m == nil {
			continue
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	roundNumbers := make([]int, 0, len(byRound))
	for r := range byRound {
		roundNumbers = append(roundNumbers, r)
	}
	sort.Ints(roundNumbers)

	rounds := make([]Round, 0, len(roundNumbers))
	for _, r := range roundNumbers {
		group := byRound[r]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].MatchNumber < group[j].MatchNumber
		})
		rounds = append(rounds, Round{Round: r, Matches: group})
	}
	return rounds
}

// WinnerSlot reports which side of the match won: 1 for player1, 2 for
// player2, 0 when no winner is recorded. Used for display highlighting.
func WinnerSlot(m *models.Match) int {
	if m == nil || m.WinnerID == nil {
		return 0
	}
	if *m.WinnerID == m.Player1ID {
		return 1
	}
	if m.Player2ID != nil && *m.WinnerID == *m.Player2ID {
		return 2
	}
	return 0
}
