package brackets

import (
	"testing"

	"clanhall/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduledMatch(round, number, p1, p2 int) *models.Match {
	return &models.Match{
		TournamentID: 1,
		Round:        round,
		MatchNumber:  number,
		Player1ID:    p1,
		Player2ID:    &p2,
		Status:       models.MatchScheduled,
	}
}

func TestProjectRoundsGroupsAndOrders(t *testing.T) {
	matches := []*models.Match{
		scheduledMatch(3, 1, 1, 2),
		scheduledMatch(1, 2, 3, 4),
		scheduledMatch(1, 1, 1, 2),
	}

	rounds := ProjectRounds(matches)
	require.Len(t, rounds, 2)

	assert.Equal(t, 1, rounds[0].Round)
	require.Len(t, rounds[0].Matches, 2)
	assert.Equal(t, 1, rounds[0].Matches[0].MatchNumber)
	assert.Equal(t, 2, rounds[0].Matches[1].MatchNumber)

	// Round 2 has no matches and is absent, round 3 follows directly.
	assert.Equal(t, 3, rounds[1].Round)
}

func TestProjectRoundsEmptyLedger(t *testing.T) {
	assert.Empty(t, ProjectRounds(nil))
}

func TestWinnerSlot(t *testing.T) {
	m := scheduledMatch(1, 1, 7, 8)
	assert.Equal(t, 0, WinnerSlot(m))

	w := 7
	m.WinnerID = &w
	assert.Equal(t, 1, WinnerSlot(m))

	w2 := 8
	m.WinnerID = &w2
	assert.Equal(t, 2, WinnerSlot(m))

	foreign := 99
	m.WinnerID = &foreign
	assert.Equal(t, 0, WinnerSlot(m))
}
