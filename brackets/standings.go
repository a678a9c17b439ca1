package brackets

import (
	"sort"

	"clanhall/models"
)

const pointsPerWin = 3

// Standing is one row of a round-robin points table.
type Standing struct {
	UserID int `json:"user_id"`
	Played int `json:"played"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
	Points int `json:"points"`
}

// ComputeStandings derives the ranked points table from the current
// ledger snapshot. Only completed matches with a winner and two real
// players count; byes never contribute. Every participant gets a row,
// zero counters included. The sort is stable: points descending, then
// wins descending, ties keep participant input order.
func ComputeStandings(participants []*models.Participant, matches []*models.Match) []Standing {
	rows := make([]Standing, 0, len(participants))
	index := make(map[int]int, len(participants))

	for _, p := range participants {
		if p == nil {
			continue
		}
		if _, ok := index[p.UserID]; ok {
			continue
		}
		index[p.UserID] = len(rows)
		rows = append(rows, Standing{UserID: p.UserID})
	}

	for _, m := range matches {
		if m == nil || m.Status != models.MatchCompleted || m.WinnerID == nil || m.Player2ID == nil {
			continue
		}

		winner := *m.WinnerID
		var loser int
		switch winner {
		case m.Player1ID:
			loser = *m.Player2ID
		case *m.Player2ID:
			loser = m.Player1ID
		default:
			// Winner not among the players; the ledger should never
			// hold such a row, skip it rather than corrupt the table.
			continue
		}

		if i, ok := index[winner]; ok {
			rows[i].Played++
			rows[i].Won++
			rows[i].Points += pointsPerWin
		}
		if i, ok := index[loser]; ok {
			rows[i].Played++
			rows[i].Lost++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Won > rows[j].Won
	})

	return rows
}
