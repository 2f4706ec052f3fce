package matching

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortMatchesOrdersByReciprocalScoreDescending(t *testing.T) {
	out := []Match{
		{UID: "a", ReciprocalScore: 0.5},
		{UID: "b", ReciprocalScore: 0.9},
		{UID: "c", ReciprocalScore: 0.1},
	}
	sortMatches(out)
	require.Equal(t, []string{"b", "a", "c"}, uids(out))
}

func TestSortMatchesBreaksTiesByMinScore(t *testing.T) {
	out := []Match{
		{UID: "a", ReciprocalScore: 0.7, OfferMatchScore: 0.6, NeedMatchScore: 0.8},
		{UID: "b", ReciprocalScore: 0.7, OfferMatchScore: 0.9, NeedMatchScore: 0.9},
	}
	sortMatches(out)
	// b's min(0.9,0.9)=0.9 beats a's min(0.6,0.8)=0.6.
	require.Equal(t, []string{"b", "a"}, uids(out))
}

func TestSortMatchesBreaksDoubleTiesByUIDLexicographically(t *testing.T) {
	out := []Match{
		{UID: "zebra", ReciprocalScore: 0.7, OfferMatchScore: 0.7, NeedMatchScore: 0.7},
		{UID: "apple", ReciprocalScore: 0.7, OfferMatchScore: 0.7, NeedMatchScore: 0.7},
		{UID: "mango", ReciprocalScore: 0.7, OfferMatchScore: 0.7, NeedMatchScore: 0.7},
	}
	sortMatches(out)
	require.Equal(t, []string{"apple", "mango", "zebra"}, uids(out))
}

func uids(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.UID
	}
	return out
}
