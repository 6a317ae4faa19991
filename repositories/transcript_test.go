package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func turns(session string, n int) []DiskTurn {
	at := time.Now().UTC().Truncate(time.Millisecond)
	out := make([]DiskTurn, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, DiskTurn{
			Session: session,
			Round:   uint64(i),
			Winner:  "Trump",
			Content: "tremendous",
			Responses: []DiskReply{
				{Participant: "Trump", Content: "tremendous", Lang: "en"},
				{Participant: "Obama", Content: "yes we can", Lang: "en"},
			},
			Abstained: []string{"Biden"},
			Duration:  time.Second,
			At:        at.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func Test_Record_Turns_In_Round_Order(t *testing.T) {
	req := require.New(t)
	repository := NewTranscriptRepository(openDB(t), slog.Default(), nil)

	// Given rounds stored out of order, including round 10 after round 9
	stored := turns("s1", 10)
	for i := len(stored) - 1; i >= 0; i-- {
		req.NoError(repository.StoreTurn(stored[i]))
	}

	// When the session is read back
	fetched, cursor, err := repository.GetTurns("s1", nil)

	// Then rounds come back in numeric order
	req.NoError(err)
	req.NotNil(cursor)
	req.Len(fetched, 10)
	for i, turn := range fetched {
		req.Equal(uint64(i+1), turn.Round)
	}
	req.Equal(stored[0].Responses, fetched[0].Responses)
	req.True(stored[0].At.Equal(fetched[0].At))
}

func Test_Record_Turns_With_Limit_And_Cursor(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewTranscriptRepository(openDB(t), slog.Default(), &limit)
	for _, turn := range turns("s1", 5) {
		req.NoError(repository.StoreTurn(turn))
	}

	first, cursor, err := repository.GetTurns("s1", nil)
	req.NoError(err)
	req.Len(first, limit)

	second, _, err := repository.GetTurns("s1", cursor)
	req.NoError(err)
	req.Len(second, limit)
	req.Equal(uint64(3), second[0].Round)
}

func Test_List_Sessions(t *testing.T) {
	req := require.New(t)
	repository := NewTranscriptRepository(openDB(t), slog.Default(), nil)
	for _, turn := range append(turns("alpha", 2), turns("beta", 3)...) {
		req.NoError(repository.StoreTurn(turn))
	}

	sessions, err := repository.ListSessions()
	req.NoError(err)
	req.Equal([]string{"alpha", "beta"}, sessions)

	beta, _, err := repository.GetTurns("beta", nil)
	req.NoError(err)
	req.Len(beta, 3)
}
