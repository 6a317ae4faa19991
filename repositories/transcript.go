//go:generate go run go.uber.org/mock/mockgen -source=transcript.go -destination=../mocks/mock_transcript_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	turnPrefix    = "turn:"
	sessionPrefix = "session:"
)

type ITranscriptRepository interface {
	StoreTurn(turn DiskTurn) error
	GetTurns(session string, cursor *string) ([]DiskTurn, *string, error)
	ListSessions() ([]string, error)
}

// TranscriptRepository archives completed rounds. The debate never reads it back.
type TranscriptRepository struct {
	db         *badger.DB
	log        *slog.Logger
	limitTurns *int
}

func NewTranscriptRepository(db *badger.DB, log *slog.Logger, limitTurns *int) TranscriptRepository {
	return TranscriptRepository{db: db, log: log, limitTurns: limitTurns}
}

type DiskReply struct {
	Participant string `msgpack:"participant"`
	Content     string `msgpack:"content"`
	Lang        string `msgpack:"lang,omitempty"`
}

type DiskTurn struct {
	Session   string        `msgpack:"session"`
	Round     uint64        `msgpack:"round"`
	Winner    string        `msgpack:"winner"`
	Content   string        `msgpack:"content"`
	Responses []DiskReply   `msgpack:"responses"`
	Abstained []string      `msgpack:"abstained,omitempty"`
	Duration  time.Duration `msgpack:"duration"`
	At        time.Time     `msgpack:"at"`
}

func turnKey(session string, round uint64) string {
	return fmt.Sprintf("%s%s:%019d", turnPrefix, session, round)
}

// StoreTurn persists a turn under "turn:{session}:{round_padded}".
// The 19-digit padding keeps rounds in numeric order under badger's lexicographic sort.
// The first turn of a session also records it under "session:{session}".
func (r TranscriptRepository) StoreTurn(turn DiskTurn) error {
	bytes, err := msgpack.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn %d: %w", turn.Round, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		sessionKey := []byte(sessionPrefix + turn.Session)
		if _, err := txn.Get(sessionKey); err == badger.ErrKeyNotFound {
			at, err := turn.At.MarshalBinary()
			if err != nil {
				return err
			}
			if err := txn.Set(sessionKey, at); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return txn.Set([]byte(turnKey(turn.Session, turn.Round)), bytes)
	})
}

// GetTurns returns the turns of a session in round order, starting after the cursor.
// The returned cursor points to the last turn read.
func (r TranscriptRepository) GetTurns(session string, cursor *string) ([]DiskTurn, *string, error) {
	var turns []DiskTurn
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("%s%s:", turnPrefix, session)
		prefix := []byte(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limitTurns != nil && len(turns) == *r.limitTurns {
				r.log.Debug(fmt.Sprintf("Maximum of %d turns reached", *r.limitTurns))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				var turn DiskTurn
				if err := msgpack.Unmarshal(value, &turn); err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return turns, &lastKey, nil
}

func (r TranscriptRepository) ListSessions() ([]string, error) {
	var sessions []string
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			sessions = append(sessions, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return sessions, err
}
