package ledger

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "avl"
	recordVersionV1 = 1
	maxRetries      = 4
)

var (
	// ErrUnavailable wraps every Redis failure the store surfaces.
	ErrUnavailable = errors.New("ledger redis unavailable")
	// ErrConflict is returned when a mutation loses the optimistic
	// concurrency race more times than the store retries.
	ErrConflict = errors.New("ledger record conflict")
)

// Store persists verification records in Redis, one key per user, no
// TTL. Mutations are WATCH transactions so the purpose and payload
// fields always change together.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore returns a Store over redisClient.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redis:  redisClient,
		prefix: keyPrefix,
	}
}

func (s *Store) key(userID int64) string {
	return s.prefix + ":" + strconv.FormatInt(userID, 10)
}

// Get returns the user's record, or a zero record when none exists yet.
func (s *Store) Get(ctx context.Context, userID int64) (Record, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{UserID: userID}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return Record{}, err
	}
	return *record, nil
}

// Start records a new pending verification, overwriting any previous
// purpose and payload. The active token pointer is preserved; opening a
// flow does not log the user out.
func (s *Store) Start(ctx context.Context, userID int64, purpose Purpose, pendingEmail string) error {
	return s.mutate(ctx, userID, func(r *Record) {
		r.Purpose = purpose
		r.PendingEmail = pendingEmail
	})
}

// Clear resets the pending purpose and payload while preserving the
// active token pointer. Clearing an already-clear record is a no-op.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	return s.mutate(ctx, userID, func(r *Record) {
		r.Purpose = PurposeNone
		r.PendingEmail = ""
	})
}

// SetActiveToken replaces the active session token pointer. An empty
// token revokes the session. The pending purpose and payload are
// preserved.
func (s *Store) SetActiveToken(ctx context.Context, userID int64, token string) error {
	return s.mutate(ctx, userID, func(r *Record) {
		r.ActiveToken = token
	})
}

// ActiveToken returns the user's current session token pointer, empty
// when no session is live.
func (s *Store) ActiveToken(ctx context.Context, userID int64) (string, error) {
	record, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return record.ActiveToken, nil
}

func (s *Store) mutate(ctx context.Context, userID int64, apply func(*Record)) error {
	key := s.key(userID)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			record := &Record{UserID: userID}

			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				// First touch for this user; start from the zero record.
			case err != nil:
				return err
			default:
				record, err = decodeRecord(data)
				if err != nil {
					return err
				}
			}

			apply(record)
			record.UpdatedAt = time.Now()

			encoded, err := encodeRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}

	return ErrConflict
}

func encodeRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	buf.WriteByte(byte(record.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, record.UserID); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.UpdatedAt.Unix()); err != nil {
		return nil, err
	}

	for _, field := range []string{record.PendingEmail, record.ActiveToken} {
		if len(field) > 65535 {
			return nil, errors.New("ledger record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid ledger record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &Record{Purpose: Purpose(purpose)}

	if err := binary.Read(reader, binary.BigEndian, &record.UserID); err != nil {
		return nil, err
	}

	var updatedAt int64
	if err := binary.Read(reader, binary.BigEndian, &updatedAt); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Unix(updatedAt, 0)

	for _, target := range []*string{&record.PendingEmail, &record.ActiveToken} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		field := make([]byte, length)
		if _, err := io.ReadFull(reader, field); err != nil {
			return nil, err
		}
		*target = string(field)
	}

	return record, nil
}
