package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "council:"

// saveScript indexes before writing the document so a failed ZADD leaves
// nothing behind. Returns 0 when the session already exists.
var saveScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// RedisSessionStore keeps each session as a JSON string under
// {prefix}session:{id} and indexes ids by timestamp in a sorted set.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (s *RedisSessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *RedisSessionStore) indexKey() string {
	return s.prefix + "sessions"
}

// Ping checks if the store is healthy
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	id := sess.ID.String()
	created, err := saveScript.Run(ctx, s.client,
		[]string{s.sessionKey(id), s.indexKey()},
		string(data), strconv.FormatInt(sess.Timestamp.UnixMilli(), 10), id,
	).Int()
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	if created == 0 {
		return ErrConflict
	}
	return nil
}

func (s *RedisSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess.Stage = domain.StagePersisted
	return &sess, nil
}

func (s *RedisSessionStore) List(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.SessionSummary, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var sum domain.SessionSummary
		if err := json.Unmarshal([]byte(raw), &sum); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", ids[i], err)
		}
		out = append(out, sum)
	}
	return out, nil
}
