package movecache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 7 * 24 * time.Hour

// Entry is one memoised opponent selection.
type Entry struct {
	Move     string    `json:"move"`
	Policy   string    `json:"policy"`
	Depth    int       `json:"depth"`
	FEN      string    `json:"fen"`
	StoredAt time.Time `json:"stored_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 { ttl = defaultTTL }
	return &Store{rdb: rdb, ttl: ttl}
}

// Open connects to REDIS_URL style addresses and pings the server.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil { return nil, err }
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil { return nil }
	return s.rdb.Close()
}

func (s *Store) keyMove(policy string, depth int, fen string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(fen)))
	return fmt.Sprintf("mv:%s:%d:%s", strings.TrimSpace(policy), depth, hex.EncodeToString(sum[:]))
}

func (s *Store) keyStats() string { return "mv:stats" }

// Load returns nil without error on a miss.
func (s *Store) Load(ctx context.Context, policy string, depth int, fen string) (*Entry, error) {
	raw, err := s.rdb.Get(ctx, s.keyMove(policy, depth, fen)).Bytes()
	if errors.Is(err, redis.Nil) {
		_ = s.rdb.HIncrBy(ctx, s.keyStats(), "miss", 1).Err()
		return nil, nil
	}
	if err != nil { return nil, err }
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil { return nil, err }
	// a hash collision or a schema change must not surface as a hit
	if e.FEN != strings.TrimSpace(fen) { return nil, nil }
	_ = s.rdb.HIncrBy(ctx, s.keyStats(), "hit", 1).Err()
	return &e, nil
}

func (s *Store) Save(ctx context.Context, e Entry) error {
	e.FEN = strings.TrimSpace(e.FEN)
	if e.StoredAt.IsZero() { e.StoredAt = time.Now().UTC() }
	raw, err := json.Marshal(e)
	if err != nil { return err }
	return s.rdb.Set(ctx, s.keyMove(e.Policy, e.Depth, e.FEN), raw, s.ttl).Err()
}

func (s *Store) Forget(ctx context.Context, policy string, depth int, fen string) error {
	return s.rdb.Del(ctx, s.keyMove(policy, depth, fen)).Err()
}

// Stats reports cache hits and misses since the counters were created.
func (s *Store) Stats(ctx context.Context) (hits, misses int64, err error) {
	vals, err := s.rdb.HGetAll(ctx, s.keyStats()).Result()
	if err != nil { return 0, 0, err }
	hits, _ = strconv.ParseInt(vals["hit"], 10, 64)
	misses, _ = strconv.ParseInt(vals["miss"], 10, 64)
	return hits, misses, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil { return nil, err }
	if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
