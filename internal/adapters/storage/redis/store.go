package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

const keyPrefix = "mira:"

// Store implements every domain store port on Redis.
//
// Keys:
//
//	mira:session:{id}               JSON session
//	mira:session:{id}:messages      list of JSON messages, append order
//	mira:user:{id}:sessions         zset of session ids scored by created_at
//	mira:user:{id}:goals            hash goalID -> JSON goal
//	mira:user:{id}:notebook         list of JSON entries
//	mira:user:{id}:reframings       list of JSON saved reframings
//	mira:user:{id}:profile          hash name / mbti_type / updated_at
//	mira:user:{id}:issues           hash tag -> count
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

type Option func(*Store)

// WithSessionTTL expires session and message keys after ttl of inactivity.
// Zero keeps them forever.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// NewStore connects to the Redis server at url (redis://...) and pings it.
func NewStore(ctx context.Context, url string, opts ...Option) (*Store, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStoreFromClient(rdb, opts...), nil
}

// NewStoreFromClient wraps an existing client.
func NewStoreFromClient(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Stores() domain.Stores {
	return domain.Stores{
		Sessions:   s,
		Messages:   s,
		Goals:      s,
		Notebook:   s,
		Reframings: s,
		Profiles:   s,
	}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func sessionKey(id domain.SessionID) string  { return keyPrefix + "session:" + string(id) }
func messagesKey(id domain.SessionID) string { return sessionKey(id) + ":messages" }
func userKey(id domain.UserID, suffix string) string {
	return keyPrefix + "user:" + string(id) + ":" + suffix
}

// ─────────────────────────────────────────
// Records
// ─────────────────────────────────────────

type sessionRecord struct {
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionRecord(s *domain.Session) sessionRecord {
	return sessionRecord{
		UserID:    string(s.UserID),
		Title:     s.Title,
		Mode:      string(s.Mode),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r sessionRecord) toDomain(id domain.SessionID) *domain.Session {
	return &domain.Session{
		ID:        id,
		UserID:    domain.UserID(r.UserID),
		Title:     r.Title,
		Mode:      domain.Mode(r.Mode),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type messageRecord struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	Mode        string    `json:"mode,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IssueTags   []string  `json:"issue_tags,omitempty"`
	ReplyTo     string    `json:"reply_to,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(newSessionRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis CreateSession: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: session %s already exists", domain.ErrInvalidInput, session.ID)
	}

	err = s.rdb.ZAdd(ctx, userKey(session.UserID, "sessions"), redis.Z{
		Score:  float64(session.CreatedAt.UnixNano()),
		Member: string(session.ID),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis CreateSession index: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(newSessionRecord(session))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.rdb.SetXX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis UpdateSession: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, session.ID)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis GetSession: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec.toDomain(id), nil
}

// ListSessionsByUser returns sessions newest first. Ids whose session key
// has expired are skipped.
func (s *Store) ListSessionsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.rdb.ZRevRange(ctx, userKey(userID, "sessions"), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ListSessionsByUser: %w", err)
	}

	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, domain.SessionID(id))
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	rec := messageRecord{
		ID:          string(msg.ID),
		Sender:      string(msg.Sender),
		Text:        msg.Text,
		Mode:        string(msg.Mode),
		CreatedAt:   msg.CreatedAt,
		IssueTags:   msg.IssueTags,
		ContentType: msg.ContentType,
	}
	if msg.ReplyTo != nil {
		rec.ReplyTo = string(*msg.ReplyTo)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := messagesKey(msg.SessionID)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, data)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
			p.Expire(ctx, sessionKey(msg.SessionID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesBySession(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	recs, err := tail[messageRecord](ctx, s.rdb, messagesKey(sessionID), limit)
	if err != nil {
		return nil, fmt.Errorf("redis GetMessagesBySession: %w", err)
	}

	out := make([]*domain.Message, 0, len(recs))
	for _, r := range recs {
		m := &domain.Message{
			ID:          domain.MessageID(r.ID),
			SessionID:   sessionID,
			Sender:      domain.Sender(r.Sender),
			Text:        r.Text,
			Mode:        domain.Mode(r.Mode),
			CreatedAt:   r.CreatedAt,
			IssueTags:   r.IssueTags,
			ContentType: r.ContentType,
		}
		if r.ReplyTo != "" {
			id := domain.MessageID(r.ReplyTo)
			m.ReplyTo = &id
		}
		out = append(out, m)
	}
	return out, nil
}

// tail reads the last `limit` JSON items of a list, oldest first.
// limit <= 0 reads the whole list.
func tail[T any](ctx context.Context, rdb *redis.Client, key string, limit int) ([]T, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("unmarshal %s item: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
