package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// Store implements every domain store port on Firestore.
//
// Layout:
//
//	sessions/{sessionID}
//	sessions/{sessionID}/messages/{messageID}
//	users/{userID}                      (profile + issue counters)
//	users/{userID}/goals/{goalID}
//	users/{userID}/notebook/{entryID}
//	users/{userID}/reframings/{reframingID}
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// NewStore creates a Firestore store for the given project (MIRA_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

// Stores exposes the store as the full set of domain ports.
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
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("messages")
}

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(id))
}

func (s *Store) userCol(id domain.UserID, name string) *firestore.CollectionRef {
	return s.userDoc(id).Collection(name)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collect drains a query iterator, decoding each snapshot with decode.
func collect[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// lastN queries the newest `limit` docs by created_at and returns them
// oldest first. limit <= 0 returns all.
func lastN[T any](ctx context.Context, q firestore.Query, limit int, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	if limit <= 0 {
		return collect(q.OrderBy("created_at", firestore.Asc).Documents(ctx), decode)
	}
	out, err := collect(q.OrderBy("created_at", firestore.Desc).Limit(limit).Documents(ctx), decode)
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	Mode      string    `firestore:"mode"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (d sessionDoc) toDomain(id string) *domain.Session {
	return &domain.Session{
		ID:        domain.SessionID(id),
		UserID:    domain.UserID(d.UserID),
		Title:     d.Title,
		Mode:      domain.Mode(d.Mode),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type messageDoc struct {
	SessionID   string    `firestore:"session_id"`
	Sender      string    `firestore:"sender"`
	Text        string    `firestore:"text"`
	Mode        string    `firestore:"mode"`
	CreatedAt   time.Time `firestore:"created_at"`
	IssueTags   []string  `firestore:"issue_tags"`
	ReplyTo     *string   `firestore:"reply_to"`
	ContentType string    `firestore:"content_type"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	doc := sessionDoc{
		UserID:    string(session.UserID),
		Title:     session.Title,
		Mode:      string(session.Mode),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	if _, err := s.sessionDoc(session.ID).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%w: session %s already exists", domain.ErrInvalidInput, session.ID)
		}
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	updates := []firestore.Update{
		{Path: "title", Value: session.Title},
		{Path: "mode", Value: string(session.Mode)},
		{Path: "updated_at", Value: session.UpdatedAt},
	}

	if _, err := s.sessionDoc(session.ID).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: session %s", domain.ErrNotFound, session.ID)
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}
	return doc.toDomain(string(id)), nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	q := s.sessionsCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	out, err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) (*domain.Session, error) {
		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		return doc.toDomain(snap.Ref.ID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore ListSessionsByUser: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	var replyTo *string
	if msg.ReplyTo != nil {
		v := string(*msg.ReplyTo)
		replyTo = &v
	}

	doc := messageDoc{
		SessionID:   string(msg.SessionID),
		Sender:      string(msg.Sender),
		Text:        msg.Text,
		Mode:        string(msg.Mode),
		CreatedAt:   msg.CreatedAt,
		IssueTags:   msg.IssueTags,
		ReplyTo:     replyTo,
		ContentType: msg.ContentType,
	}

	if _, err := s.messagesCol(msg.SessionID).Doc(string(msg.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesBySession(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	out, err := lastN(ctx, s.messagesCol(sessionID).Query, limit, func(snap *firestore.DocumentSnapshot) (*domain.Message, error) {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		var replyTo *domain.MessageID
		if doc.ReplyTo != nil {
			id := domain.MessageID(*doc.ReplyTo)
			replyTo = &id
		}

		return &domain.Message{
			ID:          domain.MessageID(snap.Ref.ID),
			SessionID:   sessionID,
			Sender:      domain.Sender(doc.Sender),
			Text:        doc.Text,
			Mode:        domain.Mode(doc.Mode),
			CreatedAt:   doc.CreatedAt,
			IssueTags:   doc.IssueTags,
			ReplyTo:     replyTo,
			ContentType: doc.ContentType,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("firestore GetMessagesBySession: %w", err)
	}
	return out, nil
}
