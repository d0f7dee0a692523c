package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	GetOrCreateDirect(ctx context.Context, userID, friendID int64) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	HideForUser(ctx context.Context, conversationID, userID int64) error
	UnhideForUser(ctx context.Context, conversationID, userID int64) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetOrCreateDirect returns the single DIRECT conversation between two
// users, creating it with both participant rows when it does not exist.
// The pair is stored as (min, max) so the uniqueness constraint holds
// regardless of which user initiates.
func (r *ConversationRepo) GetOrCreateDirect(ctx context.Context, userID, friendID int64) (models.Conversation, error) {
	if userID == friendID {
		return models.Conversation{}, errors.New("cannot create conversation with self")
	}
	a, b := userID, friendID
	if a > b {
		a, b = b, a
	}

	var conv models.Conversation
	query := `SELECT id, type, user_a_id, user_b_id, title, created_at FROM conversations WHERE type=$1 AND user_a_id=$2 AND user_b_id=$3`
	err := r.db.GetContext(ctx, &conv, query, models.ConversationDirect, a, b)
	if err == nil {
		// Re-surfaces the pair for both sides in case either had hidden it.
		if err := r.UnhideForUser(ctx, conv.ID, userID); err != nil {
			return models.Conversation{}, err
		}
		if err := r.UnhideForUser(ctx, conv.ID, friendID); err != nil {
			return models.Conversation{}, err
		}
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (type, user_a_id, user_b_id) VALUES ($1, $2, $3) RETURNING id, type, user_a_id, user_b_id, title, created_at`, models.ConversationDirect, a, b).
		StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}
	for _, uid := range []int64{a, b} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`, conv.ID, uid); err != nil {
			return models.Conversation{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, type, user_a_id, user_b_id, title, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the conversations the user actively belongs to,
// newest first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.type, c.user_a_id, c.user_b_id, c.title, c.created_at
        FROM conversations c
        INNER JOIN conversation_participants cp ON cp.conversation_id = c.id
        WHERE cp.user_id=$1 AND cp.deleted_at IS NULL
        ORDER BY c.created_at DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var conv models.Conversation
		if err := rows.StructScan(&conv); err != nil {
			return nil, err
		}
		summary := models.ConversationSummary{
			ConversationID: conv.ID,
			Type:           conv.Type,
			Title:          conv.Title,
			CreatedAt:      conv.CreatedAt,
		}
		if conv.Type == models.ConversationDirect && conv.UserAID != nil && conv.UserBID != nil {
			peer := *conv.UserAID
			if peer == userID {
				peer = *conv.UserBID
			}
			summary.PeerID = &peer
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

// HideForUser soft-deletes the user's membership; history is preserved and
// the row is revived by UnhideForUser.
func (r *ConversationRepo) HideForUser(ctx context.Context, conversationID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversation_participants SET deleted_at = NOW() WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// UnhideForUser clears the soft-delete marker for the user.
func (r *ConversationRepo) UnhideForUser(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversation_participants SET deleted_at = NULL WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	return err
}
