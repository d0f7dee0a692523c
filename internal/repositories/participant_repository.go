package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantRepository abstracts conversation membership persistence.
type ParticipantRepository interface {
	Get(ctx context.Context, conversationID, userID int64) (models.Participant, error)
	ActiveByConversation(ctx context.Context, conversationID int64) ([]models.Participant, error)
	ActiveByUser(ctx context.Context, userID int64) ([]models.Participant, error)
	IsActiveParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	SetLastReadAt(ctx context.Context, conversationID, userID int64, readAt time.Time) error
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

const participantColumns = `id, conversation_id, user_id, joined_at, last_read_at, deleted_at, muted, pinned, role`

// Get fetches one membership row regardless of soft-delete state.
func (r *ParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// ActiveByConversation returns the non-deleted memberships of a conversation.
func (r *ParticipantRepo) ActiveByConversation(ctx context.Context, conversationID int64) ([]models.Participant, error) {
	var parts []models.Participant
	err := r.db.SelectContext(ctx, &parts, `SELECT `+participantColumns+` FROM conversation_participants WHERE conversation_id=$1 AND deleted_at IS NULL ORDER BY id ASC`, conversationID)
	return parts, err
}

// ActiveByUser returns the user's non-deleted memberships.
func (r *ParticipantRepo) ActiveByUser(ctx context.Context, userID int64) ([]models.Participant, error) {
	var parts []models.Participant
	err := r.db.SelectContext(ctx, &parts, `SELECT `+participantColumns+` FROM conversation_participants WHERE user_id=$1 AND deleted_at IS NULL ORDER BY id ASC`, userID)
	return parts, err
}

// IsActiveParticipant checks live membership in one query.
func (r *ParticipantRepo) IsActiveParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id=$1 AND user_id=$2 AND deleted_at IS NULL)`, conversationID, userID)
	return exists, err
}

// SetLastReadAt moves the user's read marker. This is the only write path
// for last_read_at.
func (r *ParticipantRepo) SetLastReadAt(ctx context.Context, conversationID, userID int64, readAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversation_participants SET last_read_at=$3 WHERE conversation_id=$1 AND user_id=$2 AND deleted_at IS NULL`, conversationID, userID, readAt)
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
