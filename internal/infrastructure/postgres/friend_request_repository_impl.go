package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

const requestColumns = `id, sender_id, recipient_id, status, created_at, updated_at`

type FriendRequestRepository struct {
	pool *pgxpool.Pool
}

func NewFriendRequestRepository(pool *pgxpool.Pool) *FriendRequestRepository {
	return &FriendRequestRepository{pool: pool}
}

func scanRequest(row pgx.Row) (*entity.FriendRequest, error) {
	fr := &entity.FriendRequest{}
	var status string
	if err := row.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &status, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
		return nil, err
	}
	fr.Status = entity.FriendRequestStatus(status)
	return fr, nil
}

// Create relies on the unordered pair index, so two concurrent sends in either
// direction cannot both succeed.
func (r *FriendRequestRepository) Create(ctx context.Context, fr *entity.FriendRequest) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO friend_requests (id, sender_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, fr.ID, fr.SenderID, fr.RecipientID, string(fr.Status), fr.CreatedAt, fr.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id string) (*entity.FriendRequest, error) {
	fr, err := scanRequest(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+requestColumns+` FROM friend_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return fr, nil
}

func (r *FriendRequestRepository) FindBetween(ctx context.Context, a, b string) (*entity.FriendRequest, error) {
	fr, err := scanRequest(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM friend_requests
		WHERE LEAST(sender_id, recipient_id) = LEAST($1::text, $2::text)
		  AND GREATEST(sender_id, recipient_id) = GREATEST($1::text, $2::text)
	`, a, b))
	if err != nil {
		return nil, notFound(err)
	}
	return fr, nil
}

// Transition is a compare-and-set on status.
func (r *FriendRequestRepository) Transition(ctx context.Context, id string, from, to entity.FriendRequestStatus, at time.Time) (*entity.FriendRequest, error) {
	q := conn(ctx, r.pool)
	fr, err := scanRequest(q.QueryRow(ctx, `
		UPDATE friend_requests
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+requestColumns, id, string(from), string(to), at))
	if err == nil {
		return fr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM friend_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, repository.ErrStaleStatus
}

func (r *FriendRequestRepository) List(ctx context.Context, f repository.ListFilter) ([]*entity.FriendRequest, error) {
	roleCol := "fr.recipient_id"
	if f.Role == repository.RoleSender {
		roleCol = "fr.sender_id"
	}
	orderCol := "fr.updated_at"
	if f.Status == entity.FriendRequestPending {
		orderCol = "fr.created_at"
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT fr.id, fr.sender_id, fr.recipient_id, fr.status, fr.created_at, fr.updated_at,
			s.full_name, s.profile_pic, s.native_language, s.learning_language,
			rc.full_name, rc.profile_pic, rc.native_language, rc.learning_language
		FROM friend_requests fr
		JOIN users s ON s.id = fr.sender_id
		JOIN users rc ON rc.id = fr.recipient_id
		WHERE `+roleCol+` = $1 AND fr.status = $2
		ORDER BY `+orderCol+` DESC, fr.id
	`, f.UserID, string(f.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.FriendRequest, 0)
	for rows.Next() {
		var (
			fr     entity.FriendRequest
			status string
			s, rc  entity.UserSummary
		)
		if err := rows.Scan(&fr.ID, &fr.SenderID, &fr.RecipientID, &status, &fr.CreatedAt, &fr.UpdatedAt,
			&s.FullName, &s.ProfilePic, &s.NativeLanguage, &s.LearningLanguage,
			&rc.FullName, &rc.ProfilePic, &rc.NativeLanguage, &rc.LearningLanguage); err != nil {
			return nil, err
		}
		fr.Status = entity.FriendRequestStatus(status)
		s.ID, rc.ID = fr.SenderID, fr.RecipientID
		fr.Sender, fr.Recipient = &s, &rc
		out = append(out, &fr)
	}
	return out, rows.Err()
}

func (r *FriendRequestRepository) ConnectedUserIDs(ctx context.Context, userID string, statuses ...entity.FriendRequestStatus) ([]string, error) {
	st := make([]string, len(statuses))
	for i, s := range statuses {
		st[i] = string(s)
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END
		FROM friend_requests
		WHERE (sender_id = $1 OR recipient_id = $1) AND status = ANY($2)
	`, userID, st)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var _ repository.FriendRequestRepository = (*FriendRequestRepository)(nil)
