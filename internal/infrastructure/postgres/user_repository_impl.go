package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

const userColumns = `
	u.id, u.email, u.password_hash, u.full_name, u.profile_pic, u.bio,
	u.native_language, u.learning_language, u.location, u.is_onboarded,
	COALESCE((SELECT array_agg(f.friend_id ORDER BY f.friend_id) FROM friendships f WHERE f.user_id = u.id), '{}'),
	u.created_at, u.updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.ProfilePic, &u.Bio,
		&u.NativeLanguage, &u.LearningLanguage, &u.Location, &u.IsOnboarded,
		&u.Friends, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	defer rows.Close()
	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, profile_pic, bio,
			native_language, learning_language, location, is_onboarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.Password, u.FullName, u.ProfilePic, u.Bio,
		u.NativeLanguage, u.LearningLanguage, u.Location, u.IsOnboarded)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p repository.ProfileUpdate) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users AS u
		SET full_name = $2, bio = $3, native_language = $4, learning_language = $5, location = $6,
			profile_pic = COALESCE(NULLIF($7, ''), u.profile_pic),
			is_onboarded = TRUE, updated_at = now()
		WHERE u.id = $1
		RETURNING `+userColumns,
		id, p.FullName, p.Bio, p.NativeLanguage, p.LearningLanguage, p.Location, p.ProfilePic))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) SetProfilePic(ctx context.Context, id, url string) (*entity.User, error) {
	u, err := scanUser(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users AS u SET profile_pic = $2, updated_at = now()
		WHERE u.id = $1
		RETURNING `+userColumns, id, url))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// AddFriendship writes both directions; repeating it is a no-op.
func (r *UserRepository) AddFriendship(ctx context.Context, a, b string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`, a, b)
	return err
}

func (r *UserRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var ok bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`, a, b).Scan(&ok)
	return ok, err
}

func (r *UserRepository) ListFriends(ctx context.Context, userID string) ([]*entity.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+`
		FROM friendships fr
		JOIN users u ON u.id = fr.friend_id
		WHERE fr.user_id = $1
		ORDER BY u.id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (r *UserRepository) ListOnboarded(ctx context.Context, exclude []string, limit int) ([]*entity.User, error) {
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.is_onboarded AND NOT (u.id = ANY($1))
		ORDER BY u.created_at DESC, u.id
		LIMIT $2
	`, exclude, limit)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

var _ repository.UserRepository = (*UserRepository)(nil)
