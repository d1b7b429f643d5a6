package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

type (
	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	UserCounts struct {
		Tasks int64 `json:"Task"`
	}

	OpenTask struct {
		ID int64 `json:"id"`
	}

	UserWithStats struct {
		ID        int64      `json:"id"`
		Name      string     `json:"name"`
		Email     string     `json:"email"`
		CreatedAt time.Time  `json:"createdAt"`
		Count     UserCounts `json:"_count"`
		OpenTasks []OpenTask `json:"Task"`
	}
)

const (
	openTasksPerUser = 5
)

// NormalizeEmail is the canonical form used to store and look up emails.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailHash(email string) int64 {
	return int64(xxhash.Sum64String(email))
}

// CreateUser inserts u and fills its ID and CreatedAt. A concurrent or
// previous registration of the same email yields DuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `insert into users(name, email, email_hash64, password_hash, created_at)
		values ($1, $2, $3, $4, $5) returning id`,
		u.Name, u.Email, emailHash(u.Email), u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return DuplicateEmail{Email: u.Email}
	} else if err != nil {
		return fmt.Errorf("unable to create user, cause %w", err)
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	var u User
	err := s.db.QueryRowContext(ctx, `select id, name, email, password_hash, created_at from users
		where email_hash64 = $1 and email = $2`, emailHash(email), email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, UserNotFound{Email: email}
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup user by email, cause %w", err)
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `select id, name, email, password_hash, created_at from users where id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, UserNotFound{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup user %v, cause %w", id, err)
	}
	return &u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("unable to count users, cause %w", err)
	}
	return total, nil
}

// ListUsersWithStats returns a page of users (newest first) with their
// task count and up to five of their open tasks.
func (s *Store) ListUsersWithStats(ctx context.Context, page Page) ([]UserWithStats, error) {
	rows, err := s.db.QueryContext(ctx, `select u.id, u.name, u.email, u.created_at,
		(select count(*) from tasks t where t.user_id = u.id) as task_count
		from users u
		order by u.created_at desc, u.id desc
		limit $1 offset $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	defer rows.Close()
	out := []UserWithStats{}
	index := map[int64]int{}
	for rows.Next() {
		var u UserWithStats
		err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.Count.Tasks)
		if err != nil {
			return nil, fmt.Errorf("unable to scan user, cause %w", err)
		}
		u.OpenTasks = []OpenTask{}
		index[u.ID] = len(out)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]interface{}, 0, len(out))
	placeholders := make([]string, 0, len(out))
	for i, u := range out {
		ids = append(ids, u.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	open, err := s.db.QueryContext(ctx, fmt.Sprintf(`select id, user_id from tasks
		where is_completed = false and user_id in (%v)
		order by user_id, id`, strings.Join(placeholders, ", ")), ids...)
	if err != nil {
		return nil, fmt.Errorf("unable to list open tasks, cause %w", err)
	}
	defer open.Close()
	for open.Next() {
		var taskID, userID int64
		if err := open.Scan(&taskID, &userID); err != nil {
			return nil, fmt.Errorf("unable to scan open task, cause %w", err)
		}
		u := &out[index[userID]]
		if len(u.OpenTasks) < openTasksPerUser {
			u.OpenTasks = append(u.OpenTasks, OpenTask{ID: taskID})
		}
	}
	return out, open.Err()
}
