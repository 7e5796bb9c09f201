package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"po-manager/internal/models"
)

// CreateUser creates a new user
func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := sqlxGet(ctx, q, user, query, user.Username, user.Email, user.PasswordHash)
	return classify(err)
}

// GetUser retrieves a user by ID
func (q *queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := sqlxGet(ctx, q, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// LockUser retrieves a user and locks its row until the transaction ends
func (q *queries) LockUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := sqlxGet(ctx, q, &user, "SELECT * FROM users WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := sqlxGet(ctx, q, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers retrieves all users
func (q *queries) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := sqlxSelect(ctx, q, &users, "SELECT * FROM users ORDER BY id")
	return users, err
}

// UpdateUser overwrites the username, email and password hash
func (q *queries) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE users SET username = $1, email = $2, password_hash = $3 WHERE id = $4",
		user.Username, user.Email, user.PasswordHash, user.ID)
	if err != nil {
		return classify(err)
	}
	return requireRow(res, "user", user.ID)
}

// DeleteUser removes a user; audit entries keep the action with no actor
func (q *queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: user %d", models.ErrHasOrders, id)
	}
	if err != nil {
		return err
	}
	return requireRow(res, "user", id)
}

// CountOrdersByUser counts purchase orders created by a user
func (q *queries) CountOrdersByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := sqlxGet(ctx, q, &n, "SELECT COUNT(*) FROM purchase_orders WHERE created_by = $1", userID)
	return n, err
}
