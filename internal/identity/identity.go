// Package identity carries the acting user through context.Context.
// Every user-scoped operation resolves its owner from the context it was
// given, so concurrent requests and background jobs each see the user
// captured at their own boundary.
package identity

import (
	"context"
	"errors"

	"github.com/logsift-systems/logsift/internal/models"
)

// ErrNoCurrentUser is returned when an operation that requires an acting
// user runs with a context that carries none.
var ErrNoCurrentUser = errors.New("no current user")

type contextKey struct{}

// With returns a context bound to the given user.
func With(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Current returns the user bound to the context.
func Current(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	if !ok || user == nil {
		return nil, ErrNoCurrentUser
	}
	return user, nil
}

// Key returns the owner key of the context's user, the partition value
// every stored record and query is scoped by.
func Key(ctx context.Context) (string, error) {
	user, err := Current(ctx)
	if err != nil {
		return "", err
	}
	return user.Hash, nil
}
