package delivery

import (
	"context"

	"xoxo/internal/users"
)

// Store persists one State per user. Save must either fully replace the
// previous record or leave it untouched.
type Store interface {
	Load(ctx context.Context, u users.User) (*State, error)
	Save(ctx context.Context, u users.User, s *State) error
}
