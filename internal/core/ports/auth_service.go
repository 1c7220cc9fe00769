package ports

import (
	"context"

	"github.com/clubpedal/members-system/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, displayName, email, role string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
