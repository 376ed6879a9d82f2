package types

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// UserRepository is the persistence gateway for users. Lookup methods return
// (nil, nil) when no row matches; errors are reserved for infrastructure
// failures. WithTx returns a view of the repository bound to tx, used by the
// unit of work to route reads and writes through an open transaction.
type UserRepository interface {
	WithTx(tx pgx.Tx) UserRepository

	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	FindActiveUsersPaginated(ctx context.Context, page, pageSize int) (PaginatedResult[User], error)

	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

// PostRepository is the persistence gateway for posts and their images.
// FindByID loads the post together with its images ordered by display order.
type PostRepository interface {
	WithTx(tx pgx.Tx) PostRepository

	FindByID(ctx context.Context, id string) (*Post, error)
	FindByAuthorID(ctx context.Context, authorID string) ([]Post, error)
	FindAllPaginated(ctx context.Context, page, pageSize int) (PaginatedResult[Post], error)
	FindPublishedPaginated(ctx context.Context, page, pageSize int) (PaginatedResult[Post], error)
	FindByAuthorPaginated(ctx context.Context, authorID string, page, pageSize int) (PaginatedResult[Post], error)

	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
}
