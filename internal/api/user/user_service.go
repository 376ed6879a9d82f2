package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-blog-api/internal/storage"
	"github.com/FACorreiaa/go-blog-api/internal/types"
	"github.com/FACorreiaa/go-blog-api/internal/uow"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user administration.
// Role gates (moderator for listing, admin for deletion) are enforced at the
// routing layer; the service enforces the rules that need entity state.
type UserService interface {
	GetUsers(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.PublicUser], error)
	GetUserByID(ctx context.Context, userID string) (*types.PublicUser, error)

	// DeleteUser removes the target account and everything it owns: posts go
	// with it through the schema cascade, stored images through best-effort
	// object removal. Admins cannot delete themselves.
	DeleteUser(ctx context.Context, actingUserID, targetUserID string) error

	DeactivateUser(ctx context.Context, userID string) error
	ReactivateUser(ctx context.Context, userID string) error
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger  *slog.Logger
	uow     uow.Factory
	objects storage.ObjectStorage
}

// NewUserService creates a new user service instance.
func NewUserService(uowFactory uow.Factory, objects storage.ObjectStorage, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:  logger,
		uow:     uowFactory,
		objects: objects,
	}
}

// GetUsers returns a page of active users, newest first.
func (s *UserServiceImpl) GetUsers(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.PublicUser], error) {
	l := s.logger.With(slog.String("method", "GetUsers"))

	u := s.uow.New()
	result, err := u.Users().FindActiveUsersPaginated(ctx, page, pageSize)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		return types.PaginatedResult[types.PublicUser]{}, types.NewDomainError(types.CodeFetchFailed, "Failed to fetch users")
	}

	public := make([]types.PublicUser, 0, len(result.Items))
	for i := range result.Items {
		public = append(public, result.Items[i].Public())
	}
	return types.NewPaginatedResult(public, result.Total, page, pageSize), nil
}

// GetUserByID returns the public projection of a single user.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, userID string) (*types.PublicUser, error) {
	u := s.uow.New()
	found, err := u.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if found == nil {
		return nil, types.ErrUserNotFound
	}
	p := found.Public()
	return &p, nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, actingUserID, targetUserID string) error {
	l := s.logger.With(slog.String("method", "DeleteUser"), slog.String("targetUserID", targetUserID))

	if actingUserID == targetUserID {
		return types.ErrSelfDeleteForbidden
	}

	u := s.uow.New()

	target, err := u.Users().FindByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("delete user: find target: %w", err)
	}
	if target == nil {
		return types.ErrUserNotFound
	}

	// Collect the image keys before the row goes away; the schema cascade
	// removes posts and image rows but not the stored objects.
	posts, err := u.Posts().FindByAuthorID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("delete user: list posts: %w", err)
	}
	var keys []string
	for i := range posts {
		for _, img := range posts[i].Images {
			keys = append(keys, img.StoreKey)
		}
	}

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Delete(ctx, targetUserID)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		return types.NewDomainError(types.CodeDeleteFailed, "Failed to delete user")
	}

	if len(keys) > 0 {
		if err := s.objects.DeleteMany(ctx, keys); err != nil {
			l.WarnContext(ctx, "Failed to remove some stored images", slog.Any("error", err))
		}
	}

	l.InfoContext(ctx, "User deleted", slog.String("actingUserID", actingUserID))
	return nil
}

func (s *UserServiceImpl) DeactivateUser(ctx context.Context, userID string) error {
	l := s.logger.With(slog.String("method", "DeactivateUser"), slog.String("userID", userID))

	u := s.uow.New()

	target, err := u.Users().FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if target == nil {
		return types.ErrUserNotFound
	}

	target.Deactivate()
	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Update(ctx, target)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return err
		}
		l.ErrorContext(ctx, "Failed to deactivate user", slog.Any("error", err))
		return types.NewDomainError(types.CodeUpdateFailed, "Failed to deactivate user")
	}

	l.InfoContext(ctx, "User deactivated")
	return nil
}

func (s *UserServiceImpl) ReactivateUser(ctx context.Context, userID string) error {
	l := s.logger.With(slog.String("method", "ReactivateUser"), slog.String("userID", userID))

	u := s.uow.New()

	target, err := u.Users().FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("reactivate user: %w", err)
	}
	if target == nil {
		return types.ErrUserNotFound
	}

	target.Activate()
	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Update(ctx, target)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return err
		}
		l.ErrorContext(ctx, "Failed to reactivate user", slog.Any("error", err))
		return types.NewDomainError(types.CodeUpdateFailed, "Failed to reactivate user")
	}

	l.InfoContext(ctx, "User reactivated")
	return nil
}
