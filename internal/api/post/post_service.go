package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-blog-api/internal/storage"
	"github.com/FACorreiaa/go-blog-api/internal/types"
	"github.com/FACorreiaa/go-blog-api/internal/uow"
)

var _ PostService = (*PostServiceImpl)(nil)

// PostService defines the business logic contract for post operations.
type PostService interface {
	// CreatePost uploads the images first, then persists the post and its
	// image rows atomically. If persistence fails the uploaded objects are
	// removed again.
	CreatePost(ctx context.Context, authorID, title, content string, publish bool, files []storage.File) (*types.Post, error)

	GetPostByID(ctx context.Context, postID string) (*types.Post, error)
	GetPublishedPosts(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error)
	GetAllPosts(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error)
	GetPostsByAuthor(ctx context.Context, authorID string, page, pageSize int) (types.PaginatedResult[types.Post], error)

	// UpdatePost is allowed for the post's owner and for moderators and up.
	UpdatePost(ctx context.Context, actingUserID string, actingRole types.Role, postID string, req UpdatePostRequest) (*types.Post, error)

	// DeletePost removes the stored images best-effort before deleting the
	// row; the image rows go with the post through the schema cascade.
	DeletePost(ctx context.Context, postID string) error
}

// PostServiceImpl provides the implementation for PostService.
type PostServiceImpl struct {
	logger  *slog.Logger
	uow     uow.Factory
	objects storage.ObjectStorage
	cache   *cache.Cache
}

// NewPostService creates a new post service instance with a short-lived
// read cache for single-post lookups.
func NewPostService(uowFactory uow.Factory, objects storage.ObjectStorage, logger *slog.Logger) *PostServiceImpl {
	return &PostServiceImpl{
		logger:  logger,
		uow:     uowFactory,
		objects: objects,
		cache:   cache.New(5*time.Minute, 10*time.Minute),
	}
}

func postCacheKey(postID string) string {
	return "post:" + postID
}

func (s *PostServiceImpl) CreatePost(ctx context.Context, authorID, title, content string, publish bool, files []storage.File) (*types.Post, error) {
	l := s.logger.With(slog.String("method", "CreatePost"), slog.String("authorID", authorID))

	u := s.uow.New()

	author, err := u.Users().FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("create post: find author: %w", err)
	}
	if author == nil {
		return nil, types.ErrAuthorNotFound
	}

	var objects []storage.StoredObject
	if len(files) > 0 {
		objects, err = s.objects.UploadMany(ctx, files)
		if err != nil {
			l.ErrorContext(ctx, "Failed to upload post images", slog.Any("error", err))
			return nil, types.NewDomainError(types.CodeUploadFailed, "Failed to upload images")
		}
	}

	post := types.NewPost(uuid.NewString(), title, content, authorID)
	if publish {
		post.Publish()
	}
	post.Images = make([]types.PostImage, 0, len(objects))
	for i, obj := range objects {
		post.Images = append(post.Images, types.PostImage{
			ID:        uuid.NewString(),
			PostID:    post.ID,
			ImageURL:  obj.URL,
			StoreKey:  obj.Key,
			Order:     i,
			CreatedAt: post.CreatedAt,
		})
	}

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Posts().Create(ctx, post)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return nil, err
		}
		// The post never made it to the database, so the uploads are
		// orphans; remove them.
		keys := make([]string, 0, len(objects))
		for _, obj := range objects {
			keys = append(keys, obj.Key)
		}
		if len(keys) > 0 {
			if delErr := s.objects.DeleteMany(ctx, keys); delErr != nil {
				l.WarnContext(ctx, "Failed to clean up uploaded images", slog.Any("error", delErr))
			}
		}
		l.ErrorContext(ctx, "Failed to persist post", slog.Any("error", err))
		return nil, types.NewDomainError(types.CodeCreateFailed, "Failed to create post")
	}

	l.InfoContext(ctx, "Post created", slog.String("postID", post.ID), slog.Int("images", len(post.Images)))
	return post, nil
}

func (s *PostServiceImpl) GetPostByID(ctx context.Context, postID string) (*types.Post, error) {
	if cached, found := s.cache.Get(postCacheKey(postID)); found {
		if p, ok := cached.(*types.Post); ok {
			return p, nil
		}
	}

	u := s.uow.New()
	post, err := u.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, types.ErrPostNotFound
	}

	s.cache.Set(postCacheKey(postID), post, cache.DefaultExpiration)
	return post, nil
}

func (s *PostServiceImpl) GetPublishedPosts(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	u := s.uow.New()
	result, err := u.Posts().FindPublishedPaginated(ctx, page, pageSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list published posts", slog.Any("error", err))
		return types.PaginatedResult[types.Post]{}, types.NewDomainError(types.CodeFetchFailed, "Failed to fetch posts")
	}
	return result, nil
}

func (s *PostServiceImpl) GetAllPosts(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	u := s.uow.New()
	result, err := u.Posts().FindAllPaginated(ctx, page, pageSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list posts", slog.Any("error", err))
		return types.PaginatedResult[types.Post]{}, types.NewDomainError(types.CodeFetchFailed, "Failed to fetch posts")
	}
	return result, nil
}

func (s *PostServiceImpl) GetPostsByAuthor(ctx context.Context, authorID string, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	u := s.uow.New()
	result, err := u.Posts().FindByAuthorPaginated(ctx, authorID, page, pageSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list posts by author", slog.Any("error", err))
		return types.PaginatedResult[types.Post]{}, types.NewDomainError(types.CodeFetchFailed, "Failed to fetch posts")
	}
	return result, nil
}

func (s *PostServiceImpl) UpdatePost(ctx context.Context, actingUserID string, actingRole types.Role, postID string, req UpdatePostRequest) (*types.Post, error) {
	l := s.logger.With(slog.String("method", "UpdatePost"), slog.String("postID", postID))

	u := s.uow.New()

	post, err := u.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if post == nil {
		return nil, types.ErrPostNotFound
	}

	if !post.IsOwnedBy(actingUserID) && !types.HasMinimumRole(actingRole, types.RoleModerator) {
		return nil, types.NewDomainError(types.CodeForbidden, "Not allowed to modify this post")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.IsPublished != nil {
		if *req.IsPublished {
			post.Publish()
		} else {
			post.Unpublish()
		}
	}
	post.UpdatedAt = time.Now()

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Posts().Update(ctx, post)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to persist post update", slog.Any("error", err))
		return nil, types.NewDomainError(types.CodeUpdateFailed, "Failed to update post")
	}

	s.cache.Delete(postCacheKey(postID))
	return post, nil
}

func (s *PostServiceImpl) DeletePost(ctx context.Context, postID string) error {
	l := s.logger.With(slog.String("method", "DeletePost"), slog.String("postID", postID))

	u := s.uow.New()

	post, err := u.Posts().FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if post == nil {
		return types.ErrPostNotFound
	}

	if len(post.Images) > 0 {
		keys := make([]string, 0, len(post.Images))
		for _, img := range post.Images {
			keys = append(keys, img.StoreKey)
		}
		if err := s.objects.DeleteMany(ctx, keys); err != nil {
			l.WarnContext(ctx, "Failed to remove some stored images", slog.Any("error", err))
		}
	}

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Posts().Delete(ctx, postID)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return err
		}
		l.ErrorContext(ctx, "Failed to delete post", slog.Any("error", err))
		return types.NewDomainError(types.CodeDeleteFailed, "Failed to delete post")
	}

	s.cache.Delete(postCacheKey(postID))
	l.InfoContext(ctx, "Post deleted")
	return nil
}
