package post

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-blog-api/internal/storage"
	"github.com/FACorreiaa/go-blog-api/internal/types"
	"github.com/FACorreiaa/go-blog-api/internal/uow"
)

// MockUserRepository is a mock implementation of types.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(tx pgx.Tx) types.UserRepository { return m }

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*types.User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindActiveUsersPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.User], error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(types.PaginatedResult[types.User]), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPostRepository is a mock implementation of types.PostRepository.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) WithTx(tx pgx.Tx) types.PostRepository { return m }

func (m *MockPostRepository) FindByID(ctx context.Context, id string) (*types.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Post), args.Error(1)
}

func (m *MockPostRepository) FindByAuthorID(ctx context.Context, authorID string) ([]types.Post, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Post), args.Error(1)
}

func (m *MockPostRepository) FindAllPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(types.PaginatedResult[types.Post]), args.Error(1)
}

func (m *MockPostRepository) FindPublishedPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(types.PaginatedResult[types.Post]), args.Error(1)
}

func (m *MockPostRepository) FindByAuthorPaginated(ctx context.Context, authorID string, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	args := m.Called(ctx, authorID, page, pageSize)
	return args.Get(0).(types.PaginatedResult[types.Post]), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, post *types.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, post *types.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockObjectStorage is a mock implementation of storage.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) UploadMany(ctx context.Context, files []storage.File) ([]storage.StoredObject, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StoredObject), args.Error(1)
}

func (m *MockObjectStorage) DeleteMany(ctx context.Context, keys []string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type fakeUnitOfWork struct {
	users types.UserRepository
	posts types.PostRepository
}

func (f *fakeUnitOfWork) Users() types.UserRepository { return f.users }
func (f *fakeUnitOfWork) Posts() types.PostRepository { return f.posts }

func (f *fakeUnitOfWork) ExecuteInTransaction(ctx context.Context, work func(ctx context.Context) error) error {
	return work(ctx)
}

type fakeFactory struct {
	u uow.UnitOfWork
}

func (f fakeFactory) New() uow.UnitOfWork { return f.u }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPostService(users types.UserRepository, posts types.PostRepository, objects storage.ObjectStorage) *PostServiceImpl {
	return NewPostService(fakeFactory{u: &fakeUnitOfWork{users: users, posts: posts}}, objects, testLogger())
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreatePostWithImages(t *testing.T) {
	author := types.NewUser("author-1", "a@example.com", "alice", "hash", types.RoleUser)

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, "author-1").Return(author, nil)

	posts := new(MockPostRepository)
	posts.On("Create", mock.Anything, mock.AnythingOfType("*types.Post")).Return(nil)

	objects := new(MockObjectStorage)
	objects.On("UploadMany", mock.Anything, mock.Anything).Return([]storage.StoredObject{
		{Key: "posts/key-1", URL: "http://cdn/posts/key-1"},
		{Key: "posts/key-2", URL: "http://cdn/posts/key-2"},
	}, nil)

	svc := newTestPostService(users, posts, objects)

	files := []storage.File{
		{Name: "one.png", ContentType: "image/png"},
		{Name: "two.jpg", ContentType: "image/jpeg"},
	}
	post, err := svc.CreatePost(context.Background(), "author-1", "Title", "Content", true, files)
	require.NoError(t, err)

	assert.True(t, post.IsPublished)
	require.NotNil(t, post.PublishedAt)
	require.Len(t, post.Images, 2)
	assert.Equal(t, "posts/key-1", post.Images[0].StoreKey)
	assert.Equal(t, 0, post.Images[0].Order)
	assert.Equal(t, 1, post.Images[1].Order)
	assert.Equal(t, post.ID, post.Images[0].PostID)
	posts.AssertExpectations(t)
}

func TestCreatePostAuthorNotFound(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, "ghost").Return(nil, nil)

	objects := new(MockObjectStorage)
	svc := newTestPostService(users, new(MockPostRepository), objects)

	_, err := svc.CreatePost(context.Background(), "ghost", "Title", "Content", false, nil)
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodeAuthorNotFound, de.Code)
	objects.AssertNotCalled(t, "UploadMany", mock.Anything, mock.Anything)
}

func TestCreatePostUploadFailure(t *testing.T) {
	author := types.NewUser("author-1", "a@example.com", "alice", "hash", types.RoleUser)

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, "author-1").Return(author, nil)

	objects := new(MockObjectStorage)
	objects.On("UploadMany", mock.Anything, mock.Anything).Return(nil, errors.New("bucket unavailable"))

	posts := new(MockPostRepository)
	svc := newTestPostService(users, posts, objects)

	_, err := svc.CreatePost(context.Background(), "author-1", "Title", "Content", false,
		[]storage.File{{Name: "one.png"}})
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodeUploadFailed, de.Code)
	posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePostPersistenceFailureCleansUpUploads(t *testing.T) {
	author := types.NewUser("author-1", "a@example.com", "alice", "hash", types.RoleUser)

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, "author-1").Return(author, nil)

	posts := new(MockPostRepository)
	posts.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	objects := new(MockObjectStorage)
	objects.On("UploadMany", mock.Anything, mock.Anything).Return([]storage.StoredObject{
		{Key: "posts/key-1", URL: "http://cdn/posts/key-1"},
	}, nil)
	objects.On("DeleteMany", mock.Anything, []string{"posts/key-1"}).Return(nil)

	svc := newTestPostService(users, posts, objects)

	_, err := svc.CreatePost(context.Background(), "author-1", "Title", "Content", false,
		[]storage.File{{Name: "one.png"}})
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodeCreateFailed, de.Code)
	objects.AssertExpectations(t)
}

func TestGetPostByIDNotFound(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	_, err := svc.GetPostByID(context.Background(), "missing")
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodePostNotFound, de.Code)
}

func TestGetPostByIDUsesCache(t *testing.T) {
	p := types.NewPost("post-1", "Title", "Content", "author-1")

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil).Once()

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	first, err := svc.GetPostByID(context.Background(), "post-1")
	require.NoError(t, err)
	second, err := svc.GetPostByID(context.Background(), "post-1")
	require.NoError(t, err)

	assert.Same(t, first, second, "second read comes from the cache")
	posts.AssertExpectations(t)
}

func TestUpdatePostByOwner(t *testing.T) {
	p := types.NewPost("post-1", "Old", "Old content", "author-1")

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil)
	posts.On("Update", mock.Anything, p).Return(nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	updated, err := svc.UpdatePost(context.Background(), "author-1", types.RoleUser, "post-1", UpdatePostRequest{
		Title:       strPtr("New"),
		IsPublished: boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Old content", updated.Content, "unset fields stay untouched")
	assert.True(t, updated.IsPublished)
}

func TestUpdatePostForbiddenForStranger(t *testing.T) {
	p := types.NewPost("post-1", "Old", "Old content", "author-1")

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	_, err := svc.UpdatePost(context.Background(), "someone-else", types.RoleUser, "post-1", UpdatePostRequest{
		Title: strPtr("Hijacked"),
	})
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodeForbidden, de.Code)
	posts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdatePostAllowedForModerator(t *testing.T) {
	p := types.NewPost("post-1", "Old", "Old content", "author-1")

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil)
	posts.On("Update", mock.Anything, p).Return(nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	_, err := svc.UpdatePost(context.Background(), "someone-else", types.RoleModerator, "post-1", UpdatePostRequest{
		Title: strPtr("Moderated"),
	})
	require.NoError(t, err)
	posts.AssertExpectations(t)
}

func TestUpdatePostNotFound(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	_, err := svc.UpdatePost(context.Background(), "author-1", types.RoleUser, "missing", UpdatePostRequest{})
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodePostNotFound, de.Code)
}

func TestDeletePostRemovesStoredImages(t *testing.T) {
	p := types.NewPost("post-1", "Title", "Content", "author-1")
	p.Images = []types.PostImage{
		{ID: "img-1", PostID: "post-1", StoreKey: "posts/key-1"},
	}

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil)
	posts.On("Delete", mock.Anything, "post-1").Return(nil)

	objects := new(MockObjectStorage)
	objects.On("DeleteMany", mock.Anything, []string{"posts/key-1"}).Return(nil)

	svc := newTestPostService(new(MockUserRepository), posts, objects)

	err := svc.DeletePost(context.Background(), "post-1")
	require.NoError(t, err)
	posts.AssertExpectations(t)
	objects.AssertExpectations(t)
}

func TestDeletePostSurvivesStorageFailure(t *testing.T) {
	p := types.NewPost("post-1", "Title", "Content", "author-1")
	p.Images = []types.PostImage{
		{ID: "img-1", PostID: "post-1", StoreKey: "posts/key-1"},
	}

	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "post-1").Return(p, nil)
	posts.On("Delete", mock.Anything, "post-1").Return(nil)

	objects := new(MockObjectStorage)
	objects.On("DeleteMany", mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

	svc := newTestPostService(new(MockUserRepository), posts, objects)

	err := svc.DeletePost(context.Background(), "post-1")
	assert.NoError(t, err, "storage cleanup is best-effort")
}

func TestDeletePostNotFound(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	err := svc.DeletePost(context.Background(), "missing")
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodePostNotFound, de.Code)
}

func TestListPostsMapsFetchFailure(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("FindPublishedPaginated", mock.Anything, 1, 10).
		Return(types.PaginatedResult[types.Post]{}, errors.New("connection reset"))

	svc := newTestPostService(new(MockUserRepository), posts, new(MockObjectStorage))

	_, err := svc.GetPublishedPosts(context.Background(), 1, 10)
	de := types.AsDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, types.CodeFetchFailed, de.Code)
}
