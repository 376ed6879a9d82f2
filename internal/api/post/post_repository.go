package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-blog-api/app/db"
	"github.com/FACorreiaa/go-blog-api/internal/types"
)

var _ types.PostRepository = (*PostgresPostRepo)(nil)

const postColumns = `id, title, content, author_id, is_published, published_at, created_at, updated_at`

// PostgresPostRepo persists posts and their image rows. Image rows are
// written and read alongside the post; the stored objects themselves live in
// the object store and are referenced by key.
type PostgresPostRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresPostRepo(db database.Querier, logger *slog.Logger) *PostgresPostRepo {
	return &PostgresPostRepo{
		logger: logger,
		db:     db,
	}
}

// WithTx returns a copy of the repository whose queries run on tx.
func (r *PostgresPostRepo) WithTx(tx pgx.Tx) types.PostRepository {
	return &PostgresPostRepo{
		logger: r.logger,
		db:     tx,
	}
}

func scanPost(row pgx.Row) (*types.Post, error) {
	var p types.Post
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.IsPublished,
		&p.PublishedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan post row: %w", err)
	}
	return &p, nil
}

func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*types.Post, error) {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, "FindByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "posts"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM posts WHERE id = $1", postColumns)
	p, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil || p == nil {
		return p, err
	}

	images, err := r.loadImages(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Images = images[p.ID]
	if p.Images == nil {
		p.Images = []types.PostImage{}
	}
	return p, nil
}

func (r *PostgresPostRepo) FindByAuthorID(ctx context.Context, authorID string) ([]types.Post, error) {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, "FindByAuthorID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "posts"),
	))
	defer span.End()

	query := fmt.Sprintf("SELECT %s FROM posts WHERE author_id = $1 ORDER BY created_at DESC", postColumns)
	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	return r.attachImages(ctx, posts)
}

func (r *PostgresPostRepo) FindAllPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	countQuery := "SELECT COUNT(*) FROM posts"
	listQuery := fmt.Sprintf(`SELECT %s FROM posts
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, postColumns)
	return r.findPaginated(ctx, "FindAllPaginated", countQuery, nil, listQuery, page, pageSize)
}

func (r *PostgresPostRepo) FindPublishedPaginated(ctx context.Context, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	countQuery := "SELECT COUNT(*) FROM posts WHERE is_published = TRUE"
	listQuery := fmt.Sprintf(`SELECT %s FROM posts
		WHERE is_published = TRUE
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, postColumns)
	return r.findPaginated(ctx, "FindPublishedPaginated", countQuery, nil, listQuery, page, pageSize)
}

func (r *PostgresPostRepo) FindByAuthorPaginated(ctx context.Context, authorID string, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	countQuery := "SELECT COUNT(*) FROM posts WHERE author_id = $1"
	listQuery := fmt.Sprintf(`SELECT %s FROM posts
		WHERE author_id = $3
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, postColumns)
	return r.findPaginated(ctx, "FindByAuthorPaginated", countQuery, []any{authorID}, listQuery, page, pageSize)
}

// findPaginated runs the shared count-then-page pattern. The list query uses
// $1/$2 for LIMIT/OFFSET and $3 onward for filter arguments; the count query
// takes the filter arguments alone.
func (r *PostgresPostRepo) findPaginated(ctx context.Context, spanName, countQuery string, filterArgs []any, listQuery string, page, pageSize int) (types.PaginatedResult[types.Post], error) {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, spanName, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "posts"),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	var zero types.PaginatedResult[types.Post]

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, filterArgs...).Scan(&total); err != nil {
		span.SetStatus(codes.Error, "count failed")
		return zero, fmt.Errorf("failed to count posts: %w", err)
	}

	args := append([]any{pageSize, (page - 1) * pageSize}, filterArgs...)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		span.SetStatus(codes.Error, "query failed")
		return zero, fmt.Errorf("failed to list posts: %w", err)
	}
	posts, err := collectPosts(rows)
	if err != nil {
		return zero, err
	}
	posts, err = r.attachImages(ctx, posts)
	if err != nil {
		return zero, err
	}

	return types.NewPaginatedResult(posts, total, page, pageSize), nil
}

func (r *PostgresPostRepo) Create(ctx context.Context, post *types.Post) error {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "posts"),
		attribute.String("db.post.id", post.ID),
	))
	defer span.End()

	query := `
		INSERT INTO posts (id, title, content, author_id, is_published, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.IsPublished,
		post.PublishedAt,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return r.insertImages(ctx, post.ID, post.Images)
}

func (r *PostgresPostRepo) Update(ctx context.Context, post *types.Post) error {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "posts"),
		attribute.String("db.post.id", post.ID),
	))
	defer span.End()

	query := `
		UPDATE posts
		SET title = $2, content = $3, is_published = $4, published_at = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.IsPublished,
		post.PublishedAt,
		post.UpdatedAt,
	)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update post %s: no rows affected", post.ID)
	}
	return nil
}

func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("PostRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "posts"),
		attribute.String("db.post.id", id),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete post %s: no rows affected", id)
	}
	return nil
}

func (r *PostgresPostRepo) insertImages(ctx context.Context, postID string, images []types.PostImage) error {
	for _, img := range images {
		_, err := r.db.Exec(ctx, `
			INSERT INTO post_images (id, post_id, image_url, store_key, display_order, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			img.ID, postID, img.ImageURL, img.StoreKey, img.Order, img.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert post image: %w", err)
		}
	}
	return nil
}

// loadImages fetches image rows for the given post IDs, grouped by post.
func (r *PostgresPostRepo) loadImages(ctx context.Context, postIDs []string) (map[string][]types.PostImage, error) {
	if len(postIDs) == 0 {
		return map[string][]types.PostImage{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, post_id, image_url, store_key, display_order, created_at
		FROM post_images
		WHERE post_id = ANY($1)
		ORDER BY display_order ASC`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load post images: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]types.PostImage)
	for rows.Next() {
		var img types.PostImage
		if err := rows.Scan(&img.ID, &img.PostID, &img.ImageURL, &img.StoreKey, &img.Order, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post image row: %w", err)
		}
		byPost[img.PostID] = append(byPost[img.PostID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating post image rows: %w", err)
	}
	return byPost, nil
}

func (r *PostgresPostRepo) attachImages(ctx context.Context, posts []types.Post) ([]types.Post, error) {
	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
	}
	byPost, err := r.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Images = byPost[posts[i].ID]
		if posts[i].Images == nil {
			posts[i].Images = []types.PostImage{}
		}
	}
	return posts, nil
}

func collectPosts(rows pgx.Rows) ([]types.Post, error) {
	defer rows.Close()

	var posts []types.Post
	for rows.Next() {
		var p types.Post
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Content,
			&p.AuthorID,
			&p.IsPublished,
			&p.PublishedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating post rows: %w", err)
	}
	return posts, nil
}
