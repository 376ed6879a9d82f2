package post

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-blog-api/internal/api"
	"github.com/FACorreiaa/go-blog-api/internal/api/auth"
	"github.com/FACorreiaa/go-blog-api/internal/storage"
)

const (
	maxImagesPerPost = 5
	maxImageSize     = 5 << 20 // 5 MiB per image
	maxUploadSize    = maxImagesPerPost*maxImageSize + (1 << 20)

	minTitleLength   = 3
	minContentLength = 10

	defaultPageSize = 10
	maxPageSize     = 100
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

type PostHandler struct {
	postService PostService
	logger      *slog.Logger
}

func NewPostHandler(postService PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger,
	}
}

// CreatePost handles POST /posts. The body is multipart/form-data with
// title, content, an optional publish flag and up to five image files.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CreatePost"))

	authorID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || authorID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form data")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	publish := r.FormValue("publish") == "true"

	if len(title) < minTitleLength {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Title must be at least 3 characters long")
		return
	}
	if len(content) < minContentLength {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Content must be at least 10 characters long")
		return
	}

	var files []storage.File
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["images"]
		if len(headers) > maxImagesPerPost {
			api.ErrorResponse(w, r, http.StatusBadRequest, "A post can carry at most 5 images")
			return
		}
		for _, fh := range headers {
			if fh.Size > maxImageSize {
				api.ErrorResponse(w, r, http.StatusBadRequest, "Images must not be larger than 5MB")
				return
			}
			contentType := fh.Header.Get("Content-Type")
			if _, allowed := allowedImageTypes[contentType]; !allowed {
				api.ErrorResponse(w, r, http.StatusBadRequest, "Unsupported image type")
				return
			}
			f, err := fh.Open()
			if err != nil {
				api.ErrorResponse(w, r, http.StatusBadRequest, "Failed to read uploaded file")
				return
			}
			defer f.Close()
			files = append(files, storage.File{
				Name:        fh.Filename,
				ContentType: contentType,
				Size:        fh.Size,
				Reader:      f,
			})
		}
	}

	post, err := h.postService.CreatePost(ctx, authorID, title, content, publish, files)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, post)
}

// GetPosts handles GET /posts: published posts, public.
func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	result, err := h.postService.GetPublishedPosts(r.Context(), page, pageSize)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetAllPosts handles GET /posts/all: drafts included. Moderator and up.
func (h *PostHandler) GetAllPosts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := paginationParams(r)

	result, err := h.postService.GetAllPosts(r.Context(), page, pageSize)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetMyPosts handles GET /posts/mine.
func (h *PostHandler) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	authorID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || authorID == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, pageSize := paginationParams(r)
	result, err := h.postService.GetPostsByAuthor(ctx, authorID, page, pageSize)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetPostByID handles GET /posts/{postID}.
func (h *PostHandler) GetPostByID(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if _, err := uuid.Parse(postID); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	post, err := h.postService.GetPostByID(r.Context(), postID)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, post)
}

// UpdatePost handles PATCH /posts/{postID}. Owner or moderator and up.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actingUserID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || actingUserID == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	actingRole, _ := auth.GetUserRoleFromContext(ctx)

	postID := chi.URLParam(r, "postID")
	if _, err := uuid.Parse(postID); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	var req UpdatePostRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title != nil && len(strings.TrimSpace(*req.Title)) < minTitleLength {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Title must be at least 3 characters long")
		return
	}
	if req.Content != nil && len(strings.TrimSpace(*req.Content)) < minContentLength {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Content must be at least 10 characters long")
		return
	}

	post, err := h.postService.UpdatePost(ctx, actingUserID, actingRole, postID, req)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, post)
}

// DeletePost handles DELETE /posts/{postID}. Moderator and up.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if _, err := uuid.Parse(postID); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	if err := h.postService.DeletePost(r.Context(), postID); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func paginationParams(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
			if pageSize > maxPageSize {
				pageSize = maxPageSize
			}
		}
	}
	return page, pageSize
}
