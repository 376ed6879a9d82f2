package types

import "time"

// Post is a content entity owned by its author. Mutation requires the owner
// or a caller with at least the MODERATOR role.
type Post struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	AuthorID    string      `json:"author_id"`
	IsPublished bool        `json:"is_published"`
	PublishedAt *time.Time  `json:"published_at"`
	Images      []PostImage `json:"images"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PostImage is an object-store attachment belonging to a post.
type PostImage struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	ImageURL  string    `json:"image_url"`
	StoreKey  string    `json:"store_key"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPost builds an unpublished post.
func NewPost(id, title, content, authorID string) *Post {
	now := time.Now()
	return &Post{
		ID:        id,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Publish marks the post published, stamping PublishedAt on the first call.
func (p *Post) Publish() {
	if p.IsPublished {
		return
	}
	now := time.Now()
	p.IsPublished = true
	p.PublishedAt = &now
	p.UpdatedAt = now
}

// Unpublish reverts the post to a draft.
func (p *Post) Unpublish() {
	if !p.IsPublished {
		return
	}
	p.IsPublished = false
	p.PublishedAt = nil
	p.UpdatedAt = time.Now()
}

// IsOwnedBy reports whether userID is the post's author.
func (p *Post) IsOwnedBy(userID string) bool {
	return p.AuthorID == userID
}
