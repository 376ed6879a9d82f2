package post

// UpdatePostRequest carries the mutable post fields. Nil pointers leave the
// corresponding field untouched.
type UpdatePostRequest struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}
