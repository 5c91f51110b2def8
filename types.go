package draftpub

import "time"

// DraftEntry is one pipeline run as recorded in the draft log.
type DraftEntry struct {
	RunID          string    `json:"run_id"`
	Title          string    `json:"title"`
	Format         string    `json:"format"`
	Source         string    `json:"source"` // "standard" or "stream"
	ImagesFound    int       `json:"images_found"`
	ImagesMigrated int       `json:"images_migrated"`
	CoverSource    string    `json:"cover_source"`
	MediaID        string    `json:"media_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	Status         int       `json:"status"`
	PublishID      string    `json:"publish_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublishReport is the JSON shape of a publish status query.
type PublishReport struct {
	PublishID    string   `json:"publish_id"`
	Status       int      `json:"status"`
	Description  string   `json:"description"`
	Done         bool     `json:"done"`
	ArticleLinks []string `json:"article_links,omitempty"`
}
