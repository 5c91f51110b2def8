package wechat

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// MaterialType is the kind of permanent material being uploaded.
type MaterialType string

const (
	MaterialImage MaterialType = "image"
	MaterialThumb MaterialType = "thumb"
)

// Material is an uploaded permanent material. URL is only set for images.
type Material struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
}

// UploadMaterial uploads the file at path as a permanent material.
func (c *Client) UploadMaterial(ctx context.Context, path string, kind MaterialType) (Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return Material{}, fmt.Errorf("open material: %w", err)
	}
	defer f.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	var m Material
	body, err := c.call(ctx, http.MethodPost, "/material/add_material", func(r *resty.Request) {
		r.SetQueryParam("type", string(kind)).
			SetMultipartField("media", filepath.Base(path), contentType, f)
	}, &m)
	if err != nil {
		return Material{}, err
	}
	if m.MediaID == "" {
		return Material{}, missingField("media_id", body)
	}
	c.log.Debug("material uploaded", "type", kind, "media_id", m.MediaID, "content_type", contentType)
	return m, nil
}
