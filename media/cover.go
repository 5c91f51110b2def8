package media

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/eringen/draftpub/payload"
)

// CoverSource tells which step of the cascade produced the cover.
type CoverSource string

const (
	CoverExplicit   CoverSource = "explicit"
	CoverDownloaded CoverSource = "downloaded"
	CoverDefault    CoverSource = "default"
	CoverNone       CoverSource = "none"
)

// Cover is the resolved draft cover.
type Cover struct {
	MediaID string
	Source  CoverSource
}

// ShowCover reports whether the draft should display the cover.
func (c Cover) ShowCover() bool {
	return c.MediaID != ""
}

// CoverResolver picks the cover thumbnail for a record.
type CoverResolver struct {
	fetch         *Fetcher
	up            Uploader
	defaultCover  string
	thumbMaxWidth int
	log           *charmlog.Logger
}

// CoverOption configures a CoverResolver.
type CoverOption func(*CoverResolver)

// WithDefaultCover sets the file uploaded when the record brings no cover.
func WithDefaultCover(path string) CoverOption {
	return func(r *CoverResolver) {
		r.defaultCover = path
	}
}

// WithThumbMaxWidth sets the width downloaded covers are scaled down to.
func WithThumbMaxWidth(w int) CoverOption {
	return func(r *CoverResolver) {
		r.thumbMaxWidth = w
	}
}

// WithCoverLogger sets the resolver's logger.
func WithCoverLogger(l *charmlog.Logger) CoverOption {
	return func(r *CoverResolver) {
		r.log = l
	}
}

// NewCoverResolver returns a CoverResolver downloading with f and uploading
// with up.
func NewCoverResolver(f *Fetcher, up Uploader, opts ...CoverOption) *CoverResolver {
	r := &CoverResolver{
		fetch:         f,
		up:            up,
		thumbMaxWidth: DefaultThumbMaxWidth,
		log:           charmlog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tries, in order: the record's thumb media id, its cover URL, the
// default cover file. A failing step falls through to the next one.
func (r *CoverResolver) Resolve(ctx context.Context, rec payload.Record) Cover {
	if rec.ThumbMediaID != "" {
		return Cover{MediaID: rec.ThumbMediaID, Source: CoverExplicit}
	}

	if rec.CoverURL != "" {
		id, err := r.fromURL(ctx, rec.CoverURL)
		if err == nil {
			r.log.Info("cover uploaded", "url", rec.CoverURL, "media_id", id)
			return Cover{MediaID: id, Source: CoverDownloaded}
		}
		r.log.Warn("cover download failed", "url", rec.CoverURL, "err", err)
	}

	if r.defaultCover != "" {
		if _, err := os.Stat(r.defaultCover); err == nil {
			asset, err := r.up.Upload(ctx, r.defaultCover, KindThumb)
			if err == nil && asset.ID != "" {
				r.log.Info("default cover uploaded", "path", r.defaultCover, "media_id", asset.ID)
				return Cover{MediaID: asset.ID, Source: CoverDefault}
			}
			r.log.Warn("default cover upload failed", "path", r.defaultCover, "err", err)
		}
	}

	return Cover{Source: CoverNone}
}

func (r *CoverResolver) fromURL(ctx context.Context, rawURL string) (string, error) {
	path, err := r.fetch.Download(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	thumb, err := NormalizeThumb(path, r.thumbMaxWidth)
	if err != nil {
		return "", err
	}
	if thumb != path {
		defer os.Remove(thumb)
	}

	asset, err := r.up.Upload(ctx, thumb, KindThumb)
	if err != nil {
		return "", fmt.Errorf("upload cover: %w", err)
	}
	if asset.ID == "" {
		return "", fmt.Errorf("upload cover: no media id returned")
	}
	return asset.ID, nil
}
