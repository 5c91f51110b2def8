package media

import (
	"context"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"

	"github.com/eringen/draftpub/markdown"
)

// Kind is the material kind an image is uploaded as.
type Kind string

const (
	KindImage Kind = "image"
	KindThumb Kind = "thumb"
)

// Asset is an image that reached the gateway.
type Asset struct {
	LocalPath string
	ID        string
	URL       string
}

// Uploader stores a local image file in the gateway's material library.
type Uploader interface {
	Upload(ctx context.Context, path string, kind Kind) (Asset, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, path string, kind Kind) (Asset, error)

func (f UploaderFunc) Upload(ctx context.Context, path string, kind Kind) (Asset, error) {
	return f(ctx, path, kind)
}

// Failure records an image that was left pointing at its original URL.
type Failure struct {
	Ref markdown.ImageRef
	Err error
}

// MigrationReport summarizes a Migrate call.
type MigrationReport struct {
	Content  string
	Found    int
	Migrated int
	Failures []Failure
}

// Migrator rewrites markdown so every image points at the gateway's copy.
type Migrator struct {
	fetch *Fetcher
	up    Uploader
	log   *charmlog.Logger
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithLogger sets the logger for migration progress.
func WithLogger(l *charmlog.Logger) MigratorOption {
	return func(m *Migrator) {
		m.log = l
	}
}

// NewMigrator returns a Migrator downloading with f and uploading with up.
func NewMigrator(f *Fetcher, up Uploader, opts ...MigratorOption) *Migrator {
	m := &Migrator{fetch: f, up: up, log: charmlog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Migrate downloads and uploads each image reference in content, one at a
// time in order of appearance, and replaces every occurrence of a migrated
// snippet with the uploaded URL. A failed image is logged and left as is.
func (m *Migrator) Migrate(ctx context.Context, content string) MigrationReport {
	report := MigrationReport{Content: content}
	if !strings.Contains(content, "![") {
		return report
	}
	refs := markdown.ExtractImages(content)
	report.Found = len(refs)
	m.log.Info("migrating images", "count", len(refs))

	for i, ref := range refs {
		asset, err := m.migrateOne(ctx, ref)
		if err != nil {
			m.log.Warn("image not migrated", "index", i+1, "url", ref.URL, "err", err)
			report.Failures = append(report.Failures, Failure{Ref: ref, Err: err})
			continue
		}
		report.Content = markdown.ReplaceImage(report.Content, ref, asset.URL)
		report.Migrated++
		m.log.Debug("image migrated", "index", i+1, "url", ref.URL, "remote", asset.URL)
	}
	return report
}

func (m *Migrator) migrateOne(ctx context.Context, ref markdown.ImageRef) (Asset, error) {
	path, err := m.fetch.Download(ctx, ref.URL)
	if err != nil {
		return Asset{}, err
	}
	defer os.Remove(path)

	asset, err := m.up.Upload(ctx, path, KindImage)
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", ref.URL, err)
	}
	if asset.URL == "" {
		return Asset{}, fmt.Errorf("upload %s: no url returned", ref.URL)
	}
	return asset, nil
}
