package draftpub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/eringen/draftpub/markdown"
	"github.com/eringen/draftpub/media"
	"github.com/eringen/draftpub/payload"
	"github.com/eringen/draftpub/wechat"
)

const successMessage = "Draft published successfully"

// Recorder persists the outcome of a pipeline run.
type Recorder interface {
	RecordRun(DraftEntry) error
}

// Article is a payload prepared for the gateway.
type Article struct {
	Record      payload.Record
	Format      payload.Format
	Content     string
	Migration   media.MigrationReport
	Diagnostics []payload.Diagnostic
}

// Result is the outcome of one Run.
type Result struct {
	RunID   string
	Success bool
	MediaID string
	Message string
	// Error is the gateway's error payload for upstream failures and a
	// description for everything else.
	Error  any
	Status int

	Article Article
	Cover   media.Cover
}

// Body is the JSON response for the result.
func (r Result) Body() map[string]any {
	if r.Success {
		return map[string]any{"success": true, "media_id": r.MediaID, "message": r.Message}
	}
	return map[string]any{"success": false, "error": r.Error}
}

func (r Result) entry() DraftEntry {
	e := DraftEntry{
		RunID:          r.RunID,
		Title:          r.Article.Record.Title,
		Format:         string(r.Article.Format),
		Source:         string(r.Article.Record.Source),
		ImagesFound:    r.Article.Migration.Found,
		ImagesMigrated: r.Article.Migration.Migrated,
		CoverSource:    string(r.Cover.Source),
		MediaID:        r.MediaID,
		Status:         r.Status,
	}
	if e.Source == "" {
		e.Source = string(payload.SourceStandard)
	}
	if e.CoverSource == "" {
		e.CoverSource = string(media.CoverNone)
	}
	switch v := r.Error.(type) {
	case nil:
	case string:
		e.Error = v
	default:
		b, _ := json.Marshal(v)
		e.Error = string(b)
	}
	return e
}

// Pipeline turns a raw payload into a gateway draft.
type Pipeline struct {
	gw       Gateway
	conv     *markdown.Converter
	migrator *media.Migrator
	covers   *media.CoverResolver
	rec      Recorder
	log      *charmlog.Logger
	newRunID func() string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRecorder stores every run, e.g. in a Store.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) {
		p.rec = r
	}
}

// WithPipelineLogger sets the pipeline's logger.
func WithPipelineLogger(l *charmlog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// NewPipeline wires the pipeline stages for cfg around gw.
func NewPipeline(cfg Config, gw Gateway, opts ...PipelineOption) *Pipeline {
	cfg.setDefaults()
	p := &Pipeline{
		gw:       gw,
		conv:     markdown.NewConverter(markdown.WithHighlightStyle(cfg.HighlightStyle)),
		log:      charmlog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}

	fetcher := media.NewFetcher(cfg.DownloadTimeout)
	up := materialUploader{gw: gw}
	p.migrator = media.NewMigrator(fetcher, up, media.WithLogger(p.log))
	p.covers = media.NewCoverResolver(fetcher, up,
		media.WithDefaultCover(cfg.DefaultCover),
		media.WithThumbMaxWidth(cfg.ThumbMaxWidth),
		media.WithCoverLogger(p.log),
	)
	return p
}

// Preview prepares raw without touching the gateway: images keep their
// original URLs.
func (p *Pipeline) Preview(ctx context.Context, raw payload.Raw) (Article, error) {
	return p.prepare(ctx, raw, false, p.log)
}

func (p *Pipeline) prepare(ctx context.Context, raw payload.Raw, upload bool, log *charmlog.Logger) (Article, error) {
	rec, diags := payload.Resolve(raw)
	for _, d := range diags {
		log.Warn("payload degraded", "kind", d.Kind, "detail", d.Message)
	}
	a := Article{
		Record:      rec,
		Format:      payload.Classify(rec.Content),
		Content:     rec.Content,
		Migration:   media.MigrationReport{Content: rec.Content},
		Diagnostics: diags,
	}
	log.Info("payload resolved", "source", rec.Source, "format", a.Format, "title", rec.Title)

	if a.Format != payload.FormatMarkdown {
		return a, nil
	}
	if upload && strings.Contains(a.Content, "![") {
		a.Migration = p.migrator.Migrate(ctx, a.Content)
		a.Content = a.Migration.Content
		log.Info("images migrated", "found", a.Migration.Found, "migrated", a.Migration.Migrated)
	}
	html, err := p.conv.ToHTML(a.Content)
	if err != nil {
		return a, fmt.Errorf("convert markdown: %w", err)
	}
	a.Content = html
	return a, nil
}

// Run executes the whole pipeline. It never panics and never returns an
// error: failures are reported in the Result with a 400 status for gateway
// rejections and 500 for anything else.
func (p *Pipeline) Run(ctx context.Context, raw payload.Raw) (res Result) {
	res.RunID = p.newRunID()
	log := p.log.With("run", res.RunID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r)
			res.Success = false
			res.Status = http.StatusInternalServerError
			res.Error = fmt.Sprint(r)
		}
		if p.rec != nil {
			if err := p.rec.RecordRun(res.entry()); err != nil {
				log.Error("record run", "err", err)
			}
		}
	}()

	a, err := p.prepare(ctx, raw, true, log)
	res.Article = a
	if err != nil {
		return res.fail(log, err)
	}

	res.Cover = p.covers.Resolve(ctx, a.Record)
	article := wechat.Article{
		Title:              a.Record.Title,
		Digest:             Digest(a.Record.Title),
		Content:            a.Content,
		ThumbMediaID:       res.Cover.MediaID,
		ShowCoverPic:       boolFlag(res.Cover.ShowCover()),
		NeedOpenComment:    0,
		OnlyFansCanComment: 0,
	}

	mediaID, err := p.gw.CreateDraft(ctx, []wechat.Article{article})
	if err != nil {
		return res.fail(log, err)
	}
	res.Success = true
	res.MediaID = mediaID
	res.Message = successMessage
	res.Status = http.StatusOK
	log.Info("draft created", "media_id", mediaID, "cover", res.Cover.Source)
	return res
}

func (r Result) fail(log *charmlog.Logger, err error) Result {
	r.Success = false
	if apiErr, ok := wechat.IsAPIError(err); ok {
		r.Status = http.StatusBadRequest
		r.Error = apiErr.Payload
		log.Warn("gateway rejected draft", "errcode", apiErr.Code, "errmsg", apiErr.Message)
		return r
	}
	r.Status = http.StatusInternalServerError
	r.Error = err.Error()
	log.Error("pipeline failed", "err", err)
	return r
}
