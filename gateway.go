package draftpub

import (
	"context"

	"github.com/eringen/draftpub/media"
	"github.com/eringen/draftpub/wechat"
)

// Gateway is the part of the publishing API the service depends on.
// *wechat.Client implements it.
type Gateway interface {
	UploadMaterial(ctx context.Context, path string, kind wechat.MaterialType) (wechat.Material, error)
	CreateDraft(ctx context.Context, articles []wechat.Article) (string, error)
	SubmitPublish(ctx context.Context, mediaID string) (string, error)
	PublishStatus(ctx context.Context, publishID string) (wechat.PublishStatus, error)
}

var _ Gateway = (*wechat.Client)(nil)

// materialUploader lets the media package upload through a Gateway.
type materialUploader struct {
	gw Gateway
}

func (u materialUploader) Upload(ctx context.Context, path string, kind media.Kind) (media.Asset, error) {
	m, err := u.gw.UploadMaterial(ctx, path, wechat.MaterialType(kind))
	if err != nil {
		return media.Asset{}, err
	}
	return media.Asset{LocalPath: path, ID: m.MediaID, URL: m.URL}, nil
}
