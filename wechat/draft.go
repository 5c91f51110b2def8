package wechat

import (
	"context"
)

// Article is one news item of a draft.
type Article struct {
	Title              string `json:"title"`
	Author             string `json:"author,omitempty"`
	Digest             string `json:"digest"`
	Content            string `json:"content"`
	ContentSourceURL   string `json:"content_source_url,omitempty"`
	ThumbMediaID       string `json:"thumb_media_id"`
	ShowCoverPic       int    `json:"show_cover_pic"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
	// URL is only filled in by the gateway when listing drafts.
	URL string `json:"url,omitempty"`
}

// CreateDraft adds a draft holding articles and returns its media id.
func (c *Client) CreateDraft(ctx context.Context, articles []Article) (string, error) {
	var out struct {
		MediaID string `json:"media_id"`
	}
	body, err := c.postJSON(ctx, "/draft/add", map[string]any{"articles": articles}, &out)
	if err != nil {
		return "", err
	}
	if out.MediaID == "" {
		return "", missingField("media_id", body)
	}
	c.log.Info("draft created", "media_id", out.MediaID, "articles", len(articles))
	return out.MediaID, nil
}

// DraftItem is one entry of the draft box.
type DraftItem struct {
	MediaID string `json:"media_id"`
	Content struct {
		NewsItem []Article `json:"news_item"`
	} `json:"content"`
	UpdateTime int64 `json:"update_time"`
}

// DraftPage is a window over the draft box.
type DraftPage struct {
	TotalCount int         `json:"total_count"`
	ItemCount  int         `json:"item_count"`
	Items      []DraftItem `json:"item"`
}

// ListDrafts returns count drafts starting at offset, newest first.
// count is clamped to the gateway's 1..20 range.
func (c *Client) ListDrafts(ctx context.Context, offset, count int, withContent bool) (DraftPage, error) {
	if count < 1 {
		count = 1
	}
	if count > 20 {
		count = 20
	}
	noContent := 1
	if withContent {
		noContent = 0
	}
	var page DraftPage
	_, err := c.postJSON(ctx, "/draft/batchget", map[string]int{
		"offset":     offset,
		"count":      count,
		"no_content": noContent,
	}, &page)
	return page, err
}

// DeleteDraft removes a draft from the draft box.
func (c *Client) DeleteDraft(ctx context.Context, mediaID string) error {
	_, err := c.postJSON(ctx, "/draft/delete", map[string]string{"media_id": mediaID}, nil)
	return err
}

// SwitchDraftBox enables the draft box for the account and reports whether it
// is open. With checkOnly the state is only queried.
func (c *Client) SwitchDraftBox(ctx context.Context, checkOnly bool) (bool, error) {
	path := "/draft/switch"
	if checkOnly {
		path += "?checkonly=1"
	}
	var out struct {
		IsOpen int `json:"is_open"`
	}
	if _, err := c.postJSON(ctx, path, struct{}{}, &out); err != nil {
		return false, err
	}
	return out.IsOpen == 1, nil
}
