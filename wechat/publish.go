package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// PublishState is the publish_status code reported by freepublish/get.
type PublishState int

const (
	PublishSucceeded PublishState = iota
	PublishInProgress
	PublishOriginalityFailed
	PublishFailed
	PublishRejected
	PublishDeletedByUser
	PublishBanned
)

var publishStateText = map[PublishState]string{
	PublishSucceeded:         "published",
	PublishInProgress:        "publishing",
	PublishOriginalityFailed: "originality check failed",
	PublishFailed:            "publish failed",
	PublishRejected:          "rejected by platform review",
	PublishDeletedByUser:     "all articles deleted by the user after publishing",
	PublishBanned:            "all articles banned by the system after publishing",
}

func (s PublishState) String() string {
	if text, ok := publishStateText[s]; ok {
		return text
	}
	return "unknown status " + strconv.Itoa(int(s))
}

// Done reports whether the state is final.
func (s PublishState) Done() bool {
	return s != PublishInProgress
}

// ID is an identifier the gateway sends either as a JSON string or a number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// ArticleDetail locates one published article.
type ArticleDetail struct {
	Idx        int    `json:"idx"`
	ArticleURL string `json:"article_url"`
}

// PublishStatus is the result of a freepublish/get query.
type PublishStatus struct {
	PublishID     ID           `json:"publish_id"`
	State         PublishState `json:"publish_status"`
	ArticleID     string       `json:"article_id"`
	ArticleDetail struct {
		Count int             `json:"count"`
		Items []ArticleDetail `json:"item"`
	} `json:"article_detail"`
	FailIdx []int `json:"fail_idx"`
}

// ArticleLinks returns the URLs of the published articles in order.
func (s PublishStatus) ArticleLinks() []string {
	var links []string
	for _, item := range s.ArticleDetail.Items {
		if item.ArticleURL != "" {
			links = append(links, item.ArticleURL)
		}
	}
	return links
}

// SubmitPublish submits a draft for publishing and returns the publish id
// used to poll its status.
func (c *Client) SubmitPublish(ctx context.Context, mediaID string) (string, error) {
	var out struct {
		PublishID ID `json:"publish_id"`
	}
	body, err := c.postJSON(ctx, "/freepublish/submit", map[string]string{"media_id": mediaID}, &out)
	if err != nil {
		return "", err
	}
	if out.PublishID == "" {
		return "", missingField("publish_id", body)
	}
	c.log.Info("publish submitted", "media_id", mediaID, "publish_id", out.PublishID)
	return string(out.PublishID), nil
}

// PublishStatus queries the state of a publish job.
func (c *Client) PublishStatus(ctx context.Context, publishID string) (PublishStatus, error) {
	var st PublishStatus
	_, err := c.postJSON(ctx, "/freepublish/get", map[string]string{"publish_id": publishID}, &st)
	return st, err
}
