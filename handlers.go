package draftpub

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/draftpub/markdown"
	"github.com/eringen/draftpub/payload"
	"github.com/eringen/draftpub/wechat"
)

const serviceName = "WeChat Draft Publisher"

func (a *App) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// readPayload decodes the request body. Bodies that are not JSON become a
// String payload.
func readPayload(c echo.Context) (payload.Raw, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return payload.Raw{}, err
	}
	return payload.Decode(body), nil
}

func (a *App) handlePublishDraft(c echo.Context) error {
	raw, err := readPayload(c)
	if err != nil {
		return err
	}
	// Downloads and gateway calls carry their own timeouts. A slow image host
	// or a client disconnect must not cut the run short.
	res := a.Pipeline.Run(context.WithoutCancel(c.Request().Context()), raw)
	return c.JSON(res.Status, res.Body())
}

func (a *App) handlePreview(c echo.Context) error {
	raw, err := readPayload(c)
	if err != nil {
		return err
	}
	article, err := a.Pipeline.Preview(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	body := article.Content
	if article.Format == payload.FormatPlain {
		body = markdown.Container(templ.EscapeString(body))
	}
	return Render(c, markdown.Preview(article.Record.Title, body))
}

func (a *App) handleListDrafts(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 20, 200)
	entries, err := a.Store.ListDrafts(limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []DraftEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"drafts": entries})
}

func (a *App) handleSubmitPublish(c echo.Context) error {
	mediaID := c.Param("media_id")
	publishID, err := a.Gateway.SubmitPublish(c.Request().Context(), mediaID)
	if err != nil {
		return gatewayError(err)
	}
	if err := a.Store.MarkSubmitted(mediaID, publishID); err != nil && !IsNotFound(err) {
		a.Logger.Error("mark submitted", "media_id", mediaID, "err", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "publish_id": publishID})
}

func (a *App) handlePublishStatus(c echo.Context) error {
	publishID := c.Param("publish_id")
	st, err := a.Gateway.PublishStatus(c.Request().Context(), publishID)
	if err != nil {
		return gatewayError(err)
	}
	return c.JSON(http.StatusOK, PublishReport{
		PublishID:    publishID,
		Status:       int(st.State),
		Description:  st.State.String(),
		Done:         st.State.Done(),
		ArticleLinks: st.ArticleLinks(),
	})
}

// gatewayError maps gateway rejections to 400 carrying the gateway payload.
func gatewayError(err error) error {
	if apiErr, ok := wechat.IsAPIError(err); ok {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: apiErr.Payload, Internal: err}
	}
	return err
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var msg any = err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = he.Message
	}
	if code >= 500 {
		a.Logger.Error("server error", "uri", c.Request().RequestURI, "err", err)
	}
	if !isJSONPath(c.Request().URL.Path) && code >= 500 {
		_ = c.String(code, http.StatusText(code))
		return
	}
	_ = c.JSON(code, map[string]any{"success": false, "error": msg})
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}
