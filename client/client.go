package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/upload"
)

var ErrNoContent = errors.New("file has no content")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d: %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Client calls the survey service. It implements survey.Creator,
// respond.Submitter and upload.Uploader.
type Client struct {
	RootURL string
	Token   string
	HTTP    *http.Client
}

func New(rootURL, token string) *Client {
	return &Client{
		RootURL: strings.TrimRight(rootURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *Client) CreateSurvey(ctx context.Context, payload model.CreateSurveyPayload) (int, error) {
	var res struct {
		ID int `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/admin/surveys", payload, &res); err != nil {
		return 0, fmt.Errorf("create survey: %w", err)
	}
	return res.ID, nil
}

func (c *Client) SubmitAnswers(ctx context.Context, surveyID int, payload model.SubmitAnswersPayload) error {
	if err := c.postJSON(ctx, fmt.Sprintf("/api/surveys/%d/submissions", surveyID), payload, nil); err != nil {
		return fmt.Errorf("submit answers: %w", err)
	}
	return nil
}

// Upload streams f as a multipart form. OnProgress follows the bytes handed
// to the transport.
func (c *Client) Upload(ctx context.Context, f upload.File, opts upload.Options) (model.UploadResult, error) {
	if f.Content == nil {
		return model.UploadResult{}, fmt.Errorf("upload %s: %w", f.Name, ErrNoContent)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, f, opts, upload.NewProgressReader(ctx, f.Content, f.Size, opts.OnProgress))
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RootURL+"/api/uploads", pr)
	if err != nil {
		pr.Close()
		return model.UploadResult{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	var res model.UploadResult
	if err := c.do(req, &res); err != nil {
		pr.Close()
		return model.UploadResult{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return res, nil
}

func writeUploadForm(form *multipart.Writer, f upload.File, opts upload.Options, content io.Reader) error {
	if opts.Folder != "" {
		if err := form.WriteField("folder", opts.Folder); err != nil {
			return err
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	contentType := f.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RootURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
