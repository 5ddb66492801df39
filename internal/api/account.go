package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"finboard/internal/core"
)

// Login exchanges credentials for a token. It does not touch the session;
// the caller hands the result to session.Begin.
func (c *Client) Login(ctx context.Context, email, password string) (core.LoginResult, error) {
	email = strings.TrimSpace(email)
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return core.LoginResult{}, err
	}
	if resp.Token == "" {
		return core.LoginResult{}, fmt.Errorf("login: empty token in response")
	}
	return core.LoginResult{
		Token:    resp.Token,
		Username: resp.Username,
		UserID:   resp.UserID,
		Email:    email,
	}, nil
}

func (c *Client) GetProfile(ctx context.Context) (core.Profile, error) {
	var p profileDTO
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &p); err != nil {
		return core.Profile{}, err
	}
	return p.toCore(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, p core.Profile) error {
	return c.do(ctx, http.MethodPut, "/user/profile", profileFromCore(p), nil)
}

// UploadProfileImage posts the image as the multipart field "image".
func (c *Client) UploadProfileImage(ctx context.Context, filename string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/user/upload-image", rawBody{data: buf.Bytes(), contentType: mw.FormDataContentType()}, nil)
}

func (c *Client) DeleteProfileImage(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/user/delete-image", nil, nil)
}

func (c *Client) Summary(ctx context.Context) (core.ServerSummary, error) {
	var s summaryDTO
	if err := c.do(ctx, http.MethodGet, "/analytics/summary", nil, &s); err != nil {
		return core.ServerSummary{}, err
	}
	return s.toCore(), nil
}

func (c *Client) ResetData(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/user/reset-data", nil, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/user/delete-account", nil, nil)
}

// Export streams the rendered document into w.
func (c *Client) Export(ctx context.Context, format core.ExportFormat, w io.Writer) (int64, error) {
	f, err := core.ParseExportFormat(string(format))
	if err != nil {
		return 0, err
	}
	resp, cancel, err := c.send(ctx, http.MethodGet, "/api/export/"+string(f), nil)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download %s export: %w", f, err)
	}
	return n, nil
}
