package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"finboard/internal/core"
)

func (c *Client) ListPosts(ctx context.Context) ([]core.ForumPost, error) {
	var rows []postDTO
	if err := c.do(ctx, http.MethodGet, "/api/forum/posts", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.ForumPost, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

// GetPost returns one post with its comments. The backend wraps them as
// {"post": ..., "comments": [...]}.
func (c *Client) GetPost(ctx context.Context, id int64) (core.ForumPost, error) {
	var resp struct {
		Post     postDTO      `json:"post"`
		Comments []commentDTO `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/forum/posts/%d", id), nil, &resp); err != nil {
		return core.ForumPost{}, err
	}
	p := resp.Post.toCore()
	if len(resp.Comments) > 0 {
		p.Comments = p.Comments[:0]
		for _, cm := range resp.Comments {
			p.Comments = append(p.Comments, cm.toCore())
		}
	}
	return p, nil
}

func (c *Client) CreatePost(ctx context.Context, p core.ForumPost) (core.ForumPost, error) {
	var saved postDTO
	req := postRequest{Title: p.Title, Content: p.Content, Category: p.Category}
	if err := c.do(ctx, http.MethodPost, "/api/forum/posts", req, &saved); err != nil {
		return core.ForumPost{}, err
	}
	return saved.toCore(), nil
}

func (c *Client) UpdatePost(ctx context.Context, p core.ForumPost) (core.ForumPost, error) {
	var saved postDTO
	req := postRequest{Title: p.Title, Content: p.Content, Category: p.Category}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/forum/posts/%d", p.ID), req, &saved); err != nil {
		return core.ForumPost{}, err
	}
	return saved.toCore(), nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/forum/posts/%d", id), nil, nil)
}

func (c *Client) LikePost(ctx context.Context, id int64) (int, error) {
	var resp likeResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/forum/posts/%d/like", id), nil, &resp); err != nil {
		return 0, err
	}
	return resp.LikesCount, nil
}

func (c *Client) AddComment(ctx context.Context, postID int64, content string) (core.ForumComment, error) {
	var saved commentDTO
	path := fmt.Sprintf("/api/forum/posts/%d/comments", postID)
	if err := c.do(ctx, http.MethodPost, path, commentRequest{Content: content}, &saved); err != nil {
		return core.ForumComment{}, err
	}
	return saved.toCore(), nil
}

// Chat asks the finance assistant. Blank messages are rejected locally.
func (c *Client) Chat(ctx context.Context, message string) (core.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return core.ChatReply{}, fmt.Errorf("chat: empty message")
	}
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", chatRequest{Message: message}, &resp); err != nil {
		return core.ChatReply{}, err
	}
	return core.ChatReply{Reply: resp.Response}, nil
}
