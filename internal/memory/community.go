package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finboard/internal/core"
)

func (s *Store) ListPosts(_ context.Context) ([]core.ForumPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("ListPosts", 0); err != nil {
		return nil, err
	}
	out := make([]core.ForumPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetPost(_ context.Context, id int64) (core.ForumPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return core.ForumPost{}, notFound("post", id)
	}
	return p, nil
}

func (s *Store) CreatePost(_ context.Context, p core.ForumPost) (core.ForumPost, error) {
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
		return core.ForumPost{}, fmt.Errorf("title and content are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CreatePost", 0); err != nil {
		return core.ForumPost{}, err
	}
	p.ID = s.id()
	p.Author = s.profile.DisplayName()
	p.AuthorID = s.userID
	p.Likes = 0
	p.Comments = nil
	p.At = s.now()
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePost(_ context.Context, p core.ForumPost) (core.ForumPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("UpdatePost", p.ID); err != nil {
		return core.ForumPost{}, err
	}
	old, ok := s.posts[p.ID]
	if !ok {
		return core.ForumPost{}, notFound("post", p.ID)
	}
	old.Title = p.Title
	old.Content = p.Content
	old.Category = p.Category
	s.posts[p.ID] = old
	return old, nil
}

func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeletePost", id); err != nil {
		return err
	}
	p, ok := s.posts[id]
	if !ok {
		return notFound("post", id)
	}
	if p.AuthorID != s.userID {
		return fmt.Errorf("post %d belongs to another user", id)
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) LikePost(_ context.Context, id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return 0, notFound("post", id)
	}
	p.Likes++
	s.posts[id] = p
	return p.Likes, nil
}

func (s *Store) AddComment(_ context.Context, postID int64, content string) (core.ForumComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return core.ForumComment{}, notFound("post", postID)
	}
	c := core.ForumComment{ID: s.id(), Author: s.profile.DisplayName(), Content: content, At: s.now()}
	p.Comments = append(p.Comments, c)
	s.posts[postID] = p
	return c, nil
}

// Chat answers from the stored figures. There is no language model offline.
func (s *Store) Chat(ctx context.Context, message string) (core.ChatReply, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return core.ChatReply{}, err
	}
	s.mu.Lock()
	currency := s.profile.PreferredCurrency
	s.mu.Unlock()
	if currency == "" {
		currency = "INR"
	}
	reply := fmt.Sprintf("You asked: %q. Total income %s %s, total expenses %s %s, net balance %s %s. Top spending category: %s.",
		strings.TrimSpace(message),
		sum.TotalIncome, currency, sum.TotalExpenses, currency, sum.NetSavings, currency,
		sum.TopSpendingCategory)
	return core.ChatReply{Reply: reply}, nil
}
