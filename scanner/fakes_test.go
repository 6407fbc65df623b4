package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"kunena-discord/models"
)

// fakeForum is an in-memory forum implementing the store, user and route interfaces.
type fakeForum struct {
	posts    []models.ForumPost
	bodies   map[int64]string
	users    map[int64]models.ForumUser
	itemID   int64
	bodyErr  error
	userErr  error
	routeErr error
	listErr  error
}

func (f *fakeForum) LatestPost(context.Context) (*models.ForumPost, error) {
	if len(f.posts) == 0 {
		return nil, models.ErrNotFound
	}
	latest := f.posts[0]
	for _, p := range f.posts[1:] {
		if p.Time > latest.Time {
			latest = p
		}
	}
	return &latest, nil
}

func (f *fakeForum) ListRecentPosts(_ context.Context, since time.Time, limit int) ([]models.ForumPost, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.ForumPost
	for _, p := range f.posts {
		if p.Time > since.Unix() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time > out[j].Time })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeForum) PostBody(_ context.Context, postID int64) (string, error) {
	if f.bodyErr != nil {
		return "", f.bodyErr
	}
	body, ok := f.bodies[postID]
	if !ok {
		return "", models.ErrNotFound
	}
	return body, nil
}

func (f *fakeForum) RootSubject(_ context.Context, threadID int64) (string, error) {
	for _, p := range f.posts {
		if p.Thread == threadID && p.Parent == 0 {
			return p.Subject, nil
		}
	}
	return "", models.ErrNotFound
}

func (f *fakeForum) ResolveUser(_ context.Context, userID int64) (*models.ForumUser, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (f *fakeForum) FirstPublishedForumRoute(context.Context) (int64, error) {
	return f.itemID, f.routeErr
}

type memProcessed struct {
	mu     sync.Mutex
	ids    map[int64]bool
	hasErr error
}

func newMemProcessed(ids ...int64) *memProcessed {
	m := &memProcessed{ids: map[int64]bool{}}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *memProcessed) HasProcessed(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasErr != nil {
		return false, m.hasErr
	}
	return m.ids[id], nil
}

func (m *memProcessed) MarkProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = true
	return nil
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []int64
}

func (d *recordingDispatcher) Dispatch(_ context.Context, post models.ForumPost) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, post.ID)
}
