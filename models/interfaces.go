package models

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups that match no row.
var ErrNotFound = errors.New("not found")

// ForumStore reads posts from the forum database. LatestPost, PostBody and
// RootSubject return ErrNotFound when nothing matches.
type ForumStore interface {
	ListRecentPosts(ctx context.Context, since time.Time, limit int) ([]ForumPost, error)
	LatestPost(ctx context.Context) (*ForumPost, error)
	PostBody(ctx context.Context, postID int64) (string, error)
	RootSubject(ctx context.Context, threadID int64) (string, error)
}

// UserDirectory resolves forum user IDs.
type UserDirectory interface {
	ResolveUser(ctx context.Context, userID int64) (*ForumUser, error)
}

// RouteTable looks up the menu item that serves the forum.
type RouteTable interface {
	FirstPublishedForumRoute(ctx context.Context) (int64, error)
}

// SiteRootProvider returns the public base URL of the site, with a trailing slash.
type SiteRootProvider interface {
	SiteRoot() string
}

// RequestContext exposes the parts of an inbound request the detection hooks inspect.
type RequestContext interface {
	IsAdminContext() bool
	QueryParam(name string) string
	HTTPMethod() string
}

// ProcessedSet remembers which posts have already been sent to Discord.
type ProcessedSet interface {
	HasProcessed(ctx context.Context, postID int64) (bool, error)
	MarkProcessed(ctx context.Context, postID int64) error
}
