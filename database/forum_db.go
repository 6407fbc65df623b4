package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kunena-discord/models"
)

const selectPost = `SELECT id, thread, parent, catid, name, userid, subject, time FROM #__kunena_messages`

// forumRouteLink matches menu items whose target is the Kunena component.
const forumRouteLink = "%option=com_kunena%"

// ForumDB reads the Joomla/Kunena schema. It implements models.ForumStore,
// models.UserDirectory and models.RouteTable.
type ForumDB struct {
	db      *sql.DB
	driver  string
	prefix  string
	timeout time.Duration
}

// NewForumDB wraps an open connection. prefix replaces Joomla's "#__" table
// prefix; timeout bounds every query when positive.
func NewForumDB(db *sql.DB, driver, prefix string, timeout time.Duration) *ForumDB {
	return &ForumDB{
		db:      db,
		driver:  driver,
		prefix:  prefix,
		timeout: timeout,
	}
}

// Close closes the underlying connection pool.
func (f *ForumDB) Close() error {
	return f.db.Close()
}

// Ping checks that the database is reachable.
func (f *ForumDB) Ping(ctx context.Context) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()
	return f.db.PingContext(ctx)
}

func (f *ForumDB) query(q string) string {
	return rebind(f.driver, strings.ReplaceAll(q, "#__", f.prefix))
}

func (f *ForumDB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.timeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.ForumPost, error) {
	var (
		p       models.ForumPost
		name    sql.NullString
		userID  sql.NullInt64
		subject sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Thread, &p.Parent, &p.CatID, &name, &userID, &subject, &p.Time); err != nil {
		return p, err
	}
	p.Name = name.String
	p.UserID = userID.Int64
	p.Subject = subject.String
	return p, nil
}

// LatestPost returns the most recently created post.
func (f *ForumDB) LatestPost(ctx context.Context) (*models.ForumPost, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	p, err := scanPost(f.db.QueryRowContext(ctx, f.query(selectPost+` ORDER BY time DESC LIMIT 1`)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest post: %w", err)
	}
	return &p, nil
}

// Post returns a single post by ID.
func (f *ForumDB) Post(ctx context.Context, postID int64) (*models.ForumPost, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	p, err := scanPost(f.db.QueryRowContext(ctx, f.query(selectPost+` WHERE id = ?`), postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post %d: %w", postID, err)
	}
	return &p, nil
}

// ListRecentPosts returns up to limit posts created strictly after since,
// newest first.
func (f *ForumDB) ListRecentPosts(ctx context.Context, since time.Time, limit int) ([]models.ForumPost, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	rows, err := f.db.QueryContext(ctx, f.query(selectPost+` WHERE time > ? ORDER BY time DESC LIMIT ?`), since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent posts: %w", err)
	}
	defer rows.Close()

	var posts []models.ForumPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent posts: %w", err)
	}
	return posts, nil
}

// PostBody returns the raw markup of a post. A NULL body reads as "".
func (f *ForumDB) PostBody(ctx context.Context, postID int64) (string, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var body sql.NullString
	err := f.db.QueryRowContext(ctx, f.query(`SELECT message FROM #__kunena_messages_text WHERE mesid = ?`), postID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query body of post %d: %w", postID, err)
	}
	return body.String, nil
}

// RootSubject returns the subject of the post that opened threadID.
func (f *ForumDB) RootSubject(ctx context.Context, threadID int64) (string, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var subject sql.NullString
	err := f.db.QueryRowContext(ctx,
		f.query(`SELECT subject FROM #__kunena_messages WHERE thread = ? AND parent = 0 ORDER BY id ASC LIMIT 1`),
		threadID,
	).Scan(&subject)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query root subject of thread %d: %w", threadID, err)
	}
	return subject.String, nil
}

// ResolveUser looks up a Joomla user.
func (f *ForumDB) ResolveUser(ctx context.Context, userID int64) (*models.ForumUser, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var name, username sql.NullString
	err := f.db.QueryRowContext(ctx, f.query(`SELECT name, username FROM #__users WHERE id = ?`), userID).Scan(&name, &username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", userID, err)
	}
	return &models.ForumUser{DisplayName: name.String, LoginName: username.String}, nil
}

// FirstPublishedForumRoute returns the lowest published menu item ID that links
// to the forum, or 0 when there is none.
func (f *ForumDB) FirstPublishedForumRoute(ctx context.Context) (int64, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	var id int64
	err := f.db.QueryRowContext(ctx,
		f.query(`SELECT id FROM #__menu WHERE link LIKE ? AND published = 1 ORDER BY id ASC LIMIT 1`),
		forumRouteLink,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query forum menu item: %w", err)
	}
	return id, nil
}
