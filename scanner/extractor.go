package scanner

import (
	"context"
	"errors"
	"fmt"

	"kunena-discord/models"
	"kunena-discord/utils"

	"github.com/rs/zerolog"
)

// Field budgets and placeholders for notification records.
const (
	DefaultContentLimit = 1500
	nameLimit           = 250

	defaultAuthor  = "Unknown Author"
	defaultSubject = "New Forum Post"
	defaultContent = "No Content"
	topicSubject   = "New Topic"
	replySubject   = "Reply to Topic"

	noContent       = "[No content found]"
	unprocessable   = "[Content could not be processed]"
	extractErrorFmt = "[Error extracting content: %s]"
	topicURLFormat  = "%sindex.php?option=com_kunena&view=topic&catid=%d&id=%d&Itemid=%d#%d"
	replySubjectFmt = "Re: %s"
)

// Extractor builds notification records from forum rows. It never fails: lookup
// problems degrade individual fields and are logged.
type Extractor struct {
	store        models.ForumStore
	users        models.UserDirectory
	routes       models.RouteTable
	site         models.SiteRootProvider
	contentLimit int
	log          zerolog.Logger
}

// NewExtractor wires the forum collaborators. contentLimit <= 0 selects the default.
func NewExtractor(store models.ForumStore, users models.UserDirectory, routes models.RouteTable,
	site models.SiteRootProvider, contentLimit int, log zerolog.Logger) *Extractor {
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}
	return &Extractor{
		store:        store,
		users:        users,
		routes:       routes,
		site:         site,
		contentLimit: contentLimit,
		log:          log,
	}
}

// Extract returns the record for post.
func (e *Extractor) Extract(ctx context.Context, post models.ForumPost) models.NotificationRecord {
	rec := models.NotificationRecord{
		Author:  defaultAuthor,
		Subject: defaultSubject,
		Content: defaultContent,
		URL:     e.site.SiteRoot(),
	}
	if err := e.fill(ctx, post, &rec); err != nil {
		e.log.Error().Err(err).Int64("post_id", post.ID).Msg("error extracting message data")
		rec.Content = fmt.Sprintf(extractErrorFmt, err.Error())
	}
	return rec
}

// fill sets the fields in order and stops at the first hard error, leaving
// later fields at their defaults.
func (e *Extractor) fill(ctx context.Context, post models.ForumPost, rec *models.NotificationRecord) error {
	author, err := e.author(ctx, post)
	if err != nil {
		return err
	}
	rec.Author = author
	rec.Subject = e.subject(ctx, post)

	content, err := e.content(ctx, post)
	if err != nil {
		return err
	}
	rec.Content = content

	rec.URL = fmt.Sprintf(topicURLFormat, e.site.SiteRoot(), post.CatID, post.Thread, e.itemID(ctx), post.ID)
	return nil
}

func (e *Extractor) author(ctx context.Context, post models.ForumPost) (string, error) {
	if post.Name != "" {
		return utils.Truncate(post.Name, nameLimit), nil
	}
	if post.UserID <= 0 {
		return defaultAuthor, nil
	}

	user, err := e.users.ResolveUser(ctx, post.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return defaultAuthor, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve author: %w", err)
	}

	name := user.DisplayName
	if name == "" {
		name = user.LoginName
	}
	if name == "" {
		return defaultAuthor, nil
	}
	return utils.Truncate(name, nameLimit), nil
}

func (e *Extractor) subject(ctx context.Context, post models.ForumPost) string {
	if post.IsTopic() {
		if post.Subject == "" {
			return topicSubject
		}
		return utils.Truncate(post.Subject, nameLimit)
	}

	root, err := e.store.RootSubject(ctx, post.Thread)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		e.log.Warn().Err(err).Int64("thread", post.Thread).Msg("root subject lookup failed")
	}
	if err != nil || root == "" {
		return replySubject
	}
	return utils.Truncate(fmt.Sprintf(replySubjectFmt, root), nameLimit)
}

func (e *Extractor) content(ctx context.Context, post models.ForumPost) (string, error) {
	body, err := e.store.PostBody(ctx, post.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("load body: %w", err)
	}
	if body == "" {
		e.log.Debug().Int64("post_id", post.ID).Msg("no content found in kunena_messages_text")
		return noContent, nil
	}

	content := utils.Truncate(utils.CleanContent(body), e.contentLimit)
	if content == "" {
		return unprocessable, nil
	}
	return content, nil
}

// itemID resolves the forum's menu item, or 0.
func (e *Extractor) itemID(ctx context.Context) int64 {
	id, err := e.routes.FirstPublishedForumRoute(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("error getting Kunena item ID")
		return 0
	}
	return id
}
