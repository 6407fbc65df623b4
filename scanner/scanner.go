package scanner

import (
	"context"
	"errors"
	"time"

	"kunena-discord/metrics"
	"kunena-discord/models"
	"kunena-discord/utils"

	"github.com/rs/zerolog"
)

// Detection windows.
const (
	LatestWindow = 10 * time.Second
	RecentWindow = 30 * time.Second
	RecentLimit  = 5
)

// Dispatcher sends one post to Discord. Implementations log their own failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, post models.ForumPost)
}

// Scanner finds fresh posts and hands the unseen ones to the dispatcher.
// Every error is logged and swallowed.
type Scanner struct {
	store      models.ForumStore
	processed  models.ProcessedSet
	dispatcher Dispatcher
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Scanner.
func New(store models.ForumStore, processed models.ProcessedSet, dispatcher Dispatcher, log zerolog.Logger) *Scanner {
	return &Scanner{
		store:      store,
		processed:  processed,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// CheckLatest processes the newest post if it was created within LatestWindow.
// It reports how many posts were dispatched.
func (s *Scanner) CheckLatest(ctx context.Context) int {
	post, err := s.store.LatestPost(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return 0
	}
	if err != nil {
		s.log.Error().Err(err).Msg("error in latest post check")
		return 0
	}

	if !utils.WindowEndingAt(s.now(), LatestWindow).Contains(post.Time) {
		return 0
	}
	if s.process(ctx, *post) {
		return 1
	}
	return 0
}

// CheckRecent processes up to limit posts created within window, newest first.
// Non-positive arguments select RecentWindow and RecentLimit.
func (s *Scanner) CheckRecent(ctx context.Context, window time.Duration, limit int) int {
	if window <= 0 {
		window = RecentWindow
	}
	if limit <= 0 {
		limit = RecentLimit
	}

	posts, err := s.store.ListRecentPosts(ctx, utils.WindowEndingAt(s.now(), window).Since(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("error in recent posts check")
		return 0
	}

	dispatched := 0
	for _, post := range posts {
		if s.process(ctx, post) {
			dispatched++
		}
	}
	return dispatched
}

// process dispatches post unless it was seen before, then marks it. The mark
// happens whatever the delivery outcome, so failed sends are not retried.
func (s *Scanner) process(ctx context.Context, post models.ForumPost) bool {
	seen, err := s.processed.HasProcessed(ctx, post.ID)
	if err != nil {
		// A duplicate beats a lost notification.
		metrics.DedupErrorsTotal.WithLabelValues("has").Inc()
		s.log.Error().Err(err).Int64("post_id", post.ID).Msg("processed lookup failed, treating as new")
	}
	if seen {
		return false
	}

	s.log.Debug().Int64("post_id", post.ID).Msg("processing new message")
	s.dispatcher.Dispatch(ctx, post)

	if err := s.processed.MarkProcessed(ctx, post.ID); err != nil {
		metrics.DedupErrorsTotal.WithLabelValues("mark").Inc()
		s.log.Error().Err(err).Int64("post_id", post.ID).Msg("failed to mark message as processed")
	}
	return true
}
