package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kunena-discord/database"
	"kunena-discord/discord"
	"kunena-discord/metrics"
	"kunena-discord/models"
	"kunena-discord/scanner"
	"kunena-discord/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Forum is everything the pipeline reads from the forum database.
type Forum interface {
	models.ForumStore
	models.UserDirectory
	models.RouteTable
	Post(ctx context.Context, postID int64) (*models.ForumPost, error)
	Ping(ctx context.Context) error
}

// Bot is the notification pipeline: detection, extraction, payload, delivery.
type Bot struct {
	Config    *models.Config
	Forum     Forum
	Processed models.ProcessedSet
	Scanner   *scanner.Scanner

	extractor *scanner.Extractor
	builder   *discord.Builder
	sender    *discord.Sender
	log       zerolog.Logger
	root      zerolog.Logger
	closers   []io.Closer
}

// NewBot opens the forum database and the processed-set backend named in cfg.
func NewBot(cfg *models.Config, log zerolog.Logger) (*Bot, error) {
	db, err := database.InitDB(cfg.Forum.Driver, cfg.Forum.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening forum database: %w", err)
	}
	forum := database.NewForumDB(db, cfg.Forum.Driver, cfg.Forum.TablePrefix, cfg.Forum.QueryTimeout)
	log.Info().Str("driver", cfg.Forum.Driver).Msg("connected to the forum database")

	processed, closer, err := openProcessed(cfg.Dedup)
	if err != nil {
		forum.Close()
		return nil, err
	}

	b := New(cfg, forum, processed, nil, log)
	b.closers = append(b.closers, forum)
	if closer != nil {
		b.closers = append(b.closers, closer)
	}
	return b, nil
}

func openProcessed(cfg models.DedupConfig) (models.ProcessedSet, io.Closer, error) {
	switch cfg.Backend {
	case "", "file":
		return database.NewProcessedFile(cfg.File), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		p := database.NewProcessedRedis(client, cfg.RedisKey)
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown dedup backend %q", cfg.Backend)
	}
}

// New assembles a Bot from already-open collaborators. A nil client gets one
// bounded by cfg.WebhookTimeout.
func New(cfg *models.Config, forum Forum, processed models.ProcessedSet, client *http.Client, log zerolog.Logger) *Bot {
	b := &Bot{
		Config:    cfg,
		Forum:     forum,
		Processed: processed,
		log:       utils.Module(log, "bot"),
		root:      log,
	}
	b.extractor = scanner.NewExtractor(forum, forum, forum,
		utils.StaticSiteRoot(cfg.Forum.SiteRoot), cfg.ContentLimit, utils.Module(log, "extractor"))
	b.builder = discord.NewBuilder(discord.PayloadOptions{
		FooterText:  cfg.FooterText,
		CustomColor: cfg.CustomColor,
		EmbedColor:  cfg.EmbedColor,
	}, utils.Module(log, "payload"))
	b.sender = discord.NewSender(client, cfg.WebhookTimeout, utils.Module(log, "webhook"))
	b.Scanner = scanner.New(forum, processed, b, utils.Module(log, "scanner"))
	return b
}

// Dispatch extracts, renders and sends one post. Failures are logged only.
func (b *Bot) Dispatch(ctx context.Context, post models.ForumPost) {
	log := b.log.With().
		Str("dispatch_id", uuid.NewString()).
		Int64("post_id", post.ID).
		Logger()

	if b.Config.Webhook == "" {
		log.Error().Msg("webhook URL not configured")
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}
	if err := discord.ValidateWebhookURL(b.Config.Webhook); err != nil {
		log.Error().Err(err).Msg("invalid Discord webhook URL")
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	rec := b.extractor.Extract(ctx, post)
	payload, err := b.builder.Build(rec)
	if err != nil {
		log.Error().Err(err).Msg("error building payload")
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return
	}

	if !b.sender.Send(ctx, b.Config.Webhook, payload) {
		metrics.NotificationsTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return
	}
	metrics.NotificationsTotal.WithLabelValues(metrics.ResultSent).Inc()
	log.Debug().Str("subject", rec.Subject).Msg("post notified")
}

// Notify sends postID regardless of the processed set and then marks it.
func (b *Bot) Notify(ctx context.Context, postID int64) error {
	post, err := b.Forum.Post(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("post %d does not exist", postID)
	}
	if err != nil {
		return err
	}
	b.Dispatch(ctx, *post)
	if err := b.Processed.MarkProcessed(ctx, post.ID); err != nil {
		return fmt.Errorf("error marking post %d as processed: %w", post.ID, err)
	}
	return nil
}

// Close releases the database and dedup connections.
func (b *Bot) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
