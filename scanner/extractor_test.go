package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kunena-discord/models"
	"kunena-discord/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testRoot = "https://forum.test/"

func helloForum() *fakeForum {
	return &fakeForum{
		posts: []models.ForumPost{
			{ID: 42, Thread: 42, Parent: 0, CatID: 3, Name: "Alice", UserID: 5, Subject: "Hello", Time: 100},
			{ID: 43, Thread: 42, Parent: 42, CatID: 3, UserID: 6, Time: 110},
		},
		bodies: map[int64]string{
			42: "[b]Hi there[/b] <i>world</i>",
			43: "Agreed &amp; thanks",
		},
		users: map[int64]models.ForumUser{
			5: {DisplayName: "Alice Smith", LoginName: "alice"},
			6: {LoginName: "bob"},
		},
		itemID: 103,
	}
}

func newTestExtractor(f *fakeForum, limit int) *Extractor {
	return NewExtractor(f, f, f, utils.StaticSiteRoot(testRoot), limit, zerolog.Nop())
}

func TestExtractTopic(t *testing.T) {
	f := helloForum()
	rec := newTestExtractor(f, 0).Extract(context.Background(), f.posts[0])

	require.Equal(t, "Alice", rec.Author)
	require.Equal(t, "Hello", rec.Subject)
	require.Equal(t, "Hi there world", rec.Content)
	require.Equal(t, testRoot+"index.php?option=com_kunena&view=topic&catid=3&id=42&Itemid=103#42", rec.URL)
}

func TestExtractReply(t *testing.T) {
	f := helloForum()
	rec := newTestExtractor(f, 0).Extract(context.Background(), f.posts[1])

	require.Equal(t, "bob", rec.Author)
	require.Equal(t, "Re: Hello", rec.Subject)
	require.Equal(t, "Agreed & thanks", rec.Content)
	require.True(t, strings.HasSuffix(rec.URL, "&id=42&Itemid=103#43"))
}

func TestExtractReplyWithoutRoot(t *testing.T) {
	f := helloForum()
	orphan := models.ForumPost{ID: 50, Thread: 77, Parent: 76, CatID: 1, Name: "Zed", Time: 1}
	rec := newTestExtractor(f, 0).Extract(context.Background(), orphan)

	require.Equal(t, "Reply to Topic", rec.Subject)
	require.Equal(t, "[No content found]", rec.Content)
}

func TestExtractAuthorFallbacks(t *testing.T) {
	f := helloForum()
	e := newTestExtractor(f, 0)
	ctx := context.Background()

	rec := e.Extract(ctx, models.ForumPost{ID: 1, UserID: 5, Subject: "s"})
	require.Equal(t, "Alice Smith", rec.Author)

	rec = e.Extract(ctx, models.ForumPost{ID: 1, UserID: 404, Subject: "s"})
	require.Equal(t, "Unknown Author", rec.Author)

	rec = e.Extract(ctx, models.ForumPost{ID: 1, Subject: "s"})
	require.Equal(t, "Unknown Author", rec.Author)

	rec = e.Extract(ctx, models.ForumPost{ID: 1, Name: strings.Repeat("n", 300)})
	require.LessOrEqual(t, len(rec.Author), 250)
	require.Equal(t, "New Topic", rec.Subject)
}

func TestExtractContentPlaceholders(t *testing.T) {
	f := helloForum()
	f.bodies[42] = "[quote][/quote]   <br/>"
	e := newTestExtractor(f, 0)

	rec := e.Extract(context.Background(), f.posts[0])
	require.Equal(t, "[Content could not be processed]", rec.Content)

	delete(f.bodies, 42)
	rec = e.Extract(context.Background(), f.posts[0])
	require.Equal(t, "[No content found]", rec.Content)
}

func TestExtractContentLimit(t *testing.T) {
	f := helloForum()
	f.bodies[42] = strings.Repeat("word ", 100)

	rec := newTestExtractor(f, 50).Extract(context.Background(), f.posts[0])
	require.LessOrEqual(t, len(rec.Content), 50)
	require.True(t, strings.HasSuffix(rec.Content, "..."))
}

func TestExtractDegradesOnStoreError(t *testing.T) {
	f := helloForum()
	f.bodyErr = errors.New("connection reset")

	rec := newTestExtractor(f, 0).Extract(context.Background(), f.posts[0])
	require.Equal(t, "Alice", rec.Author)
	require.Equal(t, "Hello", rec.Subject)
	require.Equal(t, "[Error extracting content: load body: connection reset]", rec.Content)
	require.Equal(t, testRoot, rec.URL)
}

func TestExtractUserLookupError(t *testing.T) {
	f := helloForum()
	f.userErr = errors.New("timeout")

	rec := newTestExtractor(f, 0).Extract(context.Background(), f.posts[1])
	require.Equal(t, "Unknown Author", rec.Author)
	require.Equal(t, "New Forum Post", rec.Subject)
	require.Contains(t, rec.Content, "[Error extracting content: resolve author: timeout]")
}

func TestExtractRouteErrorUsesZero(t *testing.T) {
	f := helloForum()
	f.routeErr = errors.New("menu table missing")

	rec := newTestExtractor(f, 0).Extract(context.Background(), f.posts[0])
	require.Contains(t, rec.URL, "&Itemid=0#42")
	require.Equal(t, "Hi there world", rec.Content)
}
