package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kunena-discord/metrics"
	"kunena-discord/scanner"
	"kunena-discord/utils"

	"github.com/rs/zerolog"
)

// Checker is the detection surface of the scanner.
type Checker interface {
	CheckLatest(ctx context.Context) int
	CheckRecent(ctx context.Context, window time.Duration, limit int) int
}

// Hooks runs detection around proxied forum requests.
type Hooks struct {
	checker     Checker
	adminPrefix string
	log         zerolog.Logger
	running     sync.WaitGroup
}

// NewHooks creates the request hooks. Paths under adminPrefix never trigger.
func NewHooks(checker Checker, adminPrefix string, log zerolog.Logger) *Hooks {
	return &Hooks{
		checker:     checker,
		adminPrefix: adminPrefix,
		log:         log,
	}
}

// RenderCheck looks for a post created in the last few seconds once a public
// forum page that may follow a submission has been served. The page is flushed
// to the client before the check runs.
func (h *Hooks) RenderCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.running.Add(1)
		defer h.running.Done()

		rc := utils.NewRequestContext(r, h.adminPrefix)
		next.ServeHTTP(w, r)
		if !utils.IsForumRender(rc) {
			return
		}

		_ = http.NewResponseController(w).Flush()
		ctx := context.WithoutCancel(r.Context())
		h.safely("render", func() {
			metrics.DetectionRunsTotal.WithLabelValues("render").Inc()
			h.checker.CheckLatest(ctx)
		})
	})
}

// RouteCheck schedules a recency check after every public forum POST. The
// check runs once the response is done and is never awaited by the client.
func (h *Hooks) RouteCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Counted from the start so Wait cannot miss a check the response
		// already announced.
		h.running.Add(1)
		handedOff := false
		defer func() {
			if !handedOff {
				h.running.Done()
			}
		}()

		rc := utils.NewRequestContext(r, h.adminPrefix)
		next.ServeHTTP(w, r)
		if !utils.IsForumSubmission(rc) {
			return
		}

		ctx := context.WithoutCancel(r.Context())
		handedOff = true
		go func() {
			defer h.running.Done()
			h.safely("route", func() {
				metrics.DetectionRunsTotal.WithLabelValues("route").Inc()
				h.checker.CheckRecent(ctx, scanner.RecentWindow, scanner.RecentLimit)
			})
		}()
	})
}

// Wait blocks until running checks, deferred ones included, finish or ctx is done.
func (h *Hooks) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safely keeps a failing check from taking the request down with it.
func (h *Hooks) safely(trigger string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Str("trigger", trigger).Interface("panic", rec).Msg("detection check panicked")
		}
	}()
	fn()
}
