package timers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	msgInPast    = "Error: The specified time must be in the future."
	msgTooSoon   = "Error: Timer must be at least %s long."
	msgConfirm   = "To set the timer '%s' for %s (%s), press 👍 to confirm or ❌ to cancel."
	msgSet       = "Timer set for %s at %s."
	msgCancelled = "Timer setting canceled."
	msgExpired   = "⏰: '%s'"
)

// Scheduler validates timer requests, waits for confirmation and fires
// expired timers from the cron job.
type Scheduler struct {
	store     *Store
	out       core.Responder
	confirmer core.Confirmer
	notifier  core.Notifier
	minLead   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]core.TimerRequest
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithMinLead(d time.Duration) Option {
	return func(s *Scheduler) { s.minLead = d }
}

func NewScheduler(store *Store, out core.Responder, confirmer core.Confirmer, notifier core.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		out:       out,
		confirmer: confirmer,
		notifier:  notifier,
		minLead:   time.Minute,
		now:       time.Now,
		pending:   make(map[string]core.TimerRequest),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Request checks the requested time and asks the channel to confirm it.
func (s *Scheduler) Request(ctx context.Context, req core.TimerRequest) error {
	now := s.now()
	if !req.At.After(now) {
		return s.reply(ctx, req, msgInPast)
	}
	if req.At.Sub(now) < s.minLead {
		return s.reply(ctx, req, fmt.Sprintf(msgTooSoon, strings.TrimSpace(humanize.RelTime(now, now.Add(s.minLead), "", ""))))
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.pending[id] = req
	s.mu.Unlock()

	prompt := fmt.Sprintf(msgConfirm, req.Name, req.At.Format(time.RFC3339), humanize.RelTime(req.At, now, "ago", "from now"))
	if err := s.confirmer.Confirm(ctx, id, req, prompt); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		return fmt.Errorf("failed to ask for timer confirmation: %w", err)
	}

	log.FromCtx(ctx).Info().Str("pending", id).Str("name", req.Name).Time("at", req.At).Msg("timer awaiting confirmation")
	return nil
}

// Resolve applies a 👍 or ❌ press. 👍 sets the timer for whoever pressed it;
// ❌ only counts from the requester. It reports whether the pending request
// was consumed.
func (s *Scheduler) Resolve(ctx context.Context, pendingID, userID, userName string, approve bool) (bool, error) {
	s.mu.Lock()
	req, ok := s.pending[pendingID]
	if !ok || (!approve && userID != req.RequesterID) {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.pending, pendingID)
	s.mu.Unlock()

	if !approve {
		return true, s.reply(ctx, req, msgCancelled)
	}

	t := Timer{
		UserID:     userID,
		ChannelID:  req.ChannelID,
		Name:       req.Name,
		ExpireTime: req.At,
	}
	if err := s.store.Add(t); err != nil {
		return true, fmt.Errorf("failed to store timer: %w", err)
	}

	log.FromCtx(ctx).Info().Str("user", userID).Str("name", req.Name).Time("at", req.At).Msg("timer set")
	return true, s.reply(ctx, req, fmt.Sprintf(msgSet, userName, req.At.Format(time.RFC3339)))
}

// Check notifies and drops every expired timer.
func (s *Scheduler) Check(ctx context.Context) {
	logger := log.FromCtx(ctx)

	due, err := s.store.TakeExpired(s.now())
	if err != nil {
		logger.Error().Err(err).Msg("failed to check timers")
		return
	}

	for _, t := range due {
		logger.Info().Str("name", t.Name).Str("user", t.UserID).Msg("timer expired")
		if err := s.notifier.Notify(ctx, t.ChannelID, t.UserID, fmt.Sprintf(msgExpired, t.Name)); err != nil {
			logger.Error().Err(err).Str("channel", t.ChannelID).Msg("failed to deliver timer")
		}
	}
}

func (s *Scheduler) reply(ctx context.Context, req core.TimerRequest, text string) error {
	return s.out.Respond(ctx, req.ChannelID, req.ReplyToID, text)
}
