package bot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/service/timers"
	"github.com/sandevgo/brotherbot/pkg/log"
)

const (
	msgBadAbsolute = "Invalid datetime format. Please use ISO 8601 format (YYYY-MM-DDTHH:MM)."
	msgBadRelative = "Invalid time format. Please provide time in HH:MM, HH:MM:SS or DD:HH:MM:SS format."
)

type timerArgs struct {
	Name         string `json:"name"`
	Time         string `json:"time"`
	RelativeTime string `json:"relative_time"`
}

type TimerTool struct {
	scheduler core.Scheduler
	out       core.Responder
	now       func() time.Time
	loc       *time.Location
}

func NewTimerTool(scheduler core.Scheduler, out core.Responder) *TimerTool {
	return &TimerTool{
		scheduler: scheduler,
		out:       out,
		now:       time.Now,
		loc:       time.Local,
	}
}

func (t *TimerTool) Name() string { return core.ToolTimer }

func (t *TimerTool) Handle(ctx context.Context, trigger core.Inbound, call core.ToolCall) error {
	logger := log.FromCtx(ctx)

	var args timerArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		logger.Warn().Err(err).Str("arguments", call.Function.Arguments).Msg("malformed timer arguments")
		return nil
	}

	var at time.Time
	switch {
	case args.Time != "":
		parsed, err := timers.ParseAbsolute(args.Time, t.loc)
		if err != nil {
			return t.reply(ctx, trigger, msgBadAbsolute)
		}
		at = parsed
	case args.RelativeTime != "":
		d, err := timers.ParseRelative(args.RelativeTime)
		if err != nil {
			return t.reply(ctx, trigger, msgBadRelative)
		}
		at = t.now().Add(d)
	default:
		logger.Warn().Str("name", args.Name).Msg("timer call without time or relative_time")
		return nil
	}

	return t.scheduler.Request(ctx, core.TimerRequest{
		Name:        args.Name,
		At:          at,
		ChannelID:   trigger.ChannelID,
		RequesterID: trigger.AuthorID,
		ReplyToID:   trigger.ID,
	})
}

func (t *TimerTool) reply(ctx context.Context, trigger core.Inbound, text string) error {
	return t.out.Respond(ctx, trigger.ChannelID, trigger.ID, text)
}
