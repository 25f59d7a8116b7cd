package navigation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mevellea/telegram-menu/core/logger"
	"github.com/mevellea/telegram-menu/core/menu"
)

// pollState tracks the single outstanding poll of a session while it awaits
// an answer.
type pollState struct {
	msgID   int
	options []string
	answer  menu.Handler
	jobID   string
}

// startPoll runs the poll sub-protocol entry: any outstanding poll is forced
// back to idle first, then the new poll is sent and a one-shot deadline is
// armed. At most one poll is ever awaiting an answer.
func (s *Session) startPoll(ctx context.Context, b menu.Button) {
	if b.Poll == nil || len(b.Poll.Options) == 0 {
		logger.Warn(ctx, "nav", "poll.misconfigured",
			slog.Int64("chat_id", s.chatID),
			slog.String("button", b.Label),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forcePollIdle(ctx)

	id, err := s.transport.SendPoll(ctx, s.chatID, b.Poll.Question, b.Poll.Options, s.opts.PollDeadline)
	if err != nil {
		logger.Error(ctx, "nav", "poll.send.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
		return
	}
	jobID := s.pollJobID()
	if err := s.sched.AddOneShot(s.opts.PollDeadline, jobID, func() {
		s.pollDeadline(context.Background())
	}, true); err != nil {
		logger.Error(ctx, "nav", "poll.deadline.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("job_id", jobID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
	s.poll = &pollState{
		msgID:   id,
		options: append([]string(nil), b.Poll.Options...),
		answer:  b.Action.Handler(),
		jobID:   jobID,
	}
	logger.Debug(ctx, "nav", "poll.open",
		slog.Int64("chat_id", s.chatID),
		slog.Int("msg_id", id),
		slog.String("job_id", jobID),
	)
}

// forcePollIdle cancels the deadline timer and deletes the poll message
// without invoking the answer callback. Caller holds the lock.
func (s *Session) forcePollIdle(ctx context.Context) {
	if s.poll == nil {
		return
	}
	s.sched.Cancel(s.poll.jobID)
	s.deletePollMessage(ctx, s.poll.msgID)
	s.poll = nil
}

// OnPollAnswer completes the poll sub-protocol: the deadline timer is
// cancelled, the poll message deleted, and the bound callback invoked with
// the selected option's text. Answers with no open poll, or with an
// out-of-range option index, are logged and dropped.
func (s *Session) OnPollAnswer(ctx context.Context, optionIndex int) {
	s.mu.Lock()
	if s.poll == nil {
		s.mu.Unlock()
		logger.Warn(ctx, "nav", "poll.answer.idle", slog.Int64("chat_id", s.chatID))
		return
	}
	if optionIndex < 0 || optionIndex >= len(s.poll.options) {
		s.mu.Unlock()
		logger.Warn(ctx, "nav", "poll.answer.range",
			slog.Int64("chat_id", s.chatID),
			slog.Int("option_index", optionIndex),
		)
		return
	}
	answer := s.poll.answer
	option := s.poll.options[optionIndex]
	s.sched.Cancel(s.poll.jobID)
	s.deletePollMessage(ctx, s.poll.msgID)
	s.poll = nil
	s.lastUserActivityAt = s.opts.Now()
	s.mu.Unlock()

	logger.Debug(ctx, "nav", "poll.answer",
		slog.Int64("chat_id", s.chatID),
		slog.String("option", option),
	)
	if answer == nil {
		return
	}
	if _, err := answer(ctx, option); err != nil {
		logger.Error(ctx, "nav", "poll.handler.fail",
			slog.Int64("chat_id", s.chatID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
}

// pollDeadline fires when no answer arrived in time. The poll message is
// deleted and no callback runs.
func (s *Session) pollDeadline(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll == nil {
		return
	}
	logger.Debug(ctx, "nav", "poll.deadline",
		slog.Int64("chat_id", s.chatID),
		slog.Int("msg_id", s.poll.msgID),
	)
	s.deletePollMessage(ctx, s.poll.msgID)
	s.poll = nil
}

func (s *Session) deletePollMessage(ctx context.Context, msgID int) {
	if msgID == menu.UnsentID {
		return
	}
	if err := s.transport.DeleteMessage(ctx, s.chatID, msgID); err != nil && !errors.Is(err, ErrMessageGone) {
		logger.Error(ctx, "nav", "poll.delete.fail",
			slog.Int64("chat_id", s.chatID),
			slog.Int("msg_id", msgID),
			slog.String("cause", logger.Sanitize(err.Error())),
		)
	}
}
