package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/sqlite"
)

const (
	offlineReply     = "Coach unavailable: no API key configured."
	unreachableReply = "The coach could not be reached. Please try again later."
)

// ErrEmptyMessage is returned when the user sends a blank message.
var ErrEmptyMessage = errors.New("empty message")

// Recorder receives coach reply outcomes, e.g. for metrics.
type Recorder interface {
	CoachReplied(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) CoachReplied(string) {}

// Service runs the weekly coach conversations of the authenticated user.
type Service struct {
	repo     *repository
	client   Client
	logger   *slog.Logger
	now      func() time.Time
	recorder Recorder
}

// NewService creates a new coach service. recorder may be nil.
func NewService(db *sqlite.Database, client Client, logger *slog.Logger, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		repo:     newRepository(db),
		client:   client,
		logger:   logger,
		now:      time.Now,
		recorder: recorder,
	}
}

// Transcript returns the messages of the given week, oldest first.
func (s *Service) Transcript(ctx context.Context, week int) ([]Message, error) {
	messages, err := s.repo.weekMessages(ctx, contexthelpers.AuthenticatedUserID(ctx), week)
	if err != nil {
		return nil, fmt.Errorf("week messages: %w", err)
	}
	return messages, nil
}

// Weeks returns every week with a conversation, oldest first.
func (s *Service) Weeks(ctx context.Context) ([]Week, error) {
	weeks, err := s.repo.weeks(ctx, contexthelpers.AuthenticatedUserID(ctx))
	if err != nil {
		return nil, fmt.Errorf("weeks: %w", err)
	}
	return weeks, nil
}

// Send stores text as a user message of the given week and returns the coach's stored reply.
//
// The reply is a fixed notice when no language model is configured or the model fails. The failure is
// logged but not returned.
func (s *Service) Send(ctx context.Context, week int, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	userID := contexthelpers.AuthenticatedUserID(ctx)

	if err := s.repo.addMessage(ctx, userID, week, s.newMessage(RoleUser, text)); err != nil {
		return Message{}, err
	}

	weeks, err := s.repo.weeks(ctx, userID)
	if err != nil {
		return Message{}, fmt.Errorf("weeks: %w", err)
	}
	var transcript []Message
	for _, w := range weeks {
		if w.Number == week {
			transcript = w.Messages
		}
	}
	analysis := AnalyzePatterns(weeks)

	reply, err := s.client.Complete(ctx, SystemPrompt(analysis), transcript)
	switch {
	case errors.Is(err, ErrOffline):
		reply = offlineReply
		s.recorder.CoachReplied("offline")
	case err != nil:
		s.logger.LogAttrs(ctx, slog.LevelError, "coach reply failed", slog.Any("error", err), slog.Int("week", week))
		reply = unreachableReply
		s.recorder.CoachReplied("error")
	default:
		s.recorder.CoachReplied("ok")
	}

	msg := s.newMessage(RoleModel, reply)
	if err = s.repo.addMessage(ctx, userID, week, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// SummarizeWeek stores a summary of the week's conversation unless one exists or the week is empty.
func (s *Service) SummarizeWeek(ctx context.Context, week int) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if _, ok, err := s.repo.summary(ctx, userID, week); err != nil || ok {
		return err
	}
	transcript, err := s.repo.weekMessages(ctx, userID, week)
	if err != nil {
		return err
	}
	if len(transcript) == 0 {
		return nil
	}

	prompt := summaryPrompt(week, transcript)
	summary, err := s.client.Complete(ctx, prompt, nil)
	if errors.Is(err, ErrOffline) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("complete summary: %w", err)
	}
	if err = s.repo.putSummary(ctx, userID, week, summary); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "stored coach summary", slog.Int("week", week))
	return nil
}

func (s *Service) newMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: s.now(),
	}
}
