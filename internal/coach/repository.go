package coach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/myrjola/gympal/internal/sqlite"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// repository stores coach transcripts and weekly summaries.
type repository struct {
	db *sqlite.Database
}

func newRepository(db *sqlite.Database) *repository {
	return &repository{db: db}
}

func (r *repository) addMessage(ctx context.Context, userID int, week int, m Message) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO coach_messages (id, user_id, week_number, role, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, userID, week, string(m.Role), m.Text, m.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert coach message: %w", err)
	}
	return nil
}

func (r *repository) weekMessages(ctx context.Context, userID int, week int) ([]Message, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, role, text, created_at
		FROM coach_messages
		WHERE user_id = ? AND week_number = ?
		ORDER BY created_at, rowid`, userID, week)
	if err != nil {
		return nil, fmt.Errorf("query coach messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		m, scanErr := scanMessage(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coach messages: %w", err)
	}
	return messages, nil
}

// weeks returns every week with at least one message, oldest first, together with its summary.
func (r *repository) weeks(ctx context.Context, userID int) ([]Week, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT m.week_number, m.id, m.role, m.text, m.created_at, COALESCE(s.summary, '')
		FROM coach_messages m
		LEFT JOIN coach_summaries s ON s.user_id = m.user_id AND s.week_number = m.week_number
		WHERE m.user_id = ?
		ORDER BY m.week_number, m.created_at, m.rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query coach weeks: %w", err)
	}
	defer rows.Close()

	var weeks []Week
	for rows.Next() {
		var (
			week    int
			summary string
			m       Message
			role    string
			created string
		)
		if err = rows.Scan(&week, &m.ID, &role, &m.Text, &created, &summary); err != nil {
			return nil, fmt.Errorf("scan coach week: %w", err)
		}
		m.Role = Role(role)
		if m.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if len(weeks) == 0 || weeks[len(weeks)-1].Number != week {
			weeks = append(weeks, Week{Number: week, Messages: nil, Summary: summary})
		}
		weeks[len(weeks)-1].Messages = append(weeks[len(weeks)-1].Messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coach weeks: %w", err)
	}
	return weeks, nil
}

func (r *repository) summary(ctx context.Context, userID int, week int) (string, bool, error) {
	var summary string
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT summary FROM coach_summaries WHERE user_id = ? AND week_number = ?`, userID, week).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query coach summary: %w", err)
	}
	return summary, true, nil
}

func (r *repository) putSummary(ctx context.Context, userID int, week int, summary string) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO coach_summaries (user_id, week_number, summary) VALUES (?, ?, ?)
		ON CONFLICT (user_id, week_number) DO NOTHING`, userID, week, summary)
	if err != nil {
		return fmt.Errorf("insert coach summary: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (Message, error) {
	var (
		m       Message
		role    string
		created string
	)
	if err := s.Scan(&m.ID, &role, &m.Text, &created); err != nil {
		return Message{}, fmt.Errorf("scan coach message: %w", err)
	}
	m.Role = Role(role)
	var err error
	if m.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return Message{}, fmt.Errorf("parse created_at: %w", err)
	}
	return m, nil
}
