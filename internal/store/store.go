// Package store persists webhook messages in SQLite and serves the read
// models built over them. Insert relies on the primary key on message_id for
// idempotency: the insert is attempted unconditionally and a constraint
// violation is reported as OutcomeDuplicate. There is no check-then-insert
// window, so concurrent deliveries of the same message_id see exactly one
// OutcomeCreated.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

const sendersRankingLimit = 10

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert persists msg if its message_id is unused and reports which way it
// went. CreatedAt is stamped here, at insert time; on OutcomeDuplicate the
// stored row (including its original created_at) is left untouched. Storage
// errors other than the uniqueness violation propagate to the caller.
func (s *Store) Insert(ctx context.Context, msg *Message) (Outcome, error) {
	if msg.MessageID == "" {
		return "", fmt.Errorf("message_id is empty")
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO messages(message_id, from_msisdn, to_msisdn, ts, text, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, msg.MessageID, msg.FromMSISDN, msg.ToMSISDN, msg.TS, textArg(msg.Text), createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return OutcomeDuplicate, nil
		}
		return "", fmt.Errorf("insert message: %w", err)
	}

	msg.CreatedAt = createdAt
	return OutcomeCreated, nil
}

// List returns messages matching filter, windowed by limit/offset, ordered by
// (ts, message_id) ascending. The returned total counts every matching row
// regardless of the window.
func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Message, int, error) {
	where, params := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM messages" + where
	if err := s.db.QueryRowContext(ctx, countQuery, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	query := `
SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
FROM messages` + where + `
ORDER BY ts ASC, message_id ASC
LIMIT ? OFFSET ?;`
	params = append(params, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var (
			m    Message
			text sql.NullString
		)
		if err := rows.Scan(&m.MessageID, &m.FromMSISDN, &m.ToMSISDN, &m.TS, &text, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		if text.Valid {
			m.Text = &text.String
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, total, nil
}

// Stats computes the rich aggregate projection: totals, distinct senders, the
// top senders ranking and the first/last event timestamps. On an empty table
// the ranking is empty and both timestamps are nil.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		MessagesPerSender: make([]SenderCount, 0, sendersRankingLimit),
	}

	var firstTS, lastTS sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts) FROM messages;
`).Scan(&stats.TotalMessages, &stats.SendersCount, &firstTS, &lastTS)
	if err != nil {
		return nil, fmt.Errorf("aggregate messages: %w", err)
	}
	if firstTS.Valid {
		stats.FirstMessageTS = &firstTS.String
	}
	if lastTS.Valid {
		stats.LastMessageTS = &lastTS.String
	}

	// Ties broken by msisdn so repeated calls return identical order.
	rows, err := s.db.QueryContext(ctx, `
SELECT from_msisdn, COUNT(*) AS n
FROM messages
GROUP BY from_msisdn
ORDER BY n DESC, from_msisdn ASC
LIMIT ?;
`, sendersRankingLimit)
	if err != nil {
		return nil, fmt.Errorf("rank senders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc SenderCount
		if err := rows.Scan(&sc.MSISDN, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan sender count: %w", err)
		}
		stats.MessagesPerSender = append(stats.MessagesPerSender, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sender counts: %w", err)
	}

	return stats, nil
}

// Summary computes the light aggregate projection: row totals plus the
// with-text/without-text split.
func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	err := s.db.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COUNT(DISTINCT from_msisdn),
  COUNT(DISTINCT to_msisdn),
  COUNT(CASE WHEN text IS NOT NULL AND text != '' THEN 1 END)
FROM messages;
`).Scan(&sum.Total, &sum.UniqueSenders, &sum.UniqueRecipients, &sum.MessagesWithText)
	if err != nil {
		return nil, fmt.Errorf("summarize messages: %w", err)
	}
	sum.MessagesWithoutText = sum.Total - sum.MessagesWithText
	return sum, nil
}

func buildWhere(filter Filter) (string, []any) {
	var (
		conditions []string
		params     []any
	)

	if filter.FromMSISDN != "" {
		conditions = append(conditions, "from_msisdn = ?")
		params = append(params, filter.FromMSISDN)
	}
	if filter.Since != "" {
		conditions = append(conditions, "ts >= ?")
		params = append(params, filter.Since)
	}
	if filter.Q != "" {
		// instr instead of LIKE so %/_ in the query are literal.
		conditions = append(conditions, "text IS NOT NULL AND instr(lower(text), lower(?)) > 0")
		params = append(params, filter.Q)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), params
}

func textArg(text *string) any {
	if text == nil {
		return nil
	}
	return *text
}

// isUniqueViolation reports whether err is the SQLite primary-key/unique
// constraint error. The sqlite error type stays inside this function; callers
// only ever see Outcome values.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlitelib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
