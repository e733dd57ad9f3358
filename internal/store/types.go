package store

// Outcome is the result of an insert attempt. Duplicate is a normal return
// value, not an error: webhook deliveries are retried by senders and the
// second attempt must succeed from their point of view.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
)

// Message is a stored webhook message. CreatedAt is assigned by the store at
// first successful insert and never changes afterwards.
type Message struct {
	MessageID  string  `json:"message_id"`
	FromMSISDN string  `json:"from_msisdn"`
	ToMSISDN   string  `json:"to_msisdn"`
	TS         string  `json:"ts"`
	Text       *string `json:"text"`
	CreatedAt  string  `json:"created_at"`
}

// Filter narrows List results. Zero-value fields are ignored; set fields
// combine with AND.
type Filter struct {
	// FromMSISDN matches the sender exactly.
	FromMSISDN string
	// Since keeps rows with ts >= Since. ISO-8601 UTC strings sort correctly
	// as text, so this is a plain string comparison.
	Since string
	// Q keeps rows whose text contains Q case-insensitively. Rows without
	// text never match.
	Q string
}

// SenderCount is one entry of the per-sender ranking.
type SenderCount struct {
	MSISDN string `json:"msisdn"`
	Count  int    `json:"count"`
}

// Stats is the rich aggregate projection served by GET /stats.
type Stats struct {
	TotalMessages     int           `json:"total_messages"`
	SendersCount      int           `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

// Summary is the lighter aggregate projection served by GET /stats/summary.
// It is intentionally a separate read model from Stats; the two are not
// reconciled.
type Summary struct {
	Total               int `json:"total"`
	UniqueSenders       int `json:"unique_senders"`
	UniqueRecipients    int `json:"unique_recipients"`
	MessagesWithText    int `json:"messages_with_text"`
	MessagesWithoutText int `json:"messages_without_text"`
}
