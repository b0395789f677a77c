// Package emails is the stateless batch classifier that demonstrates the
// engine's collaborator seam: before touching the mailbox it presents a
// bearer token for the email_system resource and acts only on the
// granted/reason pair of the decision. It holds no session state of its own.
package emails

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-secure-access/access"
	"github.com/jrsteele09/go-secure-access/internal/config"
	apperrors "github.com/jrsteele09/go-secure-access/internal/errors"
)

// ResourceEmailSystem names the resource this collaborator must be granted
// before it may open a mailbox.
const ResourceEmailSystem = "email_system"

// Category is the triage bucket a message lands in.
type Category string

const (
	CategoryUrgent      Category = "urgent"
	CategoryImportant   Category = "important"
	CategoryNormal      Category = "normal"
	CategoryLowPriority Category = "low_priority"
)

// Categories lists every bucket in reporting order.
func Categories() []Category {
	return []Category{CategoryUrgent, CategoryImportant, CategoryNormal, CategoryLowPriority}
}

// Message is one mailbox item.
type Message struct {
	ID         string    // Mailbox identifier
	Subject    string    // Subject line, the categorization input
	Sender     string    // Sender address
	Content    string    // Body text
	ReceivedAt time.Time // When the message arrived
	Category   Category  // Assigned during triage
}

// Report summarizes one triage run.
type Report struct {
	Total      int              // Messages processed
	ByCategory map[Category]int // Count per bucket, zero entries included
	Messages   []Message        // The categorized batch
}

// AccessChecker is the slice of the access controller the triage presents
// tokens to.
type AccessChecker interface {
	SecureAccess(token, resource string) access.Decision
}

// Triage opens a simulated mailbox batch and sorts it into categories, gated
// by a secure-access check on every run.
type Triage struct {
	gate      AccessChecker
	batchSize int
	nowTime   func() time.Time
	logger    zerolog.Logger
}

// Option defines a function type to modify the Triage instance.
type Option func(*Triage)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(t *Triage) {
		t.nowTime = nowFunc
	}
}

// WithLogger sets the logger for triage runs
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Triage) {
		t.logger = logger
	}
}

// New initializes the triage collaborator with its access gate and email
// configuration.
func New(gate AccessChecker, cfg config.Email, options ...Option) (*Triage, error) {
	if gate == nil {
		return nil, fmt.Errorf("[emails.New] access checker is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("[emails.New] email config: %w", err)
	}

	triage := &Triage{
		gate:      gate,
		batchSize: cfg.BatchSize,
		nowTime:   time.Now,
		logger:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(triage)
	}

	return triage, nil
}

// Process proves access with the given token, then opens and categorizes one
// mailbox batch. A denied decision aborts the run with ErrAccessDenied; the
// triage never looks past granted and reason.
func (t *Triage) Process(token string) (Report, error) {
	decision := t.gate.SecureAccess(token, ResourceEmailSystem)
	if !decision.Granted {
		return Report{}, apperrors.Wrapf(apperrors.ErrAccessDenied, "emails.Process %s refused (%s)", ResourceEmailSystem, decision.Reason)
	}

	messages := t.openMailbox()
	report := Report{
		Total:      len(messages),
		ByCategory: make(map[Category]int, len(Categories())),
		Messages:   messages,
	}
	for _, category := range Categories() {
		report.ByCategory[category] = 0
	}

	for i := range messages {
		messages[i].Category = Categorize(messages[i])
		report.ByCategory[messages[i].Category]++
	}

	t.logger.Info().
		Int("total", report.Total).
		Msg("mailbox batch categorized")

	return report, nil
}

// Categorize assigns the bucket for one message from its subject line.
func Categorize(message Message) Category {
	subject := strings.ToLower(message.Subject)

	switch {
	case containsAny(subject, "urgent", "asap", "critical", "emergency"):
		return CategoryUrgent
	case containsAny(subject, "important", "required", "action needed"):
		return CategoryImportant
	case containsAny(subject, "fyi", "update", "notification"):
		return CategoryNormal
	}
	return CategoryLowPriority
}

func containsAny(s string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

// openMailbox simulates retrieving one batch of messages. Subjects rotate
// through fixed templates so a batch exercises every category.
func (t *Triage) openMailbox() []Message {
	templates := []string{
		"URGENT: production access expires today",
		"Action needed: quarterly access review",
		"FYI: maintenance window moved",
		"Team offsite photos",
		"Critical: disk usage alert",
		"Update: rollout schedule",
		"Lunch menu for next week",
		"Important: policy acknowledgement required",
	}

	now := t.nowTime()
	messages := make([]Message, 0, t.batchSize)
	for i := 0; i < t.batchSize; i++ {
		messages = append(messages, Message{
			ID:         fmt.Sprintf("email_%d", i+1),
			Subject:    templates[i%len(templates)],
			Sender:     fmt.Sprintf("sender%d@example.com", i+1),
			Content:    fmt.Sprintf("This is the content of email %d", i+1),
			ReceivedAt: now,
		})
	}

	t.logger.Debug().Int("count", len(messages)).Msg("mailbox batch opened")
	return messages
}
