// ABOUTME: Insight orchestrator sequencing self-check, history, gate, extraction, generation and persistence
// ABOUTME: Always returns a well-formed insight; failures and panics degrade to the fallback
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/models"
	"golang.org/x/sync/errgroup"
)

// ContactStore resolves a contact id or primary email for a user.
type ContactStore interface {
	Resolve(ctx context.Context, userID uuid.UUID, identifier string) (*models.Contact, error)
}

// IdentityResolver returns the operating user's own email addresses.
type IdentityResolver interface {
	SelfEmails(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ClassificationWriter atomically overwrites classification and appends a note.
type ClassificationWriter interface {
	SaveInsight(ctx context.Context, userID, contactID uuid.UUID, c models.Classification, note string, at time.Time) error
}

// CacheStore holds the last computed insight and its watermark per contact.
type CacheStore interface {
	Get(ctx context.Context, userID, contactID uuid.UUID) (*models.InsightCacheEntry, error)
	Put(ctx context.Context, entry *models.InsightCacheEntry) error
}

// Options tune a single invocation.
type Options struct {
	// ForceRefresh bypasses the staleness gate.
	ForceRefresh bool
	// FetchOnly returns the stored classification without loading history or writing.
	FetchOnly bool
}

// Deps are the engine's collaborators. Generator and Identity may be nil.
type Deps struct {
	Contacts  ContactStore
	History   HistorySource
	Identity  IdentityResolver
	Writer    ClassificationWriter
	Cache     CacheStore
	Generator TextGenerator
}

// Engine turns a contact's interaction history into a maintained classification.
type Engine struct {
	deps    Deps
	logger  *slog.Logger
	now     func() time.Time
	limits  Limits
	model   string
	maxTags int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. It should be non-blocking.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLimits overrides the per-source history limits.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithModel sets the model name passed to the generator.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithMaxTags caps the number of AI-sourced tags. Values above
// models.DefaultMaxTags are clamped to it.
func WithMaxTags(n int) Option {
	return func(e *Engine) { e.maxTags = ClampMaxTags(n) }
}

// NewEngine creates an engine.
func NewEngine(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		deps:    deps,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		maxTags: models.DefaultMaxTags,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.limits = e.limits.withDefaults()
	return e
}

// GenerateContactInsights returns the contact's classification, recomputing it
// only when history changed since the last enrichment or when forced. It never
// returns an error: every failure yields the fallback insight, except a failed
// write, which still returns the computed result.
func (e *Engine) GenerateContactInsights(ctx context.Context, userID uuid.UUID, identifier string, opts Options) (result models.Insight) {
	start := e.now()
	log := e.logger.With("user_id", userID.String(), "contact", identifier)

	defer func() {
		if r := recover(); r != nil {
			log.Error("insight generation panicked", "panic", fmt.Sprint(r))
			result = Fallback()
		}
	}()

	contact, err := e.deps.Contacts.Resolve(ctx, userID, identifier)
	if err != nil {
		log.Warn("contact lookup failed", "error", err)
		return Fallback()
	}
	log = log.With("contact_id", contact.ID.String())

	if e.isSelf(ctx, log, userID, contact) {
		log.Info("skipping self-referential contact")
		return Fallback()
	}

	if opts.FetchOnly {
		return e.fetchCached(ctx, log, userID, contact)
	}

	result, err = e.run(ctx, log, userID, contact, opts)
	if err != nil {
		log.Error("insight generation failed", "error", err)
		return Fallback()
	}

	log.Info("insight ready",
		"stage", result.LifecycleStage,
		"duration_ms", e.now().Sub(start).Milliseconds())
	return result
}

func (e *Engine) isSelf(ctx context.Context, log *slog.Logger, userID uuid.UUID, contact *models.Contact) bool {
	if e.deps.Identity == nil {
		return false
	}
	email := strings.ToLower(strings.TrimSpace(contact.Email))
	if email == "" {
		return false
	}

	// A partial failure still returns whatever addresses are known.
	selfEmails, err := e.deps.Identity.SelfEmails(ctx, userID)
	if err != nil {
		log.Warn("identity lookup failed, continuing", "error", err)
	}
	for _, self := range selfEmails {
		if strings.ToLower(strings.TrimSpace(self)) == email {
			return true
		}
	}
	return false
}

func (e *Engine) fetchCached(ctx context.Context, log *slog.Logger, userID uuid.UUID, contact *models.Contact) models.Insight {
	entry, err := e.deps.Cache.Get(ctx, userID, contact.ID)
	if err != nil {
		log.Warn("insight cache read failed", "error", err)
		return Fallback()
	}
	if entry == nil {
		return Fallback()
	}
	return storedInsight(contact)
}

func (e *Engine) run(ctx context.Context, log *slog.Logger, userID uuid.UUID, contact *models.Contact, opts Options) (models.Insight, error) {
	entry, err := e.deps.Cache.Get(ctx, userID, contact.ID)
	if err != nil {
		// A missing watermark only costs a recompute.
		log.Warn("insight cache read failed", "error", err)
		entry = nil
	}

	history, err := LoadHistory(ctx, e.deps.History, userID, contact, e.limits)
	if err != nil {
		return models.Insight{}, err
	}

	decision := Decide(history, entry, opts.ForceRefresh)
	log.Debug("staleness gate", "decision", decision.String(),
		"events", len(history.Events), "messages", len(history.Messages))

	switch decision {
	case DecisionNoHistory:
		return Fallback(), nil
	case DecisionServeCached:
		return storedInsight(contact), nil
	}

	now := e.now()
	events, messages := e.extract(ctx, history, now)
	result := e.analyze(ctx, log, userID, contact, history, events, messages)

	err = e.deps.Writer.SaveInsight(ctx, userID, contact.ID, result.Classification(), result.NoteContent, now)
	if errors.Is(err, models.ErrContactNotFound) {
		return models.Insight{}, fmt.Errorf("failed to persist insight: %w", err)
	}
	if err != nil {
		log.Error("failed to persist insight, returning unsaved result", "error", err)
		return result, nil
	}

	if err := e.deps.Cache.Put(ctx, &models.InsightCacheEntry{
		UserID:     userID,
		ContactID:  contact.ID,
		Result:     result,
		ComputedAt: now,
	}); err != nil {
		log.Warn("insight cache write failed", "error", err)
	}

	return result, nil
}

// extract runs both pattern extractors concurrently. They cannot fail.
func (e *Engine) extract(ctx context.Context, h History, now time.Time) (events, messages PatternSummary) {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		events = AnalyzeEvents(h.Events, now)
		return nil
	})
	g.Go(func() error {
		messages = AnalyzeMessages(h.Messages, now)
		return nil
	})
	_ = g.Wait()
	return events, messages
}

func (e *Engine) analyze(ctx context.Context, log *slog.Logger, userID uuid.UUID, contact *models.Contact, h History, events, messages PatternSummary) models.Insight {
	if e.deps.Generator == nil {
		return Heuristic(events, messages)
	}

	switch outcome := e.generate(ctx, userID, contact, h, events, messages).(type) {
	case GenerationOk:
		return outcome.Insight(e.maxTags)
	case GenerationFailed:
		log.Warn("text generation failed, using heuristic", "error", outcome.Error())
	}
	return Heuristic(events, messages)
}

func (e *Engine) generate(ctx context.Context, userID uuid.UUID, contact *models.Contact, h History, events, messages PatternSummary) (outcome GenerationResult) {
	defer func() {
		if r := recover(); r != nil {
			outcome = GenerationFailed{Reason: fmt.Sprintf("generator panicked: %v", r)}
		}
	}()

	req, err := BuildRequest(e.model, contact, h, events, messages, e.maxTags)
	if err != nil {
		return GenerationFailed{Reason: "failed to build prompt", Err: err}
	}

	outcome = e.deps.Generator.Generate(ctx, userID, req)
	if outcome == nil {
		return GenerationFailed{Reason: "generator returned no result"}
	}
	return outcome
}

// storedInsight reads the classification from the contact record rather than
// the cache entry, so edits made to the contact after enrichment are served.
// The cache entry only supplies the watermark. Notes are not re-served.
func storedInsight(contact *models.Contact) models.Insight {
	confidence := contact.ConfidenceScore
	return models.Insight{
		LifecycleStage:  ValidateStage(contact.LifecycleStage),
		Tags:            ValidateTags(contact.Tags, models.DefaultMaxTags),
		ConfidenceScore: ClampConfidence(&confidence),
	}
}
