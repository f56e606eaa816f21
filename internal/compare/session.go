package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aryannaik/embedding-compare/internal/embeddings"
	"github.com/aryannaik/embedding-compare/internal/keystore"
	"github.com/aryannaik/embedding-compare/internal/observability"
)

// ErrMissingAPIKey is returned by Submit when the form carries no API key.
// Nothing is requested and the session state is left untouched. A key made
// only of whitespace counts as missing.
var ErrMissingAPIKey = errors.New("missing api key")

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRequesting Status = "requesting"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

const (
	messageRequesting = "Requesting..."
	messageComplete   = "Complete!"
)

// Form is one submission: a base text compared against every target text.
type Form struct {
	APIKey  string   `json:"apiKey"`
	Base    string   `json:"base"`
	Targets []string `json:"targets"`
}

// Snapshot is a copy of the session state at a point in time.
type Snapshot struct {
	BatchID     string              `json:"batchId,omitempty"`
	Status      Status              `json:"status"`
	Message     string              `json:"message,omitempty"`
	Base        string              `json:"base,omitempty"`
	Targets     []string            `json:"targets,omitempty"`
	Results     []embeddings.Result `json:"results,omitempty"`
	Rows        []Row               `json:"rows,omitempty"`
	TotalTokens int64               `json:"totalTokens"`
	StartedAt   time.Time           `json:"startedAt,omitzero"`
	FinishedAt  time.Time           `json:"finishedAt,omitzero"`
}

// Session owns the state of the page: the cached API key and the outcome of
// the latest submission.
type Session struct {
	embedder embeddings.Embedder
	keys     keystore.Store
	logger   *zap.Logger
	metrics  observability.Metrics

	mu     sync.RWMutex
	apiKey string
	state  Snapshot
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records batch and request outcomes. A nil Metrics disables it.
func WithMetrics(m observability.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

func NewSession(embedder embeddings.Embedder, keys keystore.Store, opts ...Option) *Session {
	s := &Session{
		embedder: embedder,
		keys:     keys,
		logger:   zap.NewNop(),
		state:    Snapshot{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.embedder = instrumentedEmbedder{next: embedder, metrics: s.metrics}
	}
	return s
}

// LoadKey reads the cached API key from the key store.
func (s *Session) LoadKey(ctx context.Context) (string, error) {
	key, ok, err := s.keys.Get(ctx, keystore.APIKey)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	if !ok {
		return "", nil
	}

	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
	return key, nil
}

// APIKey returns the key of the last submission, or the cached one.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Submit embeds the base text and all targets as one batch and scores each
// target against the base. The key is cached before the batch is sent, so a
// failed submission still persists it.
//
// A batch that finishes after a newer one was started returns its own
// snapshot but leaves the session state to the newer batch.
func (s *Session) Submit(ctx context.Context, form Form) (Snapshot, error) {
	apiKey := strings.TrimSpace(form.APIKey)
	if apiKey == "" {
		return s.Snapshot(), ErrMissingAPIKey
	}

	// Requests are not withdrawn when the caller goes away.
	ctx = context.WithoutCancel(ctx)

	snap := Snapshot{
		BatchID:   uuid.NewString(),
		Status:    StatusRequesting,
		Message:   messageRequesting,
		Base:      form.Base,
		Targets:   append([]string(nil), form.Targets...),
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.apiKey = apiKey
	s.state = snap.clone()
	s.mu.Unlock()

	logger := s.logger.With(zap.String("batch_id", snap.BatchID))

	if err := s.keys.Set(ctx, keystore.APIKey, apiKey); err != nil {
		logger.Warn("cache api key", zap.Error(err))
	}

	texts := append([]string{form.Base}, form.Targets...)
	submitted := 0
	for _, t := range texts {
		if t != "" {
			submitted++
		}
	}
	logger.Debug("batch started", zap.Int("texts", submitted))

	results, err := embeddings.FetchEmbeddings(ctx, s.embedder, apiKey, texts)
	snap.FinishedAt = time.Now()

	if err != nil {
		snap.Status = StatusError
		snap.Message = fmt.Sprintf("Error... (%v)", err)
		logger.Error("batch failed", zap.Error(err), zap.Duration("duration", snap.FinishedAt.Sub(snap.StartedAt)))
	} else {
		snap.Status = StatusComplete
		snap.Message = messageComplete
		snap.Results = results
		for _, r := range results {
			snap.TotalTokens += r.TotalTokens
		}
		if form.Base != "" && len(results) > 0 {
			snap.Rows = Compare(results[0], results[1:])
		}
		logger.Info("batch complete",
			zap.Int("results", len(results)),
			zap.Int64("total_tokens", snap.TotalTokens),
			zap.Duration("duration", snap.FinishedAt.Sub(snap.StartedAt)),
		)
	}

	if s.metrics != nil {
		outcome := observability.OutcomeSuccess
		if err != nil {
			outcome = observability.OutcomeError
		}
		s.metrics.RecordBatch(outcome, submitted, snap.FinishedAt.Sub(snap.StartedAt))
	}

	s.mu.Lock()
	if s.state.BatchID == snap.BatchID {
		s.state = snap.clone()
	} else {
		logger.Info("batch superseded", zap.String("current_batch_id", s.state.BatchID))
	}
	s.mu.Unlock()

	return snap, err
}

func (s Snapshot) clone() Snapshot {
	s.Targets = append([]string(nil), s.Targets...)
	s.Results = append([]embeddings.Result(nil), s.Results...)
	s.Rows = append([]Row(nil), s.Rows...)
	return s
}

// SplitLines splits freeform input into one text per line. Empty lines are
// kept; the fan-out drops them.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

type instrumentedEmbedder struct {
	next    embeddings.Embedder
	metrics observability.Metrics
}

func (e instrumentedEmbedder) Embed(ctx context.Context, apiKey, text string) (embeddings.Result, error) {
	start := time.Now()
	res, err := e.next.Embed(ctx, apiKey, text)

	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeError
	}
	e.metrics.RecordRequest(outcome, time.Since(start))

	return res, err
}
