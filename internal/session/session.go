package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/gateway"
	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/storage/models"
	"github.com/legal-assistant/docclient/pkg/logger"
	"github.com/legal-assistant/docclient/pkg/utils"
)

// Gateway is the set of capabilities a session drives. *gateway.Client
// implements it.
type Gateway interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
	Summarize(ctx context.Context, text string, maxTokens int) (result.Summary, error)
	ExtractEntities(ctx context.Context, text string) (result.Entities, error)
	AnswerExtractive(ctx context.Context, contextText, question string) (result.QA, error)
	AnswerGenerative(ctx context.Context, contextText, question string, maxTokens int) (result.QA, error)
	AnswerRag(ctx context.Context, contextText, question string, topK int) (result.QA, error)
	AnalyzeCombined(ctx context.Context, text string, question *string, maxTokens int) (result.Combined, error)
}

// Recorder receives one record per completed submission.
type Recorder interface {
	InsertRecord(ctx context.Context, record *models.AnalysisRecord) error
}

type Options struct {
	ID                  string
	SummaryMaxTokens    int
	GenerativeMaxTokens int
	CombinedMaxTokens   int
	RagTopK             int
	// DiscardStale drops a completion when the mode or QA mode changed
	// after the request was issued.
	DiscardStale bool
	Recorder     Recorder
}

const previewRunes = 120

func (o *Options) applyDefaults() {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.SummaryMaxTokens <= 0 {
		o.SummaryMaxTokens = 256
	}
	if o.GenerativeMaxTokens <= 0 {
		o.GenerativeMaxTokens = 128
	}
	if o.CombinedMaxTokens <= 0 {
		o.CombinedMaxTokens = 256
	}
	if o.RagTopK <= 0 {
		o.RagTopK = 3
	}
}

// Input is the user-editable part of a session.
type Input struct {
	Text     string `json:"text"`
	Question string `json:"question"`
	Mode     Mode   `json:"mode"`
	QAMode   QAMode `json:"qaMode"`
}

// Snapshot is a consistent copy of a session at one version.
type Snapshot struct {
	ID        string
	Input     Input
	Outcome   Outcome
	Version   uint64
	UpdatedAt time.Time
}

func (s Snapshot) Loading() bool {
	_, ok := s.Outcome.(Loading)
	return ok
}

// Result returns the populated result, or nil.
func (s Snapshot) Result() result.Result {
	if o, ok := s.Outcome.(Succeeded); ok {
		return o.Result
	}
	return nil
}

// ErrorMessage returns the banner text, or "" when there is no error.
func (s Snapshot) ErrorMessage() string {
	if o, ok := s.Outcome.(Failed); ok {
		return o.Message
	}
	return ""
}

// Session owns the input, the active modes and the single output slot. All
// mutation goes through its methods; at most one request is outstanding.
type Session struct {
	gw   Gateway
	opts Options

	mu          sync.Mutex
	input       Input
	outcome     Outcome
	generation  uint64
	version     uint64
	updatedAt   time.Time
	subscribers map[uint64]func(Snapshot)
	nextSub     uint64
}

func New(gw Gateway, opts Options) *Session {
	opts.applyDefaults()
	return &Session{
		gw:          gw,
		opts:        opts,
		input:       Input{Mode: ModeSummary, QAMode: QAExtractive},
		outcome:     Idle{},
		updatedAt:   time.Now(),
		subscribers: make(map[uint64]func(Snapshot)),
	}
}

func (s *Session) ID() string {
	return s.opts.ID
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// on the goroutine that made the change and must not call back into the
// session synchronously. The returned func unregisters it.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SetText replaces the document text. The output slot is untouched.
func (s *Session) SetText(text string) {
	s.update(func() {
		s.input.Text = text
	})
}

func (s *Session) SetQuestion(question string) {
	s.update(func() {
		s.input.Question = question
	})
}

// SetMode activates m and clears any result or error, even when m is
// already active. An outstanding request keeps the session loading.
func (s *Session) SetMode(m Mode) {
	s.update(func() {
		if s.input.Mode != m {
			s.generation++
			s.input.Mode = m
		}
		s.clearLocked()
	})
}

// SetQAMode activates q and clears any result or error.
func (s *Session) SetQAMode(q QAMode) {
	s.update(func() {
		if s.input.QAMode != q {
			s.generation++
			s.input.QAMode = q
		}
		s.clearLocked()
	})
}

// Restore replaces the whole input, as when reloading a saved session.
func (s *Session) Restore(in Input) error {
	var err error
	s.update(func() {
		if s.loadingLocked() {
			err = ErrBusy
			return
		}
		s.generation++
		s.input = in
		s.outcome = Idle{}
	})
	return err
}

// Submit validates the input for the active mode and, if it passes, calls
// the matching capability and waits for it. A validation or transport
// failure is stored in the returned outcome, not returned as an error; the
// only error is ErrBusy when a request is already outstanding.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.loadingLocked() {
		outcome := s.outcome
		s.mu.Unlock()
		metrics.BusyRejections.Inc()
		logger.Debug("Submission rejected while loading", zap.String("session_id", s.opts.ID))
		return outcome, ErrBusy
	}

	in := s.input
	if verr := validate(in); verr != nil {
		s.outcome = Failed{Kind: FailureValidation, Message: verr.Message, Err: verr}
		snap := s.touchLocked()
		s.mu.Unlock()

		metrics.ValidationFailures.WithLabelValues(in.Mode.String()).Inc()
		logger.Debug("Submission failed validation",
			zap.String("session_id", s.opts.ID),
			zap.String("mode", in.Mode.String()),
			zap.String("message", verr.Message),
		)
		s.notify(snap)
		return snap.Outcome, nil
	}

	capability := Capability(in.Mode, in.QAMode)
	generation := s.generation
	s.outcome = Loading{Capability: capability}
	snap := s.touchLocked()
	s.mu.Unlock()
	s.notify(snap)

	logger.Debug("Submission started",
		zap.String("session_id", s.opts.ID),
		zap.String("capability", capability.String()),
	)

	start := time.Now()
	res, err := s.call(ctx, in)
	latency := time.Since(start)

	s.mu.Lock()
	stale := s.opts.DiscardStale && generation != s.generation
	switch {
	case stale:
		s.outcome = Idle{}
	case err != nil:
		s.outcome = transportFailure(err)
	default:
		s.outcome = Succeeded{Result: res}
	}
	snap = s.touchLocked()
	s.mu.Unlock()
	s.notify(snap)

	if stale {
		metrics.StaleCompletions.Inc()
		logger.Debug("Stale completion dropped",
			zap.String("session_id", s.opts.ID),
			zap.String("capability", capability.String()),
		)
		return snap.Outcome, nil
	}

	s.record(ctx, in, capability, snap.Outcome, latency)
	return snap.Outcome, nil
}

// Upload sends a document to text extraction. On success the extracted text
// replaces the document text and the session returns to idle.
func (s *Session) Upload(ctx context.Context, filename string, data []byte) (Outcome, error) {
	if len(data) == 0 {
		return s.Snapshot().Outcome, ErrNoFile
	}

	s.mu.Lock()
	if s.loadingLocked() {
		outcome := s.outcome
		s.mu.Unlock()
		metrics.BusyRejections.Inc()
		return outcome, ErrBusy
	}
	s.outcome = Loading{Capability: gateway.ExtractText}
	snap := s.touchLocked()
	s.mu.Unlock()
	s.notify(snap)

	text, err := s.gw.ExtractText(ctx, filename, data)

	s.mu.Lock()
	if err != nil {
		s.outcome = transportFailure(err)
	} else {
		s.input.Text = text
		s.outcome = Idle{}
	}
	snap = s.touchLocked()
	s.mu.Unlock()
	s.notify(snap)

	logger.Debug("Upload finished",
		zap.String("session_id", s.opts.ID),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.Bool("ok", err == nil),
	)

	return snap.Outcome, nil
}

func (s *Session) call(ctx context.Context, in Input) (result.Result, error) {
	switch in.Mode {
	case ModeEntities:
		return s.gw.ExtractEntities(ctx, in.Text)
	case ModeQA:
		switch in.QAMode {
		case QAGenerative:
			return s.gw.AnswerGenerative(ctx, in.Text, in.Question, s.opts.GenerativeMaxTokens)
		case QARag:
			return s.gw.AnswerRag(ctx, in.Text, in.Question, s.opts.RagTopK)
		default:
			return s.gw.AnswerExtractive(ctx, in.Text, in.Question)
		}
	case ModeCombined:
		var question *string
		if strings.TrimSpace(in.Question) != "" {
			question = &in.Question
		}
		return s.gw.AnalyzeCombined(ctx, in.Text, question, s.opts.CombinedMaxTokens)
	default:
		return s.gw.Summarize(ctx, in.Text, s.opts.SummaryMaxTokens)
	}
}

func (s *Session) record(ctx context.Context, in Input, capability gateway.Capability, outcome Outcome, latency time.Duration) {
	if s.opts.Recorder == nil {
		return
	}

	rec := &models.AnalysisRecord{
		ID:              uuid.New().String(),
		SessionID:       s.opts.ID,
		Mode:            in.Mode.String(),
		QAMode:          in.QAMode.String(),
		Capability:      capability.String(),
		TextFingerprint: utils.Fingerprint(in.Text),
		TextPreview:     utils.Preview(in.Text, previewRunes),
		Question:        in.Question,
		LatencyMS:       latency.Milliseconds(),
		CreatedAt:       time.Now(),
	}

	switch o := outcome.(type) {
	case Succeeded:
		rec.Status = models.StatusSucceeded
		if data, err := json.Marshal(o.Result); err == nil {
			rec.ResultJSON = string(data)
		}
	case Failed:
		rec.Status = models.StatusFailed
		rec.ErrorMessage = o.Message
	}

	if err := s.opts.Recorder.InsertRecord(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("Failed to record analysis",
			zap.String("session_id", s.opts.ID),
			zap.Error(err),
		)
	}
}

func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := s.touchLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) clearLocked() {
	if !s.loadingLocked() {
		s.outcome = Idle{}
	}
}

func (s *Session) loadingLocked() bool {
	_, ok := s.outcome.(Loading)
	return ok
}

func (s *Session) touchLocked() Snapshot {
	s.version++
	s.updatedAt = time.Now()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:        s.opts.ID,
		Input:     s.input,
		Outcome:   s.outcome,
		Version:   s.version,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func validate(in Input) *ValidationError {
	blank := strings.TrimSpace(in.Text) == ""

	switch in.Mode {
	case ModeSummary:
		if blank {
			return &ValidationError{Mode: in.Mode, Message: MsgSummaryText}
		}
	case ModeEntities:
		if blank {
			return &ValidationError{Mode: in.Mode, Message: MsgEntitiesText}
		}
	case ModeQA:
		if blank {
			return &ValidationError{Mode: in.Mode, Message: MsgQAContext}
		}
		if strings.TrimSpace(in.Question) == "" {
			return &ValidationError{Mode: in.Mode, Message: MsgQAQuestion}
		}
	case ModeCombined:
		if blank {
			return &ValidationError{Mode: in.Mode, Message: MsgCombinedText}
		}
	}
	return nil
}

func transportFailure(err error) Failed {
	var failure *gateway.Failure
	if errors.As(err, &failure) {
		return Failed{Kind: FailureTransport, Message: failure.Message, Err: failure}
	}
	return Failed{Kind: FailureTransport, Message: err.Error(), Err: err}
}
