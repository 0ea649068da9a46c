// Package service provides the core assessment service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/somaedu/adapt/internal/adapters/catalog"
	"github.com/somaedu/adapt/internal/adapters/history"
	answerqueue "github.com/somaedu/adapt/internal/adapters/mq/queue"
	workerpool "github.com/somaedu/adapt/internal/adapters/mq/worker"
	"github.com/somaedu/adapt/internal/adapters/oracle"
	"github.com/somaedu/adapt/internal/adapters/repository"
	"github.com/somaedu/adapt/internal/domain/dedupe"
	"github.com/somaedu/adapt/internal/domain/model"
	"github.com/somaedu/adapt/internal/domain/ranking"
	"github.com/somaedu/adapt/internal/domain/session"
	"github.com/somaedu/adapt/internal/domain/target"
	"github.com/somaedu/adapt/internal/domain/types"
	"github.com/somaedu/adapt/pkg/logger"
	"github.com/somaedu/adapt/pkg/metrics"
)

// lockStripes is the number of mutexes serializing per-session mutations.
const lockStripes = 64

// stripedLocks serializes mutations per session id. Two sessions may map
// to the same stripe; that only costs contention, never correctness.
type stripedLocks struct {
	locks [lockStripes]sync.Mutex
}

func (l *stripedLocks) get(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &l.locks[h.Sum32()%lockStripes]
}

// Service implements the API dependencies for the assessment engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  catalog.Catalog
	oracle   oracle.Oracle
	sessions repository.Store
	recorder history.Recorder
	deduper  dedupe.Deduper
	journal  answerqueue.Queue
	workers  *workerpool.Pool

	sessionLocks stripedLocks

	// Configuration
	defaultMaxItems int
	maxRankK        int
	workerCount     int
	queueSize       int
	dedupeSize      int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the question bank used for ranking.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithOracle sets the difficulty oracle.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithSessionStore sets the session store.
func WithSessionStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// WithRecorder sets the answer history sink.
func WithRecorder(r history.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithDefaultMaxItems sets the item cap applied when a start request
// does not specify one.
func WithDefaultMaxItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultMaxItems = n
		}
	}
}

// WithMaxRankK caps the number of items a single rank request may ask for.
func WithMaxRankK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.maxRankK = k
		}
	}
}

// WithWorkerCount sets the number of journal worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the answer journal queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the answer deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultMaxItems: 10,
		maxRankK:        100,
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       10000,
		dedupeSize:      50000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting assessment service...")

	if s.catalog == nil {
		s.catalog = catalog.NewMemoryCatalog()
		s.logger.Info(ctx, "using in-memory catalog")
	}
	if s.oracle == nil {
		s.oracle = oracle.NewStatic(nil)
		s.logger.Warn(ctx, "no difficulty oracle configured; ranking will report not trained")
	}
	if s.sessions == nil {
		s.sessions = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory session store")
	}
	if s.recorder == nil {
		s.recorder = history.NewMemoryRecorder(0)
		s.logger.Info(ctx, "using in-memory answer history")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.journal = answerqueue.NewInMemoryQueue(
		answerqueue.WithCapacity(s.queueSize),
		answerqueue.WithBufferSize(s.queueSize),
	)

	s.workers = workerpool.NewPool(s.workerCount, s.journal, s.recorder)
	s.workers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining the answer journal.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping assessment service...")

	if s.workers != nil {
		_ = s.workers.Shutdown(ctx)
	}

	if closer, ok := s.sessions.(interface{ Close() }); ok {
		closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
}

// StartSession creates a session and serves its first item in one step.
func (s *Service) StartSession(ctx context.Context, subjectID int64, studentID string, maxItems int) (types.StartResult, error) {
	if maxItems <= 0 {
		maxItems = s.defaultMaxItems
	}

	candidates, err := s.candidates(ctx, subjectID)
	if err != nil {
		return types.StartResult{}, err
	}

	sess := session.New(subjectID, studentID, maxItems)
	seed := target.InitialSeed(rawValues(candidates))

	result, err := ranking.Rank(seed, candidates, nil, 1)
	if err != nil {
		return types.StartResult{}, err
	}

	out := types.StartResult{
		SessionID: sess.ID,
		Target:    result.Target,
	}
	if len(result.Items) > 0 {
		item := materialize(result.Items[0])
		sess.Serve(item.ItemID, item.StandardValue)
		out.Item = &item
		metrics.RecordItemServed()
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return types.StartResult{}, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	metrics.RecordSessionStarted()
	s.updateActiveSessions(ctx)
	s.logger.Debug(ctx, "session started",
		logger.String("sessionID", sess.ID),
		logger.Int64("subjectID", subjectID),
		logger.Int("maxItems", maxItems),
	)
	return out, nil
}

// NextItem serves the next unseen item for the session, or reports that
// the session finished.
func (s *Service) NextItem(ctx context.Context, sessionID string) (types.StepResult, error) {
	lock := s.sessionLocks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return types.StepResult{}, err
	}

	return s.step(ctx, sess)
}

// RecordAnswer journals an answer and serves the next item. An answer
// arriving on an unknown session id creates a provisional session so the
// student can keep going after an engine restart.
func (s *Service) RecordAnswer(ctx context.Context, sessionID string, subjectID, itemID, optionID int64, rawValue float64) (types.StepResult, error) {
	lock := s.sessionLocks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		sess = s.recoverSession(ctx, sessionID, subjectID, rawValue)
		err = nil
	}
	if err != nil {
		return types.StepResult{}, err
	}

	if sess.State == session.StateFinished {
		return types.StepResult{Finished: true}, nil
	}

	sess.LastTarget = target.CarryForward(rawValue)
	s.journalAnswer(ctx, sess, itemID, optionID, rawValue)
	sess.Exclude(itemID)

	return s.step(ctx, sess)
}

// EndSession removes the session. Ending an unknown or already ended
// session succeeds, so clients can retry safely.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	lock := s.sessionLocks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("ending session %s: %w", sessionID, err)
	}

	metrics.RecordSessionEnded()
	s.updateActiveSessions(ctx)
	return nil
}

// Rank runs a stateless ranking pass over a subject's items.
// A nil rawTarget seeds from the midpoint of the subject's value range.
func (s *Service) Rank(ctx context.Context, subjectID int64, rawTarget *float64, exclude []int64, k int) (types.RankResult, error) {
	start := time.Now()
	metrics.RecordRankRequest()

	if k > s.maxRankK {
		k = s.maxRankK
	}

	candidates, err := s.candidates(ctx, subjectID)
	if err != nil {
		metrics.RecordRankError()
		return types.RankResult{}, err
	}

	seed := target.InitialSeed(rawValues(candidates))
	if rawTarget != nil {
		seed = *rawTarget
	}

	excludeSet := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		excludeSet[id] = struct{}{}
	}

	result, err := ranking.Rank(seed, candidates, excludeSet, k)
	if err != nil {
		metrics.RecordRankError()
		return types.RankResult{}, err
	}

	out := types.RankResult{
		Target: result.Target,
		Items:  make([]types.RankedItem, len(result.Items)),
	}
	for i, r := range result.Items {
		out.Items[i] = materialize(r)
	}
	if len(out.Items) == 0 {
		metrics.RecordRankEmpty()
	}
	metrics.RecordRankLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// ReloadModel drops the loaded difficulty model and reads the artifact
// again, picking up freshly trained predictions.
func (s *Service) ReloadModel(ctx context.Context) error {
	registry, ok := s.oracle.(*oracle.Registry)
	if !ok {
		return fmt.Errorf("difficulty oracle does not support reloading")
	}

	registry.Invalidate()
	if _, err := registry.Reload(ctx); err != nil {
		return err
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"defaultMaxItems": s.defaultMaxItems,
	}

	if s.started {
		stats["queueLength"] = s.journal.Len(ctx)
		stats["journaledIDs"] = s.deduper.Size()
		if count, err := s.sessions.Count(ctx); err == nil {
			stats["activeSessions"] = count
		}
		if registry, ok := s.oracle.(*oracle.Registry); ok {
			stats["modelTrained"] = registry.Trained()
		}
	}

	return stats
}

// step advances an active session: finish it when the cap is reached or
// the subject is out of unseen items, otherwise rank and serve the next
// item. The session is only saved after ranking succeeds, so a ranking
// failure leaves the stored state untouched.
func (s *Service) step(ctx context.Context, sess *session.Session) (types.StepResult, error) {
	if sess.State == session.StateFinished {
		return types.StepResult{Finished: true}, nil
	}

	if sess.Exhausted() {
		return s.finish(ctx, sess)
	}

	candidates, err := s.candidates(ctx, sess.SubjectID)
	if err != nil {
		return types.StepResult{}, err
	}

	result, err := ranking.Rank(sess.LastTarget, candidates, sess.ExclusionSet(), 1)
	if err != nil {
		return types.StepResult{}, err
	}
	if len(result.Items) == 0 {
		return s.finish(ctx, sess)
	}

	item := materialize(result.Items[0])
	sess.Serve(item.ItemID, item.StandardValue)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return types.StepResult{}, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	metrics.RecordItemServed()
	return types.StepResult{Item: &item}, nil
}

func (s *Service) finish(ctx context.Context, sess *session.Session) (types.StepResult, error) {
	sess.Finish()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return types.StepResult{}, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	metrics.RecordSessionFinished()
	return types.StepResult{Finished: true}, nil
}

// recoverSession builds a provisional session for an answer on an
// unknown id, seeded with the raw value supplied in the answer.
func (s *Service) recoverSession(ctx context.Context, sessionID string, subjectID int64, rawValue float64) *session.Session {
	sess := session.NewProvisional(sessionID, subjectID, target.CarryForward(rawValue))
	metrics.RecordSessionProvisional()
	s.logger.Warn(ctx, "answer on unknown session, created provisional session",
		logger.String("sessionID", sessionID),
		logger.Int64("subjectID", subjectID),
	)
	return sess
}

// journalAnswer queues the answer for background persistence. Duplicate
// answers for the same (session, item) pair are dropped.
func (s *Service) journalAnswer(ctx context.Context, sess *session.Session, itemID, optionID int64, rawValue float64) {
	recordID := fmt.Sprintf("%s:%d", sess.ID, itemID)
	if s.deduper.SeenAndRecord(ctx, recordID) {
		metrics.RecordAnswerDuplicate()
		return
	}

	rec := model.AnswerRecord{
		RecordID:   recordID,
		SessionID:  sess.ID,
		StudentID:  sess.StudentID,
		ItemID:     itemID,
		OptionID:   optionID,
		SubjectID:  sess.SubjectID,
		RawValue:   rawValue,
		AnsweredAt: time.Now().UTC(),
	}
	if !s.journal.Enqueue(ctx, rec) {
		s.deduper.Unrecord(ctx, recordID)
		s.logger.Warn(ctx, "answer journal queue full, dropping record",
			logger.String("recordID", recordID),
		)
	}
}

// candidates joins the subject's catalog items with their predicted
// difficulties. Items the model cannot predict are left out.
func (s *Service) candidates(ctx context.Context, subjectID int64) ([]ranking.Candidate, error) {
	items, err := s.catalog.ItemsForSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("loading catalog for subject %d: %w", subjectID, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	predictions, err := s.oracle.PredictBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]ranking.Candidate, 0, len(items))
	for _, it := range items {
		difficulty, ok := predictions[it.ID]
		if !ok {
			continue
		}
		candidates = append(candidates, ranking.Candidate{
			ID:            it.ID,
			Statement:     it.Statement,
			StandardValue: it.StandardValue,
			Difficulty:    difficulty,
		})
	}
	return candidates, nil
}

func (s *Service) updateActiveSessions(ctx context.Context) {
	if count, err := s.sessions.Count(ctx); err == nil {
		metrics.UpdateActiveSessions(count)
	}
}

func rawValues(candidates []ranking.Candidate) []float64 {
	values := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.StandardValue
	}
	return values
}

func materialize(r ranking.Ranked) types.RankedItem {
	return types.RankedItem{
		ItemID:        r.ID,
		Statement:     r.Statement,
		Difficulty:    r.Difficulty,
		StandardValue: r.StandardValue,
		NormValue:     r.NormValue,
	}
}
