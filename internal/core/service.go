package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/locgrid/internal/config"
	"github.com/JonMunkholm/locgrid/internal/lang"
	"github.com/JonMunkholm/locgrid/internal/translate"
)

// Service provides the editing operations behind the HTTP API.
type Service struct {
	cfg        *config.Config
	translator translate.Translator
	aliases    *lang.Aliases
	history    HistoryRecorder
	queue      *translate.Queue
	batcher    translate.Batcher
	limiter    *LoadLimiter
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	jobs     map[string]*translateJob
}

// NewService wires a service from cfg. A nil translator disables machine
// translation; nil aliases use the built-in table; a nil history records
// nothing.
func NewService(cfg *config.Config, tr translate.Translator, aliases *lang.Aliases, history HistoryRecorder) *Service {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if aliases == nil {
		aliases = lang.DefaultAliases()
	}
	if history == nil {
		history = NopHistory{}
	}

	queue := translate.NewQueue(cfg.Translate.MaxConcurrent, cfg.Translate.QueueDelay)
	return &Service{
		cfg:        cfg,
		translator: tr,
		aliases:    aliases,
		history:    history,
		queue:      queue,
		batcher: translate.Batcher{
			Translator: tr,
			Queue:      queue,
			Aliases:    aliases,
			Source:     cfg.Translate.SourceLanguage,
			BatchSize:  cfg.Translate.BatchSize,
			Delay:      cfg.Translate.BatchDelay,
		},
		limiter:  NewLoadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		now:      time.Now,
		sessions: make(map[string]*Session),
		jobs:     make(map[string]*translateJob),
	}
}

// CreateSession registers a new empty session.
func (s *Service) CreateSession() *Session {
	sess := newSession(uuid.New().String(), s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Session looks up a session and marks it used.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// CloseSession removes a session and cancels its translation jobs.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	var jobs []*translateJob
	for _, j := range s.jobs {
		if j.sessionID == id {
			jobs = append(jobs, j)
		}
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Reset()
	for _, j := range jobs {
		j.cancel()
	}
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// TranslationEnabled reports whether a translator is configured.
func (s *Service) TranslationEnabled() bool {
	return s.translator != nil
}

// Aliases returns the language alias table in use.
func (s *Service) Aliases() *lang.Aliases {
	return s.aliases
}

// History returns the save history recorder.
func (s *Service) History() HistoryRecorder {
	return s.history
}

func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// QueuePending returns the number of translation requests waiting to run.
func (s *Service) QueuePending() int {
	return s.queue.Pending()
}

// WaitForLoads blocks until in-flight file loads finish, for shutdown.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
