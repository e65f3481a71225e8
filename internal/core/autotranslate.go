package core

// autotranslate.go runs whole-grid machine translation as a background job.
//
// A job fills every candidate cell (empty or unmodified) in row-major order,
// in batches through the shared translation queue. Progress is fanned out to
// subscribers after each batch. Results are written only while the session
// generation is unchanged; a reload cancels the job.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/locgrid/internal/logging"
	"github.com/JonMunkholm/locgrid/internal/table"
	"github.com/JonMunkholm/locgrid/internal/translate"
)

// JobPhase is the lifecycle state of a translation job.
type JobPhase string

const (
	PhaseRunning   JobPhase = "running"
	PhaseComplete  JobPhase = "complete"
	PhaseFailed    JobPhase = "failed"
	PhaseCancelled JobPhase = "cancelled"
)

// Finished reports whether the phase is terminal.
func (p JobPhase) Finished() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// TranslateProgress is one progress update of a job.
type TranslateProgress struct {
	JobID     string   `json:"job_id"`
	SessionID string   `json:"session_id"`
	Phase     JobPhase `json:"phase"`
	Target    string   `json:"target,omitempty"`
	Done      int      `json:"done"`
	Total     int      `json:"total"`
	Applied   int      `json:"applied"`
	Failed    int      `json:"failed"`
	Error     string   `json:"error,omitempty"`
}

// TranslateResult is the final state of a job.
type TranslateResult struct {
	TranslateProgress
	Duration time.Duration `json:"duration"`
}

type translateJob struct {
	id        string
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	progress  TranslateProgress
	result    *TranslateResult
	listeners []chan TranslateProgress
}

func (j *translateJob) snapshot() TranslateProgress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// update applies fn and sends the new progress to every listener. A slow
// listener misses the update.
func (j *translateJob) update(fn func(p *TranslateProgress)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	fn(&j.progress)
	for _, ch := range j.listeners {
		select {
		case ch <- j.progress:
		default:
		}
	}
}

func (j *translateJob) subscribe() <-chan TranslateProgress {
	ch := make(chan TranslateProgress, 16)

	j.mu.Lock()
	defer j.mu.Unlock()

	ch <- j.progress
	if j.result != nil {
		close(ch)
		return ch
	}
	j.listeners = append(j.listeners, ch)
	return ch
}

// finish records the result, delivers the terminal progress and closes every
// listener.
func (j *translateJob) finish(res *TranslateResult) {
	j.mu.Lock()
	j.progress = res.TranslateProgress
	j.result = res
	for _, ch := range j.listeners {
		// The terminal update must get through, so drop the oldest
		// buffered update when the listener is behind.
		select {
		case ch <- j.progress:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- j.progress:
			default:
			}
		}
		close(ch)
	}
	j.listeners = nil
	j.mu.Unlock()

	close(j.done)
}

// StartAutoTranslate starts translating every candidate cell of the session.
// With an empty target each column is translated into the language inferred
// from its file name; otherwise every column gets target. It returns the job
// ID immediately.
func (s *Service) StartAutoTranslate(ctx context.Context, sessionID, target string) (string, error) {
	if s.translator == nil {
		return "", ErrNoTranslator
	}
	sess, err := s.Session(sessionID)
	if err != nil {
		return "", err
	}

	var (
		gen  uint64
		refs []table.CellRef
		jobs []translate.Job
	)
	err = sess.view(func(names []string, m *table.Model) error {
		gen = sess.gen
		refs = m.Candidates()
		jobs = make([]translate.Job, len(refs))
		for i, ref := range refs {
			lang := target
			if lang == "" {
				lang = s.aliases.Infer(names[ref.File])
			}
			jobs[i] = translate.Job{Text: ref.Key, Target: lang}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(refs) == 0 {
		return "", ErrNothingToTranslate
	}

	jobID := uuid.New().String()
	jobCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Translate.JobTimeout)

	job := &translateJob{
		id:        jobID,
		sessionID: sessionID,
		cancel:    cancel,
		done:      make(chan struct{}),
		progress: TranslateProgress{
			JobID:     jobID,
			SessionID: sessionID,
			Phase:     PhaseRunning,
			Target:    target,
			Total:     len(jobs),
		},
	}

	s.mu.Lock()
	s.jobs[jobID] = job
	s.mu.Unlock()

	log := logging.WithFields(ctx, "session_id", sessionID, "job_id", jobID, "target", target)
	log.Info("auto translate started", "cells", len(jobs))

	go s.runAutoTranslate(jobCtx, log, job, sess, gen, refs, jobs)

	return jobID, nil
}

func (s *Service) runAutoTranslate(ctx context.Context, log *slog.Logger, job *translateJob, sess *Session, gen uint64, refs []table.CellRef, jobs []translate.Job) {
	start := time.Now()
	defer job.cancel()

	var stale bool
	applied, failed := 0, 0

	err := s.batcher.Run(ctx, jobs, func(batch []translate.Result, done, total int) {
		for _, r := range batch {
			if r.Err != nil {
				failed++
				continue
			}
			// Empty results leave the cell alone.
			if r.Text == "" {
				continue
			}
			ref := refs[r.Index]
			if _, err := sess.applyMachine(gen, ref.File, ref.Key, r.Text); err != nil {
				if errors.Is(err, ErrStaleSession) || errors.Is(err, ErrNotLoaded) {
					stale = true
					job.cancel()
					return
				}
				failed++
				continue
			}
			applied++
		}
		job.update(func(p *TranslateProgress) {
			p.Done = done
			p.Applied = applied
			p.Failed = failed
		})
	})

	res := &TranslateResult{TranslateProgress: job.snapshot(), Duration: time.Since(start)}
	res.Applied = applied
	res.Failed = failed

	switch {
	case stale:
		res.Phase = PhaseCancelled
		res.Error = FormatUserError(ErrStaleSession)
	case err == nil:
		res.Phase = PhaseComplete
	case errors.Is(err, context.Canceled):
		res.Phase = PhaseCancelled
	default:
		res.Phase = PhaseFailed
		res.Error = FormatUserError(err)
	}

	log.Info("auto translate finished",
		"phase", res.Phase,
		"applied", applied,
		"failed", failed,
		"duration_ms", res.Duration.Milliseconds(),
	)
	if err != nil && res.Phase == PhaseFailed {
		log.Error("auto translate failed", "error", err)
	}

	job.finish(res)
	s.cleanupJob(job.id, s.cfg.Session.JobRetention)
}

func (s *Service) job(jobID string) (*translateJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// SubscribeProgress returns a channel of progress updates. The current
// progress is sent first; the channel is closed when the job finishes.
func (s *Service) SubscribeProgress(jobID string) (<-chan TranslateProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}
	return job.subscribe(), nil
}

// JobProgress returns the current progress without blocking.
func (s *Service) JobProgress(jobID string) (TranslateProgress, error) {
	job, err := s.job(jobID)
	if err != nil {
		return TranslateProgress{}, err
	}
	return job.snapshot(), nil
}

// AutoTranslateResult waits for the job to finish and returns its result.
func (s *Service) AutoTranslateResult(ctx context.Context, jobID string) (*TranslateResult, error) {
	job, err := s.job(jobID)
	if err != nil {
		return nil, err
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	res := *job.result
	return &res, nil
}

// CancelAutoTranslate stops a running job after its current batch.
func (s *Service) CancelAutoTranslate(jobID string) error {
	job, err := s.job(jobID)
	if err != nil {
		return err
	}
	job.cancel()
	return nil
}

// cleanupJob forgets a finished job after the retention period.
func (s *Service) cleanupJob(jobID string, after time.Duration) {
	time.AfterFunc(after, func() {
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
	})
}
