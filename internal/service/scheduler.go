package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/infrastructure/logger"
	"github.com/bnema/mediaq/internal/infrastructure/metrics"
	"github.com/bnema/mediaq/internal/port"
)

const (
	DefaultHistoryLimit = 100

	msgQueueTimeout    = "Job timed out while waiting in queue"
	msgCanceledQueued  = "Job canceled before start"
	msgCanceledRunning = "Job canceled"
	msgCompleted       = "Job completed"
)

type CancelAllResult struct {
	RunningJobID  string   `json:"running_job_id,omitempty"`
	RunningJobIDs []string `json:"running_job_ids"`
	QueuedJobIDs  []string `json:"queued_job_ids"`
}

type job struct {
	id        string
	spec      domain.JobSpec
	status    domain.JobStatus
	createdAt time.Time
	startedAt time.Time
	token     *domain.CancelToken
	progress  *domain.ProgressTracker
	timer     *time.Timer
}

// Scheduler admits jobs into a FIFO queue and runs up to MaxParallelJobs of
// them at once. All queue state is guarded by mu; job bodies run on their own
// goroutines and only touch the scheduler through settle.
type Scheduler struct {
	mu            sync.Mutex
	limits        domain.QueueLimits
	historyLimit  int
	queue         []*job
	running       []*job
	history       []domain.JobHistoryEntry
	lastQueueFull *domain.QueueFullEvent
	idle          chan struct{}

	// archiving counts record calls still writing to the sink; the scheduler
	// is not idle until they finish.
	archiving int

	events EventPublisher
	sink   port.HistorySink
	now    func() time.Time
}

// NewScheduler creates a scheduler. events and sink may be nil; a
// historyLimit below one uses DefaultHistoryLimit.
func NewScheduler(limits domain.QueueLimits, historyLimit int, events EventPublisher, sink port.HistorySink) *Scheduler {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &Scheduler{
		limits:       limits.Normalize(),
		historyLimit: historyLimit,
		events:       events,
		sink:         sink,
		now:          time.Now,
	}
}

// Enqueue admits a job. A full queue is reported synchronously with a
// *domain.QueueFullError; every other failure ends up in the job's history
// entry instead of being returned here.
func (s *Scheduler) Enqueue(spec domain.JobSpec) (string, error) {
	if spec.Execute == nil {
		return "", domain.ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit := s.limits.MaxQueueLength; limit > 0 && len(s.queue) >= limit {
		s.lastQueueFull = &domain.QueueFullEvent{OccurredAt: s.now(), QueuedJobs: len(s.queue)}
		metrics.JobsRejectedTotal.Inc()
		logger.Warn.Printf("queue full, rejecting job %q (%d queued)", logger.SanitizeForLog(spec.Name), len(s.queue))
		return "", &domain.QueueFullError{Limit: limit}
	}

	j := &job{
		id:        uuid.NewString(),
		spec:      spec,
		status:    domain.JobStatusQueued,
		createdAt: s.now(),
		token:     domain.NewCancelToken(),
		progress:  domain.NewProgressTracker(spec.EstimatedTotalTimeMs),
	}
	s.queue = append(s.queue, j)
	metrics.JobsEnqueuedTotal.Inc()
	logger.Info.Printf("job %s queued (name=%q)", j.id, logger.SanitizeForLog(spec.Name))

	if timeout := s.limits.QueueTimeoutMs; timeout > 0 {
		j.timer = time.AfterFunc(time.Duration(timeout)*time.Millisecond, func() {
			s.expire(j)
		})
	}

	s.publishLocked(j, "")
	s.pumpLocked()
	return j.id, nil
}

// CancelAll drops every queued job right away and asks running jobs to stop.
// Running jobs are finalized later, when their bodies return.
func (s *Scheduler) CancelAll() CancelAllResult {
	s.mu.Lock()

	result := CancelAllResult{RunningJobIDs: []string{}, QueuedJobIDs: []string{}}
	for _, j := range s.running {
		if j.status == domain.JobStatusCancelling || j.status == domain.JobStatusCanceled {
			continue
		}
		j.status = domain.JobStatusCancelling
		j.token.Cancel(msgCanceledRunning)
		s.publishLocked(j, msgCanceledRunning)
		result.RunningJobIDs = append(result.RunningJobIDs, j.id)
	}
	if len(result.RunningJobIDs) > 0 {
		result.RunningJobID = result.RunningJobIDs[0]
	}

	queued := s.queue
	s.queue = nil
	entries := make([]domain.JobHistoryEntry, 0, len(queued))
	for _, j := range queued {
		stopTimer(j)
		entries = append(entries, s.finalizeLocked(j, domain.JobStatusCanceled, msgCanceledQueued, nil))
		result.QueuedJobIDs = append(result.QueuedJobIDs, j.id)
	}

	s.clearQueueFullLocked()
	s.updateGaugesLocked()
	s.archiving++
	s.mu.Unlock()

	s.record(entries...)
	return result
}

func (s *Scheduler) ActiveJobs() []domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshots(s.running)
}

func (s *Scheduler) QueuedJobs() []domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshots(s.queue)
}

// History returns the terminal entries oldest first.
func (s *Scheduler) History() []domain.JobHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.JobHistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = e.Clone()
	}
	return out
}

func (s *Scheduler) Limits() domain.QueueLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// LastQueueFullEvent returns the last rejection while the queue is still at
// capacity, nil otherwise.
func (s *Scheduler) LastQueueFullEvent() *domain.QueueFullEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastQueueFull == nil {
		return nil
	}
	ev := *s.lastQueueFull
	return &ev
}

// WaitForIdle blocks until nothing is running or queued, or ctx is done.
func (s *Scheduler) WaitForIdle(ctx context.Context) error {
	s.mu.Lock()
	if s.isIdleLocked() {
		s.mu.Unlock()
		return nil
	}
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) pumpLocked() {
	for len(s.running) < s.limits.MaxParallelJobs && len(s.queue) > 0 {
		j := s.queue[0]
		s.queue = slices.Delete(s.queue, 0, 1)
		stopTimer(j)

		j.status = domain.JobStatusRunning
		j.startedAt = s.now()
		s.running = append(s.running, j)
		s.publishLocked(j, "")
		logger.Info.Printf("job %s started", j.id)

		go s.run(j)
	}
	s.clearQueueFullLocked()
	s.updateGaugesLocked()
}

// expire removes a job whose queue timeout fired. The job may already have
// been dequeued or canceled by the time the timer runs.
func (s *Scheduler) expire(j *job) {
	s.mu.Lock()

	idx := slices.Index(s.queue, j)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.queue = slices.Delete(s.queue, idx, idx+1)
	entry := s.finalizeLocked(j, domain.JobStatusCanceled, msgQueueTimeout, nil)

	s.clearQueueFullLocked()
	s.updateGaugesLocked()
	s.archiving++
	s.mu.Unlock()

	s.record(entry)
}

func (s *Scheduler) run(j *job) {
	ctx := j.token.Context()
	handle := &domain.JobHandle{ID: j.id, Cancel: j.token, Progress: j.progress}

	result, err := safeExecute(ctx, j.spec.Execute, handle)
	if err == nil && result != nil {
		if result.TotalTimeMs != nil {
			j.progress.SetTotalTime(*result.TotalTimeMs)
		}
		if result.OutputTimeMs != nil {
			j.progress.SetOutputTime(*result.OutputTimeMs)
		}
	}

	if err == nil && j.spec.GeneratePreview != nil && s.beginCoolDown(j) {
		err = safePreview(ctx, j.spec.GeneratePreview, result, handle)
	}

	s.settle(j, result, err)
}

func (s *Scheduler) beginCoolDown(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.status != domain.JobStatusRunning || j.token.Cancelled() {
		return false
	}
	j.status = domain.JobStatusCoolingDown
	s.publishLocked(j, "")
	return true
}

// settle finalizes a job whose body returned. A signalled token wins over
// whatever the body returned.
func (s *Scheduler) settle(j *job, result *domain.JobResult, err error) {
	s.mu.Lock()

	s.running = slices.DeleteFunc(s.running, func(r *job) bool { return r == j })

	var entry domain.JobHistoryEntry
	switch {
	case j.token.Cancelled() || domain.IsCancellation(err):
		reason := j.token.Reason()
		if reason == "" {
			reason = err.Error()
		}
		entry = s.finalizeLocked(j, domain.JobStatusCanceled, reason, result)
	case err != nil:
		entry = s.finalizeLocked(j, domain.JobStatusFailed, err.Error(), result)
	default:
		entry = s.finalizeLocked(j, domain.JobStatusCompleted, "", result)
	}

	s.pumpLocked()
	s.archiving++
	s.mu.Unlock()

	s.record(entry)
}

// finalizeLocked moves a job to its terminal status and appends its single
// history entry.
func (s *Scheduler) finalizeLocked(j *job, status domain.JobStatus, errMsg string, result *domain.JobResult) domain.JobHistoryEntry {
	j.status = status
	finishedAt := s.now()

	startedAt := j.startedAt
	if startedAt.IsZero() {
		startedAt = j.createdAt
	}

	entry := domain.JobHistoryEntry{
		JobID:      j.id,
		Name:       j.spec.Name,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Metadata:   j.spec.Metadata.Clone(),
		LogLevel:   domain.LogLevelFor(status),
	}
	if result != nil {
		entry.OutputPath = result.OutputPath
	}
	switch status {
	case domain.JobStatusCompleted:
		entry.Message = msgCompleted
	default:
		entry.ErrorMessage = errMsg
		entry.Message = errMsg
	}

	s.history = append(s.history, entry)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}

	metrics.JobsFinishedTotal.WithLabelValues(string(status)).Inc()
	if !j.startedAt.IsZero() {
		metrics.JobDurationSeconds.WithLabelValues(string(status)).Observe(finishedAt.Sub(j.startedAt).Seconds())
	}
	s.publishLocked(j, entry.Message)
	return entry.Clone()
}

// record logs and archives entries outside the lock. Callers bump archiving
// before unlocking; record releases it and re-checks idleness.
func (s *Scheduler) record(entries ...domain.JobHistoryEntry) {
	defer func() {
		s.mu.Lock()
		s.archiving--
		s.checkIdleLocked()
		s.mu.Unlock()
	}()

	for _, e := range entries {
		logger.ForLevel(string(e.LogLevel)).Printf("job %s (%s) %s: %s",
			e.JobID, logger.SanitizeForLog(e.Name), e.Status, logger.SanitizeForLog(e.Message))

		if s.sink == nil {
			continue
		}
		if err := s.sink.Record(e); err != nil {
			logger.Error.Printf("failed to archive history for job %s: %v", e.JobID, err)
		}
	}
}

func (s *Scheduler) publishLocked(j *job, message string) {
	if s.events == nil {
		return
	}
	s.events.Publish(j.id, Event{
		Type:     "status",
		Status:   string(j.status),
		Progress: j.progress.Ratio(),
		Message:  message,
	})
}

func (s *Scheduler) clearQueueFullLocked() {
	if s.lastQueueFull == nil {
		return
	}
	if limit := s.limits.MaxQueueLength; limit == 0 || len(s.queue) < limit {
		s.lastQueueFull = nil
	}
}

func (s *Scheduler) isIdleLocked() bool {
	return len(s.running) == 0 && len(s.queue) == 0 && s.archiving == 0
}

func (s *Scheduler) checkIdleLocked() {
	if s.idle != nil && s.isIdleLocked() {
		close(s.idle)
		s.idle = nil
	}
}

func (s *Scheduler) updateGaugesLocked() {
	metrics.QueuedJobs.Set(float64(len(s.queue)))
	metrics.RunningJobs.Set(float64(len(s.running)))
}

func snapshots(jobs []*job) []domain.JobSnapshot {
	out := make([]domain.JobSnapshot, len(jobs))
	for i, j := range jobs {
		out[i] = domain.JobSnapshot{
			ID:       j.id,
			Name:     j.spec.Name,
			Status:   j.status,
			Progress: j.progress.Ratio(),
			Metadata: j.spec.Metadata.Clone(),
		}
	}
	return out
}

func stopTimer(j *job) {
	if j.timer != nil {
		j.timer.Stop()
	}
}

func safeExecute(ctx context.Context, fn domain.ExecuteFunc, h *domain.JobHandle) (result *domain.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx, h)
}

func safePreview(ctx context.Context, fn domain.PreviewFunc, result *domain.JobResult, h *domain.JobHandle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx, result, h)
}

// panicError turns a recovered value into an error, stringifying values
// that are not errors.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
