package hive

import (
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// jobStateMachines tracks the legal Job lifecycle transitions (spec §3:
// active -> paused/complete) per job_id, grounded on the teacher's
// distributed/master/queue.go per-task syncx.StateMachine registry.
type jobStateMachines struct {
	machines *syncx.Map[string, *syncx.StateMachine[JobStatus]]
}

func newJobStateMachines() *jobStateMachines {
	return &jobStateMachines{machines: syncx.NewMap[string, *syncx.StateMachine[JobStatus]]()}
}

func (r *jobStateMachines) register(jobID string) *syncx.StateMachine[JobStatus] {
	if sm, ok := r.machines.Load(jobID); ok {
		return sm
	}
	sm := syncx.NewStateMachine(JobActive, syncx.WithTrackHistory[JobStatus](20))
	sm.AllowTransition(JobActive, JobPaused)
	sm.AllowTransition(JobActive, JobComplete)
	sm.AllowTransition(JobPaused, JobActive)
	sm.AllowTransition(JobPaused, JobComplete)
	r.machines.Store(jobID, sm)
	return sm
}

func (r *jobStateMachines) transition(jobID string, to JobStatus) error {
	return r.register(jobID).TransitionTo(to)
}

// roundRobin tracks the cursor used by get_active_job to cycle fairly
// across eligible jobs (spec §4.5), protected the way teacher's TaskQueue
// protects its circular pending buffer with a syncx.RWLock.
type roundRobin struct {
	mu     *syncx.RWLock
	cursor int
}

func newRoundRobin() *roundRobin {
	return &roundRobin{mu: syncx.NewRWLock()}
}

// next picks the job at (cursor % len(eligible)) and advances the cursor,
// so repeated calls cycle fairly through the eligible set regardless of
// its size changing between calls.
func (r *roundRobin) next(eligible []*JobRowView) *JobRowView {
	if len(eligible) == 0 {
		return nil
	}
	return syncx.WithLockReturnValue(r.mu, func() *JobRowView {
		idx := r.cursor % len(eligible)
		r.cursor++
		return eligible[idx]
	})
}

// JobRowView is the minimal projection of a store.JobRow the round-robin
// picker needs; kept here (rather than importing store's JobRow directly
// into the picker's signature) so registry.go has no store dependency.
type JobRowView struct {
	JobID string
}
