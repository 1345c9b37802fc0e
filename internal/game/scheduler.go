package game

import "sort"

// TaskKind identifies a deferred reset.
type TaskKind string

const (
	// TaskRespawn returns a captured projectile to the tee.
	TaskRespawn TaskKind = "respawn"
	// TaskReposition lifts a stopped projectile back onto the launcher.
	TaskReposition TaskKind = "reposition"
)

// Handle refers to a scheduled task. The zero Handle is never issued.
type Handle uint64

type task struct {
	handle Handle
	kind   TaskKind
	due    uint64
}

// Scheduler is a tick-driven queue of deferred resets. It replaces wall-clock
// timers so a reset can be cancelled when input makes it stale.
type Scheduler struct {
	now   uint64
	next  Handle
	tasks []task
}

// Schedule queues kind to fire after the given number of ticks. A delay of
// zero fires on the next Advance.
func (s *Scheduler) Schedule(kind TaskKind, after int) Handle {
	if after < 0 {
		after = 0
	}
	s.next++
	s.tasks = append(s.tasks, task{handle: s.next, kind: kind, due: s.now + uint64(after)})
	return s.next
}

// Cancel removes one task. It reports whether the task was still pending.
func (s *Scheduler) Cancel(h Handle) bool {
	for i, t := range s.tasks {
		if t.handle == h {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// CancelKind removes every pending task of kind and returns how many there were.
func (s *Scheduler) CancelKind(kind TaskKind) int {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.kind != kind {
			kept = append(kept, t)
		}
	}
	n := len(s.tasks) - len(kept)
	s.tasks = kept
	return n
}

// Pending reports whether a task of kind is queued.
func (s *Scheduler) Pending(kind TaskKind) bool {
	for _, t := range s.tasks {
		if t.kind == kind {
			return true
		}
	}
	return false
}

// Len is the number of queued tasks.
func (s *Scheduler) Len() int { return len(s.tasks) }

// Advance moves time forward one tick and returns the tasks now due, oldest
// deadline first and in scheduling order for equal deadlines.
func (s *Scheduler) Advance() []TaskKind {
	s.now++

	var due []task
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.due <= s.now {
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	if len(due) == 0 {
		return nil
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	kinds := make([]TaskKind, len(due))
	for i, t := range due {
		kinds[i] = t.kind
	}
	return kinds
}
