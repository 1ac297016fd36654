package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// presenceQueue runs presence operations one at a time in the order the
// model asked for them. Commands run on their own goroutines, so without it
// a clear issued after a publish could reach Discord first.
type presenceQueue struct {
	mu      sync.Mutex
	pending []presenceJob
	running bool
}

type presenceJob struct {
	run  func() PresenceMsg
	done chan PresenceMsg
}

// enqueue schedules run behind every earlier job and returns a channel
// that receives its result.
func (q *presenceQueue) enqueue(run func() PresenceMsg) <-chan PresenceMsg {
	job := presenceJob{run: run, done: make(chan PresenceMsg, 1)}

	q.mu.Lock()
	q.pending = append(q.pending, job)
	start := !q.running
	q.running = true
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return job.done
}

// cmd enqueues run immediately and returns a command that waits for it.
func (q *presenceQueue) cmd(run func() PresenceMsg) tea.Cmd {
	done := q.enqueue(run)
	return func() tea.Msg {
		return <-done
	}
}

func (q *presenceQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		job.done <- job.run()
	}
}
