package sfx

// Scheduler queues effects to fire at future times on whatever clock the game
// uses (beat time, simulation time, or wall time in seconds). Call Process
// from the game loop; due effects play and entries that have gone stale by
// more than a few seconds are silently discarded, so a paused or stalled game
// does not burst-fire a backlog.
type Scheduler struct {
	pending []scheduled
}

type scheduled struct {
	id Id
	at float64
}

// staleAfter is how long past its time an entry may still fire, in the
// caller's clock units (seconds).
const staleAfter = 3.0

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make([]scheduled, 0, 64)}
}

// PlayAt schedules id to fire once the clock reaches at.
func (s *Scheduler) PlayAt(id Id, at float64) {
	s.pending = append(s.pending, scheduled{id: id, at: at})
}

// Clear drops everything scheduled.
func (s *Scheduler) Clear() {
	s.pending = s.pending[:0]
}

// Process fires every entry due at the given clock reading.
func (s *Scheduler) Process(now float64) {
	i := 0
	for i < len(s.pending) {
		p := s.pending[i]
		if p.at > now {
			i++
			continue
		}
		if p.at >= now-staleAfter {
			p.id.Play()
		}
		// Order does not matter; fill the hole with the last entry.
		s.pending[i] = s.pending[len(s.pending)-1]
		s.pending = s.pending[:len(s.pending)-1]
	}
}
