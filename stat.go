package sessionpool

// Stat is a snapshot of pool statistics.
type Stat struct {
	free    int
	inUse   int
	max     int
	waiting int
}

// FreeSessions returns the number of idle sessions ready to be lent out.
func (s *Stat) FreeSessions() int { return s.free }

// AcquiredSessions returns the number of sessions currently out on loan.
func (s *Stat) AcquiredSessions() int { return s.inUse }

// MaxSessions returns the pool capacity.
func (s *Stat) MaxSessions() int { return s.max }

// WaitingAcquires returns the number of callers queued for a session.
func (s *Stat) WaitingAcquires() int { return s.waiting }
