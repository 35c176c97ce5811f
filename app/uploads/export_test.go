package uploads

import "time"

// SetClock pins the clock and id generator for tests.
func (s *Service) SetClock(now func() time.Time, newID func() string) {
	s.now = now
	s.newID = newID
}
