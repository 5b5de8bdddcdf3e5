package chat

import "time"

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
