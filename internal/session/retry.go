package session

import "time"

// waitForLocalDescription is the bounded "local description not ready
// yet" dirty-wait retry: it polls up to Config.SourceReadyMaxAttempts
// times (default 10), Config.SourceReadyRetry apart (default 200ms),
// and reports whether a local description appeared, rather than
// retrying forever.
func (s *Session) waitForLocalDescription() bool {
	attempts := s.config.SourceReadyMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}
	interval := s.config.SourceReadyRetry
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	for i := 0; i < attempts; i++ {
		s.mu.Lock()
		ready := s.localSnap.Raw() != ""
		s.mu.Unlock()
		if ready {
			return true
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}

	return false
}
