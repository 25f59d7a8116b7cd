package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler passes n out of every d debug records. Callback dispatch and
// keepalive edits are chatty at debug level, so the default keeps 1 in 50.
// A zero ratio disables sampling and every record passes.
type ratioSampler struct {
	mu          sync.Mutex
	numerator   int
	denominator int
	seen        int
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set replaces the ratio and restarts the window.
func (s *ratioSampler) Set(numerator, denominator int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numerator <= 0 || denominator <= 0 {
		s.numerator = 0
		s.denominator = 0
		s.seen = 0
		return
	}
	if numerator > denominator {
		numerator = denominator
	}
	s.numerator = numerator
	s.denominator = denominator
	s.seen = 0
}

// Allow reports whether the current record falls inside the kept slice of
// the window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denominator <= 0 || s.numerator <= 0 {
		return true
	}
	s.seen++
	if s.seen > s.denominator {
		s.seen = 1
	}
	return s.seen <= s.numerator
}

// parseRatioSpec reads "n/d" or a bare "d" (meaning 1/d). Anything else
// disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if num, den, ok := strings.Cut(spec, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 == nil && err2 == nil {
			return n, d
		}
		return 0, 0
	}
	if v, err := strconv.Atoi(spec); err == nil {
		if v <= 0 {
			return 0, 0
		}
		return 1, v
	}
	return 0, 0
}
