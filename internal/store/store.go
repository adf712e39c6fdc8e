package store

import (
	"sort"
	"sync"
	"time"

	"energy_profile/internal/model"
)

// Store holds named time series in memory, each kept sorted by timestamp.
type Store struct {
	mu     sync.RWMutex
	series map[string][]model.Reading
}

func New() *Store {
	return &Store{series: make(map[string][]model.Reading)}
}

// Add appends readings to the named series and re-sorts it. Readings with
// equal timestamps keep their insertion order.
func (s *Store) Add(name string, readings []model.Reading) {
	if len(readings) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(s.series[name], readings...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	s.series[name] = all
}

// Names returns the stored series names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of readings in a series.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[name])
}

// All returns a copy of a series.
func (s *Store) All(name string) []model.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.series[name]
	if len(all) == 0 {
		return nil
	}
	out := make([]model.Reading, len(all))
	copy(out, all)
	return out
}

// TimeRange returns the first and last timestamps of a series.
func (s *Store) TimeRange(name string) (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.series[name]
	if len(all) == 0 {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: all[0].Timestamp, End: all[len(all)-1].Timestamp}, true
}

// InRange returns readings between start (inclusive) and end (exclusive).
func (s *Store) InRange(name string, start, end time.Time) []model.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.series[name]
	startIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(start)
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(end)
	})
	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.Reading, endIdx-startIdx)
	copy(result, all[startIdx:endIdx])
	return result
}

// At returns the most recent reading at or before t.
func (s *Store) At(name string, t time.Time) (model.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.series[name]
	idx := sort.Search(len(all), func(i int) bool {
		return all[i].Timestamp.After(t)
	})
	if idx == 0 {
		return model.Reading{}, false
	}
	return all[idx-1], true
}

// After returns the first reading strictly after t.
func (s *Store) After(name string, t time.Time) (model.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.series[name]
	idx := sort.Search(len(all), func(i int) bool {
		return all[i].Timestamp.After(t)
	})
	if idx == len(all) {
		return model.Reading{}, false
	}
	return all[idx], true
}
