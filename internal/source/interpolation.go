package source

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ivlev/kfcurve/internal/keyframe"
)

var ErrNotFound = errors.New("no value at timestamp")

// InterpolationSource is an in-memory linear control source. It is safe
// for concurrent use; listeners run outside the lock.
type InterpolationSource struct {
	mu        sync.Mutex
	points    []keyframe.Point
	listeners map[int]func(Change)
	nextID    int
}

// NewInterpolationSource creates a source holding points
func NewInterpolationSource(points ...keyframe.Point) *InterpolationSource {
	s := &InterpolationSource{listeners: make(map[int]func(Change))}
	for _, p := range points {
		s.set(p)
	}
	return s
}

// All returns a sorted copy of the stored values
func (s *InterpolationSource) All() []keyframe.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]keyframe.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of stored values
func (s *InterpolationSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// Set stores value at ts, replacing any existing value there
func (s *InterpolationSource) Set(ts int64, value float64) error {
	p := keyframe.Point{Timestamp: ts, Value: value}
	s.mu.Lock()
	s.set(p)
	s.mu.Unlock()
	s.emit(Change{Kind: ValueAdded, Point: p})
	return nil
}

// Unset removes the value at ts
func (s *InterpolationSource) Unset(ts int64) error {
	s.mu.Lock()
	i := s.search(ts)
	if i >= len(s.points) || s.points[i].Timestamp != ts {
		s.mu.Unlock()
		return fmt.Errorf("unset %d: %w", ts, ErrNotFound)
	}
	p := s.points[i]
	s.points = append(s.points[:i], s.points[i+1:]...)
	s.mu.Unlock()

	s.emit(Change{Kind: ValueRemoved, Point: p})
	return nil
}

// UnsetAll removes every value
func (s *InterpolationSource) UnsetAll() {
	s.mu.Lock()
	s.points = nil
	s.mu.Unlock()
	s.emit(Change{Kind: ValuesCleared})
}

// ValueAt interpolates linearly, holding the edge values outside the range
func (s *InterpolationSource) ValueAt(ts int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.points)
	if n == 0 {
		return 0, fmt.Errorf("value at %d: %w", ts, ErrNotFound)
	}
	if ts <= s.points[0].Timestamp {
		return s.points[0].Value, nil
	}
	if ts >= s.points[n-1].Timestamp {
		return s.points[n-1].Value, nil
	}

	i := s.search(ts)
	if s.points[i].Timestamp == ts {
		return s.points[i].Value, nil
	}
	prev, next := s.points[i-1], s.points[i]
	t := float64(ts-prev.Timestamp) / float64(next.Timestamp-prev.Timestamp)
	return prev.Value + (next.Value-prev.Value)*t, nil
}

// Subscribe registers fn for change notifications
func (s *InterpolationSource) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *InterpolationSource) set(p keyframe.Point) {
	i := s.search(p.Timestamp)
	if i < len(s.points) && s.points[i].Timestamp == p.Timestamp {
		s.points[i] = p
		return
	}
	s.points = append(s.points, keyframe.Point{})
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = p
}

func (s *InterpolationSource) search(ts int64) int {
	return sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Timestamp >= ts
	})
}

func (s *InterpolationSource) emit(c Change) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
