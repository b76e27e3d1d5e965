package main

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/heap"
)

// session is the allocator a single command runs against, built from the
// global flags.
type session struct {
	name  string
	a     alloc.Allocator
	arena *alloc.Arena
	rec   *alloc.Recording
	tst   *alloc.Testing
}

func newSession() (*session, error) {
	if failAt != 0 && allocatorName != "testing" {
		return nil, fmt.Errorf("--fail-at requires --allocator testing, got %q", allocatorName)
	}

	var src heap.Source = heap.Runtime
	if useMmap {
		src = heap.NewMmap()
	}

	s := &session{name: allocatorName}
	switch allocatorName {
	case "heap":
		s.a = alloc.HeapFrom(src)
	case "null":
		s.a = alloc.Null()
	case "arena":
		ar, err := alloc.NewArena(alloc.ArenaOptions{BlockSize: blockSize, Source: src})
		if err != nil {
			return nil, err
		}
		s.arena = ar
		s.a = ar.Allocator()
	case "recording":
		s.rec = alloc.NewRecording(alloc.RecordingOptions{Source: src, Backtraces: verbose})
		s.a = s.rec.Allocator()
	case "testing":
		s.tst = alloc.NewTesting(alloc.RecordingOptions{Source: src, Backtraces: verbose})
		s.tst.SetFailAt(failAt)
		s.a = s.tst.Allocator()
	default:
		return nil, fmt.Errorf("unknown allocator %q (want heap, arena, recording, testing or null)", allocatorName)
	}
	printVerbose("Using %s allocator\n", s.a)
	return s, nil
}

// close releases whatever the allocator still holds. For instrumented
// allocators anything still live is a leak and is returned as an error.
func (s *session) close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(*alloc.LeakError)
			if !ok {
				panic(r)
			}
			err = le
		}
	}()
	switch {
	case s.rec != nil:
		s.rec.AssertAllFreed()
		s.rec.Cleanup()
	case s.tst != nil:
		s.tst.AssertAllFreed()
	case s.arena != nil:
		printVerbose("Arena before release: %+v\n", s.arena.Stats())
		s.arena.FreeAll()
	}
	return nil
}

// withSession runs fn against a fresh session and checks for leaks after.
func withSession(fn func(s *session) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	runErr := fn(s)
	return errors.Join(runErr, s.close())
}
