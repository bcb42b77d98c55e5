package main

import (
	"sync"
	"testing"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
)

type recordingSink struct {
	sync.Mutex
	events []audio.NoteEvent
}

func (s *recordingSink) AddNoteEvent(e audio.NoteEvent) {
	s.Lock()
	s.events = append(s.events, e)
	s.Unlock()
}

func (s *recordingSink) get() []audio.NoteEvent {
	s.Lock()
	defer s.Unlock()
	return append([]audio.NoteEvent(nil), s.events...)
}

func TestKeyToNote(t *testing.T) {
	note, ok := keyToNote('z')
	expectEqual(t, ok, true)
	expectEqual(t, note, 60)
	note, ok = keyToNote('s')
	expectEqual(t, ok, true)
	expectEqual(t, note, 61)
	note, ok = keyToNote(',')
	expectEqual(t, ok, true)
	expectEqual(t, note, 72)
	note, ok = keyToNote('/')
	expectEqual(t, ok, true)
	expectEqual(t, note, 76)
	_, ok = keyToNote('q')
	expectEqual(t, ok, false)
	_, ok = keyToNote('Z')
	expectEqual(t, ok, false)
}

func TestGateReleasesAfterLength(t *testing.T) {
	sink := &recordingSink{}
	g := newGate(sink, 20*time.Millisecond)
	g.press(60)
	expectEqual(t, sink.get(), []audio.NoteEvent{
		{Kind: audio.NoteOnKind, Note: 60, Velocity: keyVelocity},
	})
	time.Sleep(200 * time.Millisecond)
	expectEqual(t, sink.get(), []audio.NoteEvent{
		{Kind: audio.NoteOnKind, Note: 60, Velocity: keyVelocity},
		{Kind: audio.NoteOffKind, Note: 60},
	})
}

func TestGateExtendsHeldNote(t *testing.T) {
	sink := &recordingSink{}
	g := newGate(sink, time.Hour)
	g.press(62)
	g.press(62)
	g.press(62)
	expectEqual(t, len(sink.get()), 1)
	g.releaseAll()
	expectEqual(t, sink.get(), []audio.NoteEvent{
		{Kind: audio.NoteOnKind, Note: 62, Velocity: keyVelocity},
		{Kind: audio.NoteOffKind, Note: 62},
	})
	// nothing left to release
	g.releaseAll()
	expectEqual(t, len(sink.get()), 2)
}

func TestGateIgnoresSupersededTimer(t *testing.T) {
	sink := &recordingSink{}
	g := newGate(sink, time.Hour)
	g.press(64)
	g.Lock()
	old := g.timers[64]
	g.Unlock()
	// the old timer has fired but its callback has not run yet
	old.timer.Stop()
	g.press(64)
	g.release(64, old)
	expectEqual(t, sink.get(), []audio.NoteEvent{
		{Kind: audio.NoteOnKind, Note: 64, Velocity: keyVelocity},
		{Kind: audio.NoteOnKind, Note: 64, Velocity: keyVelocity},
	})
	g.releaseAll()
	expectEqual(t, sink.get(), []audio.NoteEvent{
		{Kind: audio.NoteOnKind, Note: 64, Velocity: keyVelocity},
		{Kind: audio.NoteOnKind, Note: 64, Velocity: keyVelocity},
		{Kind: audio.NoteOffKind, Note: 64},
	})
}
