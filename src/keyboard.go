package main

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/pkg/errors"
)

// two rows of a QWERTY keyboard laid out like a piano, starting at C4
const keyLayout = "zsxdcvgbhnjm,l.;/"
const keyBaseNote = 60
const keyVelocity = 100

// terminals report no key-up, so every key press is held for a fixed time
const keyGate = 300 * time.Millisecond

func keyToNote(r rune) (int, bool) {
	i := strings.IndexRune(keyLayout, r)
	if i < 0 {
		return 0, false
	}
	return keyBaseNote + i, true
}

type noteSink interface {
	AddNoteEvent(e audio.NoteEvent)
}

// gate releases each note keyGate after its latest key press.
type gate struct {
	sync.Mutex
	sink   noteSink
	length time.Duration
	timers map[int]*gateTimer
}

type gateTimer struct {
	timer *time.Timer
}

func newGate(sink noteSink, length time.Duration) *gate {
	return &gate{
		sink:   sink,
		length: length,
		timers: make(map[int]*gateTimer),
	}
}

func (g *gate) press(note int) {
	g.Lock()
	defer g.Unlock()
	if gt, ok := g.timers[note]; ok && gt.timer.Stop() {
		// still held: extend
		gt.timer.Reset(g.length)
		return
	}
	g.sink.AddNoteEvent(audio.NoteEvent{Kind: audio.NoteOnKind, Note: note, Velocity: keyVelocity})
	gt := &gateTimer{}
	gt.timer = time.AfterFunc(g.length, func() {
		g.release(note, gt)
	})
	g.timers[note] = gt
}

// release sends the note off only if gt still owns note; a timer that fired
// while the key was being pressed again has been superseded.
func (g *gate) release(note int, gt *gateTimer) {
	g.Lock()
	defer g.Unlock()
	if g.timers[note] != gt {
		return
	}
	delete(g.timers, note)
	g.sink.AddNoteEvent(audio.NoteEvent{Kind: audio.NoteOffKind, Note: note})
}

func (g *gate) releaseAll() {
	g.Lock()
	timers := make(map[int]*gateTimer, len(g.timers))
	for note, gt := range g.timers {
		if gt.timer.Stop() {
			timers[note] = gt
		}
	}
	g.Unlock()
	for note, gt := range timers {
		g.release(note, gt)
	}
}

func playKeyboard(ctx context.Context, a *audio.Audio, quit context.CancelFunc) error {
	keysCh, err := keyboard.GetKeys(16)
	if err != nil {
		return errors.Wrap(err, "failed to open keyboard")
	}
	defer func() {
		if err := keyboard.Close(); err != nil {
			log.Printf("error while closing keyboard: %v", err)
		}
	}()
	g := newGate(a, keyGate)
	defer g.releaseAll()
	log.Printf("Play with keys %q. Press Esc or Enter to exit...\n", keyLayout)
	for {
		select {
		case <-ctx.Done():
			log.Println("playKeyboard() ended.")
			return nil
		case ev, ok := <-keysCh:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return errors.Wrap(ev.Err, "failed to read key")
			}
			switch ev.Key {
			case keyboard.KeyEsc, keyboard.KeyCtrlC, keyboard.KeyEnter:
				log.Println("Closing...")
				quit()
				return nil
			}
			if note, ok := keyToNote(ev.Rune); ok {
				g.press(note)
			}
		}
	}
}
