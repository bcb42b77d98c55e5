package audio

import (
	"testing"
)

func TestDecodeNoteOn(t *testing.T) {
	e, ok := DecodeNoteEvent([]byte{0x90, 60, 100})
	expectEqual(t, ok, true)
	expectEqual(t, e, NoteEvent{Kind: NoteOnKind, Note: 60, Velocity: 100})

	// any channel
	e, ok = DecodeNoteEvent([]byte{0x9F, 127, 1})
	expectEqual(t, ok, true)
	expectEqual(t, e, NoteEvent{Kind: NoteOnKind, Note: 127, Velocity: 1})
}

func TestDecodeNoteOff(t *testing.T) {
	e, ok := DecodeNoteEvent([]byte{0x80, 60, 64})
	expectEqual(t, ok, true)
	expectEqual(t, e.Kind, NoteOffKind)
	expectEqual(t, e.Note, 60)

	// note on with zero velocity
	e, ok = DecodeNoteEvent([]byte{0x93, 61, 0})
	expectEqual(t, ok, true)
	expectEqual(t, e.Kind, NoteOffKind)
	expectEqual(t, e.Note, 61)
}

func TestDecodeDropsOtherMessages(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{0x90},
		{0x90, 60},
		{0xB0, 7, 100},  // control change
		{0xE0, 0, 64},   // pitch bend
		{0x90, 0x80, 1}, // data byte with the status bit
		{60, 100, 0},    // no status byte
	}
	for _, data := range inputs {
		if e, ok := DecodeNoteEvent(data); ok {
			t.Errorf("expected %v to be dropped, got %+v", data, e)
		}
	}
}

func TestAddMidiEvent(t *testing.T) {
	a := newAudio(NewParams())
	a.AddMidiEvent([]byte{0x90, 60, 100})
	a.AddMidiEvent([]byte{0x90, 64, 100})
	a.AddMidiEvent([]byte{0xB0, 64, 127})
	expectEqual(t, a.synth.ActiveVoices(), 2)
	a.AddMidiEvent([]byte{0x80, 60, 0})
	expectEqual(t, a.synth.voices[60].adsr.stage, stageRelease)
	expectEqual(t, a.synth.voices[64].adsr.stage, stageAttack)
}
