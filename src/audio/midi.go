package audio

import (
	"bytes"
	"context"
	"log"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/midimessage/channel"
	"gitlab.com/gomidi/midi/midimessage/realtime"
	"gitlab.com/gomidi/midi/midireader"
	"gitlab.com/gomidi/rtmididrv"
)

// ----- Note Event ----- //

// NoteEventKind ...
type NoteEventKind int

// NoteEventKind values
const (
	NoteOnKind NoteEventKind = iota
	NoteOffKind
)

// NoteEvent is a decoded note message. Note and Velocity are 0-127.
type NoteEvent struct {
	Kind     NoteEventKind
	Note     int
	Velocity int
}

// DecodeNoteEvent decodes a raw channel voice message. Anything that is not a
// note on/off is reported as !ok. A note on with velocity 0 is a note off.
func DecodeNoteEvent(data []byte) (NoteEvent, bool) {
	if len(data) < 2 || data[0] < 0x80 {
		return NoteEvent{}, false
	}
	for _, b := range data[1:] {
		if b >= 0x80 {
			return NoteEvent{}, false
		}
	}
	rd := midireader.New(bytes.NewReader(data), func(realtime.Message) {})
	msg, err := rd.Read()
	if err != nil {
		return NoteEvent{}, false
	}
	switch m := msg.(type) {
	case channel.NoteOn:
		if m.Velocity() == 0 {
			return NoteEvent{Kind: NoteOffKind, Note: int(m.Key())}, true
		}
		return NoteEvent{Kind: NoteOnKind, Note: int(m.Key()), Velocity: int(m.Velocity())}, true
	case channel.NoteOff:
		return NoteEvent{Kind: NoteOffKind, Note: int(m.Key())}, true
	}
	return NoteEvent{}, false
}

// ----- MIDI IN ----- //

// ListenToMidiIn forwards raw messages from the first MIDI input port until
// ctx is done. The channel is closed when listening stops. An error is
// returned only if the driver itself cannot start; a machine without ports
// just yields a closed channel.
func ListenToMidiIn(ctx context.Context) (<-chan []byte, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize MIDI driver")
	}
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI IN queue is full, message dropped")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch, nil
}
