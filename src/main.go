package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	sampleRate  = flag.Float64("sample-rate", 48000, "output sample rate in Hz")
	attack      = flag.Float64("attack", 5, "attack time in ms")
	decay       = flag.Float64("decay", 20, "decay time in ms")
	sustain     = flag.Float64("sustain", 0.7, "sustain level (0-1)")
	release     = flag.Float64("release", 10, "release time in ms")
	curve       = flag.String("curve", "linear", "decay and release curve: linear or exponential")
	gain        = flag.Float64("gain", 2, "gain applied before soft clipping")
	retrigger   = flag.Bool("retrigger", false, "restart a note that is pressed again while still sounding")
	reverb      = flag.Bool("reverb", false, "enable reverb")
	reverbDelay = flag.Float64("reverb-delay", 50, "reverb delay in ms")
	reverbDecay = flag.Float64("reverb-decay", 0.5, "reverb feedback (0-1)")
	reverbMix   = flag.Float64("reverb-mix", 0.3, "reverb wet mix (0-1)")
	sockFile    = flag.String("sock", "/tmp/desktop-synth.sock", "unix socket for remote commands, empty to disable")
	useKeyboard = flag.Bool("keyboard", true, "play notes with the computer keyboard when stdin is a terminal")
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func paramsFromFlags() (*audio.Params, error) {
	p := audio.NewParams()
	settings := [][3]string{
		{"engine", "sample_rate", formatFloat(*sampleRate)},
		{"engine", "gain", formatFloat(*gain)},
		{"engine", "retrigger", strconv.FormatBool(*retrigger)},
		{"adsr", "attack", formatFloat(*attack)},
		{"adsr", "decay", formatFloat(*decay)},
		{"adsr", "sustain", formatFloat(*sustain)},
		{"adsr", "release", formatFloat(*release)},
		{"adsr", "curve", *curve},
		{"reverb", "enabled", strconv.FormatBool(*reverb)},
		{"reverb", "delay", formatFloat(*reverbDelay)},
		{"reverb", "decay", formatFloat(*reverbDecay)},
		{"reverb", "mix", formatFloat(*reverbMix)},
	}
	for _, s := range settings {
		if err := p.Set(s[0], s[1], s[2]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	params, err := paramsFromFlags()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	audio, err := audio.NewAudio(params)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer audio.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Start(ctx)
	})
	g.Go(func() error {
		return routeMidiIn(ctx, audio)
	})
	g.Go(func() error {
		return logStats(ctx, audio)
	})
	if *sockFile != "" {
		g.Go(func() error {
			return serveIPC(ctx, *sockFile, audio)
		})
	}
	if *useKeyboard && term.IsTerminal(int(os.Stdin.Fd())) {
		g.Go(func() error {
			return playKeyboard(ctx, audio, cancel)
		})
	} else {
		go waitForEnter(cancel)
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func waitForEnter(cancel context.CancelFunc) {
	log.Println("Synth is running. Press Enter to exit...")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		// stdin is not readable (e.g. /dev/null): run until a signal arrives
		return
	}
	log.Println("Closing...")
	cancel()
}

func routeMidiIn(ctx context.Context, a *audio.Audio) error {
	midiCh, err := audio.ListenToMidiIn(ctx)
	if err != nil {
		// keyboard and IPC still work without MIDI
		log.Printf("WARN: %v\n", err)
		return nil
	}
	for data := range midiCh {
		a.AddMidiEvent(data)
	}
	log.Println("routeMidiIn() ended.")
	return nil
}

func logStats(ctx context.Context, a *audio.Audio) error {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("logStats() ended.")
			return nil
		case <-t.C:
			stats := a.GetStats()
			log.Printf("active voices: %d, samples: %d, peak: %.4f\n", stats.ActiveVoices, stats.Samples, stats.Peak)
		}
	}
}
