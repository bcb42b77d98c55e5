package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	reportInterval = time.Second / 10
	statsInterval  = time.Second
)

// serveIPC accepts clients on sockFile until ctx is done.
// Each client may send commands and receives params and stats reports.
func serveIPC(ctx context.Context, sockFile string, a *audio.Audio) error {
	os.Remove(sockFile)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFile)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", sockFile)
	}
	defer os.Remove(sockFile)
	go func() {
		<-ctx.Done()
		log.Println("Closing IPC...")
		if err := listener.Close(); err != nil {
			log.Printf("error while closing listener: %v", err)
		}
	}()
	log.Printf("start listening on %s\n", sockFile)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Println("serveIPC() ended.")
				return nil
			}
			return errors.Wrap(err, "failed to accept connection")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handleConnection(ctx, conn, a); err != nil {
				log.Printf("connection error: %v\n", err)
			}
		}()
	}
}

func handleConnection(ctx context.Context, conn net.Conn, a *audio.Audio) error {
	g, ctx := errgroup.WithContext(ctx)
	go func() {
		<-ctx.Done()
		if err := conn.Close(); err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	g.Go(func() error {
		err := receiveCommands(ctx, conn, a.CommandCh)
		if err == nil {
			// client hung up
			err = io.EOF
		}
		return err
	})
	g.Go(func() error {
		return sendReports(ctx, conn, a)
	})
	if err := g.Wait(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func receiveCommands(ctx context.Context, r io.Reader, commandCh chan<- []string) error {
	reader := bufio.NewReader(r)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		line = line[:0]
		if err != nil {
			log.Printf("dropped malformed command: %v\n", err)
			continue
		}
		if len(command) == 0 {
			continue
		}
		select {
		case commandCh <- command:
		case <-ctx.Done():
			break loop
		}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	fields := strings.Fields(line)
	for i, item := range fields {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		fields[i] = escaped
	}
	return fields, nil
}

func sendReports(ctx context.Context, w io.Writer, a *audio.Audio) error {
	t := time.NewTicker(reportInterval)
	defer t.Stop()
	lastStats := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() ended.")
			return nil
		case now := <-t.C:
			if a.Changes.Has("params") {
				a.Changes.Delete("params")
				if _, err := fmt.Fprintf(w, "params %s\n", a.GetParams()); err != nil {
					return err
				}
			}
			if now.Sub(lastStats) < statsInterval {
				continue
			}
			lastStats = now
			stats, err := json.Marshal(a.GetStats())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "stats %s\n", stats); err != nil {
				return err
			}
		}
	}
}
