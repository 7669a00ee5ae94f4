package leadsclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/viewsync"
)

const (
	eventReady   = "ready"
	eventChange  = "change"
	eventEvicted = "evicted"

	streamBuffer   = 64
	maxFrameLength = 8 << 20
)

type frame struct {
	event string
	data  string
}

type stream struct {
	events chan model.ChangeEvent
	body   io.Closer
	cancel context.CancelFunc

	mu     sync.Mutex
	err    error
	closed bool
}

// Subscribe opens an SSE stream and returns once the server confirmed the
// subscription with its ready frame.
func (c *Client) Subscribe(ctx context.Context, filter changefeed.Filter) (viewsync.Stream, error) {
	path := streamPath(filter)
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		cancel()
		return nil, decodeAPIError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxFrameLength)

	first, err := readFrame(scanner)
	if err != nil || first.event != eventReady {
		resp.Body.Close()
		cancel()
		if err == nil {
			err = fmt.Errorf("expected %q frame, got %q", eventReady, first.event)
		}
		return nil, fmt.Errorf("opening change stream: %w", err)
	}

	s := &stream{
		events: make(chan model.ChangeEvent, streamBuffer),
		body:   resp.Body,
		cancel: cancel,
	}
	go s.read(streamCtx, scanner, filter)
	return s, nil
}

func (s *stream) Events() <-chan model.ChangeEvent { return s.events }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.body.Close()
}

func (s *stream) finish(err error) {
	s.mu.Lock()
	if !s.closed {
		s.err = err
	}
	s.mu.Unlock()
	close(s.events)
	s.body.Close()
}

func (s *stream) read(ctx context.Context, scanner *bufio.Scanner, filter changefeed.Filter) {
	for {
		f, err := readFrame(scanner)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errStreamEnded
			}
			s.finish(err)
			return
		}

		switch f.event {
		case eventChange:
			var event model.ChangeEvent
			if err := json.Unmarshal([]byte(f.data), &event); err != nil {
				slog.WarnContext(ctx, "skipping undecodable change event", "error", err)
				continue
			}
			if !filter.Match(event) {
				continue
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				s.finish(ctx.Err())
				return
			}
		case eventEvicted:
			s.finish(changefeed.ErrSubscriberLagged)
			return
		}
	}
}

// readFrame reads one SSE frame. Comment lines and unknown fields are
// ignored; multi-line data is joined with newlines.
func readFrame(scanner *bufio.Scanner) (frame, error) {
	var (
		f    frame
		data []string
		seen bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if seen {
				f.data = strings.Join(data, "\n")
				return f, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			f.event = value
			seen = true
		case "data":
			data = append(data, value)
			seen = true
		}
	}
	if err := scanner.Err(); err != nil {
		return frame{}, err
	}
	return frame{}, io.EOF
}
