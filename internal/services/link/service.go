// Package link keeps the shareable analytics link in a file and watches it
// for external edits.
package link

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/usage-analytics-tui/internal/logger"
)

// Scheme and host of generated links.
const (
	Scheme = "uat"
	Host   = "analytics"
)

// Event represents a link service event.
type Event struct {
	Error error
	Query url.Values
	Type  EventType
}

// EventType defines the type of link event.
type EventType int

const (
	// EventLinkChanged indicates the link file was edited outside the app.
	EventLinkChanged EventType = iota
	// EventError indicates a watcher or read failure.
	EventError
)

// Service reads and writes the link file.
type Service struct {
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	lastWritten   string
	mu            sync.RWMutex
}

// defaultLinkPath returns the default link file path.
func defaultLinkPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "usage-analytics-tui", "link")
}

// New creates a link service and starts watching the file.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		filePath = defaultLinkPath()
	}

	s := &Service{
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create link directory: %w", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	return s, nil
}

// Events returns the event channel for subscribing to link changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the link file path.
func (s *Service) Path() string {
	return s.filePath
}

// Link returns the stored link, or "" when none has been written.
func (s *Service) Link() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Query returns the query parameters of the stored link. A missing file
// yields empty parameters.
func (s *Service) Query(_ context.Context) (url.Values, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return url.Values{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read link file: %w", err)
	}
	return ParseLink(string(data))
}

// SetQuery replaces the stored link with one carrying q.
func (s *Service) SetQuery(_ context.Context, q url.Values) error {
	return s.write(Build(q))
}

// SetLink stores a link supplied by the user after checking it parses.
func (s *Service) SetLink(raw string) error {
	q, err := ParseLink(raw)
	if err != nil {
		return err
	}
	return s.write(Build(q))
}

// Build formats q as a shareable link.
func Build(q url.Values) string {
	u := url.URL{Scheme: Scheme, Host: Host, RawQuery: q.Encode()}
	return u.String()
}

// ParseLink extracts query parameters from a full link or a bare query string.
func ParseLink(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return url.Values{}, nil
	}
	if !strings.Contains(raw, "://") {
		q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse link query: %w", err)
		}
		return q, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse link: %w", err)
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse link query: %w", err)
	}
	return q, nil
}

// write replaces the file atomically. Rewriting identical content is
// skipped so the watcher does not fire for no-op saves.
func (s *Service) write(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, err := os.ReadFile(s.filePath); err == nil && strings.TrimSpace(string(current)) == content {
		s.lastWritten = content
		return nil
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write link file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace link file: %w", err)
	}
	s.lastWritten = content
	return nil
}

// debounceInterval coalesces the write and rename events of one save.
const debounceInterval = 100 * time.Millisecond

// startWatcher watches the parent directory, since editors and write
// replace the file rather than modify it in place.
func (s *Service) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.filePath)); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	go s.watchLoop()
	return nil
}

func (s *Service) watchLoop() {
	name := filepath.Base(s.filePath)
	for {
		select {
		case <-s.stopChan:
			return

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Link watcher error", "error", err)
			s.sendEvent(Event{Type: EventError, Error: err})

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == name && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				s.scheduleReload()
			}
		}
	}
}

// scheduleReload restarts the debounce timer.
func (s *Service) scheduleReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
}

// handleFileChange reports edits that did not come from this service.
func (s *Service) handleFileChange() {
	content := s.Link()

	s.mu.Lock()
	if content == s.lastWritten {
		s.mu.Unlock()
		return
	}
	s.lastWritten = content
	s.mu.Unlock()

	q, err := ParseLink(content)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	logger.Debug("Link file changed externally", "path", s.filePath)
	s.sendEvent(Event{Type: EventLinkChanged, Query: q})
}

// sendEvent never blocks. When the buffer is full the oldest event is
// discarded to make room.
func (s *Service) sendEvent(event Event) {
	for range 2 {
		select {
		case s.eventChan <- event:
			return
		default:
		}
		select {
		case <-s.eventChan:
		default:
		}
	}
}

// Close stops the watcher. Pending debounced reloads are cancelled.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
