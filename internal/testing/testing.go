// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

// MockSource is a configurable test double for [services.SourceService].
// Nil function fields fall back to empty results.
type MockSource struct {
	AuthenticateFn   func(ctx context.Context, credentials map[string]string) error
	PlaylistsFn      func(ctx context.Context) ([]models.Playlist, error)
	PlaylistFn       func(ctx context.Context, playlistID string) (*models.Playlist, error)
	PlaylistTracksFn func(ctx context.Context, playlistID string) ([]models.SourceTrack, error)
}

func (m *MockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, credentials)
	}
	return nil
}

func (m *MockSource) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.PlaylistsFn != nil {
		return m.PlaylistsFn(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockSource) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.PlaylistFn != nil {
		return m.PlaylistFn(ctx, playlistID)
	}
	return &models.Playlist{ID: playlistID, Name: playlistID}, nil
}

func (m *MockSource) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	if m.PlaylistTracksFn != nil {
		return m.PlaylistTracksFn(ctx, playlistID)
	}
	return []models.SourceTrack{}, nil
}

func (m *MockSource) Name() string { return "mock-source" }

// ReplaceCall records one ReplacePlaylistTracks invocation.
type ReplaceCall struct {
	PlaylistID string
	TrackIDs   []string
}

// MockDestination is a configurable test double for
// [services.DestinationService]. Calls are recorded so tests can assert on
// write behavior; recording is safe under concurrent searches.
type MockDestination struct {
	AuthenticateFn func(ctx context.Context, credentials map[string]string) error
	CheckSessionFn func(ctx context.Context) error
	PlaylistsFn    func(ctx context.Context) ([]models.Playlist, error)
	CreateFn       func(ctx context.Context, name, description string) (*models.Playlist, error)
	DeleteFn       func(ctx context.Context, playlistID string) error
	ReplaceFn      func(ctx context.Context, playlistID string, trackIDs []string) error
	SearchFn       func(ctx context.Context, query string) ([]models.CandidateTrack, error)

	mu            sync.Mutex
	SearchQueries []string
	CreatedNames  []string
	DeletedIDs    []string
	ReplaceCalls  []ReplaceCall
}

func (m *MockDestination) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, credentials)
	}
	return nil
}

func (m *MockDestination) CheckSession(ctx context.Context) error {
	if m.CheckSessionFn != nil {
		return m.CheckSessionFn(ctx)
	}
	return nil
}

func (m *MockDestination) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.PlaylistsFn != nil {
		return m.PlaylistsFn(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockDestination) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	m.mu.Lock()
	m.CreatedNames = append(m.CreatedNames, name)
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, name, description)
	}
	return &models.Playlist{ID: "dest-" + name, Name: name, Description: description}, nil
}

func (m *MockDestination) DeletePlaylist(ctx context.Context, playlistID string) error {
	m.mu.Lock()
	m.DeletedIDs = append(m.DeletedIDs, playlistID)
	m.mu.Unlock()

	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, playlistID)
	}
	return nil
}

func (m *MockDestination) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	m.ReplaceCalls = append(m.ReplaceCalls, ReplaceCall{PlaylistID: playlistID, TrackIDs: trackIDs})
	m.mu.Unlock()

	if m.ReplaceFn != nil {
		return m.ReplaceFn(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockDestination) SearchTracks(ctx context.Context, query string) ([]models.CandidateTrack, error) {
	m.mu.Lock()
	m.SearchQueries = append(m.SearchQueries, query)
	m.mu.Unlock()

	if m.SearchFn != nil {
		return m.SearchFn(ctx, query)
	}
	return []models.CandidateTrack{}, nil
}

func (m *MockDestination) Name() string { return "mock-destination" }

// Replaced returns a copy of the recorded ReplacePlaylistTracks calls.
func (m *MockDestination) Replaced() []ReplaceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ReplaceCall, len(m.ReplaceCalls))
	copy(calls, m.ReplaceCalls)
	return calls
}

// Searched returns a copy of the recorded search queries.
func (m *MockDestination) Searched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	queries := make([]string, len(m.SearchQueries))
	copy(queries, m.SearchQueries)
	return queries
}

// FoundCandidate builds a candidate that matches the given source track on
// every signal, useful for wiring search doubles.
func FoundCandidate(id string, track models.SourceTrack) models.CandidateTrack {
	return models.CandidateTrack{
		ID:          id,
		Title:       track.Title,
		Artists:     track.Artists,
		Album:       track.Album,
		DurationSec: float64(track.DurationMS) / 1000.0,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// SessionStub is an in-memory [services.SessionStore].
type SessionStub struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	Upserts  int
}

func NewSessionStub() *SessionStub {
	return &SessionStub{sessions: make(map[string]*models.Session)}
}

func (s *SessionStub) GetByService(service string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[service]
	if !ok {
		return nil, fmt.Errorf("no stored session for %s", service)
	}
	return session, nil
}

func (s *SessionStub) Upsert(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Service()] = session
	s.Upserts++
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
