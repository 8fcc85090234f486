package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

const (
	tidalDeviceAuthURL = "https://auth.tidal.com/v1/oauth2/device_authorization"
	tidalTokenURL      = "https://auth.tidal.com/v1/oauth2/token"
	tidalBaseURL       = "https://api.tidal.com/v1"

	defaultSearchLimit  = 10
	defaultCountryCode  = "US"
	tidalPlaylistsLimit = 50
)

// TidalUser carries the account identity behind the session.
type TidalUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tidalSessionInfo struct {
	SessionID   string `json:"sessionId"`
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

// TidalArtist carries the artist name credited on a track.
type TidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TidalAlbum carries the album title a track was released on.
type TidalAlbum struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TidalTrack represents a track as returned by catalog search. Duration is
// reported in whole seconds but kept as a float for the matcher.
type TidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Artists  []TidalArtist `json:"artists"`
	Album    TidalAlbum    `json:"album"`
}

type tidalSearchPage struct {
	Items              []TidalTrack `json:"items"`
	Limit              int          `json:"limit"`
	Offset             int          `json:"offset"`
	TotalNumberOfItems int          `json:"totalNumberOfItems"`
}

// TidalPlaylist represents playlist metadata.
type TidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	PublicPlaylist bool   `json:"publicPlaylist"`
}

type tidalPaginatedPlaylists struct {
	Items              []TidalPlaylist `json:"items"`
	Limit              int             `json:"limit"`
	Offset             int             `json:"offset"`
	TotalNumberOfItems int             `json:"totalNumberOfItems"`
}

// TidalService implements [DestinationService] against the Tidal v1 API.
// Login uses the OAuth2 device flow, so it works from a terminal without a
// registered redirect URI.
type TidalService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string
	store       SessionStore
	baseURL     string
	searchLimit int
	userID      int64
	countryCode string
}

// NewTidalService creates a Tidal client from app credentials. The session
// store may be nil, in which case tokens live only for the process.
func NewTidalService(credentials map[string]string, store SessionStore) (*TidalService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: tidal client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: tidal client_secret", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{"r_usr", "w_usr"},
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: tidalDeviceAuthURL,
			TokenURL:      tidalTokenURL,
		},
	}

	return &TidalService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		store:       store,
		baseURL:     tidalBaseURL,
		searchLimit: defaultSearchLimit,
		countryCode: defaultCountryCode,
	}, nil
}

// SetSearchLimit overrides the number of candidates requested per search.
func (s *TidalService) SetSearchLimit(limit int) {
	if limit > 0 {
		s.searchLimit = limit
	}
}

// UserID returns the account ID behind the session, or 0 before CheckSession.
func (s *TidalService) UserID() int64 {
	return s.userID
}

func (s *TidalService) Name() string {
	return TidalServiceName
}

// StartDeviceAuth begins the device login flow. The caller shows the
// verification URI and user code, then calls [TidalService.CompleteDeviceAuth].
func (s *TidalService) StartDeviceAuth(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	response, err := s.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: device authorization: %v", shared.ErrAuthFailed, err)
	}
	return response, nil
}

// CompleteDeviceAuth polls the token endpoint until the user approves the
// device (or the code expires), then verifies the session and persists it.
func (s *TidalService) CompleteDeviceAuth(ctx context.Context, auth *oauth2.DeviceAuthResponse) error {
	token, err := s.config.DeviceAccessToken(ctx, auth)
	if err != nil {
		return fmt.Errorf("%w: device login: %v", shared.ErrAuthFailed, err)
	}

	s.setClient(ctx, token)

	if err := s.CheckSession(ctx); err != nil {
		return err
	}

	if s.store != nil {
		session := TokenSession(TidalServiceName, token)
		session.SetAccount(strconv.FormatInt(s.userID, 10), "")
		if err := s.store.Upsert(session); err != nil {
			return fmt.Errorf("failed to store tidal session: %w", err)
		}
	}

	return nil
}

// Authenticate establishes a session. Credentials may carry an
// "access_token"; otherwise the stored session is loaded. Interactive login
// goes through [TidalService.StartDeviceAuth] instead.
func (s *TidalService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.setClient(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		return nil
	}

	if s.store == nil {
		return fmt.Errorf("%w: access_token", shared.ErrMissingCredentials)
	}

	session, err := s.store.GetByService(TidalServiceName)
	if err != nil {
		return err
	}
	if session.Expired() && session.RefreshToken() == "" {
		return fmt.Errorf("%w: stored tidal session expired, run 'tidal auth' again", shared.ErrTokenExpired)
	}

	s.setClient(ctx, SessionToken(session))
	return nil
}

func (s *TidalService) setClient(ctx context.Context, token *oauth2.Token) {
	s.token = token
	source := newPersistingTokenSource(TidalServiceName, s.store, s.config.TokenSource(ctx, token))
	s.httpClient = oauth2.NewClient(ctx, source)
}

// CheckSession verifies the session against the live API and records the
// user ID and country code needed for playlist and search calls.
func (s *TidalService) CheckSession(ctx context.Context) error {
	var info tidalSessionInfo
	if _, err := s.get(ctx, "/sessions", nil, &info); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSessionInvalid, err)
	}
	if info.UserID == 0 {
		return fmt.Errorf("%w: no user attached to session", shared.ErrSessionInvalid)
	}

	s.userID = info.UserID
	if info.CountryCode != "" {
		s.countryCode = info.CountryCode
	}
	return nil
}

// CurrentUser retrieves the account behind the session.
func (s *TidalService) CurrentUser(ctx context.Context) (*TidalUser, error) {
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	var user TidalUser
	endpoint := fmt.Sprintf("/users/%d", s.userID)
	if _, err := s.get(ctx, endpoint, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *TidalService) ensureSession(ctx context.Context) error {
	if s.userID != 0 {
		return nil
	}
	return s.CheckSession(ctx)
}

// SearchTracks runs one catalog search and returns candidates in catalog
// ranking order. Any failure wraps [shared.ErrSearchFailed].
func (s *TidalService) SearchTracks(ctx context.Context, query string) ([]models.CandidateTrack, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(s.searchLimit))
	params.Set("countryCode", s.countryCode)

	var page tidalSearchPage
	if _, err := s.get(ctx, "/search/tracks", params, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
	}

	candidates := make([]models.CandidateTrack, 0, len(page.Items))
	for _, item := range page.Items {
		candidates = append(candidates, item.toModel())
	}
	return candidates, nil
}

// GetPlaylists retrieves all playlists owned by the authenticated user.
func (s *TidalService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	offset := 0
	endpoint := fmt.Sprintf("/users/%d/playlists", s.userID)

	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(tidalPlaylistsLimit))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("countryCode", s.countryCode)

		var page tidalPaginatedPlaylists
		if _, err := s.get(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			playlists = append(playlists, item.toModel())
		}

		offset += tidalPlaylistsLimit
		if len(page.Items) == 0 || offset >= page.TotalNumberOfItems {
			break
		}
	}

	return playlists, nil
}

// CreatePlaylist creates an empty playlist owned by the authenticated user.
func (s *TidalService) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("title", name)
	form.Set("description", description)

	var playlist TidalPlaylist
	endpoint := fmt.Sprintf("/users/%d/playlists", s.userID)
	if err := s.post(ctx, endpoint, form, "", &playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	model := playlist.toModel()
	return &model, nil
}

// DeletePlaylist removes a playlist by UUID.
func (s *TidalService) DeletePlaylist(ctx context.Context, playlistID string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.delete(ctx, endpoint, ""); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return nil
}

// ReplacePlaylistTracks overwrites the playlist contents with the given
// track IDs in order. Existing entries are removed first; an empty slice
// leaves the playlist cleared. Edits are guarded by the playlist ETag.
func (s *TidalService) ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	playlist, etag, err := s.playlistWithETag(ctx, playlistID)
	if err != nil {
		return err
	}

	if playlist.NumberOfTracks > 0 {
		indices := make([]string, playlist.NumberOfTracks)
		for i := range indices {
			indices[i] = strconv.Itoa(i)
		}
		endpoint := fmt.Sprintf("/playlists/%s/items/%s", playlistID, strings.Join(indices, ","))
		if err := s.delete(ctx, endpoint, etag); err != nil {
			return fmt.Errorf("failed to clear playlist: %w", err)
		}

		if _, etag, err = s.playlistWithETag(ctx, playlistID); err != nil {
			return err
		}
	}

	if len(trackIDs) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("trackIds", strings.Join(trackIDs, ","))
	form.Set("onDupes", "ADD")

	endpoint := fmt.Sprintf("/playlists/%s/items", playlistID)
	if err := s.post(ctx, endpoint, form, etag, nil); err != nil {
		return fmt.Errorf("failed to add tracks: %w", err)
	}
	return nil
}

func (s *TidalService) playlistWithETag(ctx context.Context, playlistID string) (*TidalPlaylist, string, error) {
	params := url.Values{}
	params.Set("countryCode", s.countryCode)

	var playlist TidalPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	etag, err := s.get(ctx, endpoint, params, &playlist)
	if err != nil {
		return nil, "", err
	}
	return &playlist, etag, nil
}

func (s *TidalService) get(ctx context.Context, endpoint string, query url.Values, result any) (string, error) {
	return s.do(ctx, "GET", endpoint, query, nil, "", result)
}

func (s *TidalService) post(ctx context.Context, endpoint string, form url.Values, etag string, result any) error {
	_, err := s.do(ctx, "POST", endpoint, nil, form, etag, result)
	return err
}

func (s *TidalService) delete(ctx context.Context, endpoint string, etag string) error {
	_, err := s.do(ctx, "DELETE", endpoint, nil, nil, etag, nil)
	return err
}

// do performs an authenticated request against the Tidal API and returns the
// response ETag, which playlist edits echo back via If-None-Match.
func (s *TidalService) do(ctx context.Context, method, endpoint string, query, form url.Values, etag string, result any) (string, error) {
	if s.token == nil {
		return "", fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: tidal returned status 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: tidal returned status 404", shared.ErrPlaylistNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: tidal returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header.Get("ETag"), nil
}

func (p TidalPlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          p.UUID,
		Name:        p.Title,
		Description: p.Description,
		TrackCount:  p.NumberOfTracks,
		Public:      p.PublicPlaylist,
	}
}

func (t TidalTrack) toModel() models.CandidateTrack {
	artists := make([]models.Artist, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, models.Artist{Name: artist.Name})
	}

	return models.CandidateTrack{
		ID:          strconv.FormatInt(t.ID, 10),
		Title:       t.Title,
		Artists:     artists,
		Album:       models.Album{Name: t.Album.Title},
		DurationSec: t.Duration,
	}
}
