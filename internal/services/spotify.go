package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultRedirectURI matches the callback route served by
	// [server.Server] during interactive login.
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"

	// Partial-response selector for playlist track pages. Only the fields
	// the matcher consumes are requested.
	spotifyTrackFields = "next,items(track(name,artists(name),duration_ms,album(name)))"

	spotifyPageLimit = 100
)

// SpotifyUser represents the authenticated user's profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	URI         string `json:"uri"`
}

// SpotifyArtist carries the artist name credited on a track.
type SpotifyArtist struct {
	Name string `json:"name"`
}

// SpotifyAlbum carries the album title a track was released on.
type SpotifyAlbum struct {
	Name string `json:"name"`
}

// SpotifyTrack represents a track as returned by playlist track pages.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DurationMS int             `json:"duration_ms"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
}

type spotifyTrackCount struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents playlist metadata.
type SpotifyPlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Public      bool              `json:"public"`
	Tracks      spotifyTrackCount `json:"tracks"`
}

// SpotifyPaginatedPlaylists is one page of the user's playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

type spotifyTrackEntry struct {
	Track *SpotifyTrack `json:"track"`
}

type spotifyTracksPage struct {
	Items []spotifyTrackEntry `json:"items"`
	Next  *string             `json:"next"`
}

// SpotifyService implements [SourceService] against the Spotify Web API.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string
	store       SessionStore
	baseURL     string
}

// NewSpotifyService creates a Spotify client from app credentials. The
// session store may be nil, in which case tokens live only for the process.
func NewSpotifyService(credentials map[string]string, store SessionStore) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		store:       store,
		baseURL:     spotifyBaseURL,
	}, nil
}

// Authenticate establishes a session. Credentials may carry an "access_token"
// or an "auth_code" from the OAuth callback; when neither is present the
// stored session is loaded and refreshed as needed.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.setClient(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		if s.store != nil {
			if err := s.store.Upsert(TokenSession(SpotifyServiceName, token)); err != nil {
				return fmt.Errorf("failed to store spotify session: %w", err)
			}
		}
		s.setClient(ctx, token)
		return nil
	}

	if s.store == nil {
		return fmt.Errorf("%w: access_token or auth_code", shared.ErrMissingCredentials)
	}

	session, err := s.store.GetByService(SpotifyServiceName)
	if err != nil {
		return err
	}
	if session.Expired() && session.RefreshToken() == "" {
		return fmt.Errorf("%w: stored spotify session expired, run 'spotify auth' again", shared.ErrTokenExpired)
	}

	s.setClient(ctx, SessionToken(session))
	return nil
}

func (s *SpotifyService) setClient(ctx context.Context, token *oauth2.Token) {
	s.token = token
	source := newPersistingTokenSource(SpotifyServiceName, s.store, s.config.TokenSource(ctx, token))
	s.httpClient = oauth2.NewClient(ctx, source)
}

func (s *SpotifyService) Name() string {
	return SpotifyServiceName
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// doRequest performs an authenticated request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned status 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: spotify returned status 404", shared.ErrPlaylistNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the user's playlists. The limit is
// clamped to Spotify's maximum of 50.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var page SpotifyPaginatedPlaylists
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)
	if err := s.doRequest(ctx, "GET", endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves metadata for a single playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, "GET", endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks retrieves every track on a playlist, following pagination
// until the API reports no further page. Entries whose track payload is
// missing (removed or unavailable in the client market) are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyTrack, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}

	var tracks []SpotifyTrack
	offset := 0
	fields := url.QueryEscape(spotifyTrackFields)

	for {
		var page spotifyTracksPage
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d&fields=%s",
			playlistID, spotifyPageLimit, offset, fields)
		if err := s.doRequest(ctx, "GET", endpoint, &page); err != nil {
			return nil, err
		}

		for _, entry := range page.Items {
			if entry.Track == nil || entry.Track.Name == "" {
				continue
			}
			tracks = append(tracks, *entry.Track)
		}

		if page.Next == nil {
			break
		}
		offset += spotifyPageLimit
	}

	return tracks, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0
	limit := 50

	for {
		page, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			playlists = append(playlists, item.toModel())
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return playlists, nil
}

// GetPlaylist retrieves metadata for a single playlist.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	playlist, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	model := playlist.toModel()
	return &model, nil
}

// GetPlaylistTracks retrieves the complete flattened track list for a playlist.
func (s *SpotifyService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	tracks, err := s.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	result := make([]models.SourceTrack, 0, len(tracks))
	for _, track := range tracks {
		result = append(result, track.toModel())
	}
	return result, nil
}

func (p SpotifyPlaylist) toModel() models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
	}
}

func (t SpotifyTrack) toModel() models.SourceTrack {
	artists := make([]models.Artist, 0, len(t.Artists))
	for _, artist := range t.Artists {
		artists = append(artists, models.Artist{Name: artist.Name})
	}

	return models.SourceTrack{
		Title:      t.Name,
		Artists:    artists,
		Album:      models.Album{Name: t.Album.Name},
		DurationMS: t.DurationMS,
	}
}
