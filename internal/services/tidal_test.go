package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/Rovitz/spotify2tidal/internal/shared"
	tu "github.com/Rovitz/spotify2tidal/internal/testing"
)

// newTidalFixture points a Tidal client at a test server with a pre-loaded
// token, bypassing the device flow.
func newTidalFixture(t *testing.T, handler http.Handler) *TidalService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewTidalService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}, nil)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.baseURL = server.URL
	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.httpClient = server.Client()
	return srv
}

func TestTidalService(t *testing.T) {
	t.Run("NewTidalService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewTidalService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != TidalServiceName {
				t.Errorf("expected service name %q, got %s", TidalServiceName, srv.Name())
			}
			if srv.searchLimit != defaultSearchLimit {
				t.Errorf("expected default search limit, got %d", srv.searchLimit)
			}
			if srv.countryCode != defaultCountryCode {
				t.Errorf("expected default country code, got %s", srv.countryCode)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewTidalService(map[string]string{"client_secret": "secret"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewTidalService(map[string]string{"client_id": "id"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("SetSearchLimit", func(t *testing.T) {
		srv, err := NewTidalService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}, nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		srv.SetSearchLimit(25)
		if srv.searchLimit != 25 {
			t.Errorf("expected search limit 25, got %d", srv.searchLimit)
		}

		srv.SetSearchLimit(0)
		if srv.searchLimit != 25 {
			t.Errorf("expected non-positive limit to be ignored, got %d", srv.searchLimit)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("With Access Token", func(t *testing.T) {
			srv, err := NewTidalService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}, nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.token == nil || srv.token.AccessToken != "tok" {
				t.Errorf("expected access token to be set, got %+v", srv.token)
			}
		})

		t.Run("No Credentials And No Store", func(t *testing.T) {
			srv, err := NewTidalService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}, nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			if err := srv.Authenticate(context.Background(), nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Loads Stored Session", func(t *testing.T) {
			store := tu.NewSessionStub()
			store.Upsert(TokenSession(TidalServiceName, &oauth2.Token{
				AccessToken: "stored_token",
				TokenType:   "Bearer",
			}))

			srv, err := NewTidalService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}, store)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			if err := srv.Authenticate(context.Background(), nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.token.AccessToken != "stored_token" {
				t.Errorf("expected stored token to be loaded, got %s", srv.token.AccessToken)
			}
		})
	})

	t.Run("CheckSession", func(t *testing.T) {
		t.Run("Records User And Country", func(t *testing.T) {
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/sessions" {
					t.Errorf("expected path /sessions, got %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"sessionId":   "sess-1",
					"userId":      42,
					"countryCode": "NO",
				})
			}))

			if err := srv.CheckSession(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.UserID() != 42 {
				t.Errorf("expected user ID 42, got %d", srv.UserID())
			}
			if srv.countryCode != "NO" {
				t.Errorf("expected country code NO, got %s", srv.countryCode)
			}
		})

		t.Run("Rejects Session Without User", func(t *testing.T) {
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"sessionId": "sess-1"})
			}))

			if err := srv.CheckSession(context.Background()); !errors.Is(err, shared.ErrSessionInvalid) {
				t.Errorf("expected ErrSessionInvalid, got %v", err)
			}
		})

		t.Run("Wraps API Failure", func(t *testing.T) {
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

			if err := srv.CheckSession(context.Background()); !errors.Is(err, shared.ErrSessionInvalid) {
				t.Errorf("expected ErrSessionInvalid, got %v", err)
			}
		})
	})

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("Maps Candidates", func(t *testing.T) {
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search/tracks" {
					t.Errorf("expected path /search/tracks, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("query"); got != "artist title" {
					t.Errorf("expected query 'artist title', got %q", got)
				}
				if got := r.URL.Query().Get("limit"); got != "10" {
					t.Errorf("expected default limit 10, got %s", got)
				}
				if got := r.URL.Query().Get("countryCode"); got != "US" {
					t.Errorf("expected default country code, got %s", got)
				}

				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{
							"id":       12345,
							"title":    "Title",
							"duration": 245,
							"artists":  []map[string]any{{"id": 7, "name": "Artist"}},
							"album":    map[string]any{"id": 9, "title": "Album"},
						},
					},
					"totalNumberOfItems": 1,
				})
			}))

			candidates, err := srv.SearchTracks(context.Background(), "artist title")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].ID != "12345" {
				t.Errorf("expected numeric ID rendered as string, got %s", candidates[0].ID)
			}
			if candidates[0].DurationSec != 245 {
				t.Errorf("expected duration 245s, got %f", candidates[0].DurationSec)
			}
			if candidates[0].Artists[0].Name != "Artist" || candidates[0].Album.Name != "Album" {
				t.Errorf("unexpected candidate mapping: %+v", candidates[0])
			}
		})

		t.Run("Wraps Failures", func(t *testing.T) {
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))

			if _, err := srv.SearchTracks(context.Background(), "anything"); !errors.Is(err, shared.ErrSearchFailed) {
				t.Errorf("expected ErrSearchFailed, got %v", err)
			}
		})
	})

	t.Run("GetPlaylists", func(t *testing.T) {
		srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/42/playlists" {
				t.Errorf("expected path /users/42/playlists, got %s", r.URL.Path)
			}

			switch r.URL.Query().Get("offset") {
			case "0":
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{"uuid": "t1", "title": "Chill", "numberOfTracks": 12, "publicPlaylist": true},
						{"uuid": "t2", "title": "Focus", "numberOfTracks": 3},
					},
					"totalNumberOfItems": 60,
				})
			default:
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{
						{"uuid": "t3", "title": "Workout", "numberOfTracks": 40},
					},
					"totalNumberOfItems": 60,
				})
			}
		}))
		srv.userID = 42

		playlists, err := srv.GetPlaylists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 3 {
			t.Fatalf("expected 3 playlists across pages, got %d", len(playlists))
		}
		if playlists[0].ID != "t1" || playlists[0].TrackCount != 12 || !playlists[0].Public {
			t.Errorf("unexpected first playlist: %+v", playlists[0])
		}
		if playlists[2].Name != "Workout" {
			t.Errorf("expected last playlist from second page, got %+v", playlists[2])
		}
	})

	t.Run("GetPlaylists Loads Session Lazily", func(t *testing.T) {
		var paths []string
		srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/sessions" {
				json.NewEncoder(w).Encode(map[string]any{"sessionId": "s", "userId": 7, "countryCode": "US"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "totalNumberOfItems": 0})
		}))

		if _, err := srv.GetPlaylists(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(paths) != 2 || paths[0] != "/sessions" || paths[1] != "/users/7/playlists" {
			t.Errorf("expected session check before playlist fetch, got %v", paths)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/users/42/playlists" {
				t.Errorf("expected path /users/42/playlists, got %s", r.URL.Path)
			}

			r.ParseForm()
			if r.Form.Get("title") != "Chill" {
				t.Errorf("expected title form value, got %q", r.Form.Get("title"))
			}
			if r.Form.Get("description") != "synced" {
				t.Errorf("expected description form value, got %q", r.Form.Get("description"))
			}

			json.NewEncoder(w).Encode(map[string]any{
				"uuid":  "new-uuid",
				"title": "Chill",
			})
		}))
		srv.userID = 42

		playlist, err := srv.CreatePlaylist(context.Background(), "Chill", "synced")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.ID != "new-uuid" || playlist.Name != "Chill" {
			t.Errorf("unexpected playlist: %+v", playlist)
		}

		t.Run("Empty Name", func(t *testing.T) {
			if _, err := srv.CreatePlaylist(context.Background(), "", ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("DeletePlaylist", func(t *testing.T) {
		var deleted string
		srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", r.Method)
			}
			deleted = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}))

		if err := srv.DeletePlaylist(context.Background(), "uuid-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deleted != "/playlists/uuid-1" {
			t.Errorf("expected delete path /playlists/uuid-1, got %s", deleted)
		}
	})

	t.Run("ReplacePlaylistTracks", func(t *testing.T) {
		t.Run("Clears Then Adds With ETags", func(t *testing.T) {
			var calls []string
			cleared := false

			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, r.Method+" "+r.URL.Path)

				switch {
				case r.Method == http.MethodGet && r.URL.Path == "/playlists/p1":
					etag, count := "etag-1", 2
					if cleared {
						etag, count = "etag-2", 0
					}
					w.Header().Set("ETag", etag)
					json.NewEncoder(w).Encode(map[string]any{
						"uuid":           "p1",
						"title":          "Chill",
						"numberOfTracks": count,
					})

				case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/playlists/p1/items/"):
					if r.URL.Path != "/playlists/p1/items/0,1" {
						t.Errorf("expected indices 0,1 in path, got %s", r.URL.Path)
					}
					if r.Header.Get("If-None-Match") != "etag-1" {
						t.Errorf("expected first etag on clear, got %s", r.Header.Get("If-None-Match"))
					}
					cleared = true
					w.WriteHeader(http.StatusOK)

				case r.Method == http.MethodPost && r.URL.Path == "/playlists/p1/items":
					if r.Header.Get("If-None-Match") != "etag-2" {
						t.Errorf("expected refreshed etag on add, got %s", r.Header.Get("If-None-Match"))
					}
					r.ParseForm()
					if r.Form.Get("trackIds") != "11,22" {
						t.Errorf("expected trackIds 11,22, got %q", r.Form.Get("trackIds"))
					}
					w.WriteHeader(http.StatusOK)

				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			}))

			if err := srv.ReplacePlaylistTracks(context.Background(), "p1", []string{"11", "22"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []string{
				"GET /playlists/p1",
				"DELETE /playlists/p1/items/0,1",
				"GET /playlists/p1",
				"POST /playlists/p1/items",
			}
			if len(calls) != len(want) {
				t.Fatalf("expected %d calls, got %v", len(want), calls)
			}
			for i := range want {
				if calls[i] != want[i] {
					t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
				}
			}
		})

		t.Run("Empty Plan On Empty Playlist", func(t *testing.T) {
			var calls []string
			srv := newTidalFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, r.Method+" "+r.URL.Path)
				w.Header().Set("ETag", "etag-1")
				json.NewEncoder(w).Encode(map[string]any{
					"uuid":           "p1",
					"numberOfTracks": 0,
				})
			}))

			if err := srv.ReplacePlaylistTracks(context.Background(), "p1", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(calls) != 1 || calls[0] != "GET /playlists/p1" {
				t.Errorf("expected only a metadata read, got %v", calls)
			}
		})
	})

	t.Run("Device Flow", func(t *testing.T) {
		store := tu.NewSessionStub()

		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/device", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"device_code":      "device-code-1",
				"user_code":        "ABCDE",
				"verification_uri": "https://link.tidal.com",
				"expires_in":       300,
				"interval":         1,
			})
		})
		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.Form.Get("device_code") != "device-code-1" {
				t.Errorf("expected device code in token request, got %q", r.Form.Get("device_code"))
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "device-access",
				"refresh_token": "device-refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		})
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"sessionId":   "sess-device",
				"userId":      99,
				"countryCode": "DE",
			})
		})

		srv, err := NewTidalService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}, store)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		srv.baseURL = server.URL
		srv.config.Endpoint.DeviceAuthURL = server.URL + "/device"
		srv.config.Endpoint.TokenURL = server.URL + "/token"

		auth, err := srv.StartDeviceAuth(context.Background())
		if err != nil {
			t.Fatalf("expected no error starting device auth, got %v", err)
		}
		if auth.UserCode != "ABCDE" {
			t.Errorf("expected user code from device endpoint, got %s", auth.UserCode)
		}

		if err := srv.CompleteDeviceAuth(context.Background(), auth); err != nil {
			t.Fatalf("expected no error completing device auth, got %v", err)
		}

		if srv.UserID() != 99 {
			t.Errorf("expected user ID 99 after device login, got %d", srv.UserID())
		}

		session, err := store.GetByService(TidalServiceName)
		if err != nil {
			t.Fatalf("expected session to be persisted, got %v", err)
		}
		if session.AccessToken() != "device-access" {
			t.Errorf("expected device token persisted, got %s", session.AccessToken())
		}
		if session.AccountID() != "99" {
			t.Errorf("expected account ID persisted, got %s", session.AccountID())
		}
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewTidalService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}, nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ DestinationService = srv
	})
}
