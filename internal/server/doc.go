// Package server provides the local HTTP listener for the Spotify OAuth flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// [RequestLogger] is the one middleware in use: it logs each request and redacts
// the authorization code and state token from the logged query string.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
//
// The handler validates the state parameter (CSRF protection) and sends the
// authorization code through a channel. The code exchange and session
// persistence happen in the services layer, which owns the OAuth2 config.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs 'spotify auth', a temporary HTTP server starts on the
// address from the [server] config section (127.0.0.1:8080 by default, matching
// the registered redirect URI), handles the callback, and shuts down after
// receiving the authorization code.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
