package server

import "net/http"

// BasicRouter is the minimal mux behind the localhost callback listener.
//
// Routes are registered on an [http.ServeMux] using method patterns, so the
// mux itself answers 404 for unknown paths and 405 for known paths hit with
// the wrong method. Middleware wraps handlers at registration time.
type BasicRouter struct {
	mux        *http.ServeMux
	middleware []Middleware
}

// NewBasicRouter creates an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware to the stack. Only handlers registered afterwards
// are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middleware = append(r.middleware, middleware...)
}

// Handle registers a handler for one method and path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.wrap(handler))
}

// Handler registers every route a [Handler] serves, for any method.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.wrap(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the whole router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// wrap applies the middleware stack in reverse registration order; the first
// middleware added sees the request first.
func (r *BasicRouter) wrap(handler http.Handler) http.Handler {
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	return handler
}
