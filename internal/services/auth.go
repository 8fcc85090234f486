package services

import (
	"sync"

	"golang.org/x/oauth2"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

// SessionStore persists OAuth sessions between runs. Implemented by
// [repositories.SessionRepository].
type SessionStore interface {
	GetByService(service string) (*models.Session, error)
	Upsert(session *models.Session) error
}

// SessionToken converts a stored session into an oauth2 token.
func SessionToken(session *models.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  session.AccessToken(),
		RefreshToken: session.RefreshToken(),
		TokenType:    session.TokenType(),
		Expiry:       session.Expiry(),
	}
}

// TokenSession builds a session row for the named service from a token. The
// sequence and ID are assigned by the repository on insert.
func TokenSession(service string, token *oauth2.Token) *models.Session {
	session := models.NewSession(0, service, "", "")
	session.SetTokens(token.AccessToken, token.RefreshToken, token.TokenType, token.Expiry)
	return session
}

// persistingTokenSource wraps a refreshing token source and writes every new
// token back to the session store, so refreshed credentials survive the
// process. Store failures are ignored; the token is still returned and the
// next refresh retries the write.
type persistingTokenSource struct {
	service string
	store   SessionStore
	source  oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(service string, store SessionStore, source oauth2.TokenSource) oauth2.TokenSource {
	return &persistingTokenSource{service: service, store: store, source: source}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.source.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil && token.AccessToken != p.last {
		if err := p.store.Upsert(TokenSession(p.service, token)); err == nil {
			p.last = token.AccessToken
		}
	}

	return token, nil
}
