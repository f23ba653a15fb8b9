package flood

import (
	"maps"
	"net/http"

	"github.com/puzpuzpuz/xsync/v4"
)

// Identity is the scope of an authenticated Flood session.
type Identity struct {
	URL      string
	Username string
}

func (i Identity) String() string {
	return i.URL + ":" + i.Username
}

// Token maps session cookie names to their values.
type Token map[string]string

func tokenFromCookies(cookies []*http.Cookie) Token {
	token := make(Token, len(cookies))
	for _, c := range cookies {
		token[c.Name] = c.Value
	}

	return token
}

// SessionCache stores one session token per identity for the lifetime of the
// process. Entries never expire; they are only dropped on auth rejection.
// Tokens are copied in and out so callers never share the cached map.
type SessionCache struct {
	tokens *xsync.Map[Identity, Token]
}

// NewSessionCache creates an empty cache. Create one per process and share it
// between every proxy talking to Flood.
func NewSessionCache() *SessionCache {
	return &SessionCache{tokens: xsync.NewMap[Identity, Token]()}
}

// Get returns a copy of the cached token for id.
func (c *SessionCache) Get(id Identity) (Token, bool) {
	token, ok := c.tokens.Load(id)
	if !ok {
		return nil, false
	}

	return maps.Clone(token), true
}

// Put replaces the token cached for id.
func (c *SessionCache) Put(id Identity, token Token) {
	cp := maps.Clone(token)
	if cp == nil {
		cp = Token{}
	}

	c.tokens.Store(id, cp)
}

// Invalidate drops the token cached for id, if any.
func (c *SessionCache) Invalidate(id Identity) {
	c.tokens.Delete(id)
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	return c.tokens.Size()
}
