package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// Authenticator decides whether a connecting observer may watch a world.
type Authenticator interface {
	Authenticate(r *http.Request, designation string) error
}

// TokenAuth admits observers presenting a shared token, either as the "token"
// query parameter or as a bearer Authorization header. An empty token admits everyone.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authenticate(r *http.Request, _ string) error {
	if a.Token == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return fmt.Errorf("%w: bad observer token", ErrUnauthorized)
	}
	return nil
}
