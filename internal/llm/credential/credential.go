// Package credential abstracts bearer-token acquisition for identity-based
// backends. The real identity provider lives outside this repository; the
// proxy only ever sees a TokenSource.
package credential

import (
	"context"
	"errors"
	"os"
)

var ErrNoToken = errors.New("credential: no bearer token available")

// TokenSource supplies a bearer token for one upstream call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Static returns a TokenSource that always yields the same token.
func Static(token string) TokenSource {
	return staticSource(token)
}

type staticSource string

func (s staticSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// FromEnv returns a TokenSource backed by an environment variable, read on
// every call so externally refreshed tokens are picked up.
func FromEnv(name string) TokenSource {
	return envSource(name)
}

type envSource string

func (e envSource) Token(ctx context.Context) (string, error) {
	token := os.Getenv(string(e))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
