package port

import "context"

// CredentialProvider resolves the bearer token for one outgoing request.
// Injecting it keeps session state out of package-level globals.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialProvider for a fixed token.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}
