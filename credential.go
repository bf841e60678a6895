package depot

import "strings"

const bearerPrefix = "Bearer "

// Credential is an opaque bearer token. It carries no identity beyond its
// exact string value.
type Credential struct {
	token string
}

// NewCredential wraps a raw token, for callers that do not go through an
// Authorization header.
func NewCredential(token string) Credential {
	return Credential{token: token}
}

// Token returns the raw token string.
func (c Credential) Token() string {
	return c.token
}

// ParseBearer extracts a bearer token from the values of an Authorization
// header. A nil or empty slice means the header was not sent. Only the first
// value is considered.
//
// Everything after "Bearer " is the token, including the empty string; an
// empty token is syntactically valid and simply never matches an allow-list.
func ParseBearer(values []string) (Credential, error) {
	if len(values) == 0 {
		return Credential{}, ErrUnprovidedAuthorization
	}

	v := values[0]
	if !isVisibleHeaderValue(v) {
		return Credential{}, ErrBadHeaderEncoding
	}

	token, ok := strings.CutPrefix(v, bearerPrefix)
	if !ok {
		return Credential{}, ErrUnknownAuthMethod
	}

	return Credential{token: token}, nil
}

// isVisibleHeaderValue reports whether v only holds visible ASCII, space and
// horizontal tab, the bytes a header value may carry as plain text.
func isVisibleHeaderValue(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b == '\t' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
