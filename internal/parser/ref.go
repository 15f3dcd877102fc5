package parser

import "strings"

// Ref is the outcome of validating a token as a zettel reference.
// The zero value is a rejected reference.
type Ref struct {
	Token string
	ID    string
	valid bool
}

// Valid reports whether the token contained a zk@<id> reference.
func (r Ref) Valid() bool { return r.valid }

// ParseRef validates token against the zk@<id> pattern. On a match the ID
// is the part of the matched reference after its first '@'; surrounding
// punctuation in the token (e.g. "(zk@abc)," from a cursor WORD) is ignored.
func ParseRef(token string) Ref {
	loc := refRe.FindStringIndex(token)
	if loc == nil {
		return Ref{Token: token}
	}
	match := token[loc[0]:loc[1]]
	_, id, _ := strings.Cut(match, "@")
	return Ref{Token: token, ID: id, valid: true}
}
