package oauth1

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Params is a flat parameter map, one value per key.
type Params map[string]string

// ErrRepeatedParam is returned by [SplitURL] for a query that repeats a key.
// A flat [Params] cannot sign every value that would be sent on the wire.
var ErrRepeatedParam = fmt.Errorf("repeated query parameter")

// noEscape marks the RFC 3986 unreserved characters.
var noEscape [256]bool

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		noEscape[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		noEscape[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		noEscape[c] = true
	}
	for _, c := range "-._~" {
		noEscape[c] = true
	}
}

// Encode percent-encodes s per RFC 3986. Every byte outside the unreserved set,
// including ! ' ( ) and *, becomes %XX with uppercase hex.
func Encode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !noEscape[s[i]] {
			n++
		}
	}
	if n == 0 {
		return s
	}

	const hex = "0123456789ABCDEF"
	b := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if noEscape[c] {
			b = append(b, c)
			continue
		}
		b = append(b, '%', hex[c>>4], hex[c&15])
	}
	return string(b)
}

type pair struct{ k, v string }

// NormalizeParams encodes every key and value, sorts by encoded key then value and joins them as k=v&k=v.
func NormalizeParams(p Params) string {
	pairs := make([]pair, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, pair{Encode(k), Encode(v)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.k)
		sb.WriteByte('=')
		sb.WriteString(p.v)
	}
	return sb.String()
}

// BaseURL returns the base string URI of u: scheme and host lowercased,
// default ports removed, query and fragment dropped.
func BaseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// SplitURL parses rawURL and returns its base string URI together with its
// query parameters, which must take part in the signature.
//
// A key given more than once fails with [ErrRepeatedParam].
func SplitURL(rawURL string) (string, Params, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}

	params := make(Params)
	for k, vs := range u.Query() {
		if len(vs) > 1 {
			return "", nil, fmt.Errorf("%w: %q", ErrRepeatedParam, k)
		}
		if len(vs) == 1 {
			params[k] = vs[0]
		}
	}
	return BaseURL(u), params, nil
}
