// Package parser decomposes raw URL strings into models.ParsedURL.
//
// The splitter is lenient: it accepts relative references,
// unknown schemes and hosts that a browser would reject. It only fails on
// input whose authority cannot be decomposed at all: unbalanced brackets,
// a bracketed part that is not an IPv6 or IPvFuture literal, a
// non-numeric or out-of-range port, an invalid percent escape in the host,
// or non-ASCII text that NFKC-normalizes into a URL delimiter.
package parser

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// ErrUnparsable is returned (wrapped) for every parse failure.
var ErrUnparsable = errors.New("unparsable url")

// Parse splits raw into scheme, host, port, path, query and fragment.
// It never prepends a default scheme.
func Parse(raw string) (models.ParsedURL, error) {
	var u models.ParsedURL

	rest := sanitize(raw)

	if scheme, after, ok := splitScheme(rest); ok {
		u.Scheme = scheme
		rest = after
	}

	var authority string
	hasAuthority := strings.HasPrefix(rest, "//")
	if hasAuthority {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		authority, rest = rest[:end], rest[end:]
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest, u.Fragment = rest[:i], rest[i+1:]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, u.Query = rest[:i], rest[i+1:]
	}
	u.Path = rest

	if hasAuthority {
		if err := splitAuthority(authority, &u); err != nil {
			return models.ParsedURL{}, err
		}
	}

	return u, nil
}

// sanitize trims leading C0 controls and spaces and drops tab, CR and LF,
// which browsers ignore anywhere in a URL.
func sanitize(raw string) string {
	s := strings.TrimLeftFunc(raw, func(r rune) bool { return r <= ' ' })
	if strings.ContainsAny(s, "\t\r\n") {
		s = strings.Map(func(r rune) rune {
			switch r {
			case '\t', '\r', '\n':
				return -1
			}
			return r
		}, s)
	}
	return s
}

// splitScheme returns the lower-cased scheme and the remainder when s
// starts with a syntactically valid "scheme:" prefix.
func splitScheme(s string) (string, string, bool) {
	i := strings.IndexByte(s, ':')
	if i <= 0 || !isLetter(s[0]) {
		return "", s, false
	}
	for j := 1; j < i; j++ {
		c := s[j]
		if !isLetter(c) && !isDigit(c) && c != '+' && c != '-' && c != '.' {
			return "", s, false
		}
	}
	return strings.ToLower(s[:i]), s[i+1:], true
}

// HasScheme reports whether raw starts with an explicit scheme. A
// "host:port" prefix such as "localhost:8080" or "bit.ly:80/x" is not
// counted as one, although Parse would split it that way.
func HasScheme(raw string) bool {
	_, rest, ok := splitScheme(sanitize(raw))
	return ok && (rest == "" || !isDigit(rest[0]))
}

func splitAuthority(authority string, u *models.ParsedURL) error {
	open := strings.Contains(authority, "[")
	closed := strings.Contains(authority, "]")
	if open != closed {
		return fmt.Errorf("%w: unbalanced brackets in authority %q", ErrUnparsable, authority)
	}
	if open {
		_, after, _ := strings.Cut(authority, "[")
		bracketed, _, _ := strings.Cut(after, "]")
		if err := checkBracketedHost(bracketed); err != nil {
			return err
		}
	}
	if err := checkNormalizedAuthority(authority); err != nil {
		return err
	}

	hostinfo := authority
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		hostinfo = authority[i+1:]
	}

	// Text before "[" is discarded and anything after "]" up to ":" is
	// ignored; only the bracketed part is the host.
	var host, port string
	if _, bracketed, found := strings.Cut(hostinfo, "["); found {
		var rest string
		host, rest, _ = strings.Cut(bracketed, "]")
		_, port, _ = strings.Cut(rest, ":")
	} else {
		host, port, _ = strings.Cut(hostinfo, ":")
		if err := checkPercentEscapes(host); err != nil {
			return err
		}
	}

	u.Host = strings.ToLower(host)

	if port == "" {
		return nil
	}
	n, err := parsePort(port)
	if err != nil {
		return err
	}
	u.Port = n
	u.HasPort = true
	return nil
}

func checkBracketedHost(host string) error {
	if strings.HasPrefix(host, "v") {
		// IPvFuture: "v" 1*HEXDIG "." 1*( unreserved / sub-delims / ":" )
		ver, rest, ok := strings.Cut(host[1:], ".")
		if !ok || ver == "" || rest == "" || !isHex(ver) {
			return fmt.Errorf("%w: invalid IPvFuture literal %q", ErrUnparsable, host)
		}
		return nil
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is6() {
		return fmt.Errorf("%w: bracketed host %q is not an IPv6 address", ErrUnparsable, host)
	}
	return nil
}

var authorityDelims = strings.NewReplacer("@", "", ":", "", "#", "", "?", "")

// checkNormalizedAuthority rejects non-ASCII authorities whose NFKC form
// introduces a URL delimiter, such as a fullwidth solidus or commercial at
// that a browser would fold into "/" or "@".
func checkNormalizedAuthority(authority string) error {
	if isASCII(authority) {
		return nil
	}
	stripped := authorityDelims.Replace(authority)
	normalized := norm.NFKC.String(stripped)
	if normalized == stripped {
		return nil
	}
	if strings.ContainsAny(normalized, "/?#@:") {
		return fmt.Errorf("%w: authority %q contains delimiters under NFKC normalization", ErrUnparsable, authority)
	}
	return nil
}

func checkPercentEscapes(host string) error {
	for i := 0; i < len(host); i++ {
		if host[i] != '%' {
			continue
		}
		if i+2 >= len(host) || !isHexByte(host[i+1]) || !isHexByte(host[i+2]) {
			return fmt.Errorf("%w: invalid percent escape in host %q", ErrUnparsable, host)
		}
		i += 2
	}
	return nil
}

func parsePort(port string) (int, error) {
	for i := 0; i < len(port); i++ {
		if !isDigit(port[i]) {
			return 0, fmt.Errorf("%w: port %q is not numeric", ErrUnparsable, port)
		}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n > 65535 {
		return 0, fmt.Errorf("%w: port %q out of range 0-65535", ErrUnparsable, port)
	}
	return n, nil
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHexByte(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexByte(s[i]) {
			return false
		}
	}
	return true
}
