package match

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/restlens/go-restlens/model"
)

var log = logging.Logger("restlens/match")

// UnmatchedGroup is the value sent for a capture group that did not take part
// in a match.
const UnmatchedGroup = ""

// maxCompiled bounds the number of memoized regular expressions.
const maxCompiled = 256

var (
	compiledMu sync.Mutex
	compiled   = make(map[string]*regexp.Regexp)
)

// uriComponentFixes undoes the escapes that url.QueryEscape applies and
// encodeURIComponent does not.
var uriComponentFixes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Find returns the matches of all providers in text. Matches are ordered by
// provider, then by position in the document. Providers that cannot be
// compiled are logged and skipped.
func Find(text string, providers []model.Provider) []model.Match {
	var matches []model.Match
	for _, p := range providers {
		found, err := findProvider(text, p)
		if err != nil {
			log.Errorw("Cannot match provider", "provider", p.ID, "err", err)
			providerErrors.WithLabelValues(p.ID).Inc()
			continue
		}
		matches = append(matches, found...)
	}
	return matches
}

func findProvider(text string, p model.Provider) ([]model.Match, error) {
	if p.URL == "" {
		return nil, errors.New("empty url")
	}
	re, err := compile(p)
	if err != nil {
		return nil, err
	}

	var matches []model.Match
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if len(loc) < 2 {
			continue
		}
		start, end := loc[0], loc[1]
		if start < 0 || end < start || end > len(text) {
			continue
		}
		groups := make([]string, len(loc)/2)
		for i := range groups {
			gs, ge := loc[2*i], loc[2*i+1]
			if gs < 0 || ge < gs {
				groups[i] = UnmatchedGroup
				continue
			}
			groups[i] = text[gs:ge]
		}
		matches = append(matches, model.Match{
			Range: model.Range{
				Start: start,
				End:   end,
			},
			ProviderID: p.ID,
			RequestURL: RequestURL(p.URL, groups),
		})
	}
	return matches, nil
}

// RequestURL appends the capture groups to the URL template as m[] query
// parameters. The template's existing query, if any, is kept.
func RequestURL(template string, groups []string) string {
	var b strings.Builder
	b.WriteString(template)
	if strings.Contains(template, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	for i, g := range groups {
		if i != 0 {
			b.WriteByte('&')
		}
		b.WriteString("m[]=")
		b.WriteString(EncodeURIComponent(g))
	}
	return b.String()
}

// EncodeURIComponent escapes s like JavaScript's encodeURIComponent. Only
// A-Z a-z 0-9 and - _ . ! ~ * ' ( ) are left unescaped.
func EncodeURIComponent(s string) string {
	return uriComponentFixes.Replace(url.QueryEscape(s))
}

func compile(p model.Provider) (*regexp.Regexp, error) {
	expr, err := p.Expr()
	if err != nil {
		return nil, err
	}

	compiledMu.Lock()
	re, ok := compiled[expr]
	compiledMu.Unlock()
	if ok {
		return re, nil
	}

	re, err = regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	compiledMu.Lock()
	if len(compiled) >= maxCompiled {
		clear(compiled)
	}
	compiled[expr] = re
	compiledMu.Unlock()
	return re, nil
}
