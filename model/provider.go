package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Provider is a named rule that turns regular expression matches in a
// document into outbound lens requests.
type Provider struct {
	// ID uniquely identifies the provider within a configuration snapshot.
	ID string `json:"id" toml:"id"`
	// Pattern is the regular expression searched for in document text.
	Pattern string `json:"pattern" toml:"pattern"`
	// Flags are single-letter regular expression flags. See NormalizeFlags.
	Flags string `json:"flags,omitempty" toml:"flags,omitempty"`
	// URL is the request URL template. Capture groups are appended to it as
	// m[] query parameters.
	URL string `json:"url" toml:"url"`
	// Files optionally restricts the provider to documents whose path
	// matches one of these doublestar globs. Empty means all documents.
	Files []string `json:"files,omitempty" toml:"files,omitempty"`
}

// NormalizeFlags converts provider flags into a Go inline flag group, such as
// "(?im)". The global flag "g" is accepted and dropped, since matching always
// iterates over all matches. The "u" flag is accepted and dropped, since Go
// regular expressions are always UTF-8, and so is "d", since match indices
// are always computed. "i", "m", "s" and the Go ungreedy flag
// "U" are passed through. Any other flag is an error.
func NormalizeFlags(flags string) (string, error) {
	var b strings.Builder
	seen := make(map[rune]struct{}, len(flags))
	for _, f := range flags {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		switch f {
		case 'd', 'g', 'u':
		case 'i', 'm', 's', 'U':
			b.WriteRune(f)
		default:
			return "", fmt.Errorf("unsupported regexp flag %q", f)
		}
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "(?" + b.String() + ")", nil
}

// Expr returns the Go regular expression source for the provider, with its
// flags applied.
func (p Provider) Expr() (string, error) {
	if p.Pattern == "" {
		return "", errors.New("empty pattern")
	}
	prefix, err := NormalizeFlags(p.Flags)
	if err != nil {
		return "", err
	}
	return prefix + p.Pattern, nil
}

// Compile compiles the provider's pattern with its flags.
func (p Provider) Compile() (*regexp.Regexp, error) {
	expr, err := p.Expr()
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expr)
}

// Validate checks that the provider definition is usable.
func (p Provider) Validate() error {
	if p.ID == "" {
		return errors.New("provider has no id")
	}
	if p.URL == "" {
		return fmt.Errorf("provider %s: empty url", p.ID)
	}
	if _, err := p.Compile(); err != nil {
		return fmt.Errorf("provider %s: %w", p.ID, err)
	}
	return nil
}

// ValidateProviders validates every provider and returns all problems found,
// including duplicate IDs. A nil error means every provider is usable.
func ValidateProviders(providers []Provider) error {
	var errs error
	ids := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if err := p.Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if p.ID == "" {
			continue
		}
		if _, dup := ids[p.ID]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate provider id %s", p.ID))
		}
		ids[p.ID] = struct{}{}
	}
	return errs
}
