// Package rewrite adapts free text written on the source platform to the destination platform.
//
// Every pass scans its input once and each matched token is rewritten at most once. Rewritten
// tokens take a form the source patterns never match again, so applying a pass twice with the
// same maps gives the same result as applying it once.
package rewrite

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UserLookup resolves source usernames.
type UserLookup interface {
	Lookup(gitlabUsername string) (string, bool)
	IsGitHubUser(name string) bool
}

// Resolver resolves a source number to a destination number.
type Resolver interface {
	Lookup(sourceID int) (int, bool)
}

// References holds what cross references resolve against.
type References struct {
	Issues       Resolver
	PullRequests Resolver
	// PullRequestOffset is added to merge request numbers when UseOffset is set, for text
	// written before pull request numbers are known.
	PullRequestOffset int
	UseOffset         bool
}

// Source locates the project the text was written in.
type Source struct {
	WebURL string
	Group  string
	Path   string
}

// Rewriter rewrites text of one repository.
type Rewriter struct {
	Users  UserLookup
	Source Source
	// Destination is the owner/repo prefix of rewritten cross references. It must not be empty:
	// a bare #n result would be matched again by the next pass.
	Destination string
}

var (
	mentionPattern  = regexp.MustCompile(`@([A-Za-z0-9_][A-Za-z0-9_.\-]*)`)
	imagePattern    = regexp.MustCompile(`(!?)\[([^\]\n]*)\]\(/uploads/([^)\s]+)\)`)
	crossRefPattern = regexp.MustCompile(`([#!])([0-9]+)\b`)
)

// Text applies every pass.
func (r *Rewriter) Text(text string, refs References) string {
	return r.CrossReferences(r.Mentions(text), refs)
}

// Username returns how a source user is credited: @destination when mapped, the raw source
// username otherwise.
func (r *Rewriter) Username(gitlabUsername string) string {
	if r.Users != nil {
		if mapped, ok := r.Users.Lookup(gitlabUsername); ok {
			return "@" + mapped
		}
	}
	return gitlabUsername
}

// Mentions rewrites @handles to destination usernames and then rewrites upload links.
// Unmapped handles and handles that already name a destination user are left as they are.
// Handles inside e-mail addresses and URL paths are not mentions.
func (r *Rewriter) Mentions(text string) string {
	if text == "" {
		return ""
	}
	text = replaceTokens(text, mentionPattern, func(m []string) (string, bool) {
		handle := strings.TrimRight(m[1], ".-")
		if r.Users == nil || r.Users.IsGitHubUser(handle) {
			return "", false
		}
		mapped, ok := r.Users.Lookup(handle)
		if !ok {
			return "", false
		}
		return "@" + mapped + m[1][len(handle):], true
	})
	return r.Images(text)
}

// Images turns relative upload links into absolute links on the source web site, keeping the
// image marker and the link text.
func (r *Rewriter) Images(text string) string {
	if text == "" {
		return ""
	}
	base := strings.TrimRight(r.Source.WebURL, "/") + "/" + strings.Trim(r.Source.Group, "/") + "/" + r.Source.Path + "/uploads/"
	return imagePattern.ReplaceAllStringFunc(text, func(s string) string {
		m := imagePattern.FindStringSubmatch(s)
		return m[1] + "[" + m[2] + "](" + base + m[3] + ")"
	})
}

// CrossReferences rewrites #n issue and !n merge request references.
func (r *Rewriter) CrossReferences(text string, refs References) string {
	if text == "" {
		return ""
	}
	return replaceTokens(text, crossRefPattern, func(m []string) (string, bool) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
		if m[1] == "#" {
			if dest, ok := lookup(refs.Issues, n); ok {
				return r.reference(dest), true
			}
			return "Issue No " + m[2], true
		}
		if refs.UseOffset {
			return r.reference(n + refs.PullRequestOffset), true
		}
		if dest, ok := lookup(refs.PullRequests, n); ok {
			return r.reference(dest), true
		}
		return "PR No " + m[2], true
	})
}

func (r *Rewriter) reference(n int) string {
	return r.Destination + "#" + strconv.Itoa(n)
}

func lookup(res Resolver, n int) (int, bool) {
	if res == nil {
		return 0, false
	}
	return res.Lookup(n)
}

// replaceTokens replaces every match of re that does not directly follow a word character, a
// slash, an ampersand or another marker. fn returns false to keep the match.
func replaceTokens(text string, re *regexp.Regexp, fn func(m []string) (string, bool)) string {
	idx := re.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range idx {
		start, end := loc[0], loc[1]
		if !tokenBoundary(text, start) {
			continue
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		repl, ok := fn(m)
		if !ok {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(repl)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func tokenBoundary(text string, start int) bool {
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	switch {
	case prev == '_' || prev == '/' || prev == '&' || prev == '#' || prev == '!' || prev == '@' || prev == '.' || prev == '-':
		return false
	case unicode.IsLetter(prev) || unicode.IsDigit(prev):
		return false
	}
	return true
}
