// Package usermap translates source usernames into destination usernames.
package usermap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header is the header row of the mapping table.
var Header = []string{"gitlab_username", "github_username"}

// Entry is one row of the mapping table. An empty GitHub username means the user is unmapped.
type Entry struct {
	GitLab string
	GitHub string
}

// UserMap is an immutable source to destination username table.
type UserMap struct {
	byGitLab map[string]string
	github   map[string]struct{}
}

// New builds a map from entries. Entries without a destination username are ignored.
func New(entries ...Entry) *UserMap {
	m := &UserMap{
		byGitLab: make(map[string]string, len(entries)),
		github:   make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		src, dst := strings.TrimSpace(e.GitLab), strings.TrimSpace(e.GitHub)
		if src == "" || dst == "" {
			continue
		}
		m.byGitLab[src] = dst
		m.github[strings.ToLower(dst)] = struct{}{}
	}
	return m
}

// Load reads the mapping table at path. An empty path yields an empty map.
func Load(path string) (*UserMap, error) {
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user map: %w", err)
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read user map %s: %w", path, err)
	}
	return New(entries...), nil
}

// Read parses the mapping table. The first row is a header and columns are positional.
func Read(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var entries []Entry
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		e := Entry{GitLab: record[0]}
		if len(record) > 1 {
			e.GitHub = record[1]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Write writes the mapping table with its header.
func Write(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{e.GitLab, e.GitHub}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Lookup returns the destination username for a source username.
func (m *UserMap) Lookup(gitlabUsername string) (string, bool) {
	v, ok := m.byGitLab[gitlabUsername]
	return v, ok
}

// IsGitHubUser reports whether name is the destination side of some mapping.
func (m *UserMap) IsGitHubUser(name string) bool {
	_, ok := m.github[strings.ToLower(name)]
	return ok
}

// Len returns the number of mapped users.
func (m *UserMap) Len() int {
	return len(m.byGitLab)
}
