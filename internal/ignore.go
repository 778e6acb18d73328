package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".gitnotesignore"

// IgnoreMatcher excludes notes from auto-commit tracking using gitignore
// syntax. A nil matcher ignores nothing.
type IgnoreMatcher struct {
	patterns []gitignore.Pattern
	basePath string
}

// NewIgnoreMatcher reads the vault's ignore file. A missing file is not an
// error.
func NewIgnoreMatcher(v Vault) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{
		basePath: v.Root,
	}

	patterns, err := parseIgnoreFile(v.IgnorePath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	m.patterns = patterns
	return m, nil
}

func (m *IgnoreMatcher) Match(path string) bool {
	return m.match(path, false)
}

func (m *IgnoreMatcher) MatchDir(path string) bool {
	return m.match(path, true)
}

func (m *IgnoreMatcher) match(path string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	relPath, err := filepath.Rel(m.basePath, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}

	pathParts := strings.Split(relPath, string(filepath.Separator))

	// Last matching pattern wins so negations can re-include files.
	result := gitignore.NoMatch
	for _, p := range m.patterns {
		if r := p.Match(pathParts, isDir); r != gitignore.NoMatch {
			result = r
		}
	}
	return result == gitignore.Exclude
}

func parseIgnoreFile(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
