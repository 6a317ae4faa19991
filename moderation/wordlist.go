package moderation

import (
	"bufio"
	"bytes"
	"debate-lab/errors"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*.txt
var defaultWords embed.FS

// WordList is a deduplicated blacklist and the languages it was built from.
type WordList struct {
	Words     []string
	Languages []string
}

// DefaultWordList loads the blacklists shipped with the binary.
func DefaultWordList() (*WordList, error) {
	return LoadWordList(defaultWords, "censored")
}

// LoadWordList reads every "{lang}.txt" file of dir, one word per line.
func LoadWordList(fsys fs.FS, dir string) (*WordList, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	var words []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		// bufio handles \r\n, strings.Split does not
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				words = append(words, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words = lo.Uniq(words)
	sort.Strings(words)
	return &WordList{Words: words, Languages: languages}, nil
}
