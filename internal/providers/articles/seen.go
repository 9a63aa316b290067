package articles

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sandevgo/brotherbot/pkg/fsutil"
)

// SeenStore is the newline-delimited set of links already announced.
type SeenStore struct {
	path string
	mu   sync.Mutex
}

func NewSeenStore(path string) *SeenStore {
	return &SeenStore{path: path}
}

func (s *SeenStore) Load() (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seen articles: %w", err)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			seen[line] = struct{}{}
		}
	}
	return seen, sc.Err()
}

func (s *SeenStore) Save(seen map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)

	data := strings.Join(links, "\n")
	if data != "" {
		data += "\n"
	}
	return fsutil.WriteFileAtomic(s.path, []byte(data), 0644)
}
