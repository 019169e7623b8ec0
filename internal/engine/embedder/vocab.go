package embedder

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// vocab is a WordPiece vocabulary; a token's ID is its 0-indexed line.
type vocab struct {
	ids map[string]int64

	unkID int64
	clsID int64
	sepID int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()
	return readVocab(f)
}

func readVocab(r io.Reader) (*vocab, error) {
	ids := make(map[string]int64, 32000)
	scanner := bufio.NewScanner(r)
	for n := int64(0); scanner.Scan(); n++ {
		ids[scanner.Text()] = n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("vocab: empty")
	}

	v := &vocab{ids: ids}
	for _, s := range []struct {
		token string
		dest  *int64
	}{
		{"[UNK]", &v.unkID},
		{"[CLS]", &v.clsID},
		{"[SEP]", &v.sepID},
	} {
		id, ok := ids[s.token]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.token)
		}
		*s.dest = id
	}
	return v, nil
}

// lookup returns the token's ID, or [UNK] when absent.
func (v *vocab) lookup(token string) int64 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocab) contains(token string) bool {
	_, ok := v.ids[token]
	return ok
}
