package pipeline

// batch accumulates lines for one retrieval. Repeated lines are retrieved
// once and fanned back out in their original positions.
type batch struct {
	maxSize int
	lines   []string
	texts   []string
	seen    map[string]struct{}
}

func newBatch(maxSize int) *batch {
	return &batch{maxSize: maxSize, seen: map[string]struct{}{}}
}

// add appends a line and reports whether the batch is full. Only distinct
// lines count toward the size.
func (b *batch) add(line string) bool {
	b.lines = append(b.lines, line)
	if _, ok := b.seen[line]; !ok {
		b.seen[line] = struct{}{}
		b.texts = append(b.texts, line)
	}
	return len(b.texts) >= b.maxSize
}

// drain returns the pending lines and their distinct texts, and resets.
func (b *batch) drain() (lines, texts []string) {
	lines, texts = b.lines, b.texts
	b.lines, b.texts = nil, nil
	b.seen = map[string]struct{}{}
	return lines, texts
}
