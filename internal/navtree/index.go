package navtree

import (
	"slices"
	"strings"
)

// DefaultChunkSize is the number of pages per locator chunk.
const DefaultChunkSize = 250

// BuildIndex derives a page index and locator chunks from top, which must
// hold inline children only. Paths are relative to top; the first path seen
// for a url wins. Pages are sorted and cut into chunks of chunkSize, and the
// index lists the first page of each chunk.
func BuildIndex(top Node, chunkSize int) ([]string, []map[string][]int) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	paths := map[string][]int{}
	var visit func(path []int, n Node)
	visit = func(path []int, n Node) {
		if n.HasTarget() {
			if _, ok := paths[n.Target]; !ok {
				paths[n.Target] = slices.Clone(path)
			}
		}
		for i, c := range n.Children.Nodes() {
			visit(append(path, i), c)
		}
	}
	visit([]int{}, top)

	urls := make([]string, 0, len(paths))
	for url := range paths {
		urls = append(urls, url)
	}
	slices.SortFunc(urls, strings.Compare)

	var (
		index  []string
		chunks []map[string][]int
	)
	for start := 0; start < len(urls); start += chunkSize {
		end := min(start+chunkSize, len(urls))
		chunk := make(map[string][]int, end-start)
		for _, url := range urls[start:end] {
			chunk[url] = paths[url]
		}
		index = append(index, urls[start])
		chunks = append(chunks, chunk)
	}
	return index, chunks
}

// NewFromTree builds a Table around a single top node, deriving the index.
func NewFromTree(top Node, chunkSize int, opts ...Option) (*Table, error) {
	index, chunks := BuildIndex(top, chunkSize)
	opts = append(opts, WithPageChunks(chunks))
	return New([]Node{top}, index, opts...)
}
