package aggregator

import (
	"encoding/json"
	"sort"
)

// Node is one level of a nested frequency table. Count is the number of
// records at or below the node, so a leaf's Count is its frequency.
type Node struct {
	Count    int              `json:"count"`
	Children map[string]*Node `json:"children,omitempty"`
}

// incrementPath adds one record along path, creating levels as needed.
func incrementPath(n *Node, path []string) {
	n.Count++
	if len(path) == 0 {
		return
	}
	if n.Children == nil {
		n.Children = map[string]*Node{}
	}
	child, ok := n.Children[path[0]]
	if !ok {
		child = &Node{}
		n.Children[path[0]] = child
	}
	incrementPath(child, path[1:])
}

// sumAt adds the counts of every node `levels` below n into acc, keyed by the
// node's own key.
func sumAt(n *Node, levels int, acc map[string]int) {
	if levels == 1 {
		for k, child := range n.Children {
			acc[k] += child.Count
		}
		return
	}
	for _, child := range n.Children {
		sumAt(child, levels-1, acc)
	}
}

func (n *Node) toMap() any {
	if len(n.Children) == 0 {
		return n.Count
	}
	out := make(map[string]any, len(n.Children))
	for k, child := range n.Children {
		out[k] = child.toMap()
	}
	return out
}

// NestedCounts is a frequency table keyed by the values of Dimensions, in
// order. In tables from BuildNestedCounts every counted record sits under
// exactly one root-to-leaf path, so Total equals Stats.Counted. Selection and
// Likert tables add one leaf per selected option or per question, so their
// Total can exceed Stats.Counted.
type NestedCounts struct {
	Dimensions []string
	Root       *Node
	Stats      Stats
}

func newNestedCounts(dims []string) *NestedCounts {
	return &NestedCounts{Dimensions: dims, Root: &Node{}}
}

// Depth is the number of dimensions the table is keyed by.
func (t *NestedCounts) Depth() int { return len(t.Dimensions) }

// Total is the sum of all leaf counts.
func (t *NestedCounts) Total() int { return t.Root.Count }

// Count returns the number of records under the given key prefix. A full
// path yields a leaf count; an unknown path yields 0.
func (t *NestedCounts) Count(path ...string) int {
	n := t.Root
	for _, k := range path {
		child, ok := n.Children[k]
		if !ok {
			return 0
		}
		n = child
	}
	return n.Count
}

// Keys returns the sorted keys directly under the given prefix.
func (t *NestedCounts) Keys(path ...string) []string {
	n := t.Root
	for _, k := range path {
		child, ok := n.Children[k]
		if !ok {
			return nil
		}
		n = child
	}
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map renders the table as plain nested maps with integer leaves, e.g.
// {"male": {"20-29": 1}}.
func (t *NestedCounts) Map() map[string]any {
	out := map[string]any{}
	for k, child := range t.Root.Children {
		out[k] = child.toMap()
	}
	return out
}

func (t *NestedCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dimensions []string       `json:"dimensions"`
		Counts     map[string]any `json:"counts"`
		Stats      Stats          `json:"stats"`
	}{t.Dimensions, t.Map(), t.Stats})
}
