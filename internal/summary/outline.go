package summary

import (
	"strings"
)

// Node is one entry in the outline tree derived from the summary markdown.
type Node struct {
	Title    string
	Depth    int
	Children []*Node
}

// ParseOutline builds the outline tree from markdown headings and list
// items. Headings map to their level; list items nest below the nearest
// heading by indentation. Fenced code blocks are skipped. This is the
// "transform markdown to a graph" step; positioning is LayoutOutline's job.
func ParseOutline(md string) *Node {
	root := &Node{Depth: 0}
	// stack[d] is the most recent node at depth d.
	stack := []*Node{root}

	inFence := false
	headingDepth := 0

	push := func(depth int, title string) {
		if depth < 1 {
			depth = 1
		}
		if depth > len(stack) {
			depth = len(stack)
		}
		node := &Node{Title: title, Depth: depth}
		parent := stack[depth-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack[:depth], node)
	}

	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			title := strings.TrimSpace(trimmed[level:])
			if title == "" || level > 6 {
				continue
			}
			push(level, title)
			headingDepth = level
			continue
		}

		if len(trimmed) > 1 && (trimmed[0] == '-' || trimmed[0] == '*' || trimmed[0] == '+') && trimmed[1] == ' ' {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			push(headingDepth+1+indent/2, strings.TrimSpace(trimmed[1:]))
			continue
		}
	}

	return root
}

// Row is one laid-out line of the outline view.
type Row struct {
	Depth     int
	Text      string
	Collapsed bool // node has children hidden by the collapse depth
}

// LayoutOutline flattens the tree into visible rows, hiding everything
// deeper than maxDepth. maxDepth <= 0 shows the full tree.
func LayoutOutline(root *Node, maxDepth int) []Row {
	var rows []Row
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			collapsed := maxDepth > 0 && child.Depth >= maxDepth && len(child.Children) > 0
			rows = append(rows, Row{
				Depth:     child.Depth,
				Text:      child.Title,
				Collapsed: collapsed,
			})
			if !collapsed {
				walk(child)
			}
		}
	}
	walk(root)
	return rows
}

// FitDepth picks the collapse depth of a fresh fit-to-content layout: the
// deepest level whose row count still fits maxRows, but never less than 1.
func FitDepth(root *Node, maxRows int) int {
	if maxRows <= 0 {
		return 1
	}
	depth := 1
	for d := 1; d <= maxTreeDepth(root); d++ {
		if len(LayoutOutline(root, d)) > maxRows {
			break
		}
		depth = d
	}
	return depth
}

func maxTreeDepth(n *Node) int {
	deepest := n.Depth
	for _, c := range n.Children {
		if d := maxTreeDepth(c); d > deepest {
			deepest = d
		}
	}
	return deepest
}
