package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Section is a flattened text span with its heading context, ready for
// splitting and embedding.
type Section struct {
	Heading  string   // Nearest enclosing heading
	Headings []string // Heading path from the document root
	Text     string
	Page     int
}

// Flatten walks the tree depth-first and returns every text-bearing node as a
// Section carrying its heading breadcrumb.
func Flatten(tree *DocTree) []Section {
	var sections []Section
	var walk func(nodes []*DocNode, path []string)
	walk = func(nodes []*DocNode, path []string) {
		for _, node := range nodes {
			nodePath := path
			if node.Title != "" {
				nodePath = append(append([]string{}, path...), node.Title)
			}
			if node.Text != "" {
				heading := ""
				if len(nodePath) > 0 {
					heading = nodePath[len(nodePath)-1]
				}
				sections = append(sections, Section{
					Heading:  heading,
					Headings: nodePath,
					Text:     node.Text,
					Page:     node.Page,
				})
			}
			walk(node.Children, nodePath)
		}
	}
	walk(tree.Children, nil)
	return sections
}

// FlattenText joins all node text into one string, used for content hashing.
func FlattenText(tree *DocTree) string {
	var sb strings.Builder
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, node := range nodes {
			if node.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(node.Text)
			}
			walk(node.Children)
		}
	}
	walk(tree.Children)
	return sb.String()
}
