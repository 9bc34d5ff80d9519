package model

import (
	"strings"

	"github.com/xlab/treeprint"
)

// Tree renders roots as an indented tree under title, one line per node.
func Tree(title string, roots ...*DataStructure) string {
	tree := treeprint.NewWithRoot(title)
	for _, root := range roots {
		if root == nil {
			continue
		}
		addNode(tree, root)
	}
	return tree.String()
}

func addNode(tree treeprint.Tree, d *DataStructure) {
	label := describe(d)
	if len(d.Properties) == 0 {
		tree.AddNode(label)
		return
	}
	branch := tree.AddBranch(label)
	for _, p := range d.Properties {
		addNode(branch, p)
	}
}

func describe(d *DataStructure) string {
	var b strings.Builder
	name := d.Name
	if name == "" {
		name = "<root>"
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(string(d.PropertyType))
	if d.Format != "" {
		b.WriteString("/")
		b.WriteString(d.Format)
	}
	if d.ObjectName != "" {
		b.WriteString(" [")
		b.WriteString(d.ObjectName)
		b.WriteString("]")
	}
	if d.Required {
		b.WriteString(" *")
	}
	return b.String()
}
