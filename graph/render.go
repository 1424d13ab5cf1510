package graph

import (
	"fmt"
	"sort"

	"github.com/m1gwings/treedrawer/tree"
)

// RenderTree draws the entity graph reachable from root through its
// strong edges as an ASCII tree, for interactive debugging — the
// entity-graph analogue of the teacher's GraphDebugExtension, which
// renders the *executor* dependency graph the same way on resolution
// failure. The entity graph is itself a forest (Debugger -> Sessions
// -> Threads -> ...), so unlike the executor graph this never needs a
// synthetic multi-root node.
func RenderTree(store *Store, root *Entity) string {
	t := buildEntityTree(store, root, make(map[ID]bool))
	if t == nil {
		return "(empty)"
	}
	return t.String()
}

func buildEntityTree(store *Store, e *Entity, visited map[ID]bool) *tree.Tree {
	if visited[e.ID()] {
		return nil
	}
	visited[e.ID()] = true

	label := fmt.Sprintf("%s(%s)", e.Type(), shortID(e.ID()))
	if !e.Alive().Peek() {
		label += " [dead]"
	} else if !e.Current().Peek() {
		label += " [stale]"
	}
	node := tree.NewTree(tree.NodeString(label))

	names := e.EdgeNames()
	sort.Strings(names)
	for _, name := range names {
		children := store.StrongEdgeMembers(e, name)
		for _, childID := range children {
			child, ok := store.Entity(childID)
			if !ok {
				continue
			}
			childTree := buildEntityTree(store, child, visited)
			if childTree != nil {
				addChild(node, childTree)
			}
		}
	}
	return node
}

func addChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addChild(newChild, grandchild)
	}
}

func shortID(id ID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
