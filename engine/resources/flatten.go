package resources

import (
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
)

// FlatMesh is a mesh reference together with the accumulated transform of
// the node that referenced it.
type FlatMesh struct {
	Node      string
	MeshIndex int
	Mesh      *Mesh
	Transform math.Mat4
}

type nodeFrame struct {
	node   *Node
	parent math.Mat4
}

/**
 * @brief Walks the node hierarchy depth first, parents before children and
 * siblings in declaration order, using an explicit stack so deeply nested
 * files cannot exhaust the goroutine stack. Nodes reachable more than once
 * are visited the first time only. Out-of-range mesh indices are skipped.
 */
func Flatten(scene *Scene) []FlatMesh {
	if scene == nil || scene.Root == nil {
		return nil
	}

	var out []FlatMesh
	visited := make(map[*Node]struct{})
	stack := []nodeFrame{{node: scene.Root, parent: math.NewMat4Identity()}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.node == nil {
			continue
		}
		if _, seen := visited[frame.node]; seen {
			core.LogWarn("node %q is referenced more than once, skipping", frame.node.Name)
			continue
		}
		visited[frame.node] = struct{}{}

		world := frame.parent.Mul(nodeTransform(frame.node))
		for _, idx := range frame.node.MeshIndices {
			if idx < 0 || idx >= len(scene.Meshes) || scene.Meshes[idx] == nil {
				core.LogWarn("node %q references missing mesh %d", frame.node.Name, idx)
				continue
			}
			out = append(out, FlatMesh{Node: frame.node.Name, MeshIndex: idx, Mesh: scene.Meshes[idx], Transform: world})
		}

		// push in reverse so the first child is processed next
		for i := len(frame.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, nodeFrame{node: frame.node.Children[i], parent: world})
		}
	}
	return out
}

// nodeTransform treats an all-zero matrix as identity so hand-built
// hierarchies may leave Transform unset.
func nodeTransform(n *Node) math.Mat4 {
	if n.Transform == (math.Mat4{}) {
		return math.NewMat4Identity()
	}
	return n.Transform
}
