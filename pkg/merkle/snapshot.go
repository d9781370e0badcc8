package merkle

import (
	"encoding/json"
	"fmt"
)

// Dump serializes the tree into its published snapshot form: a JSON document
// with the hex root and the full level structure, level 0 first. The snapshot
// is opaque to the publication service, which stores it under a content
// address.
func (t *Tree) Dump() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merkle tree: %w", err)
	}
	return data, nil
}

// LoadTree reconstructs a tree from its snapshot form. LoadTree(t.Dump()) is
// field-for-field identical to t for every valid tree.
func LoadTree(data []byte) (*Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal merkle tree: %w", err)
	}

	if len(tree.Levels) == 0 || len(tree.Levels[len(tree.Levels)-1]) != 1 {
		return nil, fmt.Errorf("malformed merkle tree snapshot: missing root level")
	}
	if tree.Root != tree.Levels[len(tree.Levels)-1][0] {
		return nil, fmt.Errorf("malformed merkle tree snapshot: root does not match top level")
	}

	return &tree, nil
}
