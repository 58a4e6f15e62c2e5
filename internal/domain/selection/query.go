package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// CurrentVersion is the query tree format written by this build.
const CurrentVersion = 1

var (
	// ErrUnsupportedVersion is returned when a saved tree carries an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported query format version")

	// ErrInvalidQuery is returned when a query tree is malformed.
	ErrInvalidQuery = errors.New("invalid query")
)

// Node is a query tree node: either a Root leaf or a Branch.
type Node interface {
	isNode()
}

// Root is a leaf that selects directly from a pack (every pack when PackID is nil).
type Root struct {
	PackID    *uuid.UUID
	Criterion TagCriterion
}

// Branch picks one of its children by weight and descends into it.
type Branch struct {
	Children []Weighted[Node]
}

func (Root) isNode()   {}
func (Branch) isNode() {}

// Versioned wraps a tree with its persisted format version.
type Versioned struct {
	Version int
	Query   Node
}

// NewVersioned wraps node in the current format version.
func NewVersioned(node Node) Versioned {
	return Versioned{Version: CurrentVersion, Query: node}
}

// Latest returns the tree migrated to the current node shape.
func (v Versioned) Latest() (Node, error) {
	switch v.Version {
	case 1:
		return v.Query, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v.Version)
	}
}

// Upgrade rewrites v in the current format version.
func Upgrade(v Versioned) (Versioned, error) {
	node, err := v.Latest()
	if err != nil {
		return Versioned{}, err
	}
	return NewVersioned(node), nil
}

// Validate walks the tree without recursion and rejects nil nodes and
// non-positive branch weights. Empty branches are valid and draw nothing.
func Validate(node Node) error {
	stack := []Node{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := current.(type) {
		case Root:
		case *Root:
			if n == nil {
				return fmt.Errorf("%w: nil root", ErrInvalidQuery)
			}
		case Branch:
			for i, child := range n.Children {
				if child.Weight <= 0 {
					return fmt.Errorf("%w: branch child %d has weight %d", ErrInvalidQuery, i, child.Weight)
				}
				stack = append(stack, child.Item)
			}
		case *Branch:
			if n == nil {
				return fmt.Errorf("%w: nil branch", ErrInvalidQuery)
			}
			stack = append(stack, *n)
		case nil:
			return fmt.Errorf("%w: nil node", ErrInvalidQuery)
		default:
			return fmt.Errorf("%w: unknown node type %T", ErrInvalidQuery, current)
		}
	}
	return nil
}

// Draw evaluates the tree: branches are resolved by weighted choice, rebinding
// the current node until a Root is reached, which is handed to sel.
// An empty branch yields ok == false. If r is nil the global generator is used.
func Draw(ctx context.Context, node Node, r *rand.Rand, sel Selector) (uuid.UUID, bool, error) {
	current := node
	for {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, false, err
		}

		switch n := current.(type) {
		case Root:
			return sel.SelectOne(ctx, n.PackID, n.Criterion)
		case *Root:
			if n == nil {
				return uuid.Nil, false, fmt.Errorf("%w: nil root", ErrInvalidQuery)
			}
			return sel.SelectOne(ctx, n.PackID, n.Criterion)
		case Branch:
			child, ok := Choose(r, n.Children)
			if !ok {
				return uuid.Nil, false, nil
			}
			current = child
		case *Branch:
			if n == nil {
				return uuid.Nil, false, fmt.Errorf("%w: nil branch", ErrInvalidQuery)
			}
			current = *n
		default:
			return uuid.Nil, false, fmt.Errorf("%w: unknown node type %T", ErrInvalidQuery, current)
		}
	}
}

// Wire format:
//
//	{"version": 1, "query": {"root": {"pack_id": "...", "included_tags": [], "excluded_tags": []}}}
//	{"version": 1, "query": {"branch": [{"weight": 3, "query": {...}}]}}

type encodedRoot struct {
	PackID   *uuid.UUID `json:"pack_id"`
	Included []string   `json:"included_tags"`
	Excluded []string   `json:"excluded_tags"`
}

type encodedChild struct {
	Weight int         `json:"weight"`
	Query  encodedNode `json:"query"`
}

type encodedNode struct {
	Root   *encodedRoot    `json:"root,omitempty"`
	Branch *[]encodedChild `json:"branch,omitempty"`
}

type encodedVersioned struct {
	Version int             `json:"version"`
	Query   json.RawMessage `json:"query"`
}

func encodeNode(node Node) (encodedNode, error) {
	switch n := node.(type) {
	case Root:
		return encodedNode{Root: &encodedRoot{
			PackID:   n.PackID,
			Included: nonNil(n.Criterion.Included),
			Excluded: nonNil(n.Criterion.Excluded),
		}}, nil
	case *Root:
		if n == nil {
			return encodedNode{}, fmt.Errorf("%w: nil root", ErrInvalidQuery)
		}
		return encodeNode(*n)
	case Branch:
		children := make([]encodedChild, 0, len(n.Children))
		for _, child := range n.Children {
			enc, err := encodeNode(child.Item)
			if err != nil {
				return encodedNode{}, err
			}
			children = append(children, encodedChild{Weight: child.Weight, Query: enc})
		}
		return encodedNode{Branch: &children}, nil
	case *Branch:
		if n == nil {
			return encodedNode{}, fmt.Errorf("%w: nil branch", ErrInvalidQuery)
		}
		return encodeNode(*n)
	default:
		return encodedNode{}, fmt.Errorf("%w: unknown node type %T", ErrInvalidQuery, node)
	}
}

func decodeNode(enc encodedNode) (Node, error) {
	switch {
	case enc.Root != nil && enc.Branch != nil:
		return nil, fmt.Errorf("%w: node has both root and branch", ErrInvalidQuery)
	case enc.Root != nil:
		return Root{
			PackID: enc.Root.PackID,
			Criterion: TagCriterion{
				Included: enc.Root.Included,
				Excluded: enc.Root.Excluded,
			},
		}, nil
	case enc.Branch != nil:
		children := make([]Weighted[Node], 0, len(*enc.Branch))
		for _, child := range *enc.Branch {
			node, err := decodeNode(child.Query)
			if err != nil {
				return nil, err
			}
			children = append(children, Weighted[Node]{Item: node, Weight: child.Weight})
		}
		return Branch{Children: children}, nil
	default:
		return nil, fmt.Errorf("%w: node has neither root nor branch", ErrInvalidQuery)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Versioned) MarshalJSON() ([]byte, error) {
	enc, err := encodeNode(v.Query)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(enc)
	if err != nil {
		return nil, err
	}
	version := v.Version
	if version == 0 {
		version = CurrentVersion
	}
	return json.Marshal(encodedVersioned{Version: version, Query: body})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown versions are rejected
// with ErrUnsupportedVersion so callers can tell them apart from corrupt data.
func (v *Versioned) UnmarshalJSON(data []byte) error {
	var outer encodedVersioned
	if err := json.Unmarshal(data, &outer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	switch outer.Version {
	case 1:
		var enc encodedNode
		if err := json.Unmarshal(outer.Query, &enc); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		node, err := decodeNode(enc)
		if err != nil {
			return err
		}
		v.Version = outer.Version
		v.Query = node
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, outer.Version)
	}
}

func nonNil(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
