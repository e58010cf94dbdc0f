package outline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func blk(key Key, t BlockType, depth int) Block {
	return Block{Key: key, Type: t, Depth: depth}
}

func num(key Key, depth, order int) Block {
	b := blk(key, TypeNumberList, depth)
	b.Data.NumberListOrder = intPtr(order)
	return b
}

func withParent(b Block, parent Key) Block {
	b.Data.ParentKey = parent
	return b
}

func newDoc(t *testing.T, blocks ...Block) *Document {
	t.Helper()
	d, err := NewDocument(blocks)
	require.NoError(t, err)
	return d
}

func keysOf(blocks []Block) []Key {
	out := make([]Key, len(blocks))
	for i, b := range blocks {
		out[i] = b.Key
	}
	return out
}

func depthsOf(blocks []Block) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.Depth
	}
	return out
}

func mustBlock(t *testing.T, d *Document, key Key) Block {
	t.Helper()
	b, ok := d.Block(key)
	require.True(t, ok, "block %s missing", key)
	return b
}

var allTypes = []BlockType{
	TypeParagraph, TypeHeading, TypeBulletList, TypeNumberList,
	TypeCheckList, TypeToggleList, TypeQuote,
}

// randomBlocks returns a valid flat sequence biased towards lists.
func randomBlocks(r *rand.Rand, n int) []Block {
	blocks := make([]Block, 0, n)
	prev := -1
	for i := 0; i < n; i++ {
		depth := r.Intn(prev + 2)
		t := allTypes[r.Intn(len(allTypes))]
		if r.Intn(2) == 0 {
			t = TypeNumberList
		}
		b := blk(fmt.Sprintf("k%d", i), t, depth)
		switch t {
		case TypeNumberList:
			b.Data.NumberListOrder = intPtr(r.Intn(5))
		case TypeToggleList:
			b.Data.ToggleListToggle = boolPtr(r.Intn(2) == 0)
		case TypeCheckList:
			b.Data.CheckListCheck = boolPtr(r.Intn(2) == 0)
		}
		if r.Intn(4) == 0 {
			b.Data.CheckListCheck = boolPtr(true)
		}
		blocks = append(blocks, b)
		prev = depth
	}
	return blocks
}

// requireInvariants checks depth continuity, cached parent keys and
// contiguous numbering against the derived forest.
func requireInvariants(t *testing.T, d *Document) {
	t.Helper()
	blocks := d.Blocks()
	pm := d.ParentMap()
	prev := -1
	for _, b := range blocks {
		require.LessOrEqual(t, b.Depth, prev+1, "depth jump at %s", b.Key)
		prev = b.Depth

		parent, hasParent := pm.Parent(b.Key)
		if b.Depth == 0 {
			require.False(t, hasParent, "root %s has parent", b.Key)
		} else {
			require.True(t, hasParent, "%s has no parent", b.Key)
			require.Equal(t, b.Depth-1, mustBlock(t, d, parent).Depth)
		}
		require.Equal(t, parent, b.Data.ParentKey, "cached parent of %s", b.Key)

		if b.Type != TypeCheckList {
			require.Nil(t, b.Data.CheckListCheck)
		}
		if b.Type != TypeToggleList {
			require.Nil(t, b.Data.ToggleListToggle)
		}
		if b.Type != TypeNumberList {
			require.Nil(t, b.Data.NumberListOrder)
		}
	}
	requireContiguousOrders(t, d, d.Forest())
}

func requireContiguousOrders(t *testing.T, d *Document, f Forest) {
	t.Helper()
	for _, list := range f {
		for i, k := range list.Keys {
			if list.Type == TypeNumberList {
				require.Equal(t, i+1, mustBlock(t, d, k).Order(), "order of %s", k)
			}
			requireContiguousOrders(t, d, list.Values[i])
		}
	}
}
