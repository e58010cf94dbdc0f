package outline

// ParentInfo locates a block inside the derived forest.
type ParentInfo struct {
	// ParentKey is empty for root blocks.
	ParentKey Key `json:"parentKey" yaml:"parentKey"`
	// ListIndex selects the run among the parent's child forest.
	ListIndex int `json:"listIndex" yaml:"listIndex"`
	// Order is the position of the block within its run.
	Order int `json:"order" yaml:"order"`
}

// ParentMap maps every block key to its ParentInfo.
type ParentMap map[Key]ParentInfo

// BuildParentMap walks forest depth-first and records each key's location.
func BuildParentMap(forest Forest) ParentMap {
	pm := ParentMap{}
	pm.add(forest, "")
	return pm
}

func (pm ParentMap) add(forest Forest, owner Key) {
	for listIndex, list := range forest {
		for j, k := range list.Keys {
			pm[k] = ParentInfo{ParentKey: owner, ListIndex: listIndex, Order: j}
			pm.add(list.Values[j], k)
		}
	}
}

// Parent returns the parent key of k and whether k has a parent.
func (pm ParentMap) Parent(k Key) (Key, bool) {
	info, ok := pm[k]
	if !ok || info.ParentKey == "" {
		return "", false
	}
	return info.ParentKey, true
}

// Ancestors returns the keys from k's parent up to its root.
func (pm ParentMap) Ancestors(k Key) []Key {
	var out []Key
	seen := map[Key]bool{k: true}
	for {
		p, ok := pm.Parent(k)
		if !ok || seen[p] {
			return out
		}
		seen[p] = true
		out = append(out, p)
		k = p
	}
}
