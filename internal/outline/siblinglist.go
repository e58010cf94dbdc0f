package outline

// keyIndex maps a key to its position in a SiblingList.
type keyIndex map[Key]int

func (m keyIndex) Get(k Key) (int, bool) {
	i, ok := m[k]
	return i, ok
}

func (m keyIndex) Set(k Key, i int) { m[k] = i }

func (m keyIndex) Has(k Key) bool {
	_, ok := m[k]
	return ok
}

func (m keyIndex) Delete(k Key) { delete(m, k) }

// Forest is an ordered sequence of sibling runs.
type Forest []*SiblingList

// SiblingList is a run of same-type, same-depth sibling keys. Values[i] is
// the child forest nested under Keys[i].
type SiblingList struct {
	Type   BlockType
	Keys   []Key
	Values []Forest
	index  keyIndex
}

// NewSiblingList returns an empty run of the given type.
func NewSiblingList(t BlockType) *SiblingList {
	return &SiblingList{Type: t, index: keyIndex{}}
}

// Len returns the number of keys in the run.
func (l *SiblingList) Len() int {
	return len(l.Keys)
}

// Index returns the position of key.
func (l *SiblingList) Index(key Key) (int, bool) {
	return l.index.Get(key)
}

// Value returns the child forest of key.
func (l *SiblingList) Value(key Key) (Forest, bool) {
	i, ok := l.index.Get(key)
	if !ok {
		return nil, false
	}
	return l.Values[i], true
}

// Has reports whether key is part of the run.
func (l *SiblingList) Has(key Key) bool {
	return l.index.Has(key)
}

// Append inserts keys immediately after the key after, or at the front when
// after is empty or absent. values may be shorter than keys; missing entries
// get an empty child forest.
func (l *SiblingList) Append(after Key, keys []Key, values []Forest) {
	if len(keys) == 0 {
		return
	}
	at := 0
	if i, ok := l.index.Get(after); ok && after != "" {
		at = i + 1
	}

	newKeys := make([]Key, 0, len(l.Keys)+len(keys))
	newKeys = append(newKeys, l.Keys[:at]...)
	newKeys = append(newKeys, keys...)
	newKeys = append(newKeys, l.Keys[at:]...)

	newValues := make([]Forest, 0, len(l.Values)+len(keys))
	newValues = append(newValues, l.Values[:at]...)
	for i := range keys {
		var v Forest
		if i < len(values) {
			v = values[i]
		}
		newValues = append(newValues, v)
	}
	newValues = append(newValues, l.Values[at:]...)

	l.Keys = newKeys
	l.Values = newValues
	l.reindex(at)
}

// push appends a single key at the end of the run.
func (l *SiblingList) push(key Key) {
	l.index.Set(key, len(l.Keys))
	l.Keys = append(l.Keys, key)
	l.Values = append(l.Values, nil)
}

// Delete removes keys from the run. Multiple keys must be contiguous in the
// current order. Absent keys are ignored.
func (l *SiblingList) Delete(keys ...Key) {
	start := -1
	count := 0
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		i, ok := l.index.Get(k)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		if start == -1 || i < start {
			start = i
		}
		count++
	}
	if start == -1 {
		return
	}
	for _, k := range keys {
		l.index.Delete(k)
	}
	l.Keys = append(l.Keys[:start:start], l.Keys[start+count:]...)
	l.Values = append(l.Values[:start:start], l.Values[start+count:]...)
	l.reindex(start)
}

func (l *SiblingList) reindex(from int) {
	for i := from; i < len(l.Keys); i++ {
		l.index.Set(l.Keys[i], i)
	}
}
