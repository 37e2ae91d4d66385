package evaluator

import (
	"fmt"
	"math"
)

// Table is an insertion-ordered hash table. Removed entries stay in place as
// tombstones so next() keeps working when fields are cleared during traversal;
// they are compacted when new keys are added.
type Table struct {
	entries    map[interface{}]*tableEntry
	order      []*tableEntry
	tombstones int
}

type tableEntry struct {
	key   Object
	value Object // NIL once removed
	pos   int
}

func NewTable() *Table {
	return &Table{entries: make(map[interface{}]*tableEntry)}
}

func (t *Table) Type() ObjectType { return TABLE_OBJ }
func (t *Table) Inspect() string  { return fmt.Sprintf("table: %p", t) }

// keyOf maps an object to a Go map key. Numbers and strings compare by value.
func keyOf(k Object) (interface{}, error) {
	switch k := k.(type) {
	case nil, *Nil:
		return nil, NewRuntimeError("table index is nil")
	case *Number:
		if math.IsNaN(k.Value) {
			return nil, NewRuntimeError("table index is NaN")
		}
		return k.Value, nil
	case *String:
		return k.Value, nil
	case *Boolean:
		return k.Value, nil
	default:
		return k, nil
	}
}

// Get returns the value stored at k, or NIL.
func (t *Table) Get(k Object) Object {
	key, err := keyOf(k)
	if err != nil {
		return NIL
	}
	if e, ok := t.entries[key]; ok {
		return e.value
	}
	return NIL
}

// GetString is Get with a string key.
func (t *Table) GetString(k string) Object {
	if e, ok := t.entries[k]; ok {
		return e.value
	}
	return NIL
}

// Set stores v at k. Storing nil removes the field.
func (t *Table) Set(k, v Object) error {
	key, err := keyOf(k)
	if err != nil {
		return err
	}
	if v == nil {
		v = NIL
	}
	_, remove := v.(*Nil)

	e, ok := t.entries[key]
	switch {
	case ok:
		wasRemoved := isNil(e.value)
		e.value = v
		if remove && !wasRemoved {
			t.tombstones++
		} else if !remove && wasRemoved {
			t.tombstones--
		}
	case !remove:
		t.compact()
		e = &tableEntry{key: k, value: v, pos: len(t.order)}
		t.entries[key] = e
		t.order = append(t.order, e)
	}
	return nil
}

// SetString is Set with a string key.
func (t *Table) SetString(k string, v Object) {
	_ = t.Set(&String{Value: k}, v)
}

func (t *Table) compact() {
	if t.tombstones == 0 || t.tombstones*2 < len(t.order) {
		return
	}
	live := t.order[:0]
	for _, e := range t.order {
		if isNil(e.value) {
			key, _ := keyOf(e.key)
			delete(t.entries, key)
			continue
		}
		e.pos = len(live)
		live = append(live, e)
	}
	for i := len(live); i < len(t.order); i++ {
		t.order[i] = nil
	}
	t.order = live
	t.tombstones = 0
}

// Next returns the entry following k in traversal order; k == nil starts
// the traversal. ok is false past the last entry.
func (t *Table) Next(k Object) (key, value Object, ok bool, err error) {
	start := 0
	if !isNil(k) {
		mk, err := keyOf(k)
		if err != nil {
			return nil, nil, false, err
		}
		e, found := t.entries[mk]
		if !found {
			return nil, nil, false, NewRuntimeError("invalid key to 'next'")
		}
		start = e.pos + 1
	}
	for i := start; i < len(t.order); i++ {
		if e := t.order[i]; !isNil(e.value) {
			return e.key, e.value, true, nil
		}
	}
	return nil, nil, false, nil
}

// Len returns a border: n such that t[n] is non-nil and t[n+1] is nil.
func (t *Table) Len() int {
	n := 0
	for !isNil(t.Get(&Number{Value: float64(n + 1)})) {
		n++
	}
	return n
}

// Append stores v at Len()+1.
func (t *Table) Append(v Object) {
	_ = t.Set(&Number{Value: float64(t.Len() + 1)}, v)
}

func isNil(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(*Nil)
	return ok
}
