package typelib

import (
	"sort"
	"strings"

	"github.com/funvibe/tlua/internal/config"
	"github.com/funvibe/tlua/internal/evaluator"
)

// shape is a compiled table type: required named fields, tuple positions,
// and key/value constraints applied to every entry whose key matches.
type shape struct {
	fields []field
	tuple  []position
	pairs  []pair
}

type field struct {
	name string
	pred evaluator.Object
}

type pair struct {
	key, value evaluator.Object
}

type position struct {
	index float64
	pred  evaluator.Object
}

var integerPredicate = primitives["integer"]

// tableShape: __table(shape). String keys name fields and predicate keys
// constrain entries. A single positional entry means [integer] = T; several
// form a tuple checked index by index.
func tableShape(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
	def, ok := evaluator.Arg(args, 0).(*evaluator.Table)
	if !ok {
		return evaluator.NewRuntimeError("bad argument #1 to '%s' (table expected, got %s)",
			config.TableHelper, evaluator.TypeName(evaluator.Arg(args, 0)))
	}

	var sh shape
	var k evaluator.Object = evaluator.NIL
	for {
		key, value, more, err := def.Next(k)
		if err != nil {
			return err.(*evaluator.Error)
		}
		if !more {
			break
		}
		k = key
		if !evaluator.IsCallable(value) {
			return evaluator.NewRuntimeError("bad argument #1 to '%s' (entry %s is a %s value, not a predicate)",
				config.TableHelper, evaluator.ToString(key), evaluator.TypeName(value))
		}
		switch key := key.(type) {
		case *evaluator.String:
			sh.fields = append(sh.fields, field{name: key.Value, pred: value})
		case *evaluator.Number:
			sh.tuple = append(sh.tuple, position{index: key.Value, pred: value})
		default:
			if !evaluator.IsCallable(key) {
				return evaluator.NewRuntimeError("bad argument #1 to '%s' (key %s is not a predicate)",
					config.TableHelper, evaluator.ToString(key))
			}
			sh.pairs = append(sh.pairs, pair{key: key, value: value})
		}
	}
	sort.SliceStable(sh.fields, func(i, j int) bool { return sh.fields[i].name < sh.fields[j].name })
	sort.SliceStable(sh.tuple, func(i, j int) bool { return sh.tuple[i].index < sh.tuple[j].index })
	if len(sh.tuple) == 1 {
		sh.pairs = append([]pair{{key: integerPredicate, value: sh.tuple[0].pred}}, sh.pairs...)
		sh.tuple = nil
	}

	desc := sh.describe()
	return builtin(desc, func(e *evaluator.Evaluator, args ...evaluator.Object) evaluator.Object {
		v := evaluator.Arg(args, 0)
		t, ok := v.(*evaluator.Table)
		if !ok {
			return evaluator.NewTypeMismatch(desc, v)
		}
		if err := sh.check(e, t); err != nil {
			return err
		}
		return nil
	})
}

func (sh *shape) check(e *evaluator.Evaluator, t *evaluator.Table) *evaluator.Error {
	for _, f := range sh.fields {
		if err := check(e, f.pred, t.GetString(f.name)); err != nil {
			if isMismatch(err) {
				err.Message += " at field " + f.name
			}
			return err
		}
	}
	for _, pos := range sh.tuple {
		key := &evaluator.Number{Value: pos.index}
		if err := check(e, pos.pred, t.Get(key)); err != nil {
			if isMismatch(err) {
				err.Message += " at key " + evaluator.ToString(key)
			}
			return err
		}
	}
	if len(sh.pairs) == 0 {
		return nil
	}

	var k evaluator.Object = evaluator.NIL
	for {
		key, value, more, nerr := t.Next(k)
		if nerr != nil {
			return nerr.(*evaluator.Error)
		}
		if !more {
			return nil
		}
		k = key
		for _, p := range sh.pairs {
			err := check(e, p.key, key)
			if isMismatch(err) {
				continue
			}
			if err != nil {
				return err
			}
			if err := check(e, p.value, value); err != nil {
				if isMismatch(err) {
					err.Message += " at key " + evaluator.ToString(key)
				}
				return err
			}
		}
	}
}

func (sh *shape) describe() string {
	var parts []string
	for _, f := range sh.fields {
		parts = append(parts, f.name+" = "+Describe(f.pred))
	}
	for _, pos := range sh.tuple {
		parts = append(parts, Describe(pos.pred))
	}
	for _, p := range sh.pairs {
		parts = append(parts, "["+Describe(p.key)+"] = "+Describe(p.value))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
