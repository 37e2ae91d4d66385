package evaluator

// varargName holds the current function's `...` values.
const varargName = "..."

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Environment is one lexical scope. The outermost environment holds globals.
// It is owned by a single evaluator and is not safe for concurrent use.
type Environment struct {
	store map[string]Object
	outer *Environment
}

func (e *Environment) Get(name string) (Object, bool) {
	for env := e; env != nil; env = env.outer {
		if obj, ok := env.store[name]; ok {
			return obj, true
		}
	}
	return nil, false
}

func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Update assigns to the innermost existing binding of name.
func (e *Environment) Update(name string, val Object) bool {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			env.store[name] = val
			return true
		}
	}
	return false
}

// Has reports whether name is bound in this scope, ignoring outer ones.
func (e *Environment) Has(name string) bool {
	_, ok := e.store[name]
	return ok
}

// Global returns the outermost environment.
func (e *Environment) Global() *Environment {
	for e.outer != nil {
		e = e.outer
	}
	return e
}

// Names returns the names bound in this scope.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for k := range e.store {
		names = append(names, k)
	}
	return names
}
