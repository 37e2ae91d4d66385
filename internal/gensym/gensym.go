// Package gensym generates identifiers that do not collide with names
// already used in a compilation unit.
package gensym

import (
	"strconv"

	"github.com/funvibe/tlua/internal/ast"
)

// Generator returns a new identifier on every call.
type Generator interface {
	Fresh() string
}

// Counter yields prefix1, prefix2, ... skipping reserved names.
// It is deterministic: the same unit always gets the same names.
type Counter struct {
	prefix   string
	next     int
	reserved map[string]bool
}

func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix, next: 1, reserved: make(map[string]bool)}
}

// Reserve marks names as taken.
func (c *Counter) Reserve(names ...string) {
	for _, name := range names {
		c.reserved[name] = true
	}
}

// ReserveNames marks every identifier that appears in node as taken.
func (c *Counter) ReserveNames(node ast.Node) {
	ast.Inspect(node, func(n ast.Node) bool {
		if ident, ok := n.(*ast.Identifier); ok {
			c.reserved[ident.Value] = true
		}
		return true
	})
}

func (c *Counter) Fresh() string {
	for {
		name := c.prefix + strconv.Itoa(c.next)
		c.next++
		if !c.reserved[name] {
			c.reserved[name] = true
			return name
		}
	}
}

// ForProgram returns a counter with every name used in prog reserved.
func ForProgram(prefix string, prog *ast.Program) *Counter {
	c := NewCounter(prefix)
	if prog != nil {
		c.ReserveNames(prog)
	}
	return c
}
