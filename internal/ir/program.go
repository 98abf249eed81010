package ir

import "strconv"

// Program is a set of functions addressed by FuncID.
type Program struct {
	Funcs  []*Func
	byName map[string]FuncID
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{byName: make(map[string]FuncID)}
}

// Func returns the function with the given id, or nil.
func (p *Program) Func(id FuncID) *Func {
	if p == nil || id < 0 || int(id) >= len(p.Funcs) {
		return nil
	}
	return p.Funcs[id]
}

// Lookup finds a function by name.
func (p *Program) Lookup(name string) (*Func, bool) {
	if p == nil {
		return nil, false
	}
	id, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.Funcs[id], true
}

// declare reserves a FuncID for name.
func (p *Program) declare(name string) *Func {
	if id, ok := p.byName[name]; ok {
		return p.Funcs[id]
	}
	id := FuncID(len(p.Funcs)) //nolint:gosec // function count fits int32
	f := &Func{ID: id, Name: name, Entry: NoBlockID}
	p.Funcs = append(p.Funcs, f)
	p.byName[name] = id
	return f
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
