// Package resolver follows import directives into a dependency-ordered
// module list (spec.md §4.3). It owns cycle detection and the std:
// vs. host routing decision; it does not itself parse — it calls into
// internal/parser for each discovered specifier.
package resolver

import (
	"fmt"

	"github.com/tako0614/takomusic/internal/ast"
	"github.com/tako0614/takomusic/internal/diag"
	"github.com/tako0614/takomusic/internal/parser"
	"github.com/tako0614/takomusic/internal/source"
)

// Module is one resolved, parsed source unit.
type Module struct {
	Key     string
	Program *ast.Program
	// Exports maps an exported name to its declaration.
	Exports map[string]ast.Decl
}

type state int

const (
	unvisited state = iota
	visiting
	done
)

// Resolve walks imports starting at entrySource (keyed entryKey, usually
// "main"), returning modules ordered so dependencies precede dependents,
// with entryKey's module last.
func Resolve(entrySource, entryKey string, provider source.Provider, bag *diag.Bag) []*Module {
	r := &resolverState{
		provider: provider,
		bag:      bag,
		visited:  make(map[string]state),
		modules:  make(map[string]*Module),
	}
	r.visit(entryKey, entrySource, nil)
	return r.order
}

type resolverState struct {
	provider source.Provider
	bag      *diag.Bag
	visited  map[string]state
	modules  map[string]*Module
	order    []*Module
	stack    []string
}

func (r *resolverState) visit(key, text string, importer *ast.ImportDecl) *Module {
	switch r.visited[key] {
	case done:
		return r.modules[key]
	case visiting:
		r.reportCycle(key, importer)
		return nil
	}
	r.visited[key] = visiting
	r.stack = append(r.stack, key)

	prog, err := parser.Parse(text, key, r.bag)
	if err != nil {
		r.bag.Error("module-not-found", key, nil, err.Error())
		r.visited[key] = done
		r.stack = r.stack[:len(r.stack)-1]
		return nil
	}

	mod := &Module{Key: key, Program: prog, Exports: make(map[string]ast.Decl)}
	for _, d := range prog.Body {
		if isExported(d) {
			mod.Exports[declName(d)] = d
		}
	}
	r.modules[key] = mod

	for _, imp := range prog.Imports {
		depText, depKey, err := r.provider.Resolve(imp.From)
		if err != nil {
			r.bag.Error("module-not-found", key, r.dpos(imp), fmt.Sprintf("cannot resolve import %q: %v", imp.From, err))
			continue
		}
		dep := r.visit(depKey, depText, imp)
		if dep == nil {
			continue
		}
		for _, name := range imp.Names {
			if _, ok := dep.Exports[name]; !ok {
				r.bag.Error("missing-export", key, r.dpos(imp), fmt.Sprintf("module %q does not export %q", imp.From, name))
			}
		}
	}

	r.visited[key] = done
	r.stack = r.stack[:len(r.stack)-1]
	r.order = append(r.order, mod)
	return mod
}

func (r *resolverState) reportCycle(key string, importer *ast.ImportDecl) {
	var pos *diag.Position
	if importer != nil {
		pos = r.dpos(importer)
	}
	r.bag.Error("import-cycle", key, pos, fmt.Sprintf("import cycle detected involving %q", key))
}

func (r *resolverState) dpos(imp *ast.ImportDecl) *diag.Position {
	p := imp.Pos()
	return &diag.Position{Line: p.Line, Column: p.Column}
}

func isExported(d ast.Decl) bool {
	switch v := d.(type) {
	case *ast.FnDecl:
		return v.Exported
	case *ast.ConstDecl:
		return v.Exported
	case *ast.TypeAliasDecl:
		return v.Exported
	case *ast.EnumDecl:
		return v.Exported
	default:
		return false
	}
}

func declName(d ast.Decl) string {
	switch v := d.(type) {
	case *ast.FnDecl:
		return v.Name
	case *ast.ConstDecl:
		return v.Target.Name
	case *ast.TypeAliasDecl:
		return v.Name
	case *ast.EnumDecl:
		return v.Name
	default:
		return ""
	}
}
