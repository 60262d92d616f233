// Package aul implements the script linker: #include/#appendto DAG
// resolution and same-name ring construction, grounded in full on
// original_source/src/C4AulLink.cpp (C4AulScript::ResolveAppends/
// ResolveIncludes/AppendTo/AfterLink). The linker resolves a definition
// tree down to runnable function bodies; gopher-lua (kept from the
// teacher's script_engine.go) executes those bodies.
package aul

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linkWarnings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openworld_aul_link_warnings",
		Help: "Warning count from the most recent Program.Link pass (unresolved #include/#appendto targets, include cycles).",
	})
	linkErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openworld_aul_link_errors",
		Help: "Error count from the most recent Program.Link pass.",
	})
)

// Access mirrors the original access-level ordering; a call across a
// lower access boundary is a parse-time warning, never an abort.
type Access int

const (
	AccessPrivate Access = iota
	AccessProtected
	AccessPublic
	AccessGlobal
)

// Func is one script function. LinkedTo cross-links an append's copy back
// to its original so calls can resolve against either. NextSNFunc is
// populated by AfterLink; the linker never sets OverloadedBy.
type Func struct {
	Name         string
	Owner        *Script
	Access       Access
	Body         string // resolved source text handed to the VM backend
	LinkedTo     *Func
	OverloadedBy *Func
	NextSNFunc   *Func
}

// IncludeEntry/AppendEntry reference another definition by id, with a
// no-warn flag suppressing the missing-target warning.
type IncludeEntry struct {
	ID     string
	NoWarn bool
}

type AppendEntry struct {
	ID     string
	NoWarn bool
}

// WildcardID is the sentinel "#appendto *" target: append to every
// definition except the source.
const WildcardID = ""

// Script is one definition's (or the engine's global) script unit.
type Script struct {
	ID       string
	Includes []IncludeEntry
	Appends  []AppendEntry
	Funcs    []*Func
	Locals   []string

	Children []*Script

	includesResolved bool
	resolving        bool
}

// AddFunc registers a script-owned function.
func (s *Script) AddFunc(f *Func) {
	f.Owner = s
	s.Funcs = append(s.Funcs, f)
}

// Program is the whole linked definition tree plus the warning/error
// counters the original reports at the end of Link.
type Program struct {
	Engine   *Script
	byID     map[string]*Script
	WarnCnt  int
	ErrCnt   int
}

// NewProgram indexes defs by id under a synthetic engine root.
func NewProgram(engine *Script, defs []*Script) *Program {
	p := &Program{Engine: engine, byID: make(map[string]*Script, len(defs))}
	for _, d := range defs {
		p.byID[d.ID] = d
		engine.Children = append(engine.Children, d)
	}
	return p
}

func (p *Program) warn() { p.WarnCnt++ }

// Link runs the full pipeline: ResolveAppends, ResolveIncludes, then
// AfterLink to build same-name rings across the whole tree.
func (p *Program) Link() {
	p.resolveAppends(p.Engine)
	p.resolveIncludes(p.Engine)
	p.afterLink(p.Engine)
	linkWarnings.Set(float64(p.WarnCnt))
	linkErrors.Set(float64(p.ErrCnt))
}

// resolveAppends walks children first (so the whole tree's Appends are
// applied before any same-name work), then applies this script's own
// #appendto entries.
func (p *Program) resolveAppends(s *Script) {
	for _, c := range s.Children {
		p.resolveAppends(c)
	}
	for _, a := range s.Appends {
		if a.ID != WildcardID {
			target, ok := p.byID[a.ID]
			if !ok {
				if !a.NoWarn {
					p.warn()
				}
				continue
			}
			appendTo(s, target, true)
			continue
		}
		for _, target := range p.byID {
			if target == s {
				continue
			}
			appendTo(s, target, true)
		}
	}
}

// resolveIncludes walks children first, then resolves this script's own
// #include entries, recursively resolving the includee first so
// #include-chains compose correctly. Cycles are caught via the
// `resolving` flag: re-entering a script that is still resolving emits
// one warning, marks it resolved and skips only the include that closed
// the cycle; the outer resolution of that script still copies in its
// other includes.
func (p *Program) resolveIncludes(s *Script) bool {
	for _, c := range s.Children {
		p.resolveIncludes(c)
	}
	if s.includesResolved {
		return true
	}
	if s.resolving {
		p.warn()
		s.includesResolved = true
		return false
	}
	s.resolving = true
	for _, inc := range s.Includes {
		target, ok := p.byID[inc.ID]
		if !ok {
			if !inc.NoWarn {
				p.warn()
			}
			continue
		}
		if !target.includesResolved {
			if !p.resolveIncludes(target) {
				continue
			}
		}
		appendTo(target, s, false)
	}
	s.includesResolved = true
	s.resolving = false
	return true
}

// appendTo copies every non-global function from src into dst, chaining
// each copy to its original via LinkedTo, and copies src's local variable
// names into dst. highPrio controls append order (#appendto == true goes
// in at original priority order; #include == false mirrors the original
// inserting included functions ahead of the includer's own).
func appendTo(src, dst *Script, highPrio bool) {
	for _, f := range src.Funcs {
		if f.Access == AccessGlobal {
			continue
		}
		fc := &Func{Name: f.Name, Owner: dst, Access: f.Access, Body: f.Body}
		if f.LinkedTo != nil {
			fc.LinkedTo = f.LinkedTo
			f.LinkedTo = fc
		} else {
			fc.LinkedTo = f
			f.LinkedTo = fc
		}
		if highPrio {
			dst.Funcs = append(dst.Funcs, fc)
		} else {
			dst.Funcs = append([]*Func{fc}, dst.Funcs...)
		}
	}
	dst.Locals = append(dst.Locals, src.Locals...)
}

// afterLink builds, for every function not yet assigned a same-name ring
// and not itself overloaded away, a ring threading every function of that
// name across the whole definition tree — the "fast virtual-like
// dispatch" structure §4.J/K describe.
func (p *Program) afterLink(root *Script) {
	all := p.allScripts(root)
	var allFuncs []*Func
	for _, s := range all {
		allFuncs = append(allFuncs, s.Funcs...)
	}
	for _, f := range allFuncs {
		if f.NextSNFunc != nil || f.OverloadedBy != nil {
			continue
		}
		f.NextSNFunc = f
		for _, other := range allFuncs {
			if other == f || other.Name != f.Name {
				continue
			}
			resolved := other
			for resolved.OverloadedBy != nil {
				resolved = resolved.OverloadedBy
			}
			resolved.NextSNFunc = f.NextSNFunc
			f.NextSNFunc = resolved
		}
	}
}

func (p *Program) allScripts(s *Script) []*Script {
	out := []*Script{s}
	for _, c := range s.Children {
		out = append(out, p.allScripts(c)...)
	}
	return out
}
