package queryir

import (
	"fmt"
)

// ValidationResult contains the well-formedness findings for a query.
type ValidationResult struct {
	// Valid is true when the query can be rendered.
	Valid bool

	// Warnings lists the problems found, in traversal order.
	// Empty when Valid is true.
	Warnings []string
}

// Validate checks a query against the rules the renderer relies on:
//  1. The projection is non-empty.
//  2. Every projected variable (or SAMPLE argument) is bound in WHERE.
//  3. A SAMPLE alias is not also bound in WHERE.
//  4. With GROUP BY, every plain projection is grouped.
//  5. ORDER BY only uses projected variables.
//  6. A BIND target does not appear earlier in its group.
//  7. A UNION has at least one branch, and no group pattern is nil.
//  8. LIMIT is not negative.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validateQuery dispatches on the query node type.
func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addWarning("nil query")
			return
		}
		v.validateSelect(*query)
	default:
		v.addWarning("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(s Select) {
	if len(s.Projection) == 0 {
		v.addWarning("empty projection - SELECT * is not supported")
	}
	if s.Limit < 0 {
		v.addWarning("negative LIMIT %d", s.Limit)
	}

	bound := map[Var]bool{}
	v.validateGroup(s.Where, bound)

	projected := map[Var]bool{}
	grouped := map[Var]bool{}
	for _, g := range s.GroupBy {
		grouped[g] = true
	}
	for _, p := range s.Projection {
		if p.Var == "" {
			v.addWarning("projection with empty variable name")
			continue
		}
		if projected[p.Var] {
			v.addWarning("variable ?%s projected twice", p.Var)
		}
		projected[p.Var] = true

		if p.Sample != "" {
			if !bound[p.Sample] {
				v.addWarning("SAMPLE argument ?%s is not bound in WHERE", p.Sample)
			}
			if bound[p.Var] {
				v.addWarning("SAMPLE alias ?%s is already bound in WHERE", p.Var)
			}
			continue
		}
		if !bound[p.Var] {
			v.addWarning("projected variable ?%s is not bound in WHERE", p.Var)
		}
		if len(s.GroupBy) > 0 && !grouped[p.Var] {
			v.addWarning("projected variable ?%s is neither grouped nor aggregated", p.Var)
		}
	}

	for _, o := range s.OrderBy {
		if !projected[o] {
			v.addWarning("ORDER BY ?%s is not in the projection", o)
		}
	}
}

// validateGroup walks a group and records every variable it can bind into
// bound. Variables bound inside OPTIONAL and UNION count as bound for the
// projection check.
func (v *validator) validateGroup(g Group, bound map[Var]bool) {
	local := map[Var]bool{}
	mark := func(t Term) {
		if name, ok := t.(Var); ok {
			local[name] = true
			bound[name] = true
		}
	}

	for _, p := range g {
		switch pat := p.(type) {
		case Triple:
			v.validateTriple(pat)
			mark(pat.Subject)
			mark(pat.Predicate)
			mark(pat.Object)
		case Bind:
			if pat.As == "" {
				v.addWarning("BIND with empty target variable")
				continue
			}
			if local[pat.As] {
				v.addWarning("BIND target ?%s is already in scope", pat.As)
			}
			if pat.Value == nil {
				v.addWarning("BIND to ?%s has no value", pat.As)
			}
			mark(pat.As)
		case Optional:
			inner := map[Var]bool{}
			v.validateGroup(pat.Patterns, inner)
			for name := range inner {
				local[name] = true
				bound[name] = true
			}
		case Union:
			if len(pat.Branches) == 0 {
				v.addWarning("UNION with no branches")
			}
			for _, branch := range pat.Branches {
				inner := map[Var]bool{}
				v.validateGroup(branch, inner)
				for name := range inner {
					local[name] = true
					bound[name] = true
				}
			}
		case Filter:
			if pat.Expr == nil {
				v.addWarning("FILTER with no expression")
			}
		case nil:
			v.addWarning("nil pattern in group")
		default:
			v.addWarning("unknown pattern type: %T", p)
		}
	}
}

func (v *validator) validateTriple(t Triple) {
	if t.Subject == nil || t.Predicate == nil || t.Object == nil {
		v.addWarning("triple with missing term")
		return
	}
	if _, ok := t.Subject.(Literal); ok {
		v.addWarning("literal in subject position")
	}
	switch pred := t.Predicate.(type) {
	case Literal:
		v.addWarning("literal in predicate position")
	case Path:
		if pred.Modifier != OneOrMore && pred.Modifier != ZeroOrMore {
			v.addWarning("unsupported path modifier %q", pred.Modifier)
		}
	}
}
