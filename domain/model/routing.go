package model

import (
	"fmt"
	"strings"
)

// IngressRoute describes the reverse-proxy routing of one service: entry
// points, routed rules and an optional TLS resolver reference. Certificate
// issuance itself is the proxy's concern; only the resolver name is carried.
type IngressRoute struct {
	EntryPoints []string
	Routes      []Route
	TLS         *RouteTLS
}

// Route couples one match rule with its ordered middleware chain.
type Route struct {
	Rule        RouterRule   `json:"match"`
	Middlewares []Middleware `json:"middlewares,omitempty"`
}

// RouteTLS names the certificate resolver serving a route.
type RouteTLS struct {
	CertResolver string `json:"certResolver,omitempty"`
}

// Middleware is either a named reference to an existing middleware object
// (Spec == nil) or an inline specification that is materialized as its own
// object at synthesis time.
type Middleware struct {
	Name string         `json:"name"`
	Spec map[string]any `json:"spec,omitempty"`
}

// MiddlewareRef returns a reference to an existing middleware.
func MiddlewareRef(name string) Middleware {
	return Middleware{Name: name}
}

// MiddlewareSpec returns an inline middleware specification.
func MiddlewareSpec(name string, spec map[string]any) Middleware {
	return Middleware{Name: name, Spec: spec}
}

// IsRef reports whether the middleware is a plain reference.
func (m Middleware) IsRef() bool {
	return m.Spec == nil
}

// ResolvedName returns the name under which the middleware is referenced by
// routes and materialized as an object. Inline specifications are renamed
// through application-name normalization because their names may themselves
// be application identifiers; references pass through unchanged.
func (m Middleware) ResolvedName() string {
	if m.IsRef() {
		return m.Name
	}
	if app, err := NewAppName(m.Name); err == nil {
		return app.Normalize()
	}
	return m.Name
}

// NewIngressRoute returns a route for the given rule and middleware chain.
func NewIngressRoute(rule RouterRule, middlewares ...Middleware) IngressRoute {
	return IngressRoute{Routes: []Route{{Rule: rule, Middlewares: middlewares}}}
}

// DefaultIngressRoute returns the route synthesized for a service that
// declares none: the path prefix /{app}/{service}/ with a strip-prefix
// middleware named {app}-{service}-middleware.
func DefaultIngressRoute(app AppName, service string) IngressRoute {
	prefix := fmt.Sprintf("/%s/%s/", app.Normalize(), service)
	mw := MiddlewareSpec(fmt.Sprintf("%s-%s-middleware", app.Normalize(), service), map[string]any{
		"stripPrefix": map[string]any{
			"prefixes": []string{prefix},
		},
	})
	return NewIngressRoute(PathPrefixRule(app.Normalize(), service), mw)
}

// MergeWithBase prepends a base route to every rule of r: entry points are
// inherited when r declares none, each rule becomes base && rule, base
// middlewares run first, and TLS settings fall back to the base.
func (r IngressRoute) MergeWithBase(base IngressRoute) IngressRoute {
	merged := IngressRoute{EntryPoints: r.EntryPoints, TLS: r.TLS}
	if len(merged.EntryPoints) == 0 {
		merged.EntryPoints = base.EntryPoints
	}
	if merged.TLS == nil {
		merged.TLS = base.TLS
	}
	var baseRule RouterRule
	var baseMW []Middleware
	if len(base.Routes) > 0 {
		baseRule = base.Routes[0].Rule
		baseMW = base.Routes[0].Middlewares
	}
	for _, rt := range r.Routes {
		mw := make([]Middleware, 0, len(baseMW)+len(rt.Middlewares))
		mw = append(mw, baseMW...)
		mw = append(mw, rt.Middlewares...)
		merged.Routes = append(merged.Routes, Route{Rule: baseRule.And(rt.Rule), Middlewares: mw})
	}
	return merged
}

// Matcher is one predicate of a router rule, e.g. PathPrefix(`/master/db/`).
// Matcher names are carried through opaquely; only the rule shape is
// validated.
type Matcher struct {
	Name string
	Args []string
}

// RouterRule is a parsed reverse-proxy match rule: a conjunction of matchers
// such as Host(`example.com`) && PathPrefix(`/master/db/`).
type RouterRule struct {
	Matchers []Matcher
}

// PathPrefixRule builds PathPrefix(`/seg1/seg2/`) from path segments.
func PathPrefixRule(segments ...string) RouterRule {
	prefix := "/" + strings.Join(segments, "/") + "/"
	return RouterRule{Matchers: []Matcher{{Name: "PathPrefix", Args: []string{prefix}}}}
}

// HostRule builds Host(`host1`, `host2`).
func HostRule(hosts ...string) RouterRule {
	return RouterRule{Matchers: []Matcher{{Name: "Host", Args: hosts}}}
}

// And returns the conjunction of two rules. An empty side is dropped.
func (r RouterRule) And(other RouterRule) RouterRule {
	if len(r.Matchers) == 0 {
		return other
	}
	if len(other.Matchers) == 0 {
		return r
	}
	matchers := make([]Matcher, 0, len(r.Matchers)+len(other.Matchers))
	matchers = append(matchers, r.Matchers...)
	matchers = append(matchers, other.Matchers...)
	return RouterRule{Matchers: matchers}
}

// FirstPathPrefix returns the argument of the first PathPrefix matcher.
func (r RouterRule) FirstPathPrefix() (string, bool) {
	for _, m := range r.Matchers {
		if m.Name == "PathPrefix" && len(m.Args) > 0 {
			return m.Args[0], true
		}
	}
	return "", false
}

// IsZero reports whether the rule has no matchers.
func (r RouterRule) IsZero() bool {
	return len(r.Matchers) == 0
}

// String renders the rule in its canonical wire form.
func (r RouterRule) String() string {
	terms := make([]string, 0, len(r.Matchers))
	for _, m := range r.Matchers {
		args := make([]string, 0, len(m.Args))
		for _, a := range m.Args {
			args = append(args, "`"+a+"`")
		}
		terms = append(terms, fmt.Sprintf("%s(%s)", m.Name, strings.Join(args, ", ")))
	}
	return strings.Join(terms, " && ")
}

// MarshalText implements encoding.TextMarshaler so rules serialize as their
// wire form.
func (r RouterRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RouterRule) UnmarshalText(text []byte) error {
	parsed, err := ParseRouterRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRouterRule parses a match rule of the form
// Name(`arg`[, `arg`…]) joined by &&. Disjunctions and grouping are not
// supported; such rules are reported as unparsable.
func ParseRouterRule(input string) (RouterRule, error) {
	p := &ruleParser{input: input}
	rule, err := p.parse()
	if err != nil {
		return RouterRule{}, fmt.Errorf("invalid router rule %q: %w", input, err)
	}
	return rule, nil
}

type ruleParser struct {
	input string
	pos   int
}

func (p *ruleParser) parse() (RouterRule, error) {
	var rule RouterRule
	for {
		p.skipSpace()
		m, err := p.matcher()
		if err != nil {
			return RouterRule{}, err
		}
		rule.Matchers = append(rule.Matchers, m)
		p.skipSpace()
		if p.eof() {
			return rule, nil
		}
		if !p.consume("&&") {
			return RouterRule{}, fmt.Errorf("expected && at offset %d", p.pos)
		}
	}
}

func (p *ruleParser) matcher() (Matcher, error) {
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return Matcher{}, fmt.Errorf("expected matcher name at offset %d", start)
	}
	m := Matcher{Name: p.input[start:p.pos]}
	p.skipSpace()
	if !p.consume("(") {
		return Matcher{}, fmt.Errorf("expected ( after %s", m.Name)
	}
	for {
		p.skipSpace()
		arg, err := p.backtickString()
		if err != nil {
			return Matcher{}, err
		}
		m.Args = append(m.Args, arg)
		p.skipSpace()
		if p.consume(")") {
			return m, nil
		}
		if !p.consume(",") {
			return Matcher{}, fmt.Errorf("expected , or ) at offset %d", p.pos)
		}
	}
}

func (p *ruleParser) backtickString() (string, error) {
	if !p.consume("`") {
		return "", fmt.Errorf("expected ` at offset %d", p.pos)
	}
	start := p.pos
	for p.pos < len(p.input) {
		if p.input[p.pos] == '`' {
			s := p.input[start:p.pos]
			p.pos++
			return s, nil
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated ` string at offset %d", start)
}

func (p *ruleParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *ruleParser) consume(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *ruleParser) eof() bool {
	return p.pos >= len(p.input)
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
