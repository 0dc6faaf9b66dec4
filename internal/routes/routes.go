package routes

import (
	"net/url"
	"slices"
	"strings"
)

// Name identifies a page
type Name string

const (
	Home          Name = "home"
	Work          Name = "work"
	WorkDetail    Name = "work_detail"
	About         Name = "about"
	Contact       Name = "contact"
	FAQ           Name = "faq"
	Review        Name = "review"
	Games         Name = "games"
	Play          Name = "play"
	GenerateEmail Name = "generate_email"
	Insights      Name = "insights"
	NotFound      Name = "not_found"
)

// GameKinds are the values accepted by the {kind} segment of the play route
var GameKinds = []string{"mcq", "quiz", "challenge", "simulation"}

// Route is one entry of the page table. Pattern segments in braces match
// any single non-empty segment unless Allowed restricts their values.
type Route struct {
	Name    Name
	Pattern string
	Title   string
	Allowed map[string][]string
}

// Match is the result of resolving a path
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns a path parameter or ""
func (m Match) Param(name string) string {
	return m.Params[name]
}

// Found reports whether a page other than the not-found page matched
func (m Match) Found() bool {
	return m.Route.Name != NotFound
}

// Table is an ordered route table; the first matching route wins
type Table struct {
	routes   []Route
	notFound Route
}

// NewTable creates a table that falls back to notFound
func NewTable(notFound Route, routes ...Route) *Table {
	return &Table{routes: routes, notFound: notFound}
}

// Default is the application's page table
func Default() *Table {
	return NewTable(
		Route{Name: NotFound, Pattern: "*", Title: "Page not found"},
		Route{Name: Home, Pattern: "/", Title: "Change Communication Assistant"},
		Route{Name: Work, Pattern: "/work", Title: "Create a communication"},
		Route{Name: WorkDetail, Pattern: "/work/{slug}", Title: "Communication"},
		Route{Name: About, Pattern: "/about", Title: "Strategy assistant"},
		Route{Name: Contact, Pattern: "/contact", Title: "Contact"},
		Route{Name: FAQ, Pattern: "/faq", Title: "FAQ generator"},
		Route{Name: Review, Pattern: "/review", Title: "Draft review"},
		Route{Name: Games, Pattern: "/games", Title: "Change games"},
		Route{
			Name:    Play,
			Pattern: "/play/{kind}/{gameId}",
			Title:   "Play",
			Allowed: map[string][]string{"kind": GameKinds},
		},
		Route{Name: GenerateEmail, Pattern: "/generate-email", Title: "Create a communication"},
		Route{Name: Insights, Pattern: "/insights", Title: "Change management insights"},
	)
}

// Routes returns the table entries in match order
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Resolve finds the page for a path. A trailing slash is ignored and any
// query string is dropped.
func (t *Table) Resolve(path string) Match {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = normalize(path)
	segments := split(path)

	for _, r := range t.routes {
		if params, ok := r.match(segments); ok {
			return Match{Route: r, Path: path, Params: params}
		}
	}
	return Match{Route: t.notFound, Path: path}
}

// Build expands a route's pattern with params. It returns "" for an unknown
// route or a missing parameter.
func (t *Table) Build(name Name, params map[string]string) string {
	for _, r := range t.routes {
		if r.Name != name {
			continue
		}
		parts := split(r.Pattern)
		for i, p := range parts {
			if key, ok := paramName(p); ok {
				v := params[key]
				if v == "" {
					return ""
				}
				parts[i] = url.PathEscape(v)
			}
		}
		return "/" + strings.Join(parts, "/")
	}
	return ""
}

func (r Route) match(segments []string) (map[string]string, bool) {
	pattern := split(r.Pattern)
	if len(pattern) != len(segments) {
		return nil, false
	}

	var params map[string]string
	for i, p := range pattern {
		key, isParam := paramName(p)
		if !isParam {
			if p != segments[i] {
				return nil, false
			}
			continue
		}
		value, err := url.PathUnescape(segments[i])
		if err != nil || value == "" {
			return nil, false
		}
		if allowed, ok := r.Allowed[key]; ok && !slices.Contains(allowed, value) {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = value
	}
	return params, true
}

func normalize(path string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func paramName(segment string) (string, bool) {
	if len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}' {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}
