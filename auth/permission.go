package auth

import (
	"sort"
	"strings"
)

// Actions and scopes are closed sets. Resources are free-form lowercase
// strings naming the protected entity type.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ScopeSelf = "self"
	ScopeAll  = "all"
)

// Permission is the atomic access tuple. Two permissions are equal iff all
// three fields match exactly; "all" is a distinct literal, not a superset of
// "self". Construct with NewPermission so the fields are canonicalized.
type Permission struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Scope    string `json:"scope"`
}

// NewPermission lower-cases all three fields so that tuples compare
// consistently regardless of caller input.
func NewPermission(action, resource, scope string) Permission {
	return Permission{
		Action:   strings.ToLower(action),
		Resource: strings.ToLower(resource),
		Scope:    strings.ToLower(scope),
	}
}

// String renders the tuple as action:resource:scope, the form used in
// diagnostics and error messages.
func (p Permission) String() string {
	return p.Action + ":" + p.Resource + ":" + p.Scope
}

// PermissionSet answers containment queries for permission checks.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set.Add(p)
	}
	return set
}

func (s PermissionSet) Add(p Permission) {
	s[p] = struct{}{}
}

func (s PermissionSet) Contains(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Missing returns the required tuples absent from the set, rendered as
// action:resource:scope strings and sorted for stable diagnostics.
func (s PermissionSet) Missing(required []Permission) []string {
	var missing []string
	for _, p := range required {
		if !s.Contains(p) {
			missing = append(missing, p.String())
		}
	}
	sort.Strings(missing)
	return missing
}
