package domain

import "fmt"

// ScopeKind distinguishes the resource boundary a subscription covers.
type ScopeKind int

const (
	// ScopeNone means no active context; no connection is held.
	ScopeNone ScopeKind = iota
	// ScopeGlobal covers application-wide events.
	ScopeGlobal
	// ScopeProject covers events for a single project.
	ScopeProject
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeProject:
		return "project"
	default:
		return "none"
	}
}

// Scope identifies which event endpoint a subscription connects to and which
// routing rules apply. The zero value is the "no active context" scope.
type Scope struct {
	Kind      ScopeKind
	ProjectID int64
}

// GlobalScope returns the application-wide scope.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}

// ProjectScope returns the scope for a single project.
func ProjectScope(projectID int64) Scope {
	return Scope{Kind: ScopeProject, ProjectID: projectID}
}

// IsNone reports whether the scope resolves to no active context.
func (s Scope) IsNone() bool {
	return s.Kind == ScopeNone
}

// EventPath returns the push endpoint path for the scope.
func (s Scope) EventPath() string {
	if s.Kind == ScopeProject {
		return fmt.Sprintf("/projects/%d/events", s.ProjectID)
	}
	return "/events"
}

func (s Scope) String() string {
	if s.Kind == ScopeProject {
		return fmt.Sprintf("project:%d", s.ProjectID)
	}
	return s.Kind.String()
}

// ConnectionState describes where a subscription's push connection is in its
// lifecycle.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}
