// Package rbac holds the role and action model shared by every content kind,
// plus the per-viewer visibility scope used by listing queries.
package rbac

type Role string
type Action string

const (
	RoleAnonymous Role = ""
	RoleUser      Role = "user"
	RoleEditor    Role = "editor"
	RoleAdmin     Role = "admin"
)

const (
	ActionIndex    Action = "index"
	ActionShow     Action = "show"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDestroy  Action = "destroy"
	ActionPublish  Action = "publish"
	ActionMarkRead Action = "mark_read"
)

// Viewer is the acting identity for a single request. It is loaded once at
// request start and threaded explicitly into every call; the zero value is an
// anonymous visitor.
type Viewer struct {
	ID   string
	Role Role
}

func (v Viewer) Anonymous() bool {
	return v.ID == ""
}

func (v Viewer) Admin() bool {
	return v.Role == RoleAdmin
}

func (v Viewer) Editor() bool {
	return v.Role == RoleEditor || v.Role == RoleAdmin
}

func (v Viewer) Owns(ownerID string) bool {
	return !v.Anonymous() && v.ID == ownerID
}

// CanContent decides whether viewer may perform action on a publishable
// content item owned by ownerID with the given published state. The table is
// identical for projects and blog posts.
//
//	                        index show(pub) show(draft) create update/destroy/publish
//	anonymous               yes   yes       no          no     no
//	user                    yes   yes       no          no     no
//	editor (owner)          yes   yes       yes         yes    yes
//	editor (not owner)      yes   yes       no          yes    no
//	admin                   yes   yes       yes         yes    yes
func CanContent(v Viewer, action Action, ownerID string, published bool) bool {
	switch action {
	case ActionIndex:
		return true
	case ActionShow:
		if published {
			return true
		}
		return v.Admin() || (v.Role == RoleEditor && v.Owns(ownerID))
	case ActionCreate:
		return v.Editor()
	case ActionUpdate, ActionDestroy, ActionPublish:
		return v.Admin() || (v.Role == RoleEditor && v.Owns(ownerID))
	default:
		return false
	}
}

// CanMessage is the stricter policy for contact-form submissions: anyone may
// create one, only admins may see or manage them.
func CanMessage(v Viewer, action Action) bool {
	if action == ActionCreate {
		return true
	}
	switch action {
	case ActionIndex, ActionShow, ActionDestroy, ActionMarkRead:
		return v.Admin()
	default:
		return false
	}
}

// Scope is a visibility filter over content items, derived per viewer. It is
// translated into a WHERE clause by the store so draft items never leak
// through listings or pagination totals.
type Scope struct {
	// All disables filtering entirely (admin).
	All bool
	// OwnerID, when set, widens the published-only filter to also include
	// items owned by that account (editor).
	OwnerID string
}

// VisibleScope derives the listing filter for a viewer. Anonymous visitors
// and plain users see published items only.
func VisibleScope(v Viewer) Scope {
	switch v.Role {
	case RoleAdmin:
		return Scope{All: true}
	case RoleEditor:
		return Scope{OwnerID: v.ID}
	default:
		return Scope{}
	}
}

// Includes reports whether a single item falls inside the scope. Listing
// queries filter in SQL; this is for membership checks on already-loaded
// items.
func (s Scope) Includes(ownerID string, published bool) bool {
	if s.All {
		return true
	}
	if s.OwnerID != "" && s.OwnerID == ownerID {
		return true
	}
	return published
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RoleEditor, RoleAdmin:
		return Role(role)
	default:
		return RoleUser
	}
}
