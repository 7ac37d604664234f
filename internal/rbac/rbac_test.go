package rbac

import "testing"

var (
	anon      = Viewer{}
	plainUser = Viewer{ID: "usr_1", Role: RoleUser}
	owner     = Viewer{ID: "usr_owner", Role: RoleEditor}
	stranger  = Viewer{ID: "usr_other", Role: RoleEditor}
	root      = Viewer{ID: "usr_admin", Role: RoleAdmin}
)

func TestCanContent(t *testing.T) {
	const ownerID = "usr_owner"

	tests := []struct {
		name      string
		viewer    Viewer
		action    Action
		published bool
		want      bool
	}{
		{"anonymous index", anon, ActionIndex, false, true},
		{"anonymous show published", anon, ActionShow, true, true},
		{"anonymous show draft", anon, ActionShow, false, false},
		{"anonymous create", anon, ActionCreate, false, false},
		{"anonymous update", anon, ActionUpdate, true, false},

		{"user show published", plainUser, ActionShow, true, true},
		{"user show draft", plainUser, ActionShow, false, false},
		{"user create", plainUser, ActionCreate, false, false},
		{"user destroy", plainUser, ActionDestroy, true, false},

		{"owner show own draft", owner, ActionShow, false, true},
		{"owner create", owner, ActionCreate, false, true},
		{"owner update", owner, ActionUpdate, true, true},
		{"owner destroy", owner, ActionDestroy, false, true},
		{"owner publish", owner, ActionPublish, false, true},

		{"other editor show draft", stranger, ActionShow, false, false},
		{"other editor create", stranger, ActionCreate, false, true},
		{"other editor update", stranger, ActionUpdate, true, false},
		{"other editor destroy", stranger, ActionDestroy, false, false},
		{"other editor publish", stranger, ActionPublish, false, false},

		{"admin show draft", root, ActionShow, false, true},
		{"admin update", root, ActionUpdate, true, true},
		{"admin destroy", root, ActionDestroy, false, true},
		{"admin publish", root, ActionPublish, false, true},

		{"unknown action denied", root, Action("export"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanContent(tt.viewer, tt.action, ownerID, tt.published); got != tt.want {
				t.Errorf("CanContent(%v, %s, published=%v) = %v, want %v",
					tt.viewer, tt.action, tt.published, got, tt.want)
			}
		})
	}
}

func TestCanMessage(t *testing.T) {
	tests := []struct {
		name   string
		viewer Viewer
		action Action
		want   bool
	}{
		{"anonymous create", anon, ActionCreate, true},
		{"user create", plainUser, ActionCreate, true},
		{"anonymous index", anon, ActionIndex, false},
		{"editor index", owner, ActionIndex, false},
		{"editor show", owner, ActionShow, false},
		{"admin index", root, ActionIndex, true},
		{"admin show", root, ActionShow, true},
		{"admin mark read", root, ActionMarkRead, true},
		{"admin destroy", root, ActionDestroy, true},
		{"admin unknown action", root, Action("forward"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMessage(tt.viewer, tt.action); got != tt.want {
				t.Errorf("CanMessage(%v, %s) = %v, want %v", tt.viewer, tt.action, got, tt.want)
			}
		})
	}
}

func TestVisibleScope(t *testing.T) {
	if s := VisibleScope(root); !s.All {
		t.Errorf("admin scope = %+v, want All", s)
	}
	if s := VisibleScope(owner); s.All || s.OwnerID != owner.ID {
		t.Errorf("editor scope = %+v, want OwnerID=%s", s, owner.ID)
	}
	if s := VisibleScope(plainUser); s.All || s.OwnerID != "" {
		t.Errorf("user scope = %+v, want published-only", s)
	}
	if s := VisibleScope(anon); s.All || s.OwnerID != "" {
		t.Errorf("anonymous scope = %+v, want published-only", s)
	}
}

func TestScopeIncludes(t *testing.T) {
	tests := []struct {
		name      string
		scope     Scope
		ownerID   string
		published bool
		want      bool
	}{
		{"all includes drafts", Scope{All: true}, "usr_x", false, true},
		{"published-only includes published", Scope{}, "usr_x", true, true},
		{"published-only excludes drafts", Scope{}, "usr_x", false, false},
		{"owner scope includes own draft", Scope{OwnerID: "usr_x"}, "usr_x", false, true},
		{"owner scope excludes foreign draft", Scope{OwnerID: "usr_x"}, "usr_y", false, false},
		{"owner scope includes foreign published", Scope{OwnerID: "usr_x"}, "usr_y", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scope.Includes(tt.ownerID, tt.published); got != tt.want {
				t.Errorf("Includes(%s, %v) = %v, want %v", tt.ownerID, tt.published, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"editor", RoleEditor},
		{"user", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
