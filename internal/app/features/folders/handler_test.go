package folders_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/features/folders"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/promptstash/internal/testutil/apptest"
)

type harness struct {
	*apptest.Env
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := apptest.New(t, lifecycle.Policy{})
	h := folders.NewHandler(env.Org, env.Log)
	return &harness{Env: env, router: folders.Routes(h, env.Sessions)}
}

func (hs *harness) as(u models.User, method, target string, body any) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, hs.Request(method, target, body, u))
	return rec
}

func (hs *harness) create(t *testing.T, name string, parent *string) models.Folder {
	t.Helper()
	rec := hs.as(hs.Owner, "POST", "/", map[string]any{"name": name, "parent_id": parent})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var f models.Folder
	testutil.DecodeJSON(t, rec, &f)
	return f
}

func hexPtr(f models.Folder) *string {
	s := f.ID.Hex()
	return &s
}

func TestCreateListAndTree(t *testing.T) {
	hs := newHarness(t)
	root := hs.create(t, "Writing", nil)
	child := hs.create(t, "Drafts", hexPtr(root))

	rec := hs.as(hs.Owner, "GET", "/", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list struct {
		Folders []models.Folder `json:"folders"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Folders) != 2 {
		t.Fatalf("folders = %+v", list.Folders)
	}

	rec = hs.as(hs.Owner, "GET", "/tree", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var tree struct {
		Tree []*models.FolderNode `json:"tree"`
	}
	testutil.DecodeJSON(t, rec, &tree)
	if len(tree.Tree) != 1 || tree.Tree[0].ID != root.ID {
		t.Fatalf("tree roots = %+v", tree.Tree)
	}
	if kids := tree.Tree[0].Children; len(kids) != 1 || kids[0].ID != child.ID {
		t.Errorf("children = %+v", kids)
	}
}

func TestCreate_Validation(t *testing.T) {
	hs := newHarness(t)
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", "/", map[string]string{"name": "  "}), http.StatusUnprocessableEntity)

	bad := "nope"
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", "/", map[string]any{"name": "x", "parent_id": bad}), http.StatusUnprocessableEntity)

	missing := "0123456789abcdef01234567"
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", "/", map[string]any{"name": "x", "parent_id": missing}), http.StatusUnprocessableEntity)
}

func TestCreate_ViewerCannotWrite(t *testing.T) {
	hs := newHarness(t)
	viewer := hs.Member("viewer@example.com", models.RoleViewer)
	testutil.AssertStatus(t, hs.as(viewer, "POST", "/", map[string]string{"name": "Mine"}), http.StatusNotFound)
	testutil.AssertStatus(t, hs.as(viewer, "GET", "/", nil), http.StatusOK)
}

func TestRename(t *testing.T) {
	hs := newHarness(t)
	f := hs.create(t, "Old", nil)

	rec := hs.as(hs.Owner, "PATCH", "/"+f.ID.Hex(), map[string]string{"name": "New"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.Folder
	testutil.DecodeJSON(t, rec, &got)
	if got.Name != "New" {
		t.Errorf("name = %q", got.Name)
	}
	testutil.AssertStatus(t, hs.as(hs.Owner, "PATCH", "/"+f.ID.Hex(), map[string]string{"name": ""}), http.StatusUnprocessableEntity)
}

func TestMove_RejectsCycles(t *testing.T) {
	hs := newHarness(t)
	a := hs.create(t, "A", nil)
	b := hs.create(t, "B", hexPtr(a))
	c := hs.create(t, "C", hexPtr(b))

	tests := []struct {
		name   string
		id     models.Folder
		parent *string
		want   int
	}{
		{"onto itself", a, hexPtr(a), http.StatusUnprocessableEntity},
		{"under a grandchild", a, hexPtr(c), http.StatusUnprocessableEntity},
		{"to root", c, nil, http.StatusOK},
		{"to a sibling branch", b, nil, http.StatusOK},
		{"back under a", c, hexPtr(a), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := hs.as(hs.Owner, "PUT", "/"+tc.id.ID.Hex()+"/parent", map[string]any{"parent_id": tc.parent})
			testutil.AssertStatus(t, rec, tc.want)
		})
	}
}

func TestMove_CrossTeamParent(t *testing.T) {
	hs := newHarness(t)
	f := hs.create(t, "Mine", nil)

	other, err := hs.Org.CreateTeam(hs.Ctx(hs.Owner), "Ops")
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := hs.Org.CreateFolder(hs.Ctx(hs.Owner), other.ID, "Theirs", nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := hs.as(hs.Owner, "PUT", "/"+f.ID.Hex()+"/parent", map[string]any{"parent_id": foreign.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestDelete(t *testing.T) {
	hs := newHarness(t)
	parent := hs.create(t, "Parent", nil)
	hs.create(t, "Child", hexPtr(parent))

	testutil.AssertStatus(t, hs.as(hs.Owner, "DELETE", "/"+parent.ID.Hex(), nil), http.StatusConflict)

	lone := hs.create(t, "Lone", nil)
	p := hs.Prompt("Inside", "")
	if _, err := hs.Prompts.Move(hs.Ctx(hs.Owner), p.ID, &lone.ID); err != nil {
		t.Fatal(err)
	}
	testutil.AssertStatus(t, hs.as(hs.Owner, "DELETE", "/"+lone.ID.Hex(), nil), http.StatusNoContent)

	got, err := hs.Prompts.Get(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FolderID != nil {
		t.Errorf("prompt should move to the team root, folder = %v", got.FolderID)
	}
	testutil.AssertStatus(t, hs.as(hs.Owner, "DELETE", "/"+lone.ID.Hex(), nil), http.StatusNotFound)
}

func TestRequiresSignIn(t *testing.T) {
	hs := newHarness(t)
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, hs.Anonymous("GET", "/", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}
