package prompts_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/features/prompts"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/apperr"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/promptstash/internal/testutil/apptest"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	*apptest.Env
	h      *prompts.Handler
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := apptest.New(t, lifecycle.Policy{})
	h := prompts.NewHandler(env.Prompts, env.DB.Users(), env.Log)
	return &harness{Env: env, h: h, router: prompts.Routes(h, env.Sessions)}
}

func (hs *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) as(u models.User, method, path string, body any) *httptest.ResponseRecorder {
	return hs.do(hs.Request(method, path, body, u))
}

func TestCreateAndGet(t *testing.T) {
	hs := newHarness(t)

	rec := hs.as(hs.Owner, "POST", "/", map[string]string{"title": "Greeting", "body_md": "Hello"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var created models.Prompt
	testutil.DecodeJSON(t, rec, &created)
	if created.Visibility != models.VisibilityPrivate || created.TeamID != hs.Team.ID {
		t.Errorf("created = %+v", created)
	}

	rec = hs.as(hs.Owner, "GET", "/"+created.ID.Hex(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.Prompt
	testutil.DecodeJSON(t, rec, &got)
	if got.Title != "Greeting" || got.BodyMD != "Hello" {
		t.Errorf("got = %+v", got)
	}
}

func TestCreate_EmptyTitleIsValidationError(t *testing.T) {
	hs := newHarness(t)

	rec := hs.as(hs.Owner, "POST", "/", map[string]string{"title": "", "body_md": "Hello"})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	if body["error"] != "validation error" {
		t.Errorf("error kind = %q", body["error"])
	}
	if n := hs.DB.Calls("prompts.Create"); n != 0 {
		t.Errorf("prompts.Create called %d times", n)
	}
}

func TestCreate_NeedsTeam(t *testing.T) {
	hs := newHarness(t)

	req := testutil.WithUser(testutil.JSONRequest(t, "POST", "/", map[string]string{"title": "T"}), apptest.Identity(hs.Owner))
	testutil.AssertStatus(t, hs.do(req), http.StatusUnprocessableEntity)

	// An explicit team_id works without a session team.
	req = testutil.WithUser(testutil.JSONRequest(t, "POST", "/", map[string]string{"title": "T", "team_id": hs.Team.ID.Hex()}), apptest.Identity(hs.Owner))
	testutil.AssertStatus(t, hs.do(req), http.StatusCreated)
}

func TestRequiresSignIn(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("P", "")

	rec := hs.do(hs.Anonymous("GET", "/"+p.ID.Hex(), nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestGet_MalformedAndInvisibleAreNotFound(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Secret", models.VisibilityPrivate)
	editor := hs.Member("ed@example.com", models.RoleEditor)

	testutil.AssertStatus(t, hs.as(hs.Owner, "GET", "/not-an-id", nil), http.StatusNotFound)
	testutil.AssertStatus(t, hs.as(editor, "GET", "/"+p.ID.Hex(), nil), http.StatusNotFound)
	testutil.AssertStatus(t, hs.as(hs.Owner, "GET", "/"+primitive.NewObjectID().Hex(), nil), http.StatusNotFound)
}

func TestUpdate_PartialAndFolder(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Old", "")
	folder, err := hs.Org.CreateFolder(hs.Ctx(hs.Owner), hs.Team.ID, "Docs", nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := hs.as(hs.Owner, "PATCH", "/"+p.ID.Hex(), map[string]string{"title": "New", "folder_id": folder.ID.Hex()})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.Prompt
	testutil.DecodeJSON(t, rec, &got)
	if got.Title != "New" || got.BodyMD != p.BodyMD {
		t.Errorf("partial update changed the wrong fields: %+v", got)
	}
	if got.FolderID == nil || *got.FolderID != folder.ID {
		t.Fatalf("folder not set: %v", got.FolderID)
	}

	rec = hs.as(hs.Owner, "PATCH", "/"+p.ID.Hex(), map[string]string{"folder_id": ""})
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeJSON(t, rec, &got)
	if got.FolderID != nil {
		t.Errorf("folder_id \"\" should move to the root, got %v", got.FolderID)
	}
}

func TestPublishUnpublish(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Greeting", "")

	rec := hs.as(hs.Owner, "POST", "/"+p.ID.Hex()+"/publish", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var pub models.Prompt
	testutil.DecodeJSON(t, rec, &pub)
	if pub.PublicSlug == nil || pub.Visibility != models.VisibilityPublic {
		t.Fatalf("publish: %+v", pub)
	}

	rec = hs.as(hs.Owner, "POST", "/"+p.ID.Hex()+"/unpublish", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var priv models.Prompt
	testutil.DecodeJSON(t, rec, &priv)
	if priv.PublicSlug != nil || priv.Visibility != models.VisibilityPrivate {
		t.Errorf("unpublish: %+v", priv)
	}

	rec = hs.as(hs.Owner, "PUT", "/"+p.ID.Hex()+"/visibility", map[string]string{"visibility": "team"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	rec = hs.as(hs.Owner, "PUT", "/"+p.ID.Hex()+"/visibility", map[string]string{"visibility": "everyone"})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestAutosave_StaleRevisionNotWritten(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Draft", "")
	path := "/" + p.ID.Hex() + "/autosave"

	type resp struct {
		Applied  bool  `json:"applied"`
		Revision int64 `json:"revision"`
	}
	var out resp

	rec := hs.as(hs.Owner, "POST", path, map[string]any{"revision": 2, "title": "Draft", "body_md": "newer"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeJSON(t, rec, &out)
	if !out.Applied || out.Revision != 2 {
		t.Fatalf("rev 2: %+v", out)
	}

	rec = hs.as(hs.Owner, "POST", path, map[string]any{"revision": 1, "title": "Draft", "body_md": "older"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	testutil.DecodeJSON(t, rec, &out)
	if out.Applied || out.Revision != 2 {
		t.Fatalf("rev 1 should be acknowledged as stale: %+v", out)
	}

	got, err := hs.Prompts.Get(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BodyMD != "newer" {
		t.Errorf("body = %q, want the newer revision", got.BodyMD)
	}

	versions, err := hs.Prompts.ListVersions(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 0 {
		t.Errorf("autosave created %d versions by default", len(versions))
	}

	rec = hs.as(hs.Owner, "POST", path, map[string]any{"revision": 0, "title": "Draft"})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestAutosave_RevisionsArePerEditor(t *testing.T) {
	hs := newHarness(t)
	editor := hs.Member("ed@example.com", models.RoleEditor)
	p := hs.Prompt("Shared", models.VisibilityTeam)
	path := "/" + p.ID.Hex() + "/autosave"

	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", path, map[string]any{"revision": 50, "title": "A"}), http.StatusOK)

	rec := hs.as(editor, "POST", path, map[string]any{"revision": 1, "title": "B"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var out struct {
		Applied bool `json:"applied"`
	}
	testutil.DecodeJSON(t, rec, &out)
	if !out.Applied {
		t.Error("another editor's clock must not block this one")
	}
}

type autosaveResult struct {
	Applied  bool  `json:"applied"`
	Revision int64 `json:"revision"`
}

func TestSave_FencesOlderAutosaves(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Doc", "")
	base := "/" + p.ID.Hex()

	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/autosave", map[string]any{"revision": 1, "title": "Doc", "body_md": "draft 1"}), http.StatusOK)
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/save", map[string]any{"revision": 3, "title": "Doc", "body_md": "final manual"}), http.StatusOK)

	// Autosave 2 was issued before the manual save but arrives after it.
	rec := hs.as(hs.Owner, "POST", base+"/autosave", map[string]any{"revision": 2, "title": "Doc", "body_md": "stale draft 2"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var out autosaveResult
	testutil.DecodeJSON(t, rec, &out)
	if out.Applied || out.Revision != 3 {
		t.Errorf("late autosave = %+v, want unapplied at revision 3", out)
	}

	got, err := hs.Prompts.Get(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BodyMD != "final manual" {
		t.Errorf("body = %q, want the manual save", got.BodyMD)
	}

	// A manual save behind the clock is refused outright.
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/save", map[string]any{"revision": 2, "title": "Doc", "body_md": "old"}), http.StatusConflict)
	// Without a revision the save is written and the clock is unchanged.
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/save", map[string]any{"title": "Doc", "body_md": "plain"}), http.StatusOK)
	rec = hs.as(hs.Owner, "POST", base+"/autosave", map[string]any{"revision": 4, "title": "Doc", "body_md": "next"})
	testutil.DecodeJSON(t, rec, &out)
	if !out.Applied {
		t.Errorf("revision 4 after the plain save should apply: %+v", out)
	}
}

func TestAutosave_FailedWriteKeepsRevision(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Doc", "")
	path := "/" + p.ID.Hex() + "/autosave"

	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", path, map[string]any{"revision": 1, "title": ""}), http.StatusUnprocessableEntity)

	rec := hs.as(hs.Owner, "POST", path, map[string]any{"revision": 1, "title": "Doc", "body_md": "retried"})
	testutil.AssertStatus(t, rec, http.StatusOK)
	var out autosaveResult
	testutil.DecodeJSON(t, rec, &out)
	if !out.Applied || out.Revision != 1 {
		t.Fatalf("retry = %+v, want applied at revision 1", out)
	}

	got, err := hs.Prompts.Get(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BodyMD != "retried" {
		t.Errorf("body = %q", got.BodyMD)
	}
}

func TestSaveCreatesVersionAndRestore(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("V1", "")
	base := "/" + p.ID.Hex()

	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/save", map[string]string{"title": "V2", "body_md": "two", "change_note": "second"}), http.StatusOK)
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base+"/save", map[string]string{"title": "V3", "body_md": "three"}), http.StatusOK)

	rec := hs.as(hs.Owner, "GET", base+"/versions", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list struct {
		Versions []models.PromptVersion `json:"versions"`
	}
	testutil.DecodeJSON(t, rec, &list)
	if len(list.Versions) != 2 || list.Versions[0].Title != "V3" {
		t.Fatalf("versions = %+v", list.Versions)
	}

	older := list.Versions[1]
	rec = hs.as(hs.Owner, "POST", base+"/versions/"+older.ID.Hex()+"/restore", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var restored models.Prompt
	testutil.DecodeJSON(t, rec, &restored)
	if restored.Title != "V2" || restored.BodyMD != "two" {
		t.Errorf("restored = %+v", restored)
	}

	rec = hs.as(hs.Owner, "POST", base+"/versions", map[string]string{"change_note": "checkpoint"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
}

func TestTags_SyncAndRollback(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("P", "")
	a, err := hs.Org.CreateTag(hs.Ctx(hs.Owner), hs.Team.ID, "a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := hs.Org.CreateTag(hs.Ctx(hs.Owner), hs.Team.ID, "b")
	if err != nil {
		t.Fatal(err)
	}
	path := "/" + p.ID.Hex() + "/tags"

	rec := hs.as(hs.Owner, "PUT", path, map[string][]string{"tag_ids": {a.ID.Hex()}})
	testutil.AssertStatus(t, rec, http.StatusOK)

	hs.DB.FailOn("tags.Attach", b.ID, apperr.Store(errors.New("write failed")))
	rec = hs.as(hs.Owner, "PUT", path, map[string][]string{"tag_ids": {b.ID.Hex()}})
	testutil.AssertStatus(t, rec, http.StatusConflict)
	if !strings.Contains(rec.Body.String(), "sync failed") {
		t.Errorf("body = %s", rec.Body.String())
	}

	got, err := hs.Prompts.Get(hs.Ctx(hs.Owner), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != a.ID {
		t.Errorf("tags after failed sync = %+v, want only a", got.Tags)
	}

	rec = hs.as(hs.Owner, "PUT", path, map[string][]string{"tag_ids": {"xyz"}})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestShares(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("P", "")
	friend := hs.User("friend@example.com")
	base := "/" + p.ID.Hex() + "/shares"

	rec := hs.as(hs.Owner, "POST", base, map[string]string{"email": "friend@example.com", "permission": "view"})
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var sh models.Share
	testutil.DecodeJSON(t, rec, &sh)
	if sh.TargetUser != friend.ID {
		t.Fatalf("share target = %v", sh.TargetUser)
	}

	// The friend can now read the private prompt.
	testutil.AssertStatus(t, hs.as(friend, "GET", "/"+p.ID.Hex(), nil), http.StatusOK)

	rec = hs.as(hs.Owner, "PATCH", base+"/"+sh.ID.Hex(), map[string]string{"permission": "admin"})
	testutil.AssertStatus(t, rec, http.StatusUnprocessableEntity)
	rec = hs.as(hs.Owner, "PATCH", base+"/"+sh.ID.Hex(), map[string]string{"permission": "edit"})
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = hs.as(hs.Owner, "GET", base, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"edit"`) {
		t.Errorf("share list = %s", rec.Body.String())
	}

	testutil.AssertStatus(t, hs.as(hs.Owner, "DELETE", base+"/"+sh.ID.Hex(), nil), http.StatusNoContent)
	testutil.AssertStatus(t, hs.as(friend, "GET", "/"+p.ID.Hex(), nil), http.StatusNotFound)

	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", base, map[string]string{"permission": "view"}), http.StatusUnprocessableEntity)
}

func TestPreview_Sanitized(t *testing.T) {
	hs := newHarness(t)
	p, err := hs.Prompts.Create(hs.Ctx(hs.Owner), lifecycle.CreateInput{
		TeamID: hs.Team.ID, Title: "X", BodyMD: "# Hi\n\n<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := hs.as(hs.Owner, "GET", "/"+p.ID.Hex()+"/preview", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1") || strings.Contains(body, "<script") {
		t.Errorf("preview = %s", body)
	}
}

func TestDelete(t *testing.T) {
	hs := newHarness(t)
	p := hs.Prompt("Gone", "")
	viewer := hs.Member("v@example.com", models.RoleViewer)

	testutil.AssertStatus(t, hs.as(viewer, "DELETE", "/"+p.ID.Hex(), nil), http.StatusNotFound)
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", "/"+p.ID.Hex()+"/autosave", map[string]any{"revision": 1, "title": "Gone"}), http.StatusOK)
	keep := hs.Prompt("Kept", "")
	testutil.AssertStatus(t, hs.as(hs.Owner, "POST", "/"+keep.ID.Hex()+"/autosave", map[string]any{"revision": 1, "title": "Kept"}), http.StatusOK)
	if n := hs.h.Gate.Len(); n != 2 {
		t.Fatalf("gate tracks %d keys, want 2", n)
	}

	testutil.AssertStatus(t, hs.as(hs.Owner, "DELETE", "/"+p.ID.Hex(), nil), http.StatusNoContent)
	testutil.AssertStatus(t, hs.as(hs.Owner, "GET", "/"+p.ID.Hex(), nil), http.StatusNotFound)
	if n := hs.h.Gate.Len(); n != 1 {
		t.Errorf("gate tracks %d keys after delete, want 1", n)
	}
}
