package tags_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/features/tags"
	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil"
	"github.com/dalemusser/promptstash/internal/testutil/apptest"
)

func setup(t *testing.T) (*apptest.Env, http.Handler) {
	t.Helper()
	env := apptest.New(t, lifecycle.Policy{})
	return env, tags.Routes(tags.NewHandler(env.Org, env.Log), env.Sessions)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndList(t *testing.T) {
	env, router := setup(t)

	for _, name := range []string{"zeta", " alpha "} {
		testutil.AssertStatus(t, serve(router, env.Request("POST", "/", map[string]string{"name": name}, env.Owner)), http.StatusCreated)
	}

	rec := serve(router, env.Request("GET", "/", nil, env.Owner))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var body struct {
		Tags []models.Tag `json:"tags"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Tags) != 2 || body.Tags[0].Name != "alpha" || body.Tags[1].Name != "zeta" {
		t.Errorf("tags = %+v", body.Tags)
	}
}

func TestCreate_Rejections(t *testing.T) {
	env, router := setup(t)

	testutil.AssertStatus(t, serve(router, env.Request("POST", "/", map[string]string{"name": "   "}, env.Owner)), http.StatusUnprocessableEntity)

	testutil.AssertStatus(t, serve(router, env.Request("POST", "/", map[string]string{"name": "ops"}, env.Owner)), http.StatusCreated)
	rec := serve(router, env.Request("POST", "/", map[string]string{"name": "ops"}, env.Owner))
	testutil.AssertStatus(t, rec, http.StatusConflict)

	viewer := env.Member("viewer@example.com", models.RoleViewer)
	testutil.AssertStatus(t, serve(router, env.Request("POST", "/", map[string]string{"name": "mine"}, viewer)), http.StatusNotFound)
}

func TestCreate_SameNameInAnotherTeam(t *testing.T) {
	env, router := setup(t)
	testutil.AssertStatus(t, serve(router, env.Request("POST", "/", map[string]string{"name": "ops"}, env.Owner)), http.StatusCreated)

	other, err := env.Org.CreateTeam(env.Ctx(env.Owner), "Ops")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Org.CreateTag(env.Ctx(env.Owner), other.ID, "ops"); err != nil {
		t.Errorf("same name in another team should be allowed: %v", err)
	}
}

func TestDelete_DetachesFromPrompts(t *testing.T) {
	env, router := setup(t)
	ctx := env.Ctx(env.Owner)
	tag, err := env.Org.CreateTag(ctx, env.Team.ID, "ops")
	if err != nil {
		t.Fatal(err)
	}
	p := env.Prompt("Runbook", "")
	if err := env.Prompts.AttachTag(ctx, p.ID, tag.ID); err != nil {
		t.Fatal(err)
	}

	testutil.AssertStatus(t, serve(router, env.Request("DELETE", "/"+tag.ID.Hex(), nil, env.Owner)), http.StatusNoContent)

	got, err := env.Prompts.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("tags after delete = %+v", got.Tags)
	}
	testutil.AssertStatus(t, serve(router, env.Request("DELETE", "/"+tag.ID.Hex(), nil, env.Owner)), http.StatusNotFound)
	testutil.AssertStatus(t, serve(router, env.Request("DELETE", "/xyz", nil, env.Owner)), http.StatusNotFound)
}
