package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/domain/models"
	"github.com/dalemusser/promptstash/internal/testutil/apptest"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v, err := loadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMongoURI, v.GetString(cfgKeyMongoURI))
	assert.Equal(t, defaultMongoDatabase, v.GetString(cfgKeyMongoDatabase))
	assert.Equal(t, defaultSlugLength, v.GetInt(cfgKeySlugLength))
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stash.yaml")
	require.NoError(t, os.WriteFile(file, []byte("mongo_uri: mongodb://file:27017\nmongo_database: fromfile\n"), 0o600))

	t.Setenv("PROMPTSTASH_MONGO_DATABASE", "fromenv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("mongo-uri", "", "")
	flags.String("database", "", "")
	require.NoError(t, flags.Parse([]string{"--mongo-uri", "mongodb://flag:27017"}))

	v, err := loadConfig(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://flag:27017", v.GetString(cfgKeyMongoURI))
	assert.Equal(t, "fromenv", v.GetString(cfgKeyMongoDatabase))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

type fixedOwner struct {
	id  primitive.ObjectID
	err error
}

func (f fixedOwner) TeamOwner(context.Context, primitive.ObjectID) (primitive.ObjectID, error) {
	return f.id, f.err
}

func TestActingContext(t *testing.T) {
	owner := primitive.NewObjectID()
	team := primitive.NewObjectID()

	ctx, teamID, err := actingContext(context.Background(), fixedOwner{id: owner}, team.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, team, teamID)
	who, ok := identity.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, owner, who.UserID)

	other := primitive.NewObjectID()
	ctx, _, err = actingContext(context.Background(), fixedOwner{id: owner}, team.Hex(), other.Hex())
	require.NoError(t, err)
	who, _ = identity.FromContext(ctx)
	assert.Equal(t, other, who.UserID)

	_, _, err = actingContext(context.Background(), fixedOwner{}, "bad", "")
	assert.ErrorContains(t, err, "--team")
	_, _, err = actingContext(context.Background(), fixedOwner{}, team.Hex(), "bad")
	assert.ErrorContains(t, err, "--as")
	_, _, err = actingContext(context.Background(), fixedOwner{err: errors.New("no team")}, team.Hex(), "")
	assert.ErrorContains(t, err, "look up team")
}

func TestExportImportRoundTrip(t *testing.T) {
	env := apptest.New(t, lifecycle.Policy{})
	env.Prompt("First", "")
	env.Prompt("Second", models.VisibilityTeam)
	ctx := env.Ctx(env.Owner)

	var buf bytes.Buffer
	require.NoError(t, runExport(ctx, env.Prompts, env.Team.ID, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)

	other, err := env.Org.CreateTeam(ctx, "Copy")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, env.Prompts, other.ID, &buf, &out))
	assert.Equal(t, "Imported 2 of 2", strings.TrimSpace(out.String()))

	copied, err := env.Prompts.List(ctx, other.ID, lifecycle.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, copied, 2)
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestWriteFile_ReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	fc := &failingCloser{err: diskFull}
	create := func(string) (io.WriteCloser, error) { return fc, nil }

	err := writeFile(create, "export.json", func(w io.Writer) error {
		_, err := io.WriteString(w, "{}")
		return err
	})
	assert.ErrorIs(t, err, diskFull)
	assert.ErrorContains(t, err, "export.json")

	writeErr := errors.New("encode failed")
	err = writeFile(create, "export.json", func(io.Writer) error { return writeErr })
	assert.ErrorIs(t, err, writeErr, "the write error wins over the close error")
}

func TestWriteFile_WritesExport(t *testing.T) {
	env := apptest.New(t, lifecycle.Policy{})
	env.Prompt("First", "")
	path := filepath.Join(t.TempDir(), "out.json")

	err := writeFile(createFile, path, func(w io.Writer) error {
		return runExport(env.Ctx(env.Owner), env.Prompts, env.Team.ID, w)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"First"`)
}

func TestRunImport_InvalidDocument(t *testing.T) {
	env := apptest.New(t, lifecycle.Policy{})
	var out bytes.Buffer
	err := runImport(env.Ctx(env.Owner), env.Prompts, env.Team.ID, strings.NewReader(`{"nope":1}`), &out)
	assert.ErrorContains(t, err, "import")
	assert.Empty(t, out.String())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "stashctl dev\n", out.String())
}
