package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/promptstash/internal/app/services/lifecycle"
	folderstore "github.com/dalemusser/promptstash/internal/app/store/folders"
	membershipstore "github.com/dalemusser/promptstash/internal/app/store/memberships"
	promptstore "github.com/dalemusser/promptstash/internal/app/store/prompts"
	sharestore "github.com/dalemusser/promptstash/internal/app/store/shares"
	tagstore "github.com/dalemusser/promptstash/internal/app/store/tags"
	teamstore "github.com/dalemusser/promptstash/internal/app/store/teams"
	userstore "github.com/dalemusser/promptstash/internal/app/store/users"
	versionstore "github.com/dalemusser/promptstash/internal/app/store/versions"
	"github.com/dalemusser/promptstash/internal/app/system/identity"
	"github.com/dalemusser/promptstash/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagConfig string
	flagTeam   string
	flagAs     string

	cfg *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:           "stashctl",
	Short:         "Operate on PromptStash data",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		v, err := loadConfig(flagConfig, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = v
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: ./promptstash.yaml if present)")
	pf.String("mongo-uri", "", "MongoDB connection URI (env PROMPTSTASH_MONGO_URI)")
	pf.String("database", "", "MongoDB database name (env PROMPTSTASH_MONGO_DATABASE)")

	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().StringVar(&flagTeam, "team", "", "team id (required)")
		c.Flags().StringVar(&flagAs, "as", "", "act as this user id (default: the team owner)")
		_ = c.MarkFlagRequired("team")
	}

	rootCmd.AddCommand(versionCmd, exportCmd, importCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stashctl %s\n", version)
	},
}

// stash is an open database with the lifecycle manager built over it.
type stash struct {
	client  *mongo.Client
	teams   *teamstore.Store
	prompts *lifecycle.Manager
}

func openStash(ctx context.Context) (*stash, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.GetString(cfgKeyMongoURI)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.GetString(cfgKeyMongoDatabase))
	users := userstore.New(db)
	manager := lifecycle.New(lifecycle.Stores{
		Prompts:     promptstore.New(db),
		Folders:     folderstore.New(db),
		Tags:        tagstore.New(db),
		Versions:    versionstore.New(db),
		Shares:      sharestore.New(db),
		Users:       users,
		Memberships: membershipstore.New(db),
	}, lifecycle.Policy{SlugLength: cfg.GetInt(cfgKeySlugLength)}, zap.NewNop())

	return &stash{client: client, teams: teamstore.New(db), prompts: manager}, nil
}

func (s *stash) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// TeamOwner resolves the default --as user.
func (s *stash) TeamOwner(ctx context.Context, teamID primitive.ObjectID) (primitive.ObjectID, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return t.OwnerID, nil
}

type ownerLookup interface {
	TeamOwner(ctx context.Context, teamID primitive.ObjectID) (primitive.ObjectID, error)
}

// actingContext parses --team and --as and returns a context carrying the
// acting user's identity.
func actingContext(ctx context.Context, owners ownerLookup, team, as string) (context.Context, primitive.ObjectID, error) {
	teamID, err := primitive.ObjectIDFromHex(team)
	if err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("invalid --team %q", team)
	}
	var userID primitive.ObjectID
	if as != "" {
		if userID, err = primitive.ObjectIDFromHex(as); err != nil {
			return nil, primitive.NilObjectID, fmt.Errorf("invalid --as %q", as)
		}
	} else if userID, err = owners.TeamOwner(ctx, teamID); err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("look up team: %w", err)
	}
	return identity.With(ctx, identity.Identity{UserID: userID, Name: "stashctl"}), teamID, nil
}
