package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PROMPTSTASH"

	cfgKeyMongoURI      = "mongo_uri"
	cfgKeyMongoDatabase = "mongo_database"
	cfgKeySlugLength    = "slug_length"

	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "promptstash"
	defaultSlugLength    = 10
)

// loadConfig layers the --config file, PROMPTSTASH_* variables and flags
// over the defaults. Flags win over env, env over the file. A missing
// file is only an error when it was named explicitly.
func loadConfig(file string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyMongoURI, defaultMongoURI)
	v.SetDefault(cfgKeyMongoDatabase, defaultMongoDatabase)
	v.SetDefault(cfgKeySlugLength, defaultSlugLength)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{
			cfgKeyMongoURI:      "mongo-uri",
			cfgKeyMongoDatabase: "database",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind --%s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		return v, nil
	}

	v.SetConfigName("promptstash")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}
