package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ticvision/ticvision/internal/database"
)

// Settings is what the configure tool needs to reach the database. Unlike the
// server it does not require queue or AI settings.
type Settings struct {
	DatabaseURL string
	Timezone    string
}

// Location returns the configured zone
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NewViper returns a viper instance reading DATABASE_URL and TICVISION_TIMEZONE
// from the environment
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("timezone", "UTC")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("timezone", "TICVISION_TIMEZONE")
	return v
}

// BindRootFlags adds the persistent connection flags to root. Flags win over the
// environment, which wins over the optional YAML config file.
func BindRootFlags(root *cobra.Command, v *viper.Viper) {
	flags := root.PersistentFlags()
	flags.String("config", "", "YAML file with database_url and timezone keys")
	flags.String("database-url", "", "Postgres connection URL (default $DATABASE_URL)")
	flags.String("timezone", "", "IANA zone used for today and calendar ranges (default $TICVISION_TIMEZONE or UTC)")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = v.BindPFlag("timezone", flags.Lookup("timezone"))
}

// LoadSettings resolves settings from flags, environment and config file
func LoadSettings(v *viper.Viper) (*Settings, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	s := &Settings{
		DatabaseURL: v.GetString("database_url"),
		Timezone:    v.GetString("timezone"),
	}
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.DatabaseURL == "" {
		return nil, errors.New("database URL is required (--database-url or DATABASE_URL)")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return s, nil
}

// openDB loads settings and connects. The caller closes the returned DB.
func openDB(v *viper.Viper) (*database.DB, *Settings, error) {
	s, err := LoadSettings(v)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(s.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, s, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}
