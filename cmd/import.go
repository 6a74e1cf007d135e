package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/octave-labs/catalog-cli/internal/model"
)

// catalogFile is the YAML shape accepted by the import command.
type catalogFile struct {
	Artists []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
		ISNI string `yaml:"isni"`
	} `yaml:"artists"`
	Tracks []struct {
		ID       string `yaml:"id"`
		ArtistID string `yaml:"artist_id"`
		Title    string `yaml:"title"`
		ISRC     string `yaml:"isrc"`
		ISWC     string `yaml:"iswc"`
	} `yaml:"tracks"`
}

var importCmd = &cobra.Command{
	Use:   "import <catalog.yaml>",
	Short: "Load artists and tracks from a YAML catalog file",
	Long:  "Rows are upserted by id; missing ids are generated. Importing the same file twice is safe.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read catalog file")
		}
		var cat catalogFile
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return eris.Wrap(err, "parse catalog file")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		for _, a := range cat.Artists {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			artist := model.Artist{ID: a.ID, Name: a.Name, ISNI: a.ISNI}
			if err := env.Store.UpsertArtist(cmd.Context(), artist); err != nil {
				return eris.Wrapf(err, "upsert artist %s", a.ID)
			}
		}
		for _, t := range cat.Tracks {
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			track := model.Track{ID: t.ID, ArtistID: t.ArtistID, Title: t.Title, ISRC: t.ISRC, ISWC: t.ISWC}
			if err := env.Store.UpsertTrack(cmd.Context(), track); err != nil {
				return eris.Wrapf(err, "upsert track %s", t.ID)
			}
		}

		zap.L().Info("catalog imported",
			zap.Int("artists", len(cat.Artists)),
			zap.Int("tracks", len(cat.Tracks)),
		)
		fmt.Printf("imported %d artists, %d tracks\n", len(cat.Artists), len(cat.Tracks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
