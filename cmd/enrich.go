package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/normalize"
	"github.com/octave-labs/catalog-cli/internal/processor"
	"github.com/octave-labs/catalog-cli/internal/resolver"
	"github.com/octave-labs/catalog-cli/internal/source"
	"github.com/octave-labs/catalog-cli/pkg/musicbrainz"
	"github.com/octave-labs/catalog-cli/pkg/quansic"
	"github.com/octave-labs/catalog-cli/pkg/spotify"
)

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run enrichment batches against the external authorities",
}

var enrichISWCCmd = &cobra.Command{
	Use:   "iswc",
	Short: "Resolve ISWC work codes for tracks with an ISRC",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		chain, err := recordingChain(env)
		if err != nil {
			return err
		}

		summary, err := env.Processor.Run(cmd.Context(), model.TaskISWCLookup, enrichLimit,
			iswcLookupFunc(env, chain))
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

var enrichRecordingCmd = &cobra.Command{
	Use:   "recording",
	Short: "Enrich track recording metadata (title, duration, contributors)",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		chain, err := recordingChain(env)
		if err != nil {
			return err
		}

		summary, err := env.Processor.Run(cmd.Context(), model.TaskRecordingEnrich, enrichLimit,
			recordingEnrichFunc(env, chain))
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

var enrichArtistCmd = &cobra.Command{
	Use:   "artist",
	Short: "Resolve cross-platform artist identifiers from an ISNI",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		chain, err := artistChain(env)
		if err != nil {
			return err
		}

		summary, err := env.Processor.Run(cmd.Context(), model.TaskArtistEnrich, enrichLimit,
			artistEnrichFunc(env, chain))
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

func init() {
	enrichCmd.PersistentFlags().IntVar(&enrichLimit, "limit", 50, "max entities to process")
	enrichCmd.AddCommand(enrichISWCCmd, enrichRecordingCmd, enrichArtistCmd)
	rootCmd.AddCommand(enrichCmd)
}

func recordingChain(env *appEnv) (*resolver.Chain[model.RecordingMeta], error) {
	if cfg.Quansic.Key == "" {
		return nil, eris.New("quansic api key not configured")
	}
	rc, err := resolverConfig()
	if err != nil {
		return nil, err
	}
	q := quansic.NewClient(cfg.Quansic.Key,
		quansic.WithBaseURL(cfg.Quansic.BaseURL),
		quansic.WithRateLimit(cfg.Quansic.RatePerSecond),
	)
	mb := musicbrainz.NewClient(cfg.MusicBrainz.UserAgent,
		musicbrainz.WithBaseURL(cfg.MusicBrainz.BaseURL),
		musicbrainz.WithRateLimit(cfg.MusicBrainz.RatePerSecond),
	)
	return resolver.BuildRecordingChain(rc, env.Store, source.RecordingAdapters(q, mb))
}

func artistChain(env *appEnv) (*resolver.Chain[model.ArtistMeta], error) {
	if cfg.Quansic.Key == "" {
		return nil, eris.New("quansic api key not configured")
	}
	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return nil, eris.New("spotify credentials not configured")
	}
	rc, err := resolverConfig()
	if err != nil {
		return nil, err
	}
	q := quansic.NewClient(cfg.Quansic.Key,
		quansic.WithBaseURL(cfg.Quansic.BaseURL),
		quansic.WithRateLimit(cfg.Quansic.RatePerSecond),
	)
	mb := musicbrainz.NewClient(cfg.MusicBrainz.UserAgent,
		musicbrainz.WithBaseURL(cfg.MusicBrainz.BaseURL),
		musicbrainz.WithRateLimit(cfg.MusicBrainz.RatePerSecond),
	)
	sp := spotify.NewClient(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret,
		spotify.WithBaseURL(cfg.Spotify.BaseURL),
		spotify.WithTokenURL(cfg.Spotify.TokenURL),
	)
	return resolver.BuildArtistChain(rc, env.Store, source.ArtistAdapters(q, mb, sp))
}

// iswcLookupFunc resolves the track's ISRC through the chain and writes the
// found work code back onto the track.
func iswcLookupFunc(env *appEnv, chain *resolver.Chain[model.RecordingMeta]) processor.EntityFunc {
	return func(ctx context.Context, trackID string) (processor.Outcome, error) {
		track, err := env.Store.GetTrack(ctx, trackID)
		if err != nil {
			return processor.Outcome{}, err
		}
		if track == nil {
			return processor.Outcome{SkipReason: "track no longer in catalog"}, nil
		}

		isrc, err := normalize.ISRC(track.ISRC)
		if err != nil {
			return processor.Outcome{SkipReason: fmt.Sprintf("unusable isrc %q", track.ISRC)}, nil
		}

		res, err := chain.Resolve(ctx, isrc)
		if err != nil {
			return processor.Outcome{}, err
		}
		if !res.Found {
			return processor.Outcome{SkipReason: "no source knows the recording"}, nil
		}
		if res.Value.ISWC == "" {
			return processor.Outcome{SkipReason: "recording has no linked work"}, nil
		}

		iswc, err := normalize.ISWC(res.Value.ISWC)
		if err != nil {
			return processor.Outcome{SkipReason: fmt.Sprintf("source returned unusable iswc %q", res.Value.ISWC)}, nil
		}
		if err := env.Store.SetTrackISWC(ctx, trackID, iswc); err != nil {
			return processor.Outcome{}, err
		}

		result, err := json.Marshal(map[string]any{
			"iswc":              iswc,
			"source":            res.Source,
			"from_cache":        res.FromCache,
			"attempted_sources": res.Attempted,
		})
		if err != nil {
			return processor.Outcome{}, err
		}
		return processor.Outcome{Result: result}, nil
	}
}

// recordingEnrichFunc stores the full recording payload as the task result.
func recordingEnrichFunc(env *appEnv, chain *resolver.Chain[model.RecordingMeta]) processor.EntityFunc {
	return func(ctx context.Context, trackID string) (processor.Outcome, error) {
		track, err := env.Store.GetTrack(ctx, trackID)
		if err != nil {
			return processor.Outcome{}, err
		}
		if track == nil {
			return processor.Outcome{SkipReason: "track no longer in catalog"}, nil
		}

		isrc, err := normalize.ISRC(track.ISRC)
		if err != nil {
			return processor.Outcome{SkipReason: fmt.Sprintf("unusable isrc %q", track.ISRC)}, nil
		}

		res, err := chain.Resolve(ctx, isrc)
		if err != nil {
			return processor.Outcome{}, err
		}
		if !res.Found {
			return processor.Outcome{SkipReason: "no source knows the recording"}, nil
		}

		result, err := json.Marshal(map[string]any{
			"source": res.Source,
			"meta":   res.Value,
		})
		if err != nil {
			return processor.Outcome{}, err
		}
		return processor.Outcome{Result: result}, nil
	}
}

// artistEnrichFunc resolves the artist's ISNI through the artist chain.
func artistEnrichFunc(env *appEnv, chain *resolver.Chain[model.ArtistMeta]) processor.EntityFunc {
	return func(ctx context.Context, artistID string) (processor.Outcome, error) {
		artist, err := env.Store.GetArtist(ctx, artistID)
		if err != nil {
			return processor.Outcome{}, err
		}
		if artist == nil {
			return processor.Outcome{SkipReason: "artist no longer in catalog"}, nil
		}

		isni, err := normalize.ISNI(artist.ISNI)
		if err != nil {
			return processor.Outcome{SkipReason: fmt.Sprintf("unusable isni %q", artist.ISNI)}, nil
		}

		res, err := chain.Resolve(ctx, isni)
		if err != nil {
			return processor.Outcome{}, err
		}
		if !res.Found {
			return processor.Outcome{SkipReason: "no source knows the artist"}, nil
		}

		result, err := json.Marshal(map[string]any{
			"source": res.Source,
			"meta":   res.Value,
		})
		if err != nil {
			return processor.Outcome{}, err
		}
		return processor.Outcome{Result: result}, nil
	}
}

func printSummary(s *processor.Summary) {
	fmt.Printf("%s: selected=%d completed=%d failed=%d skipped=%d contended=%d\n",
		s.TaskType, s.Selected, s.Completed, s.Failed, s.Skipped, s.Contended)
}
