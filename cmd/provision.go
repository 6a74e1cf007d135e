package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/octave-labs/catalog-cli/internal/model"
	"github.com/octave-labs/catalog-cli/internal/processor"
	"github.com/octave-labs/catalog-cli/pkg/provision"
)

var provisionLimit int

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Run provisioning batches in dependency order",
	Long:  "Each stage only selects artists whose prerequisite stage has completed: mint before social, social before monetize.",
}

var provisionMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint on-chain identities for enriched artists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd.Context(), model.TaskIdentityMint, "mint", cfg.Provision.MintURL)
	},
}

var provisionSocialCmd = &cobra.Command{
	Use:   "social",
	Short: "Create social accounts for minted identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd.Context(), model.TaskSocialAccount, "social", cfg.Provision.SocialURL)
	},
}

var provisionMonetizeCmd = &cobra.Command{
	Use:   "monetize",
	Short: "Deploy monetization for artists with social accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProvision(cmd.Context(), model.TaskMonetizationDeploy, "monetize", cfg.Provision.MonetizeURL)
	},
}

func init() {
	provisionCmd.PersistentFlags().IntVar(&provisionLimit, "limit", 20, "max artists to process")
	provisionCmd.AddCommand(provisionMintCmd, provisionSocialCmd, provisionMonetizeCmd)
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(ctx context.Context, tt model.TaskType, service, baseURL string) error {
	if baseURL == "" {
		return eris.Errorf("provision %s url not configured", service)
	}
	if cfg.Provision.Key == "" {
		return eris.New("provision api key not configured")
	}

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	client := provision.NewClient(service, baseURL, cfg.Provision.Key)

	summary, err := env.Processor.Run(ctx, tt, provisionLimit, provisionFunc(client))
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

// provisionFunc calls the downstream service for one artist. A 422 from the
// service means the artist cannot be provisioned at all, which maps to a
// skip rather than a retryable failure.
func provisionFunc(client provision.Client) processor.EntityFunc {
	return func(ctx context.Context, artistID string) (processor.Outcome, error) {
		summary, err := client.Provision(ctx, artistID)
		if err != nil {
			if errors.Is(err, provision.ErrNotApplicable) {
				return processor.Outcome{SkipReason: fmt.Sprintf("not applicable: %v", err)}, nil
			}
			return processor.Outcome{}, err
		}

		result, err := json.Marshal(summary)
		if err != nil {
			return processor.Outcome{}, err
		}
		return processor.Outcome{Result: result}, nil
	}
}
