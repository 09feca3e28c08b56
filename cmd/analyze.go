package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/render"
	"github.com/matchpulse/marketintel/pkg/footballapi"
	"github.com/matchpulse/marketintel/pkg/oddsapi"
)

var (
	analyzeHome string
	analyzeAway string
	analyzeAll  bool
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a match's betting market",
	Long:  "Fetches odds and team news for a match, adjusts the market-implied probabilities for absences, and reports where the model view diverges from the market. The resulting prediction is stored for later validation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !analyzeAll && (analyzeHome == "" || analyzeAway == "") {
			return eris.New("either --all or both --home and --away are required")
		}

		env, err := initEnv(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		if analyzeAll {
			return analyzeUpcoming(cmd, env)
		}
		return analyzeOne(cmd, env, analyzeHome, analyzeAway)
	},
}

func analyzeOne(cmd *cobra.Command, env *appEnv, homeTeam, awayTeam string) error {
	ctx := cmd.Context()

	odds, err := env.Odds.OddsForMatch(ctx, homeTeam, awayTeam)
	if err != nil {
		return err
	}

	match, news, err := matchContext(cmd, env, homeTeam, awayTeam)
	if err != nil {
		return err
	}

	analysis, err := env.Analyzer.Analyze(ctx, match, odds, news)
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(analysis.Report))
	return nil
}

// matchContext resolves the fixture and its team news. When no fixture is
// found the analysis proceeds with empty team news rather than failing.
func matchContext(cmd *cobra.Command, env *appEnv, homeTeam, awayTeam string) (model.Match, model.MatchTeamNews, error) {
	ctx := cmd.Context()

	fx, found, err := env.findFixture(ctx, homeTeam, awayTeam)
	if err != nil {
		return model.Match{}, model.MatchTeamNews{}, err
	}
	if !found {
		zap.L().Warn("no upcoming fixture found, analyzing without team news",
			zap.String("home_team", homeTeam),
			zap.String("away_team", awayTeam),
		)
		match := model.Match{
			League:     "Premier League",
			HomeTeam:   homeTeam,
			AwayTeam:   awayTeam,
			KickoffUTC: time.Now().UTC(),
		}
		return match, model.MatchTeamNews{}, nil
	}

	news, err := env.Football.MatchTeamNews(ctx, fx)
	if err != nil {
		zap.L().Warn("could not fetch team news, analyzing without it", zap.Error(err))
		news = model.MatchTeamNews{}
	}
	return fx.Match(), news, nil
}

func analyzeUpcoming(cmd *cobra.Command, env *appEnv) error {
	ctx := cmd.Context()

	fixtures, err := env.upcomingFixtures(ctx)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		fmt.Fprintln(os.Stderr, "No upcoming fixtures found.")
		return nil
	}

	// Fan out per-fixture analysis; each slot holds that fixture's summary
	// line so output stays in fixture order regardless of completion order.
	summaries := make([]string, len(fixtures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, fx := range fixtures {
		i, fx := i, fx
		g.Go(func() error {
			match := fx.Match()

			odds, err := env.Odds.OddsForMatch(gctx, match.HomeTeam, match.AwayTeam)
			if err != nil {
				if eris.Is(err, oddsapi.ErrMatchNotFound) {
					zap.L().Info("no odds available, skipping match",
						zap.String("home_team", match.HomeTeam),
						zap.String("away_team", match.AwayTeam),
					)
					return nil
				}
				return err
			}

			news, err := fetchNews(gctx, env, fx)
			if err != nil {
				return err
			}

			analysis, err := env.Analyzer.Analyze(gctx, match, odds, news)
			if err != nil {
				zap.L().Error("analysis failed, skipping match",
					zap.String("home_team", match.HomeTeam),
					zap.String("away_team", match.AwayTeam),
					zap.Error(err),
				)
				return nil
			}

			summaries[i] = fmt.Sprintf("%s | market: %s (%.1f%%) | model: %s (%.1f%%)",
				analysis.Report.MatchSummary,
				analysis.Report.MarketFavorite.Label, analysis.Report.MarketFavorite.Probability*100,
				analysis.Report.ModelFavorite.Label, analysis.Report.ModelFavorite.Probability*100,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	analyzed := 0
	for _, line := range summaries {
		if line == "" {
			continue
		}
		analyzed++
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nAnalyzed %d of %d upcoming fixtures.\n", analyzed, len(fixtures))
	return nil
}

func fetchNews(ctx context.Context, env *appEnv, fx footballapi.Fixture) (model.MatchTeamNews, error) {
	news, err := env.Football.MatchTeamNews(ctx, fx)
	if err != nil {
		zap.L().Warn("could not fetch team news, analyzing without it", zap.Error(err))
		return model.MatchTeamNews{}, nil
	}
	return news, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeHome, "home", "", "home team name")
	analyzeCmd.Flags().StringVar(&analyzeAway, "away", "", "away team name")
	analyzeCmd.Flags().BoolVar(&analyzeAll, "all", false, "analyze all upcoming fixtures")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full analysis as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
