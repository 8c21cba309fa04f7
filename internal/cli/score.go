package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sales-competency-service/internal/config"
	"sales-competency-service/internal/domain"
)

type scoredCompetency struct {
	domain.CompetencyResult
	Recommendations []string `json:"recommendations,omitempty"`
}

type scoreOutput struct {
	TotalPercentage int                `json:"totalPercentage"`
	Tier            domain.Tier        `json:"tier"`
	Competencies    []scoredCompetency `json:"competencies"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// NewScoreCmd scores an answers file without touching any storage.
func NewScoreCmd(configPath *string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "score <answers.json>",
		Short: "Score a JSON list of answers and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOptionalConfig(*configPath)
			if err != nil {
				return err
			}
			logger := cfg.NewLogger()
			engine, resolver, err := buildCore(cfg, logger)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var answers []domain.Answer
			if err := json.Unmarshal(data, &answers); err != nil {
				return fmt.Errorf("parse answers %s: %w", args[0], err)
			}

			result := engine.Score(answers)
			out := scoreOutput{
				TotalPercentage: result.TotalPercentage,
				Tier:            result.Tier,
				Competencies:    make([]scoredCompetency, 0, len(result.CompetencyResults)),
			}
			var language domain.Language
			if lang != "" {
				if language, err = domain.ParseLanguage(lang); err != nil {
					return err
				}
				if out.Recommendations, err = resolver.Generic(result.Tier, language); err != nil {
					return err
				}
			}
			for _, r := range result.CompetencyResults {
				entry := scoredCompetency{CompetencyResult: r}
				if language != "" {
					if entry.Recommendations, err = resolver.Recommendations(r.CompetencyID, r.Tier, language); err != nil {
						return err
					}
				}
				out.Competencies = append(out.Competencies, entry)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "include recommendations in this language (en or ar)")
	return cmd
}

// loadOptionalConfig reads the config file if it exists; offline scoring works without one.
func loadOptionalConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no config file, using built-in tables", "path", path)
			return config.Config{}, nil
		}
		return config.Config{}, err
	}
	return config.Load(path)
}
