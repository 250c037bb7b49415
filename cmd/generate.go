package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casegen-io/casegen/common"
	"github.com/casegen-io/casegen/git"
	"github.com/casegen-io/casegen/llm"
	"github.com/casegen-io/casegen/logger"
	"github.com/casegen-io/casegen/pipeline"
	"github.com/casegen-io/casegen/report"
	"github.com/casegen-io/casegen/testrail"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and upload test cases for a revision range",
	Long: `Extract the diff between two revisions, generate test cases for the changes
with a generative model, and create them in TestRail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Starting test case generation 🤖")

		settings := common.WithYamlFile()
		applyFlagOverrides(cmd, &settings)
		logger.Debugf("Using settings: %+v", settings)

		repoPath, _ := cmd.Flags().GetString("repo-path")
		base, _ := cmd.Flags().GetString("base")
		head, _ := cmd.Flags().GetString("head")

		gitClient := git.NewClient(git.NewDefaultRunner(repoPath))
		if _, err := gitClient.RevParse(base); err != nil {
			return fmt.Errorf("base revision %q is not resolvable: %w", base, err)
		}
		if _, err := gitClient.RevParse(head); err != nil {
			return fmt.Errorf("head revision %q is not resolvable: %w", head, err)
		}

		retryConfig := common.RetryConfig{
			RetryMax:     settings.Upload.MaxRetries,
			RetryWaitMin: time.Duration(settings.Upload.RetryDelay) * time.Second,
			RetryWaitMax: time.Duration(settings.Upload.RetryDelay*(settings.Upload.MaxRetries+1)) * time.Second,
		}

		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		llmClient, err := llm.NewLLM(provider, model,
			llm.WithTemperature(settings.Generation.Temperature),
			llm.WithMaxTokens(settings.Generation.MaxOutputTokens),
			llm.WithAPITimeout(settings.Generation.APITimeout),
			llm.WithRetryConfig(retryConfig),
		)
		if err != nil {
			return fmt.Errorf("failed to create client for LLM provider: %w", err)
		}
		logger.Infof("Using LLM provider %s with model %s", provider, model)

		uploader, err := newUploader(cmd, settings, retryConfig)
		if err != nil {
			return err
		}

		reporter, target := newReporter(cmd)

		p := pipeline.New(gitClient, llmClient, uploader, reporter, target)
		summary, err := p.Run(base, head)
		if err != nil {
			return err
		}

		fmt.Println("\nSummary:", summary.Oneline())

		if summary.Failed > 0 {
			return fmt.Errorf("%d test case(s) failed to upload", summary.Failed)
		}
		return nil
	},
}

// applyFlagOverrides lets explicit flags win over the settings file.
func applyFlagOverrides(cmd *cobra.Command, settings *common.Settings) {
	if cmd.Flags().Changed("temperature") {
		settings.Generation.Temperature, _ = cmd.Flags().GetFloat32("temperature")
	}
	if cmd.Flags().Changed("max-tokens") {
		settings.Generation.MaxOutputTokens, _ = cmd.Flags().GetInt("max-tokens")
	}
	if cmd.Flags().Changed("api-timeout") {
		settings.Generation.APITimeout, _ = cmd.Flags().GetInt("api-timeout")
	}
	if cmd.Flags().Changed("section-name") {
		settings.Upload.SectionName, _ = cmd.Flags().GetString("section-name")
	}
	if cmd.Flags().Changed("workers") {
		settings.Upload.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("max-retries") {
		settings.Upload.MaxRetries, _ = cmd.Flags().GetInt("max-retries")
	}
	if cmd.Flags().Changed("retry-delay") {
		settings.Upload.RetryDelay, _ = cmd.Flags().GetInt("retry-delay")
	}
}

func newUploader(cmd *cobra.Command, settings common.Settings, retryConfig common.RetryConfig) (*testrail.Uploader, error) {
	testrailURL, _ := cmd.Flags().GetString("testrail-url")
	projectID, _ := cmd.Flags().GetInt("project-id")
	suiteID, _ := cmd.Flags().GetInt("suite-id")

	user := os.Getenv("TESTRAIL_USER")
	apiKey := os.Getenv("TESTRAIL_API_KEY")
	if user == "" || apiKey == "" {
		return nil, fmt.Errorf("TESTRAIL_USER and TESTRAIL_API_KEY environment variables must be set")
	}

	client, err := testrail.NewClient(testrailURL,
		testrail.WithCredentials(user, apiKey),
		testrail.WithTimeout(settings.Generation.APITimeout),
		testrail.WithRetryConfig(retryConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create TestRail client: %w", err)
	}

	return testrail.NewUploader(client, projectID, suiteID, settings.Upload.SectionName, settings.Upload.Workers), nil
}

// newReporter builds the optional PR reporter. Missing flags or token simply
// disable reporting.
func newReporter(cmd *cobra.Command) (report.Reporter, pipeline.Target) {
	pr, _ := cmd.Flags().GetInt("pr")
	repo, _ := cmd.Flags().GetString("repo")
	if pr <= 0 || repo == "" {
		return nil, pipeline.Target{}
	}

	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 {
		logger.Warnf("Ignoring --repo %q: expected owner/name", repo)
		return nil, pipeline.Target{}
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		logger.Warn("GITHUB_TOKEN is not set, skipping PR report")
		return nil, pipeline.Target{}
	}

	reporter, err := report.NewGitHub(token, 60)
	if err != nil {
		logger.Warnf("Failed to create GitHub reporter: %v", err)
		return nil, pipeline.Target{}
	}

	return reporter, pipeline.Target{RepoOwner: parts[0], RepoName: parts[1], PR: pr}
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("repo-path", ".", "Path to the git repository")
	generateCmd.Flags().String("base", "", "Base revision of the change set")
	generateCmd.Flags().String("head", "", "Head revision of the change set")
	generateCmd.Flags().StringP("provider", "p", "gemini", "LLM provider to use (gemini, openai, anthropic)")
	generateCmd.Flags().StringP("model", "m", "gemini-2.0-flash", "Model to use for generation")
	generateCmd.Flags().Float32("temperature", 0.1, "Sampling temperature")
	generateCmd.Flags().Int("max-tokens", 1024, "Maximum output tokens")
	generateCmd.Flags().Int("api-timeout", 60, "Per-request timeout in seconds")
	generateCmd.Flags().String("testrail-url", "", "URL of the TestRail instance")
	generateCmd.Flags().Int("project-id", 0, "TestRail project ID")
	generateCmd.Flags().Int("suite-id", 0, "TestRail test suite ID")
	generateCmd.Flags().String("section-name", "generic", "TestRail section to create cases in")
	generateCmd.Flags().Int("workers", 1, "Concurrent upload workers")
	generateCmd.Flags().Int("max-retries", 3, "Maximum retries for transient HTTP failures")
	generateCmd.Flags().Int("retry-delay", 5, "Base delay between retries in seconds")
	generateCmd.Flags().Int("pr", 0, "Pull request number to report the summary on (optional)")
	generateCmd.Flags().String("repo", "", "GitHub repository (owner/name) for the PR report (optional)")

	generateCmd.MarkFlagRequired("base")
	generateCmd.MarkFlagRequired("head")
	generateCmd.MarkFlagRequired("testrail-url")
	generateCmd.MarkFlagRequired("project-id")
	generateCmd.MarkFlagRequired("suite-id")
}
