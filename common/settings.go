package common

import (
	"os"

	"github.com/casegen-io/casegen/logger"
	"gopkg.in/yaml.v3"
)

// Generation holds model-side tuning knobs. Low temperature keeps the JSON
// output deterministic enough to parse.
type Generation struct {
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	APITimeout      int     `yaml:"api_timeout"`
}

// Upload holds test-management-side knobs.
type Upload struct {
	SectionName string `yaml:"section_name"`
	Workers     int    `yaml:"workers"`
	MaxRetries  int    `yaml:"max_retries"`
	RetryDelay  int    `yaml:"retry_delay"`
}

// Settings is the optional per-repository configuration, loaded from
// casegen.yml in the working directory. Command-line flags override it.
type Settings struct {
	Generation Generation `yaml:"generation"`
	Upload     Upload     `yaml:"upload"`
}

func WithDefaultSettings() Settings {
	return Settings{
		Generation: Generation{
			Temperature:     0.1,
			MaxOutputTokens: 1024,
			APITimeout:      60,
		},
		Upload: Upload{
			SectionName: "generic",
			Workers:     1,
			MaxRetries:  3,
			RetryDelay:  5,
		},
	}
}

// WithYamlFile loads settings from casegen.yml or casegen.yaml if present,
// falling back to defaults otherwise.
func WithYamlFile() Settings {
	settings := WithDefaultSettings()

	var filePath string
	for _, name := range []string{"casegen.yml", "casegen.yaml"} {
		if _, err := os.Stat(name); err == nil {
			filePath = name
			break
		}
	}

	if filePath == "" {
		logger.Debug("no settings file found, using defaults")
		return settings
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Warnf("Failed to read settings file %s: %v", filePath, err)
		return settings
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		logger.Warnf("Failed to parse settings file %s: %v", filePath, err)
		return WithDefaultSettings()
	}

	logger.Infof("Using settings from %s", filePath)
	return settings
}
