package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// RoleGeneration marks the model that produces reasoning traces.
	RoleGeneration = "generation"
	// RoleTranslation marks the model that translates stored traces.
	RoleTranslation = "translation"

	emptyModelsErrorMessage                  = "config.models is empty"
	missingGenerationModelErrorMessage       = "no generation model found (set models[].role: generation)"
	missingTranslationModelErrorMessage      = "no translation model found (set models[].role: translation)"
	invalidModelRoleErrorFormat              = "model %s has unknown role %q"
	invalidMaxRetriesErrorFormat             = "defaults.max_retries must be positive, got %d"
	invalidRetryDelayErrorFormat             = "defaults.retry_delay_seconds must be non-negative, got %d"
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"

	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
	defaultTimeoutSeconds    = 300
	defaultTargetLanguage    = "Hindi"
)

type Root struct {
	Common      Common      `yaml:"common"`
	Models      []Model     `yaml:"models"`
	Database    Database    `yaml:"database"`
	Input       Input       `yaml:"input"`
	Translation Translation `yaml:"translation"`
}

type Common struct {
	API struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"api"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Defaults struct {
		MaxRetries        int `yaml:"max_retries"`
		RetryDelaySeconds int `yaml:"retry_delay_seconds"`
		TimeoutSeconds    int `yaml:"timeout_seconds"`
	} `yaml:"defaults"`
}

type Model struct {
	Name    string `yaml:"name"`
	ModelID string `yaml:"model_id"`
	Role    string `yaml:"role"`
	Default bool   `yaml:"default"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Input struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

type Translation struct {
	TargetLanguage string `yaml:"target_language"`
}

// LoadRoot parses the provided configuration source and validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}
	rootConfiguration.applyDefaults()

	if err := rootConfiguration.validate(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

func (root *Root) applyDefaults() {
	if root.Common.Defaults.MaxRetries == 0 {
		root.Common.Defaults.MaxRetries = defaultMaxRetries
	}
	if root.Common.Defaults.RetryDelaySeconds == 0 {
		root.Common.Defaults.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if root.Common.Defaults.TimeoutSeconds <= 0 {
		root.Common.Defaults.TimeoutSeconds = defaultTimeoutSeconds
	}
	if strings.TrimSpace(root.Translation.TargetLanguage) == "" {
		root.Translation.TargetLanguage = defaultTargetLanguage
	}
}

func (root Root) validate() error {
	if len(root.Models) == 0 {
		return errors.New(emptyModelsErrorMessage)
	}
	for _, modelConfiguration := range root.Models {
		role := strings.TrimSpace(modelConfiguration.Role)
		if role != RoleGeneration && role != RoleTranslation {
			return fmt.Errorf(invalidModelRoleErrorFormat, modelConfiguration.Name, modelConfiguration.Role)
		}
	}
	if _, ok := root.ModelForRole(RoleGeneration); !ok {
		return errors.New(missingGenerationModelErrorMessage)
	}
	if _, ok := root.ModelForRole(RoleTranslation); !ok {
		return errors.New(missingTranslationModelErrorMessage)
	}
	if root.Common.Defaults.MaxRetries < 1 {
		return fmt.Errorf(invalidMaxRetriesErrorFormat, root.Common.Defaults.MaxRetries)
	}
	if root.Common.Defaults.RetryDelaySeconds < 0 {
		return fmt.Errorf(invalidRetryDelayErrorFormat, root.Common.Defaults.RetryDelaySeconds)
	}
	return nil
}

// ModelForRole resolves the model configured for the given role. A model
// marked default wins over earlier entries with the same role.
func (root Root) ModelForRole(role string) (Model, bool) {
	var selected Model
	found := false
	for _, modelConfiguration := range root.Models {
		if strings.TrimSpace(modelConfiguration.Role) != role {
			continue
		}
		if modelConfiguration.Default {
			return modelConfiguration, true
		}
		if !found {
			selected = modelConfiguration
			found = true
		}
	}
	return selected, found
}

// GenerationModel resolves the model that produces reasoning traces.
func (root Root) GenerationModel() (Model, bool) {
	return root.ModelForRole(RoleGeneration)
}

// TranslationModel resolves the model that translates stored traces.
func (root Root) TranslationModel() (Model, bool) {
	return root.ModelForRole(RoleTranslation)
}

// RetryDelay returns the configured pause between model-call attempts.
func (root Root) RetryDelay() time.Duration {
	return time.Duration(root.Common.Defaults.RetryDelaySeconds) * time.Second
}

// Timeout returns the per-call deadline for a single model request.
func (root Root) Timeout() time.Duration {
	return time.Duration(root.Common.Defaults.TimeoutSeconds) * time.Second
}
