package tracelate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunvn/tracelate/internal/config"
	"github.com/arjunvn/tracelate/internal/llm"
)

func loadRootConfiguration(configurationPath string) (config.Root, error) {
	configurationLoader, loaderErr := config.NewDefaultRootConfigurationLoader()
	if loaderErr != nil {
		return config.Root{}, fmt.Errorf(configurationLoaderInitializationErrorFormat, loaderErr)
	}
	configurationSource, sourceErr := configurationLoader.Load(configurationPath)
	if sourceErr != nil {
		return config.Root{}, fmt.Errorf(configurationSourceResolutionErrorFormat, sourceErr)
	}
	rootConfiguration, loadErr := config.LoadRoot(configurationSource)
	if loadErr != nil {
		return config.Root{}, fmt.Errorf(rootConfigurationLoadErrorFormat, configurationSource.Reference, loadErr)
	}
	return rootConfiguration, nil
}

// gatewayOverrides carries the flag values that refine the configured retry
// policy and model bindings for one invocation.
type gatewayOverrides struct {
	maxRetries       int
	retryDelay       time.Duration
	timeout          time.Duration
	generationModel  string
	translationModel string
}

func registerGatewayFlags(command *cobra.Command, overrides *gatewayOverrides) {
	command.Flags().IntVar(&overrides.maxRetries, maxRetriesFlagName, 0, maxRetriesFlagUsage)
	command.Flags().DurationVar(&overrides.retryDelay, retryDelayFlagName, 0, retryDelayFlagUsage)
	command.Flags().DurationVar(&overrides.timeout, timeoutFlagName, 0, timeoutFlagUsage)
	command.Flags().StringVar(&overrides.generationModel, generationModelFlagName, "", generationModelFlagUsage)
	command.Flags().StringVar(&overrides.translationModel, translationModelFlagName, "", translationModelFlagUsage)
}

func resolveGatewayOptions(command *cobra.Command, rootConfiguration config.Root, overrides gatewayOverrides) (llm.Options, error) {
	generationModel, generationFound := rootConfiguration.GenerationModel()
	if !generationFound {
		return llm.Options{}, errors.New(missingGenerationModelErrorMessage)
	}
	translationModel, translationFound := rootConfiguration.TranslationModel()
	if !translationFound {
		return llm.Options{}, errors.New(missingTranslationModelErrorMessage)
	}

	options := llm.Options{
		GenerationModel:  generationModel.ModelID,
		TranslationModel: translationModel.ModelID,
		TargetLanguage:   rootConfiguration.Translation.TargetLanguage,
		MaxRetries:       rootConfiguration.Common.Defaults.MaxRetries,
		RetryDelay:       rootConfiguration.RetryDelay(),
		Timeout:          rootConfiguration.Timeout(),
	}

	if overrides.maxRetries > 0 {
		options.MaxRetries = overrides.maxRetries
	}
	if flagChanged(command, retryDelayFlagName) {
		options.RetryDelay = overrides.retryDelay
	}
	if overrides.timeout > 0 {
		options.Timeout = overrides.timeout
	}
	if model := strings.TrimSpace(overrides.generationModel); model != "" {
		options.GenerationModel = model
	}
	if model := strings.TrimSpace(overrides.translationModel); model != "" {
		options.TranslationModel = model
	}
	return options, nil
}

func flagChanged(command *cobra.Command, name string) bool {
	flag := command.Flags().Lookup(name)
	return flag != nil && flag.Changed
}
