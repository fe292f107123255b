package tracelate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arjunvn/tracelate/internal/llm"
	"github.com/arjunvn/tracelate/internal/pipeline"
	"github.com/arjunvn/tracelate/internal/store"
)

type translateCommandOptions struct {
	configPath    string
	databasePath  string
	includeFailed bool
	gateway       gatewayOverrides
}

func newTranslateCommand(logger *zap.Logger) *cobra.Command {
	options := &translateCommandOptions{configPath: defaultConfigPath}

	command := &cobra.Command{
		Use:   translateCommandUse,
		Short: translateCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslateCommand(cmd, *options, logger)
		},
	}

	command.Flags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.Flags().StringVar(&options.databasePath, databaseFlagName, "", databaseFlagUsage)
	registerGatewayFlags(command, &options.gateway)

	includeFailedValue := newBoolChoiceValue(&options.includeFailed)
	command.Flags().Var(includeFailedValue, includeFailedFlagName, includeFailedFlagUsage)
	if includeFailedFlag := command.Flags().Lookup(includeFailedFlagName); includeFailedFlag != nil {
		includeFailedFlag.NoOptDefVal = "true"
		includeFailedFlag.DefValue = "false"
	}

	return command
}

func runTranslateCommand(command *cobra.Command, options translateCommandOptions, logger *zap.Logger) error {
	rootConfiguration, configErr := loadRootConfiguration(options.configPath)
	if configErr != nil {
		return configErr
	}

	databasePath := rootConfiguration.Database.Path
	if trimmed := strings.TrimSpace(options.databasePath); trimmed != "" {
		databasePath = trimmed
	}

	gatewayOptions, optionsErr := resolveGatewayOptions(command, rootConfiguration, options.gateway)
	if optionsErr != nil {
		return optionsErr
	}

	traceStore, openErr := store.Open(databasePath, logger)
	if openErr != nil {
		return fmt.Errorf(openStoreErrorFormat, databasePath, openErr)
	}
	defer func() { _ = traceStore.Close() }()

	client := llm.Client{HTTPBaseURL: rootConfiguration.Common.API.Endpoint}
	gateway := llm.NewGateway(client, gatewayOptions, nil, logger)
	controller := pipeline.NewController(gateway, traceStore, logger)

	summary, catchUpErr := controller.CatchUp(command.Context(), options.includeFailed)
	if catchUpErr != nil {
		return fmt.Errorf("run catch-up translation: %w", catchUpErr)
	}

	return writeSummary(command, summary)
}
