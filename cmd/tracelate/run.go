package tracelate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arjunvn/tracelate/internal/fsops"
	"github.com/arjunvn/tracelate/internal/llm"
	"github.com/arjunvn/tracelate/internal/pipeline"
	"github.com/arjunvn/tracelate/internal/source"
	"github.com/arjunvn/tracelate/internal/store"
)

type runCommandOptions struct {
	configPath   string
	inputPath    string
	inputLimit   int
	databasePath string
	gateway      gatewayOverrides
}

func newRunCommand(logger *zap.Logger) *cobra.Command {
	options := &runCommandOptions{configPath: defaultConfigPath}

	command := &cobra.Command{
		Use:   runCommandUse,
		Short: runCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipelineCommand(cmd, *options, logger)
		},
	}

	command.Flags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.Flags().StringVar(&options.inputPath, inputFlagName, "", inputFlagUsage)
	command.Flags().IntVar(&options.inputLimit, limitFlagName, -1, limitFlagUsage)
	command.Flags().StringVar(&options.databasePath, databaseFlagName, "", databaseFlagUsage)
	registerGatewayFlags(command, &options.gateway)

	return command
}

func runPipelineCommand(command *cobra.Command, options runCommandOptions, logger *zap.Logger) error {
	rootConfiguration, configErr := loadRootConfiguration(options.configPath)
	if configErr != nil {
		return configErr
	}

	inputPath := rootConfiguration.Input.Path
	if trimmed := strings.TrimSpace(options.inputPath); trimmed != "" {
		inputPath = trimmed
	}
	inputLimit := rootConfiguration.Input.Limit
	if options.inputLimit >= 0 {
		inputLimit = options.inputLimit
	}
	databasePath := rootConfiguration.Database.Path
	if trimmed := strings.TrimSpace(options.databasePath); trimmed != "" {
		databasePath = trimmed
	}

	gatewayOptions, optionsErr := resolveGatewayOptions(command, rootConfiguration, options.gateway)
	if optionsErr != nil {
		return optionsErr
	}

	workItems, readErr := source.ReadItems(fsops.NewOS(), inputPath, inputLimit)
	if readErr != nil {
		return fmt.Errorf(readInputErrorFormat, inputPath, readErr)
	}
	if len(workItems) == 0 {
		logger.Warn("no work items found", zap.String("input", inputPath))
		return nil
	}

	traceStore, openErr := store.Open(databasePath, logger)
	if openErr != nil {
		return fmt.Errorf(openStoreErrorFormat, databasePath, openErr)
	}
	defer func() { _ = traceStore.Close() }()

	client := llm.Client{HTTPBaseURL: rootConfiguration.Common.API.Endpoint}
	gateway := llm.NewGateway(client, gatewayOptions, nil, logger)
	controller := pipeline.NewController(gateway, traceStore, logger)

	summary, runErr := controller.Run(command.Context(), workItems)
	if runErr != nil {
		return fmt.Errorf("run pipeline: %w", runErr)
	}

	return writeSummary(command, summary)
}

func writeSummary(command *cobra.Command, summary pipeline.Summary) error {
	_, writeErr := fmt.Fprintf(
		command.OutOrStdout(),
		"processed=%d generated=%d translated=%d generation_failures=%d translation_failures=%d\n",
		summary.Processed,
		summary.Generated,
		summary.Translated,
		summary.GenerationFailures,
		summary.TranslationFailures,
	)
	if writeErr != nil {
		return fmt.Errorf("write run result: %w", writeErr)
	}
	return nil
}
