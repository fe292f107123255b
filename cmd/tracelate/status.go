package tracelate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arjunvn/tracelate/internal/store"
)

type statusCommandOptions struct {
	configPath   string
	databasePath string
}

func newStatusCommand(logger *zap.Logger) *cobra.Command {
	options := &statusCommandOptions{configPath: defaultConfigPath}

	command := &cobra.Command{
		Use:   statusCommandUse,
		Short: statusCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCommand(cmd, *options, logger)
		},
	}

	command.Flags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.Flags().StringVar(&options.databasePath, databaseFlagName, "", databaseFlagUsage)

	return command
}

func runStatusCommand(command *cobra.Command, options statusCommandOptions, logger *zap.Logger) error {
	rootConfiguration, configErr := loadRootConfiguration(options.configPath)
	if configErr != nil {
		return configErr
	}

	databasePath := rootConfiguration.Database.Path
	if trimmed := strings.TrimSpace(options.databasePath); trimmed != "" {
		databasePath = trimmed
	}

	traceStore, openErr := store.Open(databasePath, logger)
	if openErr != nil {
		return fmt.Errorf(openStoreErrorFormat, databasePath, openErr)
	}
	defer func() { _ = traceStore.Close() }()

	statusCounts, countErr := traceStore.CountByStatus(command.Context())
	if countErr != nil {
		return fmt.Errorf("count trace records: %w", countErr)
	}

	return writeStatusReport(command, statusCounts)
}

func writeStatusReport(command *cobra.Command, statusCounts map[store.Status]int) error {
	output := command.OutOrStdout()
	total := 0
	for _, status := range store.AllStatuses() {
		count := statusCounts[status]
		total += count
		if _, writeErr := fmt.Fprintf(output, "%s: %d\n", status, count); writeErr != nil {
			return fmt.Errorf("write status report: %w", writeErr)
		}
	}
	if _, writeErr := fmt.Fprintf(output, "total: %d\n", total); writeErr != nil {
		return fmt.Errorf("write status report: %w", writeErr)
	}
	return nil
}
