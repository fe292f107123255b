package tracelate

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand(logger *zap.Logger) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootCommandUse,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.AddCommand(newRunCommand(logger))
	rootCommand.AddCommand(newTranslateCommand(logger))
	rootCommand.AddCommand(newStatusCommand(logger))
	return rootCommand
}

// Execute runs the CLI and returns the command error, if any, so main can
// decide the exit status.
func Execute(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newRootCommand(logger).Execute()
}
