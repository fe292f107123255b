package tracelate

const (
	rootCommandUse   = "tracelate"
	rootCommandShort = "Collect reasoning traces for coding problems and translate them"

	runCommandUse   = "run"
	runCommandShort = "Generate, persist and translate traces for every input problem"

	translateCommandUse   = "translate"
	translateCommandShort = "Translate already-persisted traces that are still pending"

	statusCommandUse   = "status"
	statusCommandShort = "Show per-status record counts for the trace database"

	defaultConfigPath = ""

	configFlagName            = "config"
	configFlagUsage           = "Path to unified config.yaml"
	inputFlagName             = "input"
	inputFlagUsage            = "Path to the JSONL problem list (overrides config)"
	limitFlagName             = "limit"
	limitFlagUsage            = "Number of input entries to process (0 = all, overrides config)"
	databaseFlagName          = "database"
	databaseFlagUsage         = "Path to the SQLite trace database (overrides config)"
	maxRetriesFlagName        = "max-retries"
	maxRetriesFlagUsage       = "Model call attempts before a terminal failure (overrides config)"
	retryDelayFlagName        = "retry-delay"
	retryDelayFlagUsage       = "Pause between model call attempts (e.g., 2s; overrides config)"
	timeoutFlagName           = "timeout"
	timeoutFlagUsage          = "Per-call model timeout (e.g., 300s; overrides config)"
	generationModelFlagName   = "generation-model"
	generationModelFlagUsage  = "Model identifier for trace generation (overrides config)"
	translationModelFlagName  = "translation-model"
	translationModelFlagUsage = "Model identifier for translation (overrides config)"
	includeFailedFlagName     = "include-failed"
	includeFailedFlagUsage    = "Re-queue records whose translation previously failed"

	configurationLoaderInitializationErrorFormat = "initialize configuration loader: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load root configuration %s: %w"
	openStoreErrorFormat                         = "open trace store %s: %w"
	readInputErrorFormat                         = "read work items %s: %w"
	missingGenerationModelErrorMessage           = "configuration resolves no generation model"
	missingTranslationModelErrorMessage          = "configuration resolves no translation model"
)
