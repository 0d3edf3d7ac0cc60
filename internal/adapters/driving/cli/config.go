package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change ragchat settings. The API key, model names and
tuning values are stored in a TOML file under ~/.ragchat.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value. When setting openai.api_key without a
value argument, the key is read from the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

// configKey describes a recognised key and how its value is parsed.
type configKey struct {
	key    string
	kind   string // "string", "int" or "float"
	secret bool
}

var configKeys = []configKey{
	{configfile.KeyAPIKey, "string", true},
	{configfile.KeyBaseURL, "string", false},
	{configfile.KeyChatModel, "string", false},
	{configfile.KeyEmbeddingModel, "string", false},
	{configfile.KeyEmbeddingDims, "int", false},
	{configfile.KeyChunkMaxTokens, "int", false},
	{configfile.KeyChunkOverlap, "int", false},
	{configfile.KeyRetrievalTopK, "int", false},
	{configfile.KeyChatTemperature, "float", false},
	{configfile.KeyChatMaxTokens, "int", false},
	{configfile.KeyChatContextChars, "int", false},
	{configfile.KeyDataDir, "string", false},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Println()

	for _, entry := range configKeys {
		value, ok := configStore.Get(entry.key)
		if !ok {
			cmd.Printf("  %-22s (not set)\n", entry.key)
			continue
		}
		if entry.secret {
			cmd.Printf("  %-22s %s\n", entry.key, maskAPIKey(fmt.Sprintf("%v", value)))
			continue
		}
		cmd.Printf("  %-22s %v\n", entry.key, value)
	}

	cmd.Println()
	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := args[0]
	entry, ok := lookupConfigKey(key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case entry.secret:
		cmd.Print("Enter value: ")
		raw = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if raw == "" {
		return errors.New("value must not be empty")
	}

	value, err := parseConfigValue(entry.kind, raw)
	if err != nil {
		return err
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if entry.secret {
		cmd.Printf("Set %s\n", key)
	} else {
		cmd.Printf("Set %s = %v\n", key, value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println(configStore.Path())
	return nil
}

func lookupConfigKey(key string) (configKey, bool) {
	for _, entry := range configKeys {
		if entry.key == key {
			return entry, true
		}
	}
	return configKey{}, false
}

func parseConfigValue(kind, raw string) (any, error) {
	switch kind {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", raw)
		}
		return int64(n), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return f, nil
	default:
		return raw, nil
	}
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
