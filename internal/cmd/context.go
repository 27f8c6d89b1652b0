package cmd

import (
	"github.com/spf13/cobra"
)

// CommandContext holds the persistent flags shared by every command.
type CommandContext struct {
	// Output control
	Format  string
	NoColor bool

	// Configuration overrides
	Home     string
	APIURL   string
	LogLevel string
}

// NewCommandContext extracts command context from cobra.Command flags.
// Commands call this in their RunE function:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cmdCtx, err := NewCommandContext(cmd)
//		if err != nil {
//			return fmt.Errorf("failed to create command context: %w", err)
//		}
//		// Use cmdCtx.Format, cmdCtx.Home, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return nil, err
	}

	apiURL, err := cmd.Flags().GetString("api-url")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Format:   format,
		NoColor:  noColor,
		Home:     home,
		APIURL:   apiURL,
		LogLevel: logLevel,
	}, nil
}

// FormatOr returns the --format value, or fallback when it is unset.
func (c *CommandContext) FormatOr(fallback string) string {
	if c.Format == "" {
		return fallback
	}
	return c.Format
}
