package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	logsFollow bool
	logsLines  int
	logsPath   bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or tail the terminal app log",
	Long: `View the log written while the terminal app runs.

The log lives at <log_dir>/clientdesk.log, by default <home>/logs.

Examples:
  # Show recent entries
  clientdesk logs

  # Show last 50 entries
  clientdesk logs --lines 50

  # Follow the log in real-time
  clientdesk logs --follow

  # Print the log file path
  clientdesk logs --path
`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output in real-time")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 20, "number of recent lines to show")
	logsCmd.Flags().BoolVar(&logsPath, "path", false, "print the log file path and exit")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	path := env.logFile()
	out := cmd.OutOrStdout()

	if logsPath {
		fmt.Fprintln(out, path)
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return LogFileNotFoundError(path)
	}

	if err := tailFile(out, path, logsLines); err != nil {
		return err
	}
	if logsFollow {
		return followFile(cmd.Context(), out, path)
	}
	return nil
}

// tailFile writes the last numLines lines of path.
func tailFile(w io.Writer, path string, numLines int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer file.Close()

	if numLines <= 0 {
		return nil
	}

	ring := make([]string, 0, numLines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(ring) == numLines {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log: %w", err)
	}

	for _, line := range ring {
		if strings.TrimSpace(line) != "" {
			fmt.Fprintln(w, formatLogLine(line))
		}
	}
	return nil
}

// followFile writes lines appended to path until ctx is done.
func followFile(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var partial strings.Builder
	for {
		line, err := reader.ReadString('\n')
		partial.WriteString(line)
		if err == nil {
			if text := strings.TrimRight(partial.String(), "\r\n"); strings.TrimSpace(text) != "" {
				fmt.Fprintln(w, formatLogLine(text))
			}
			partial.Reset()
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("error reading log: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// formatLogLine shortens JSON records to "[time] LEVEL: msg key=value".
// Text records are returned unchanged.
func formatLogLine(line string) string {
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return line
	}

	ts := extractField(record, "time")
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ts = t.Format("15:04:05")
	}
	level := extractField(record, "level")
	msg := extractField(record, "msg")
	if msg == "" {
		return line
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", ts, level, msg)
	for _, key := range []string{"component", "error", "status", "fingerprint"} {
		if v := extractField(record, key); v != "" {
			fmt.Fprintf(&b, " %s=%s", key, v)
		}
	}
	return b.String()
}

func extractField(record map[string]interface{}, field string) string {
	if val, ok := record[field]; ok {
		return fmt.Sprintf("%v", val)
	}
	return ""
}
