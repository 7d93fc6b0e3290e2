package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaviiSuri/ralphctl/internal/adapters"
	"github.com/KaviiSuri/ralphctl/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect recorded loop sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}

		log, err := session.NewStore(session.DefaultPath(workDir)).Load()
		if err != nil {
			return err
		}

		if len(log.Sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		fmt.Printf("%-4s %-38s %-20s %-6s %-12s %s\n", "IT", "SESSION", "STARTED", "MODE", "AGENT", "SCOPE")
		for _, record := range log.Sessions {
			fmt.Printf("%-4d %-38s %-20s %-6s %-12s %s\n",
				record.Iteration,
				record.SessionID,
				record.StartedAt.Format(time.RFC3339),
				record.Mode,
				record.Agent,
				record.Scope,
			)
		}
		return nil
	},
}

var exportOutput string

var sessionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every recorded session's native data to a report file",
	Long: `Export walks the session log, constructs the matching adapter for each
record, and retrieves the backend-native export for its session id. A record
whose agent cannot be constructed or whose export fails is reported in place;
it never aborts the remaining records.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}

		log, err := session.NewStore(session.DefaultPath(workDir)).Load()
		if err != nil {
			return err
		}

		report := buildExportReport(cmd.Context(), log, func(ctx context.Context, agent adapters.AgentType) (adapters.Adapter, error) {
			return adapters.New(ctx, agent, adapters.Options{})
		})

		out := exportOutput
		if out == "" {
			out = filepath.Join(".ralph", fmt.Sprintf("export-%s.json", time.Now().UTC().Format("20060102-150405")))
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return err
		}

		fmt.Printf("Exported %d record(s) to %s (%d failed)\n", len(report.Sessions), out, report.Failures)
		return nil
	},
}

// exportReport is the serialized inspection output: one entry per session
// record, failures isolated per record.
type exportReport struct {
	GeneratedAt time.Time            `json:"generatedAt"`
	Sessions    []exportReportRecord `json:"sessions"`
	Failures    int                  `json:"failures"`
}

type exportReportRecord struct {
	Iteration int                `json:"iteration"`
	SessionID string             `json:"sessionId"`
	Agent     adapters.AgentType `json:"agent"`
	Export    json.RawMessage    `json:"export,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// adapterFactory constructs the adapter for an agent, availability included.
// Injected so report assembly is testable without the real agent binaries.
type adapterFactory func(ctx context.Context, agent adapters.AgentType) (adapters.Adapter, error)

func buildExportReport(ctx context.Context, log *session.Log, construct adapterFactory) *exportReport {
	report := &exportReport{GeneratedAt: time.Now().UTC()}

	// Adapters are cached per agent so availability is checked once each.
	cache := map[adapters.AgentType]adapters.Adapter{}
	failed := map[adapters.AgentType]string{}

	for _, record := range log.Sessions {
		entry := exportReportRecord{
			Iteration: record.Iteration,
			SessionID: record.SessionID,
			Agent:     record.Agent,
		}

		adapter, ok := cache[record.Agent]
		if !ok {
			if reason, seen := failed[record.Agent]; seen {
				entry.Error = reason
				report.Failures++
				report.Sessions = append(report.Sessions, entry)
				continue
			}
			var err error
			adapter, err = construct(ctx, record.Agent)
			if err != nil {
				failed[record.Agent] = err.Error()
				entry.Error = err.Error()
				report.Failures++
				report.Sessions = append(report.Sessions, entry)
				continue
			}
			cache[record.Agent] = adapter
		}

		result := adapter.Export(ctx, record.SessionID)
		if result.Success {
			entry.Export = result.Payload
		} else {
			entry.Error = result.Error
			report.Failures++
		}
		report.Sessions = append(report.Sessions, entry)
	}

	return report
}

func init() {
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "report file path")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}
