package main

import (
	"debate-lab/repositories"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const previewLength = 80

func newRootCmd(config Config) *cobra.Command {
	var dbPath string
	root := &cobra.Command{
		Use:          "transcript",
		Short:        "Browse archived debates",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", config.TranscriptFilepath, "Path to the transcript badger DB")

	root.AddCommand(&cobra.Command{
		Use:   "sessions",
		Short: "List archived sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepository(dbPath, config, func(repo repositories.ITranscriptRepository) error {
				return listSessions(cmd.OutOrStdout(), repo)
			})
		},
	})

	var replies bool
	show := &cobra.Command{
		Use:   "show <session>",
		Short: "Show the rounds of a session",
		Long: `Show the rounds of a session in order.

Examples:
  transcript show 6f1c2a8e-...
  transcript --db ./transcripts show 6f1c2a8e-... --replies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(dbPath, config, func(repo repositories.ITranscriptRepository) error {
				return showSession(cmd.OutOrStdout(), repo, args[0], replies)
			})
		},
	}
	show.Flags().BoolVar(&replies, "replies", false, "Print every reply, not only the selected one")
	root.AddCommand(show)
	return root
}

func withRepository(path string, config Config, fn func(repositories.ITranscriptRepository) error) error {
	// BypassLockGuard allows reading while a debate is still writing
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var limit *int
	if config.LimitTurns > 0 {
		limit = &config.LimitTurns
	}
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	return fn(repositories.NewTranscriptRepository(db, log, limit))
}

func listSessions(out io.Writer, repo repositories.ITranscriptRepository) error {
	sessions, err := repo.ListSessions()
	if err != nil {
		return err
	}
	table := newTable(out, "Session")
	for _, session := range sessions {
		table.Append([]string{session})
	}
	table.Render()
	return nil
}

func showSession(out io.Writer, repo repositories.ITranscriptRepository, session string, replies bool) error {
	turns, err := readAll(repo, session)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("session %s not found", session)
	}

	table := newTable(out, "Round", "Speaker", "Content", "Lang", "Abstained", "Duration", "At")
	for _, turn := range turns {
		round := strconv.FormatUint(turn.Round, 10)
		abstained := strings.Join(turn.Abstained, ",")
		duration := turn.Duration.Round(time.Millisecond).String()
		at := turn.At.Format(time.RFC3339)
		if !replies {
			table.Append([]string{round, turn.Winner, preview(turn.Content), langOf(turn), abstained, duration, at})
			continue
		}
		for _, reply := range turn.Responses {
			speaker := reply.Participant
			if speaker == turn.Winner {
				speaker += " *"
			}
			table.Append([]string{round, speaker, preview(reply.Content), reply.Lang, abstained, duration, at})
		}
	}
	table.Render()
	return nil
}

// readAll follows the cursor until a page comes back empty.
func readAll(repo repositories.ITranscriptRepository, session string) ([]repositories.DiskTurn, error) {
	var all []repositories.DiskTurn
	var cursor *string
	for {
		turns, next, err := repo.GetTurns(session, cursor)
		if err != nil {
			return nil, err
		}
		if len(turns) == 0 {
			return all, nil
		}
		all = append(all, turns...)
		cursor = next
	}
}

func langOf(turn repositories.DiskTurn) string {
	for _, reply := range turn.Responses {
		if reply.Participant == turn.Winner {
			return reply.Lang
		}
	}
	return ""
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewLength {
		return s
	}
	return string(runes[:previewLength]) + "..."
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
