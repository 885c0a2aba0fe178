// ABOUTME: Insight and note history subcommands
// ABOUTME: Runs the engine for one contact and prints the result as a card or JSON
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/db"
	"github.com/harperreed/pagen/insights"
	"github.com/harperreed/pagen/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	forceRefresh bool
	fetchOnly    bool
	jsonOutput   bool
	noteLimit    int
)

var insightsCmd = &cobra.Command{
	Use:   "insights <contact>",
	Short: "Classify a contact from their calendar and email history",
	Long: `Generate or refresh the lifecycle stage, tags and relationship note for a
contact. The contact may be given by id or primary email address.

The stored classification is reused until new history arrives; pass --force
to recompute anyway, or --fetch-only to read the stored result.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsEngine: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if forceRefresh && fetchOnly {
			return fmt.Errorf("--force and --fetch-only are mutually exclusive")
		}
		opts := insights.Options{ForceRefresh: forceRefresh, FetchOnly: fetchOnly}
		return runInsights(cmd.Context(), cmd.OutOrStdout(), current.engine, current.userID, args[0], opts, outputFormat(jsonOutput))
	},
}

var historyCmd = &cobra.Command{
	Use:         "history <contact>",
	Short:       "Show relationship notes recorded for a contact",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsEngine: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd.Context(), cmd.OutOrStdout(), current.db, current.userID, args[0], noteLimit)
	},
}

func init() {
	insightsCmd.Flags().BoolVarP(&forceRefresh, "force", "f", false, "recompute even without new history")
	insightsCmd.Flags().BoolVar(&fetchOnly, "fetch-only", false, "return the stored insight without recomputing")
	insightsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a card")

	historyCmd.Flags().IntVarP(&noteLimit, "limit", "n", 20, "maximum notes to show")
}

type format int

const (
	formatPlain format = iota
	formatCard
	formatJSON
)

// outputFormat picks JSON when asked, a styled card on a terminal, and plain
// text otherwise.
func outputFormat(asJSON bool) format {
	if asJSON {
		return formatJSON
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return formatCard
	}
	return formatPlain
}

func runInsights(ctx context.Context, w io.Writer, engine insightRunner, userID uuid.UUID, contact string, opts insights.Options, f format) error {
	insight := engine.GenerateContactInsights(ctx, userID, contact, opts)

	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(insight)
	case formatCard:
		_, err := fmt.Fprintln(w, renderCard(contact, insight))
		return err
	default:
		_, err := fmt.Fprint(w, renderPlain(contact, insight))
		return err
	}
}

type insightRunner interface {
	GenerateContactInsights(ctx context.Context, userID uuid.UUID, identifier string, opts insights.Options) models.Insight
}

func runHistory(ctx context.Context, w io.Writer, database *sql.DB, userID uuid.UUID, identifier string, limit int) error {
	contact, err := db.NewContactsRepository(database).Resolve(ctx, userID, identifier)
	if errors.Is(err, db.ErrContactNotFound) {
		return fmt.Errorf("contact not found: %s", identifier)
	}
	if err != nil {
		return err
	}

	notes, err := db.ListContactNotes(ctx, database, userID, contact.ID, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s <%s>  %s\n", contact.Name, contact.Email, contact.LifecycleStage)
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes found.")
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(w, "\n%s  [%s]\n%s\n", n.CreatedAt.Local().Format(time.DateTime), n.Source, n.Content)
	}
	return nil
}
