package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/logging"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to stressdost.db")
	session := flag.String("session", "", "limit output to one session")
	last := flag.Int("last", 20, "show N most recent rows")
	version := flag.String("version", "", "show single version detail")
	responses := flag.Bool("responses", false, "list logged trigger responses instead of vector versions")
	rollback := flag.String("rollback", "", "point --session back at this version")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" || (*rollback != "" && *session == "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/stressdost.db [--session id] [--last N] [--version id] [--responses] [--rollback id] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *rollback != "":
		err = runRollback(store, *session, *rollback)
	case *version != "":
		err = runDetailMode(store, *version, *jsonOut)
	case *responses:
		err = runResponseMode(store, *session, *last, *jsonOut)
	default:
		err = runListMode(store, *session, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID   string   `json:"version_id"`
	SessionID   string   `json:"session_id"`
	TriggerType string   `json:"trigger_type"`
	Decision    string   `json:"decision"`
	Reason      string   `json:"reason,omitempty"`
	Dominant    []string `json:"dominant"`
	CreatedAt   string   `json:"created_at"`
}

func runListMode(store *state.Store, sessionID string, last int, jsonOut bool) error {
	versions, err := store.ListVersions(sessionID, last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}

	// Store returns newest first; print chronologically.
	rows := make([]listRow, len(versions))
	for i, vp := range versions {
		rows[len(versions)-1-i] = listRow{
			VersionID:   vp.VersionID,
			SessionID:   vp.SessionID,
			TriggerType: vp.TriggerType,
			Decision:    vp.Decision,
			Reason:      vp.Reason,
			Dominant:    dominant(vp.Vector, 3),
			CreatedAt:   vp.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %-12s  %-8s  %-48s  %s\n", "Version", "Session", "Trigger", "Decision", "Dominant", "Time")
	fmt.Printf("%-10s+-%-10s+-%-12s+-%-8s+-%-48s+-%s\n",
		"----------", "----------", "------------", "--------", "------------------------------------------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-10s  %-12s  %-8s  %-48s  %s\n",
			shortID(r.VersionID), shortID(r.SessionID), orDash(r.TriggerType), orDash(r.Decision),
			strings.Join(r.Dominant, ", "), r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	VersionID string                `json:"version_id"`
	ParentID  string                `json:"parent_id"`
	SessionID string                `json:"session_id"`
	CreatedAt string                `json:"created_at"`
	Vector    personality.Vector    `json:"vector"`
	Traits    []string              `json:"traits"`
	Update    *logging.UpdateRecord `json:"update,omitempty"`
}

func runDetailMode(store *state.Store, versionID string, jsonOut bool) error {
	rec, err := store.GetVersion(versionID)
	if err != nil {
		return err
	}
	out := detailOutput{
		VersionID: rec.VersionID,
		ParentID:  rec.ParentID,
		SessionID: rec.SessionID,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Vector:    rec.Vector,
		Traits:    rec.Traits,
		Update:    parseUpdateRecord(rec.MetricsJSON),
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Version:  %s\n", out.VersionID)
	fmt.Printf("Parent:   %s\n", orDash(out.ParentID))
	fmt.Printf("Session:  %s\n", out.SessionID)
	fmt.Printf("Created:  %s\n", out.CreatedAt)
	fmt.Printf("Traits:   %s\n", strings.Join(out.Traits, ", "))

	fmt.Printf("\nPersonality vector:\n")
	for _, d := range rec.Vector.Present() {
		x := rec.Vector.Get(d)
		fmt.Printf("  %-24s %.3f  %s\n", d, x, personality.TierOf(x))
	}

	if out.Update != nil {
		fmt.Printf("\nUpdate:\n")
		fmt.Printf("  Window:      %d\n", out.Update.Window)
		fmt.Printf("  Accuracy:    %.2f\n", out.Update.Accuracy)
		fmt.Printf("  Avg Time:    %.2fs\n", out.Update.AvgResponseTime)
		fmt.Printf("  Delta Norm:  %.4f\n", out.Update.DeltaNorm)
		for dim, delta := range out.Update.Adjustments {
			fmt.Printf("  %-24s %+.3f\n", dim, delta)
		}
	}
	return nil
}

func parseUpdateRecord(metricsJSON string) *logging.UpdateRecord {
	if metricsJSON == "" {
		return nil
	}
	var rec logging.UpdateRecord
	if err := json.Unmarshal([]byte(metricsJSON), &rec); err != nil || rec.Decision == "" {
		return nil
	}
	return &rec
}

// #endregion detail-mode

// #region rollback

func runRollback(store *state.Store, sessionID, versionID string) error {
	if err := store.Rollback(sessionID, versionID); err != nil {
		return err
	}
	err := logging.LogDecision(store.DB(), logging.ProvenanceEntry{
		VersionID:   versionID,
		SessionID:   sessionID,
		TriggerType: "rollback",
		Decision:    "commit",
		Reason:      "manual rollback",
	})
	if err != nil {
		return err
	}
	fmt.Printf("session %s now at version %s\n", shortID(sessionID), shortID(versionID))
	return nil
}

// #endregion rollback

// #region response-mode

func runResponseMode(store *state.Store, sessionID string, last int, jsonOut bool) error {
	rows, err := logging.NewSQLiteSink(store.DB()).Recent(context.Background(), sessionID, last)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no responses found")
		return nil
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %3s  %-12s  %-6s  %6s  %-7s  %-17s  %s\n",
		"Session", "Q", "Type", "Option", "Time", "Correct", "Fear/Thought/Frust", "Trigger")
	fmt.Printf("%-10s+-%3s+-%-12s+-%-6s+-%6s+-%-7s+-%-17s+-%s\n",
		"----------", "---", "------------", "------", "------", "-------", "-----------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %3d  %-12s  %-6s  %6.2f  %-7v  %.2f/%.2f/%.2f    %s\n",
			shortID(r.SessionID), r.QuestionIndex, r.TriggerType, orDash(r.SelectedOption), r.TimeTaken, r.Correct,
			r.FearMeter, r.ThoughtMeter, r.FrustrationMeter, truncate(r.TriggerText, 60))
	}
	return nil
}

// #endregion response-mode

// #region output

func dominant(v personality.Vector, n int) []string {
	dims := v.Dominant(n)
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = fmt.Sprintf("%s=%.2f", d, v.Get(d))
	}
	return out
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion output
