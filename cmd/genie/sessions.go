package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/gesturegenie/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage recorded sessions",
	Long:  `List, inspect, and remove the play sessions recorded by genie serve.`,
}

var sessionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storeFor(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := st.Sessions().List(limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tBUTTONS\tSTARTED\tDURATION\tNOTES")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\n",
				s.ID, s.Source, s.NumButtons, s.StartedAt.Local().Format(time.DateTime), duration(s), s.NoteCount)
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session and its note events as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storeFor(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := st.Sessions().GetByID(args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("session %q not found", args[0])
		}
		if err != nil {
			return err
		}
		events, err := st.Events().ListBySession(sess.ID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*store.Session
			Events []store.NoteEvent `json:"events"`
		}{sess, events})
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storeFor(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		var failed bool
		for _, id := range args {
			if err := st.Sessions().Delete(id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed = true
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		if failed {
			return errors.New("some sessions were not removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsLsCmd, sessionsShowCmd, sessionsRmCmd)

	sessionsLsCmd.Flags().IntP("limit", "n", 20, "Maximum number of sessions to list")
}

func storeFor(cmd *cobra.Command) (*store.Store, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func duration(s *store.Session) string {
	if s.EndedAt == nil {
		return "active"
	}
	return s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
}
