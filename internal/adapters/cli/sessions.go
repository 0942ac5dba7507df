package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

func newSessionsCmd(newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"s"},
		Short:   "Manage stored chat sessions",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, _ []string) error {
			printSessions(out, app.Store.Sessions(), app.Store.CurrentSessionID(), app.Now(), all)
			return nil
		}),
	}
	list.Flags().BoolVarP(&all, "all", "a", false, "Include archived sessions")

	show := &cobra.Command{
		Use:   "show [ref]",
		Short: "Print a session transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, args []string) error {
			s, err := resolveSession(app.Store, firstArg(args))
			if err != nil {
				return err
			}
			printTranscript(out, s)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <ref>...",
		Short: "Delete one or more sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, args []string) error {
			ids, err := resolveAll(app, args)
			if err != nil {
				return err
			}
			app.Store.BulkDeleteSessions(ctx, ids)
			fmt.Fprintf(out, "Deleted %d session(s)\n", len(ids))
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <ref> <title>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, args []string) error {
			s, err := resolveSession(app.Store, args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			app.Store.UpdateSession(ctx, s.ID, domain.SessionPatch{Title: &title})
			fmt.Fprintf(out, "Renamed %s to %q\n", s.ID, title)
			return nil
		}),
	}

	archive := archiveCmd(newApp, "archive", true)
	unarchive := archiveCmd(newApp, "unarchive", false)

	var folder string
	var clearFolder bool
	move := &cobra.Command{
		Use:   "move <ref>...",
		Short: "Put sessions in a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, args []string) error {
			if folder == "" && !clearFolder {
				return fmt.Errorf("either --folder or --clear is required")
			}
			ids, err := resolveAll(app, args)
			if err != nil {
				return err
			}
			patch := domain.SessionPatch{ClearFolder: clearFolder}
			if !clearFolder {
				patch.FolderID = &folder
			}
			app.Store.BulkUpdateSessions(ctx, ids, patch)
			fmt.Fprintf(out, "Moved %d session(s)\n", len(ids))
			return nil
		}),
	}
	move.Flags().StringVar(&folder, "folder", "", "Folder id")
	move.Flags().BoolVar(&clearFolder, "clear", false, "Remove sessions from their folder")

	tag := &cobra.Command{
		Use:   "tag <ref> [tag]...",
		Short: "Replace the tags of a session; no tags clears them",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, args []string) error {
			s, err := resolveSession(app.Store, args[0])
			if err != nil {
				return err
			}
			tags := args[1:]
			app.Store.UpdateSession(ctx, s.ID, domain.SessionPatch{Tags: tags, SetTags: true})
			if len(tags) == 0 {
				fmt.Fprintf(out, "Cleared tags of %s\n", s.ID)
			} else {
				fmt.Fprintf(out, "Tagged %s with #%s\n", s.ID, strings.Join(tags, " #"))
			}
			return nil
		}),
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every session",
		Args:  cobra.NoArgs,
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all sessions without --yes")
			}
			app.Store.ClearAllSessions(ctx)
			fmt.Fprintln(out, "All sessions cleared")
			return nil
		}),
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")

	cmd.AddCommand(list, show, del, rename, archive, unarchive, move, tag, clearCmd)
	return cmd
}

func archiveCmd(newApp AppFactory, use string, archived bool) *cobra.Command {
	verb := "Archived"
	if !archived {
		verb = "Unarchived"
	}
	return &cobra.Command{
		Use:   use + " <ref>...",
		Short: strings.ToUpper(use[:1]) + use[1:] + " sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(newApp, func(ctx context.Context, app *App, out io.Writer, args []string) error {
			ids, err := resolveAll(app, args)
			if err != nil {
				return err
			}
			app.Store.BulkUpdateSessions(ctx, ids, domain.SessionPatch{Archived: &archived})
			fmt.Fprintf(out, "%s %d session(s)\n", verb, len(ids))
			return nil
		}),
	}
}

// resolveAll resolves every ref up front so a typo deletes nothing.
func resolveAll(app *App, refs []string) ([]domain.SessionID, error) {
	ids := make([]domain.SessionID, 0, len(refs))
	for _, ref := range refs {
		s, err := resolveSession(app.Store, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
