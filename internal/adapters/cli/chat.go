package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

const chatHelp = `Commands:
  /new              start a new session
  /list             list sessions
  /switch <ref>     switch to a session (number or id)
  /delete [ref]     delete a session (default: current)
  /rename <title>   rename the current session
  /archive          archive the current session
  /share            print a share link for the current session
  /history          print the current session
  /quit             leave`

func newChatCmd(newApp AppFactory) *cobra.Command {
	var sessionRef string
	var startNew bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx := cmd.Context()
			if startNew {
				app.Store.CreateSession(ctx)
			} else if sessionRef != "" {
				s, err := resolveSession(app.Store, sessionRef)
				if err != nil {
					return err
				}
				app.Store.SwitchSession(ctx, s.ID)
			}

			r := &repl{app: app, in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			return r.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&sessionRef, "session", "s", "", "Session to resume (number or id)")
	cmd.Flags().BoolVarP(&startNew, "new", "n", false, "Start in a new session")
	return cmd
}

type repl struct {
	app *App
	in  io.Reader
	out io.Writer
}

func (r *repl) run(ctx context.Context) error {
	if cur, ok := r.app.Store.CurrentSession(); ok {
		printTranscript(r.out, cur)
	}
	fmt.Fprintln(r.out, dimStyle.Render("Type /help for commands."))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.out, userStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				printError(r.out, err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		r.send(ctx, line)
	}
}

func (r *repl) send(ctx context.Context, text string) {
	target := r.app.Store.CurrentSessionID()
	r.app.Store.SendUserMessage(ctx, text, r.app.Settings())

	if msg := r.app.Store.Err(); msg != "" {
		printError(r.out, msg)
		return
	}
	s, ok := r.app.Store.Session(target)
	if !ok || len(s.Messages) == 0 {
		return
	}
	if last := s.Messages[len(s.Messages)-1]; last.Role == domain.RoleAssistant {
		printMessage(r.out, last)
	}
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	store := r.app.Store

	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		id := store.CreateSession(ctx)
		fmt.Fprintf(r.out, "Started session %s\n", id)
	case "/list":
		printSessions(r.out, store.Sessions(), store.CurrentSessionID(), r.app.Now(), true)
	case "/switch":
		if arg == "" {
			return false, fmt.Errorf("usage: /switch <ref>")
		}
		s, err := resolveSession(store, arg)
		if err != nil {
			return false, err
		}
		store.SwitchSession(ctx, s.ID)
		printTranscript(r.out, s)
	case "/delete":
		s, err := resolveSession(store, arg)
		if err != nil {
			return false, err
		}
		store.DeleteSession(ctx, s.ID)
		fmt.Fprintf(r.out, "Deleted %q\n", s.Title)
	case "/rename":
		if arg == "" {
			return false, fmt.Errorf("usage: /rename <title>")
		}
		store.UpdateSession(ctx, store.CurrentSessionID(), domain.SessionPatch{Title: &arg})
		fmt.Fprintf(r.out, "Renamed to %q\n", arg)
	case "/archive":
		archived := true
		store.UpdateSession(ctx, store.CurrentSessionID(), domain.SessionPatch{Archived: &archived})
		fmt.Fprintln(r.out, "Archived current session")
	case "/history":
		s, err := resolveSession(store, "")
		if err != nil {
			return false, err
		}
		printTranscript(r.out, s)
	case "/share":
		s, err := resolveSession(store, "")
		if err != nil {
			return false, err
		}
		code, err := r.app.Codec.EncodeConversation(s)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, share.BuildShareableLink(r.app.Config.PublicOrigin, code))
	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}
