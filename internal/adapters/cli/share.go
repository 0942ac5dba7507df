package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
)

func newShareCmd(newApp AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Create and read share codes",
	}

	var copyLink bool

	session := &cobra.Command{
		Use:   "session [ref]",
		Short: "Share a whole session",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, args []string) error {
			s, err := resolveSession(app.Store, firstArg(args))
			if err != nil {
				return err
			}
			code, err := app.Codec.EncodeConversation(s)
			if err != nil {
				return err
			}
			return emitLink(app, out, code, copyLink)
		}),
	}

	var index int
	message := &cobra.Command{
		Use:   "message [ref]",
		Short: "Share a single message of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, args []string) error {
			s, err := resolveSession(app.Store, firstArg(args))
			if err != nil {
				return err
			}
			m, err := pickMessage(s, index)
			if err != nil {
				return err
			}
			code, err := app.Codec.EncodeMessage(m)
			if err != nil {
				return err
			}
			return emitLink(app, out, code, copyLink)
		}),
	}
	message.Flags().IntVarP(&index, "index", "i", 0, "1-based message position (default: last message)")

	decode := &cobra.Command{
		Use:   "decode <code-or-link>",
		Short: "Show what a share code contains",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, args []string) error {
			code := args[0]
			if c, ok := share.CodeFromLink(code); ok {
				code = c
			}
			env, ok := app.Codec.Decode(code)
			if !ok {
				return fmt.Errorf("invalid share code")
			}
			return printEnvelope(app, out, env)
		}),
	}

	link := &cobra.Command{
		Use:   "link <code>",
		Short: "Turn a share code into a link",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(newApp, func(_ context.Context, app *App, out io.Writer, args []string) error {
			if _, ok := app.Codec.Decode(args[0]); !ok {
				return fmt.Errorf("invalid share code")
			}
			return emitLink(app, out, args[0], copyLink)
		}),
	}

	cmd.PersistentFlags().BoolVarP(&copyLink, "copy", "c", false, "Copy the link to the clipboard")
	cmd.AddCommand(session, message, decode, link)
	return cmd
}

func emitLink(app *App, out io.Writer, code string, copyLink bool) error {
	link := share.BuildShareableLink(app.Config.PublicOrigin, code)
	fmt.Fprintln(out, link)
	if !copyLink {
		return nil
	}
	if err := app.Copy(link); err != nil {
		return fmt.Errorf("failed to copy link: %w", err)
	}
	fmt.Fprintln(out, dimStyle.Render("Copied to clipboard."))
	return nil
}

func pickMessage(s domain.ChatSession, index int) (domain.Message, error) {
	if len(s.Messages) == 0 {
		return domain.Message{}, fmt.Errorf("session %q has no messages", s.Title)
	}
	if index == 0 {
		return s.Messages[len(s.Messages)-1], nil
	}
	if index < 1 || index > len(s.Messages) {
		return domain.Message{}, fmt.Errorf("message index %d out of range 1..%d", index, len(s.Messages))
	}
	return s.Messages[index-1], nil
}

func printEnvelope(app *App, out io.Writer, env *share.Envelope) error {
	created := domain.FromTimestamp(env.CreatedAt)
	fmt.Fprintf(out, "%s v%s, shared %s\n", titleStyle.Render(string(env.Type)), env.Version,
		humanize.RelTime(created, app.Now(), "ago", "from now"))

	switch env.Type {
	case share.KindConversation:
		conv, err := env.Conversation()
		if err != nil {
			return err
		}
		printTranscript(out, domain.ChatSession{Title: conv.Title, Messages: conv.Messages})
	case share.KindFavorites:
		favs, err := env.Favorites()
		if err != nil {
			return err
		}
		for i, f := range favs {
			fmt.Fprintf(out, "%d. %s\n", i+1, f.MessageContent)
			meta := []string{f.Category}
			if len(f.Tags) > 0 {
				meta = append(meta, "#"+strings.Join(f.Tags, " #"))
			}
			if f.Note != "" {
				meta = append(meta, "note: "+f.Note)
			}
			fmt.Fprintf(out, "   %s\n", dimStyle.Render(strings.Join(meta, ", ")))
		}
	case share.KindTemplate:
		t, err := env.Template()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", t.Icon, t.Name)
		if t.Description != "" {
			fmt.Fprintln(out, t.Description)
		}
		for i, p := range t.StarterPrompts {
			fmt.Fprintf(out, "  %s %s\n", dimStyle.Render(strconv.Itoa(i+1)+"."), p)
		}
	}
	return nil
}
