// DocsBot chat CLI - a terminal driver for the widget conversation engine,
// pointed at a live bot or the local stub backend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/uglyrobot/docsbot-widget-core/internal/api"
	"github.com/uglyrobot/docsbot-widget-core/internal/config"
	"github.com/uglyrobot/docsbot-widget-core/internal/escalation"
	"github.com/uglyrobot/docsbot-widget-core/internal/models"
	"github.com/uglyrobot/docsbot-widget-core/internal/visibility"
	"github.com/uglyrobot/docsbot-widget-core/internal/widget"
)

// termWindow stands in for a browser popup window.
type termWindow struct{}

func (termWindow) Navigate(url string) error {
	fmt.Printf("[browser] opening %s\n", url)
	return nil
}

func (termWindow) Close() error {
	fmt.Println("[browser] popup closed")
	return nil
}

// termOpener reserves "popup windows" on the terminal.
type termOpener struct{}

func (termOpener) OpenBlank() (escalation.Window, error) {
	fmt.Println("[browser] popup window reserved")
	return termWindow{}, nil
}

// termClipboard supports plain text writes only, so the copy chain exercises
// its second tier.
type termClipboard struct{}

func (termClipboard) WriteText(text string) error {
	fmt.Printf("[clipboard] copied %d characters\n", len(text))
	return nil
}

// termViewport absorbs the scroll/focus nudges.
type termViewport struct{}

func (termViewport) ScrollToBottom() {}
func (termViewport) FocusInput()     {}

func main() {
	cfg := config.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	engine := widget.New(cfg, widget.Options{
		Backend:         api.NewClient(cfg),
		WindowOpener:    termOpener{},
		ClipboardDevice: termClipboard{},
		Viewport:        termViewport{},
		Identity: func() map[string]string {
			return map[string]string{"client": "cli"}
		},
		Logger: logger,
	})
	defer engine.Close()

	fmt.Printf("bot: %s\n", cfg.Labels.FirstMessage)
	fmt.Println("Commands: /rate up|down, /support, /copy, /reset, /quit")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return

		case line == "/rate up" || line == "/rate down":
			msg, ok := lastAnswer(engine)
			if !ok {
				fmt.Println("Nothing to rate yet.")
				continue
			}
			value := 1
			if line == "/rate down" {
				value = -1
			}
			engine.Rate(ctx, msg.ID, value)
			fmt.Println("Thanks for the feedback!")

		case line == "/support":
			msg, ok := lastAnswer(engine)
			if !ok {
				msgs := engine.Store().Messages()
				if len(msgs) == 0 {
					continue
				}
				msg = msgs[len(msgs)-1]
			}
			engine.RequestSupport(ctx, msg.ID, true)
			promptLead(ctx, scanner, engine)

		case line == "/copy":
			msg, ok := lastAnswer(engine)
			if !ok {
				fmt.Println("Nothing to copy yet.")
				continue
			}
			if !engine.Copy(msg.ID, "") {
				fmt.Println("Copy failed.")
			}

		case line == "/reset":
			engine.Reset()
			fmt.Printf("bot: %s\n", cfg.Labels.FirstMessage)

		default:
			engine.Ask(ctx, line)
			printAnswer(engine, cfg)
		}
	}
}

// promptLead walks the user through a pending lead form, if any.
func promptLead(ctx context.Context, scanner *bufio.Scanner, engine *widget.Engine) {
	if !engine.LeadPending() {
		return
	}
	fields := engine.LeadFields()
	if len(fields) == 0 {
		return
	}
	values := make(map[string]string, len(fields))
	for {
		for _, f := range fields {
			if f.IsPrefilled {
				continue
			}
			label := f.Label
			if label == "" {
				label = f.Key
			}
			fmt.Printf("%s: ", label)
			if !scanner.Scan() {
				_ = engine.CancelLead()
				return
			}
			values[f.Key] = strings.TrimSpace(scanner.Text())
		}
		err := engine.SubmitLead(ctx, values)
		if err == nil {
			return
		}
		fmt.Printf("Invalid input (%v), try again or press Ctrl-D to cancel.\n", err)
	}
}

// lastAnswer finds the most recent bot answer with an answer id.
func lastAnswer(engine *widget.Engine) (models.Message, bool) {
	msgs := engine.Store().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Variant == models.VariantBot && msgs[i].AnswerID != "" {
			return msgs[i], true
		}
	}
	return models.Message{}, false
}

// printAnswer renders the latest bot turn with its visible sources.
func printAnswer(engine *widget.Engine, cfg *config.Config) {
	msgs := engine.Store().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Variant != models.VariantBot {
			continue
		}
		m := msgs[i]
		if m.Error != "" {
			fmt.Printf("bot: %s\n", m.Content)
			return
		}
		fmt.Printf("bot: %s\n", m.Content)
		if visibility.HasVisibleSources(m, cfg.HideAllSources, cfg.HiddenSourceTypes) {
			fmt.Println("Sources:")
			for _, src := range m.Sources {
				if src.URL != "" {
					fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
				} else {
					fmt.Printf("  - %s\n", src.Title)
				}
			}
		}
		if visibility.ShouldShowCopyButton(msgs, i, cfg) {
			fmt.Println("(/copy to copy this answer)")
		}
		return
	}
}
