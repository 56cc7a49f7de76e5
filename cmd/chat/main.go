// Command chat is a terminal front end for the college chatbot backend.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"chatbot/client"
	"chatbot/config"
	"chatbot/models"
)

type CLI struct {
	URL     string         `short:"u" help:"Backend base URL. Overrides CHAT_BACKEND_URL."`
	Mode    string         `short:"m" help:"Display mode: transcript or single-reply. Overrides CHAT_DISPLAY_MODE."`
	Timeout *time.Duration `short:"t" help:"Per-exchange timeout such as 30s, 0 for none. Overrides CHAT_TIMEOUT."`
	Message []string       `arg:"" optional:"" help:"Send one message, print the reply and exit."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	exited := -1
	parser, err := kong.New(&cli,
		kong.Name("chat"),
		kong.Description("Ask the SITCOE college chatbot about admissions, courses, fees, placements and more."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exited = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "chat: %v\n", err)
		return 2
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "chat: %v\n", err)
		return 2
	}
	if exited >= 0 {
		// --help
		return exited
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(stderr, "chat: config: %v\n", err)
		return 2
	}
	if cli.URL != "" {
		cfg.BackendURL = cli.URL
	}
	if cli.Mode != "" {
		cfg.DisplayMode = cli.Mode
	}
	if cli.Timeout != nil {
		if *cli.Timeout < 0 {
			fmt.Fprintf(stderr, "chat: timeout must not be negative, got %s\n", *cli.Timeout)
			return 2
		}
		cfg.Timeout = *cli.Timeout
	}

	mode, err := client.ParseDisplayMode(cfg.DisplayMode)
	if err != nil {
		fmt.Fprintf(stderr, "chat: %v\n", err)
		return 2
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "chat: logger: %v\n", err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	ui := &terminal{out: stdout}
	chat, err := client.New(client.Config{
		BaseURL:     cfg.BackendURL,
		DisplayMode: mode,
		Timeout:     cfg.Timeout,
		Logger:      logger.Sugar(),
		OnChange:    ui.onChange,
	})
	if err != nil {
		fmt.Fprintf(stderr, "chat: %v\n", err)
		return 2
	}

	ctx := context.Background()
	if len(cli.Message) > 0 {
		if err := ui.send(ctx, chat, strings.Join(cli.Message, " ")); err != nil {
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "SITCOE College Chatbot (backend: %s)\n", cfg.BackendURL)
	fmt.Fprintln(stdout, "Ask me about admissions, courses, fees, placements, and more. /history shows the transcript, /quit exits.")

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			break
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return 0
		case "/history":
			ui.printHistory(chat.Snapshot())
			continue
		}
		chat.SetInput(line)
		_ = ui.send(ctx, chat, line)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "chat: read input: %v\n", err)
		return 1
	}
	return 0
}

// terminal renders client state changes as plain text.
type terminal struct {
	out     io.Writer
	loading bool
}

func (t *terminal) onChange(s client.State) {
	if s.IsLoading && !t.loading {
		fmt.Fprintln(t.out, "Sending...")
	}
	t.loading = s.IsLoading
}

func (t *terminal) send(ctx context.Context, chat *client.ChatClient, text string) error {
	err := chat.Submit(ctx, text)
	if errors.Is(err, client.ErrBlankInput) || errors.Is(err, client.ErrInFlight) {
		return nil
	}

	state := chat.Snapshot()
	if err != nil {
		fmt.Fprintf(t.out, "error: %s\n", state.LastError)
		return err
	}
	fmt.Fprintf(t.out, "bot: %s\n", state.Reply())
	return nil
}

func (t *terminal) printHistory(s client.State) {
	if len(s.History) == 0 {
		fmt.Fprintln(t.out, "(no messages yet)")
		return
	}
	for _, m := range s.History {
		who := "you"
		if m.Role == models.RoleAssistant {
			who = "bot"
		}
		fmt.Fprintf(t.out, "[%s] %s: %s\n", m.Timestamp, who, m.Content)
	}
}
