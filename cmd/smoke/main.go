// Command smoke checks a running chatbot backend: health, knowledge base
// and a few chat prompts.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-resty/resty/v2"

	"chatbot/client"
	"chatbot/models"
)

var defaultPrompts = []string{
	"Tell me about SITCOE admissions",
	"What courses are available?",
	"How are the placements?",
}

type CLI struct {
	URL     string        `short:"u" default:"http://127.0.0.1:5000" help:"Backend base URL."`
	Retries int           `default:"3" help:"Health check attempts before giving up."`
	Delay   time.Duration `default:"1s" help:"Pause between chat prompts and health retries."`
	Prompts []string      `arg:"" optional:"" help:"Chat prompts to send instead of the defaults."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exited := -1
	parser, err := kong.New(&cli,
		kong.Name("smoke"),
		kong.Description("Smoke-test a running chatbot backend."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exited = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "smoke: %v\n", err)
		return 2
	}
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(stderr, "smoke: %v\n", err)
		return 2
	}
	if exited >= 0 {
		return exited
	}

	prompts := cli.Prompts
	if len(prompts) == 0 {
		prompts = defaultPrompts
	}

	p := &prober{
		http:  resty.New().SetBaseURL(cli.URL),
		out:   stdout,
		delay: cli.Delay,
	}

	fmt.Fprintln(stdout, "Testing SITCOE College Chatbot Backend")

	if err := p.health(cli.Retries); err != nil {
		fmt.Fprintf(stdout, "FAIL health: %v\n", err)
		fmt.Fprintln(stdout, "Cannot reach the backend. Is it running?")
		return 1
	}

	failed := 0
	if err := p.knowledge(); err != nil {
		fmt.Fprintf(stdout, "FAIL knowledge: %v\n", err)
		failed++
	}

	chat, err := client.New(client.Config{BaseURL: cli.URL})
	if err != nil {
		fmt.Fprintf(stderr, "smoke: %v\n", err)
		return 2
	}
	for i, prompt := range prompts {
		if i > 0 {
			time.Sleep(cli.Delay)
		}
		if !p.chat(chat, i+1, prompt) {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(stdout, "%d check(s) failed\n", failed)
		return 1
	}
	fmt.Fprintln(stdout, "All checks passed")
	return 0
}

type prober struct {
	http  *resty.Client
	out   io.Writer
	delay time.Duration
}

func (p *prober) health(attempts int) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(p.delay)
		}

		var body models.HealthResponse
		resp, err := p.http.R().SetResult(&body).Get("/health")
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode() != http.StatusOK:
			lastErr = fmt.Errorf("status %d", resp.StatusCode())
		default:
			fmt.Fprintf(p.out, "OK   health: %s (%s) at %s\n", body.Status, body.Service, body.Timestamp)
			return nil
		}
		fmt.Fprintf(p.out, "...  health attempt %d failed: %v\n", i+1, lastErr)
	}
	return lastErr
}

func (p *prober) knowledge() error {
	var body models.KnowledgeResponse
	resp, err := p.http.R().SetResult(&body).Get("/knowledge")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode())
	}

	categories := make([]string, 0, len(body.KnowledgeBase))
	for c := range body.KnowledgeBase {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	fmt.Fprintf(p.out, "OK   knowledge: categories %v, last updated %s\n", categories, body.LastUpdated)
	return nil
}

func (p *prober) chat(chat *client.ChatClient, n int, prompt string) bool {
	if err := chat.Submit(context.Background(), prompt); err != nil {
		fmt.Fprintf(p.out, "FAIL chat %d %q: %s\n", n, prompt, chat.Snapshot().LastError)
		return false
	}

	reply := chat.Snapshot().Reply()
	if r := []rune(reply); len(r) > 100 {
		reply = string(r[:100]) + "..."
	}
	fmt.Fprintf(p.out, "OK   chat %d %q: %s\n", n, prompt, reply)
	return true
}
