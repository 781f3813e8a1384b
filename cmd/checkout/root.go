package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/mindcare/checkout-api/internal/checkout"
	"github.com/mindcare/checkout-api/internal/obs"
	"github.com/mindcare/checkout-api/internal/trigger"
)

const elementID = "cli-purchase"

type options struct {
	server   string
	pageURL  string
	price    string
	mode     string
	label    string
	devPort  int
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "checkout",
		Short:         "Start a hosted checkout session the way the site's purchase buttons do",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "", "checkout API origin (derived from --page when empty)")
	flags.StringVar(&opts.pageURL, "page", "http://localhost:5500/pricing.html", "URL of the page the purchase button lives on")
	flags.StringVar(&opts.price, "price", "", "gateway price reference")
	flags.StringVar(&opts.mode, "mode", string(checkout.ModePayment), "payment or subscription")
	flags.StringVar(&opts.label, "label", "Buy now", "button label")
	flags.IntVar(&opts.devPort, "dev-port", trigger.DefaultDevPort, "API port used when the page is served locally")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall request timeout")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	page, err := url.Parse(opts.pageURL)
	if err != nil {
		return fmt.Errorf("parse --page: %w", err)
	}

	reg := trigger.NewRegistry()
	reg.Register(elementID, trigger.Intent{PriceReference: opts.price, Mode: checkout.Mode(opts.mode)})

	console := &consolePage{out: stdout}
	handler := &trigger.Handler{
		Registry:     reg,
		ServerOrigin: trigger.ResolveServerOrigin(opts.server, page, opts.devPort),
		Page:         console,
		HTTPClient:   trigger.NewHTTPClient(),
		Logger:       obs.NewLoggerTo(stderr, "console", opts.logLevel),
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	el := &consoleElement{id: elementID, label: opts.label, out: stdout}
	outcome, err := handler.Activate(ctx, el)
	switch outcome {
	case trigger.OutcomeRedirected:
		return nil
	case trigger.OutcomeAborted:
		return errors.New("no price reference configured; pass --price")
	case trigger.OutcomeFailed:
		return fmt.Errorf("checkout failed: %w", err)
	}
	return fmt.Errorf("activation %s", outcome)
}

type consoleElement struct {
	id    string
	label string
	out   io.Writer
}

func (e *consoleElement) ID() string    { return e.id }
func (e *consoleElement) Label() string { return e.label }

func (e *consoleElement) SetLabel(label string) {
	e.label = label
	fmt.Fprintf(e.out, "[button] %s\n", label)
}

func (e *consoleElement) SetDisabled(disabled bool) {
	state := "enabled"
	if disabled {
		state = "disabled"
	}
	fmt.Fprintf(e.out, "[button] %s\n", state)
}

type consolePage struct {
	out io.Writer
}

func (p *consolePage) Navigate(target string) {
	fmt.Fprintf(p.out, "redirect: %s\n", target)
}

func (p *consolePage) Notify(message string) {
	fmt.Fprintf(p.out, "alert: %s\n", message)
}

