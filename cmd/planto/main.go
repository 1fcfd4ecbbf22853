package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/utafrali/Planto/internal/client"
	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/pkg/logger"
	"github.com/utafrali/Planto/pkg/pagination"
)

func main() {
	apiURL := flag.String("api", envOr("PLANTO_API_URL", "http://localhost:4000"), "base URL of the Planto API")
	timeout := flag.Duration("timeout", 15*time.Second, "overall request budget")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logger.New("planto-cli", *logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	c := client.NewDefault(*apiURL, log)
	if !printHome(ctx, os.Stdout, c) {
		os.Exit(1)
	}
}

// printHome renders the home page sections in order. It returns false when a
// section failed; an interrupted run stops quietly.
func printHome(ctx context.Context, w io.Writer, c *client.CatalogClient) bool {
	ok := true
	section := func(title string, render func() (loaded bool, err error)) {
		if ctx.Err() != nil {
			return
		}
		loaded, err := render()
		switch {
		case err != nil:
			ok = false
			fmt.Fprintf(w, "%s: failed to load (%v)\n\n", title, err)
		case loaded:
			fmt.Fprintln(w)
		}
	}

	section("Featured", func() (bool, error) {
		res := client.Load(ctx, func(ctx context.Context) ([]domain.Plant, error) { return c.Featured(ctx, 0) })
		printPlants(w, "Featured", res)
		return res.Loaded, res.Err
	})
	section("Trendy", func() (bool, error) {
		res := client.Load(ctx, func(ctx context.Context) ([]domain.Plant, error) { return c.Trendy(ctx, 0) })
		printPlants(w, "Trendy", res)
		return res.Loaded, res.Err
	})
	section("Top selling", func() (bool, error) {
		res := client.Load(ctx, func(ctx context.Context) (pagination.Page[domain.Plant], error) {
			return c.ListPlants(ctx, 1, 3, "")
		})
		if res.Loaded {
			printPlants(w, fmt.Sprintf("Top selling (%d of %d)", len(res.Data.Items), res.Data.Total),
				client.Result[[]domain.Plant]{Data: res.Data.Items, Loaded: true})
		}
		return res.Loaded, res.Err
	})
	section("What customers say", func() (bool, error) {
		res := client.Load(ctx, func(ctx context.Context) ([]domain.Review, error) { return c.HighlightedReviews(ctx, 0) })
		printReviews(w, "What customers say", res)
		return res.Loaded, res.Err
	})
	section("Latest reviews", func() (bool, error) {
		res := client.Load(ctx, func(ctx context.Context) ([]domain.Review, error) { return c.Reviews(ctx, 0) })
		printReviews(w, "Latest reviews", res)
		return res.Loaded, res.Err
	})

	return ok
}

func printPlants(w io.Writer, title string, res client.Result[[]domain.Plant]) {
	if !res.Loaded {
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	if len(res.Data) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range res.Data {
		price := "-"
		if p.Price != nil {
			price = fmt.Sprintf("$%.2f", *p.Price)
		}
		fmt.Fprintf(w, "  %-24s %-8s %s\n", p.Name, price, stars(p.Rating))
	}
}

func printReviews(w io.Writer, title string, res client.Result[[]domain.Review]) {
	if !res.Loaded {
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	if len(res.Data) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range res.Data {
		fmt.Fprintf(w, "  %s %s\n    %s\n", r.UserName, stars(r.Rating), r.Text)
	}
}

func stars(rating float64) string {
	n := min(max(int(rating+0.5), 0), 5)
	return strings.Repeat("*", n) + strings.Repeat(".", 5-n)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
