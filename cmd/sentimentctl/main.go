// Command sentimentctl queries the sentiment API from a terminal and prints
// the same ranked and shaped views the dashboard serves.
//
// Usage:
//
//	sentimentctl [-url http://localhost:8000] <command> [flags]
//
// Commands:
//
//	dashboard                      ranked bullish and bearish boards
//	stock <TICKER>                 current sentiment, history and mentions
//	history <TICKER> [-days N]     daily sentiment, oldest first
//	mentions <TICKER> [-limit N]   recent mentions, newest first
//	scrape reddit|news             trigger a scrape
//	aggregate                      trigger aggregation
//	health                         upstream liveness
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sentiment-dashboard/config"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/models"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"
)

var errUsage = errors.New("usage: sentimentctl [-url URL] dashboard|stock|history|mentions|scrape|aggregate|health")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) || errors.Is(err, services.ErrInvalidArgument) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	global := flag.NewFlagSet("sentimentctl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	baseURL := global.String("url", cfg.SentimentAPI.BaseURL, "sentiment API base URL")
	verbose := global.Bool("v", false, "log upstream requests to stderr")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg.SentimentAPI.BaseURL = *baseURL

	level := observability.ParseLevel("error")
	if *verbose {
		level = observability.ParseLevel("debug")
	}
	observability.InitLoggerWithWriter(os.Stderr, false, level)

	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	a := app.New(cfg, app.NewGateway(cfg, nil), nil)
	defer a.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "dashboard":
		view, err := a.LoadDashboard(ctx)
		if err != nil {
			return err
		}
		printDashboard(out, view)

	case "stock":
		ticker, err := tickerArg(cmdArgs)
		if err != nil {
			return err
		}
		view, err := a.LoadStockDetail(ctx, ticker)
		if err != nil {
			return err
		}
		printStock(out, view)

	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		days := fs.Int("days", cfg.SentimentAPI.HistoryDays, "days of history")
		ticker, err := parseTickerCommand(fs, cmdArgs)
		if err != nil {
			return err
		}
		view, err := a.LoadHistory(ctx, ticker, *days)
		if err != nil {
			return err
		}
		printHistory(out, view)

	case "mentions":
		fs := flag.NewFlagSet("mentions", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		limit := fs.Int("limit", cfg.SentimentAPI.MentionsLimit, "number of mentions")
		ticker, err := parseTickerCommand(fs, cmdArgs)
		if err != nil {
			return err
		}
		view, err := a.LoadMentions(ctx, ticker, *limit)
		if err != nil {
			return err
		}
		printMentions(out, view.Mentions)

	case "scrape":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: scrape reddit|news", errUsage)
		}
		var ack *models.ScrapeAck
		switch cmdArgs[0] {
		case "reddit":
			ack, err = a.RefreshReddit(ctx)
		case "news":
			ack, err = a.RefreshNews(ctx)
		default:
			return fmt.Errorf("%w: unknown scrape source %q", errUsage, cmdArgs[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%d found)\n", ack.Message, ack.TotalFound)

	case "aggregate":
		ack, err := a.RefreshAggregate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d stocks processed, %d bullish, %d bearish\n",
			ack.Message, ack.StocksProcessed, ack.BullishStocks, ack.BearishStocks)

	case "health":
		h := a.Health(ctx)
		fmt.Fprintf(out, "status: %s\nupstream: %s\n", h.Status, upDown(h.Upstream))
		if !h.Upstream {
			return errors.New("sentiment API is not healthy")
		}

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func tickerArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected exactly one ticker", services.ErrInvalidArgument)
	}
	return services.NormalizeTicker(args[0])
}

// parseTickerCommand accepts flags before or after the ticker.
func parseTickerCommand(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		if err := fs.Parse(args[1:]); err != nil {
			return "", fmt.Errorf("%w: %v", errUsage, err)
		}
		return tickerArg(append([]string{args[0]}, fs.Args()...))
	}
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	return tickerArg(fs.Args())
}

func upDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}
