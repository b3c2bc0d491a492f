package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/series"
	"sentiment-dashboard/trending"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printDashboard(out io.Writer, view *app.DashboardView) {
	if view.Stale {
		fmt.Fprintf(out, "WARNING: %s\n\n", view.Warning)
	}
	if !view.LastUpdated.IsZero() {
		fmt.Fprintf(out, "Last updated: %s\n\n", view.LastUpdated.Format("2006-01-02 15:04 MST"))
	}
	printBoard(out, "Top Bullish", view.Bullish)
	fmt.Fprintln(out)
	printBoard(out, "Top Bearish", view.Bearish)
}

func printBoard(out io.Writer, title string, entries []trending.Entry) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(entries))
	if len(entries) == 0 {
		fmt.Fprintln(out, "  no stocks")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "#\tTICKER\tSCORE\tINDEX\tMENTIONS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Rank, e.Stock.Ticker, e.ScoreText, e.SentimentText, e.MentionsText)
	}
	tw.Flush()
}

func printStock(out io.Writer, view *app.StockView) {
	fmt.Fprintf(out, "%s  %s\n\n", view.Ticker, view.Headline)

	tw := newTable(out)
	fmt.Fprintf(tw, "Sentiment index\t%s\n", view.Stats.SentimentIndex)
	fmt.Fprintf(tw, "Mentions\t%d\n", view.Stats.MentionsCount)
	fmt.Fprintf(tw, "Positive / Negative / Neutral\t%d / %d / %d\n",
		view.Stats.PositiveMentions, view.Stats.NegativeMentions, view.Stats.NeutralMentions)
	fmt.Fprintf(tw, "Bullish score\t%s\n", view.Stats.BullishScore)
	fmt.Fprintf(tw, "Bearish score\t%s\n", view.Stats.BearishScore)
	tw.Flush()

	fmt.Fprintln(out)
	printHistory(out, &view.History)
	fmt.Fprintln(out)
	printMentions(out, view.Mentions)
}

func printHistory(out io.Writer, view *app.HistoryView) {
	fmt.Fprintf(out, "History (%d days)\n", len(view.Points))
	printPoints(out, view.Points)
}

func printPoints(out io.Writer, points []series.Point) {
	if len(points) == 0 {
		fmt.Fprintln(out, "  no history")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "DATE\tINDEX\tPOS\tNEG\tNEU\tTOTAL")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			p.Label, trending.FormatSigned(p.SentimentIndex), p.Positive, p.Negative, p.Neutral, p.Total)
	}
	tw.Flush()
}

func printMentions(out io.Writer, mentions []app.MentionCard) {
	fmt.Fprintf(out, "Recent mentions (%d)\n", len(mentions))
	if len(mentions) == 0 {
		fmt.Fprintln(out, "  no mentions")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "TIME\tSOURCE\tSENTIMENT\tSCORE\tTEXT")
	for _, m := range mentions {
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", created, m.Source, m.Sentiment, m.Score, oneLine(m.Excerpt, 60))
	}
	tw.Flush()
}

// oneLine flattens newlines and cuts s to n runes for table cells.
func oneLine(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return string(r)
}
