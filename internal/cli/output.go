package cli

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/splitrail/splitrail-web/pkg/client"
	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/splitrail/splitrail-web/pkg/format"
)

var (
	bold      = color.New(color.Bold)
	underline = color.New(color.Underline)
	success   = color.New(color.FgGreen)
	failure   = color.New(color.FgRed)
	muted     = color.New(color.Faint)
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = false
	t.Style().Format.Header = text.FormatDefault
	return t
}

// renderTokens prints the token list the way the tokens page shows it.
func renderTokens(out io.Writer, store *client.TokenStore, now time.Time) {
	snap := store.Snapshot()

	t := newTable(out)
	t.AppendHeader(table.Row{
		underline.Sprint("ID"),
		underline.Sprint("Name"),
		underline.Sprint("Token"),
		underline.Sprint("Created"),
		underline.Sprint("Last used"),
	})
	for _, tok := range snap.Tokens {
		lastUsed := muted.Sprint("Never used")
		if tok.LastUsed != nil {
			lastUsed = format.RelativeTime(*tok.LastUsed, now, "")
		}
		t.AppendRow(table.Row{
			tok.ID,
			tok.Name,
			store.Display(tok.ID),
			format.FormatDate(tok.CreatedAt, "", nil),
			lastUsed,
		})
	}
	t.Render()
}

func renderStats(out io.Writer, stats *dto.Stats) {
	t := newTable(out)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	lastUpload := "never"
	if stats.LastUploadHuman != "" {
		lastUpload = stats.LastUploadHuman
	}
	t.AppendRows([]table.Row{
		{bold.Sprint("Total tokens"), stats.TotalFormatted},
		{bold.Sprint("Cost"), stats.CostFormatted},
		{bold.Sprint("Messages"), stats.Messages},
		{bold.Sprint("Streak"), format.FormatNumber(float64(stats.StreakDays), "", nil) + " days"},
		{bold.Sprint("Last upload"), lastUpload},
	})
	t.Render()

	if len(stats.Languages) == 0 {
		return
	}
	lt := newTable(out)
	lt.AppendHeader(table.Row{underline.Sprint("Language"), underline.Sprint("Lines")})
	for _, l := range stats.Languages {
		lt.AppendRow(table.Row{l.Icon + " " + l.Name, format.FormatLargeNumber(l.Lines)})
	}
	lt.Render()
}

func renderLeaderboard(out io.Writer, board *dto.Leaderboard) {
	t := newTable(out)
	t.AppendHeader(table.Row{"#", underline.Sprint("User"), underline.Sprint("Tokens")})
	for _, e := range board.Entries {
		rank := format.FormatNumber(float64(e.Rank), "", nil)
		switch format.Badge(e.Badge) {
		case format.BadgeGold:
			rank = color.New(color.FgYellow, color.Bold).Sprint(rank)
		case format.BadgeSilver:
			rank = color.New(color.FgWhite, color.Bold).Sprint(rank)
		case format.BadgeBronze:
			rank = color.New(color.FgRed).Sprint(rank)
		}
		t.AppendRow(table.Row{rank, format.Truncate(e.DisplayName, 32), e.TotalFormatted})
	}
	t.Render()
}
