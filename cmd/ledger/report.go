package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"betledger/internal/ledger"
	"betledger/internal/model"
	"betledger/internal/settings"
)

func writeReport(w io.Writer, snap ledger.Snapshot, st settings.Settings) {
	if !snap.Stats.HasData() {
		fmt.Fprintln(w, "No bets logged yet.")
		return
	}

	sym := settings.CurrencySymbol(st.Currency)
	s := snap.Stats
	fmt.Fprintf(w, "Bets:      %d\n", s.TotalBets)
	fmt.Fprintf(w, "Turnover:  %s %.2f\n", sym, s.TotalTurnover)
	fmt.Fprintf(w, "Profit:    %s %.2f\n", sym, s.TotalProfit)
	fmt.Fprintf(w, "Yield:     %.2f%%\n", s.Yield)
	fmt.Fprintf(w, "ROI:       %.2f%%\n", s.ROI)
	fmt.Fprintf(w, "Win rate:  %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Avg odds:  %.2f\n", s.AvgOdds)
	fmt.Fprintf(w, "Avg stake: %s %.2f\n", sym, s.AvgStake)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMATCH\tSELECTION\tODDS\tSTAKE\tSTATUS\tPROFIT")
	for _, b := range snap.Bets {
		profit := "-"
		if b.Profit != nil {
			profit = fmt.Sprintf("%+.2f", *b.Profit)
		}
		fmt.Fprintf(tw, "%s\t%s vs %s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			b.Date.Format("2006-01-02"), b.HomeTeam, b.AwayTeam, b.Outcome, b.Odds, b.Stake, b.Status, profit)
	}
	tw.Flush()

	if len(snap.Equity) > 0 {
		ys := make([]string, len(snap.Equity))
		for i, p := range snap.Equity {
			ys[i] = fmt.Sprintf("%.2f", p.Y)
		}
		fmt.Fprintf(w, "\nEquity: %s\n", strings.Join(ys, " -> "))
	}
}

func writeMatches(w io.Writer, matches []model.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKICKOFF\tLEAGUE\tMATCH\t1\tX\t2")
	for _, m := range matches {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s vs %s\t%.2f\t%.2f\t%.2f\n",
			m.ID, m.Date, m.Time, m.League, m.HomeTeam, m.AwayTeam, m.Odds.Home, m.Odds.Draw, m.Odds.Away)
	}
	tw.Flush()
}

func writeDetails(w io.Writer, m model.MatchDetails) {
	fmt.Fprintf(w, "%s vs %s (%s, %s %s)\n", m.HomeTeam, m.AwayTeam, m.League, m.Date, m.Time)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writePairs := func(title string, pairs []model.LinePair) {
		if len(pairs) == 0 {
			return
		}
		fmt.Fprintf(tw, "%s\t\t\t\t\t\n", title)
		for _, p := range pairs {
			fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%s\t%s\t%.2f\n",
				p.First.ID, p.First.Description, p.First.Odds, p.Second.ID, p.Second.Description, p.Second.Odds)
		}
	}
	writePairs("Handicap", m.Handicaps())
	writePairs("Total", m.Totals())
	tw.Flush()
}

func writeSettings(w io.Writer, st settings.Settings) {
	fmt.Fprintf(w, "default_stake=%.2f lock_stake=%t currency=%s timezone=%s notifications=%t auto_calculate_ev=%t\n",
		st.DefaultStake, st.LockStake, st.Currency, st.Timezone, st.Notifications, st.AutoCalculateEV)
}

func writeTags(w io.Writer, list []model.Tag) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	tw.Flush()
}
