package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ensightlabs/walletfeed/internal/feed/format"
	"github.com/ensightlabs/walletfeed/internal/feed/track"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	hostStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func severityStyle(sev track.Severity) lipgloss.Style {
	switch sev {
	case track.SeverityDanger:
		return dangerStyle
	case track.SeverityWarn:
		return warnStyle
	default:
		return infoStyle
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known sessions",
	Long:  `List every tab session the aggregator currently holds, newest activity first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource()
		if err != nil {
			return err
		}
		defer src.close()

		sessions, err := src.list()
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}

		if len(sessions) == 0 {
			fmt.Println(dimStyle.Render("no sessions"))
			return nil
		}

		now := time.Now().UnixMilli()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, headerStyle.Render("TAB")+"\t"+
			headerStyle.Render("HOST")+"\t"+
			headerStyle.Render("ACTIVE")+"\t"+
			headerStyle.Render("CALLS")+"\t"+
			headerStyle.Render("LAST SEEN"))
		for _, s := range sessions {
			active := "-"
			if s.Web3Active {
				active = "web3"
			}
			total := 0
			for _, n := range s.Counts {
				total += n
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
				s.TabID,
				hostStyle.Render(s.Hostname),
				active,
				total,
				dimStyle.Render(format.RelativeTime(s.LastSeenAt, now)))
		}
		return w.Flush()
	},
}
