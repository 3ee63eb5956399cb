package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ensightlabs/walletfeed/internal/feed/event"
	"github.com/ensightlabs/walletfeed/internal/feed/format"
	"github.com/ensightlabs/walletfeed/internal/feed/session"
)

var showCmd = &cobra.Command{
	Use:   "show <tab-id>",
	Short: "Show one session's feed",
	Long:  `Show the full feed of a single tab session, newest entry first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tabID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || tabID <= 0 {
			return fmt.Errorf("bad tab id %q", args[0])
		}

		src, err := openSource()
		if err != nil {
			return err
		}
		defer src.close()

		sess, raw, err := src.byTab(tabID)
		if err != nil {
			return err
		}

		if asJSON {
			_, err := os.Stdout.Write(append(raw, '\n'))
			return err
		}

		printSession(sess)
		return nil
	},
}

func printSession(s *session.TabSession) {
	now := time.Now().UnixMilli()

	active := ""
	if s.Web3Active {
		active = dimStyle.Render("  [web3]")
	}
	fmt.Printf("%s%s  tab %d  %s\n",
		hostStyle.Render(s.Hostname), active, s.TabID,
		dimStyle.Render("last seen "+format.RelativeTime(s.LastSeenAt, now)))
	fmt.Printf("%s\n\n", dimStyle.Render(fmt.Sprintf(
		"connect=%d sign=%d tx=%d chain=%d",
		s.Counts["connect"], s.Counts["sign"], s.Counts["tx"], s.Counts["chain"])))

	if len(s.Feed) == 0 {
		fmt.Println(dimStyle.Render("empty feed"))
		return
	}

	for _, item := range s.Feed {
		style := severityStyle(item.Severity)
		fmt.Printf("%s  %s  %s\n",
			dimStyle.Render(format.RelativeTime(item.StartedAt, now)),
			style.Render(fmt.Sprintf("%-7s", string(item.Severity))),
			item.OneLiner)
		if detail := itemDetail(item); detail != "" {
			fmt.Printf("         %s\n", dimStyle.Render(detail))
		}
	}
}

// itemDetail renders the second line of a feed entry: destination, value and
// any enrichment the lookups attached.
func itemDetail(item session.FeedItem) string {
	var parts []string

	if to, ok := item.Params["to"].(string); ok && format.IsAddress(to) {
		dest := format.ShortAddress(to, 4)
		if item.ToEns != nil && item.ToEns.Name != "" {
			dest = item.ToEns.Name + " " + dest
		}
		parts = append(parts, "to "+dest)
	}
	if value, ok := item.Params["value"].(string); ok && value != "" {
		parts = append(parts, "value "+value)
	}
	if chainID, ok := item.Params["chainId"].(string); ok && chainID != "" {
		parts = append(parts, "chain "+chainID)
	}
	if item.Risk != nil && item.Risk.Flagged {
		parts = append(parts, dangerStyle.Render("FLAGGED"))
	}
	if item.Phase == event.PhaseBefore {
		parts = append(parts, "pending")
	}

	detail := ""
	for i, p := range parts {
		if i > 0 {
			detail += "  "
		}
		detail += p
	}
	return detail
}
