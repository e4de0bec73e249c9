package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/mcdev12/apexracer/go/internal/models"
	"github.com/mcdev12/apexracer/go/internal/realtime"
	"github.com/mcdev12/apexracer/go/internal/session"
)

var (
	successStyle = color.New(color.FgGreen)
	errorStyle   = color.New(color.FgRed)
	boldStyle    = color.New(color.Bold)
	infoStyle    = color.New(color.FgCyan)

	tierStyles = map[models.RankTier]*color.Color{
		models.RankTierGold:   color.New(color.FgYellow, color.Bold),
		models.RankTierSilver: color.New(color.FgWhite, color.Bold),
		models.RankTierBronze: color.New(color.FgRed),
		models.RankTierNone:   color.New(color.Reset),
	}
)

// formatRaceTime renders milliseconds as m:ss.mmm.
func formatRaceTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	minutes := int64(d / time.Minute)
	seconds := int64((d % time.Minute) / time.Second)
	millis := int64((d % time.Second) / time.Millisecond)
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}

func printSession(w io.Writer, title string, sess *session.Session) {
	successStyle.Fprintln(w, title)
	fmt.Fprintf(w, "  user id:  %s\n", sess.UserID)
	fmt.Fprintf(w, "  username: %s\n", sess.Username)
	fmt.Fprintf(w, "  created:  %t\n", sess.Created)
	fmt.Fprintf(w, "  expires:  %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
}

func printRecord(w io.Writer, record *models.LeaderboardRecord) {
	successStyle.Fprintf(w, "✓ Race time %s submitted", formatRaceTime(record.Score))
	if record.Rank > 0 {
		fmt.Fprintf(w, " (rank #%d)", record.Rank)
	}
	fmt.Fprintln(w)
}

func printRewards(w io.Writer, history *models.RewardHistory) {
	if len(history.Rewards) == 0 {
		infoStyle.Fprintln(w, "No rewards yet. Finish in the top 3 to earn one!")
		return
	}

	boldStyle.Fprintf(w, "Rewards (%d)\n", history.Total)
	for _, r := range history.Rewards {
		tier := r.RankTier()
		tierStyles[tier].Fprintf(w, "  %-6s", tier)
		fmt.Fprintf(w, " %-20s rank #%d  %6.2fs  cycle %d  %s\n",
			r.DisplayName(), r.Rank, r.RaceTime, r.Cycle, r.AwardedTime().Format("2006-01-02 15:04"))
	}
}

func printLeaderboard(w io.Writer, list *models.LeaderboardRecordList, ownerID string) {
	if len(list.Records) == 0 {
		infoStyle.Fprintln(w, "Leaderboard is empty")
		return
	}

	for _, r := range list.Records {
		name := r.Username
		if name == "" {
			name = r.OwnerID
		}
		line := fmt.Sprintf("%3d. %-20s %s", r.Rank, name, formatRaceTime(r.Score))
		if r.OwnerID == ownerID {
			boldStyle.Fprintln(w, line+"  (you)")
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func printNotification(w io.Writer, n realtime.Notification) {
	infoStyle.Fprintf(w, "[%s] ", n.CreateTime.Local().Format("15:04:05"))
	fmt.Fprintf(w, "%s %s\n", n.Subject, n.Content)
}
