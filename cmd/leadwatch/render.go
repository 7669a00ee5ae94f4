package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"basegraph.app/leads/internal/model"
)

const clearScreen = "\033[H\033[2J"

var (
	header  = color.New(color.FgCyan, color.Bold)
	flash   = color.New(color.FgBlack, color.BgYellow)
	dim     = color.New(color.FgHiBlack)
	agent   = color.New(color.FgGreen)
	user    = color.New(color.FgBlue)
	warning = color.New(color.FgRed)
)

func renderList(w io.Writer, leads []model.Lead, justUpdated bool) {
	title := fmt.Sprintf("Leads (%d)", len(leads))
	if justUpdated {
		flash.Fprintln(w, title+" • updated")
	} else {
		header.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))

	if len(leads) == 0 {
		dim.Fprintln(w, "No leads yet")
		return
	}
	for _, l := range leads {
		fmt.Fprintf(w, "%-20s %-24s %s %s %s\n",
			truncate(l.CompanyName, 20),
			truncate(l.ProjectName, 24),
			sentiment(l.SentimentScore),
			statusLabel(l.Status),
			dim.Sprint(l.CreatedAt.Local().Format("Jan 02 15:04")),
		)
	}
}

func renderDetail(w io.Writer, lead model.Lead, messages []model.Message, ok, justUpdated bool) {
	if !ok {
		warning.Fprintln(w, "Lead no longer exists")
		return
	}

	title := fmt.Sprintf("%s · %s", lead.CompanyName, lead.ProjectName)
	if justUpdated {
		flash.Fprintln(w, title)
	} else {
		header.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))

	fmt.Fprintf(w, "Contact    %s %s %s\n", lead.ContactName, lead.ContactEmail, lead.ContactPhone)
	fmt.Fprintf(w, "Sentiment  %s  (%d readings)\n", sentiment(lead.SentimentScore), len(lead.SentimentHistory))
	fmt.Fprintf(w, "Value      %s   Term %s   Team %d   %s\n", lead.Value, lead.Term, lead.TeamSize, statusLabel(lead.Status))
	if lead.ProjectSummary != "" {
		fmt.Fprintf(w, "Summary    %s\n", lead.ProjectSummary)
	}
	if lead.ImportantNotes != "" {
		fmt.Fprintf(w, "Notes      %s\n", lead.ImportantNotes)
	}
	for _, d := range lead.Documents {
		fmt.Fprintf(w, "Document   %s %s\n", d.Filename, documentLabel(d))
	}

	fmt.Fprintln(w)
	header.Fprintln(w, "Conversation")
	if len(messages) == 0 {
		dim.Fprintln(w, "No messages yet")
		return
	}
	for _, m := range messages {
		speaker := user.Sprint("user ")
		if m.Role == model.MessageRoleAgent {
			speaker = agent.Sprint("agent")
		}
		fmt.Fprintf(w, "%s %s %s\n", dim.Sprint(m.CreatedAt.Local().Format("15:04:05")), speaker, m.Text)
	}
}

func sentiment(score int) string {
	label := fmt.Sprintf("%3d", score)
	switch {
	case score >= 70:
		return color.GreenString(label)
	case score < 40:
		return color.RedString(label)
	default:
		return color.YellowString(label)
	}
}

func statusLabel(s model.LeadStatus) string {
	if s == model.LeadStatusEnded {
		return dim.Sprint("ended")
	}
	return color.GreenString("live ")
}

func documentLabel(d model.Document) string {
	if d.Status == model.DocumentStatusReady && d.URL != nil {
		return color.GreenString("ready") + " " + dim.Sprint(*d.URL)
	}
	return color.YellowString("generating")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
