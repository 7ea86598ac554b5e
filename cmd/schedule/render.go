package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/haevelyn/schedule/internal/cache"
	"github.com/haevelyn/schedule/internal/schedule"
)

var (
	bold      = color.New(color.Bold)
	important = color.New(color.FgRed)
	faint     = color.New(color.Faint)
)

func printRecords(w io.Writer, records map[string]schedule.Record) {
	dates := make([]string, 0, len(records))
	for date := range records {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		printRecord(w, date, records[date])
	}
}

func printRecord(w io.Writer, date string, rec schedule.Record) {
	header := date
	if rec.IsBreakDay {
		header += " [break day]"
	}
	_, _ = bold.Fprint(w, header)
	_, _ = faint.Fprintf(w, " v%d\n", rec.Version)

	if rec.IsBreakDay && rec.BreakDayImageID != nil {
		fmt.Fprintf(w, "  image: %s\n", *rec.BreakDayImageID)
	}
	var times []string
	if strings.TrimSpace(rec.MorningTime) != "" {
		times = append(times, "morning "+rec.MorningTime)
	}
	if strings.TrimSpace(rec.AfternoonTime) != "" {
		times = append(times, "afternoon "+rec.AfternoonTime)
	}
	if len(times) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(times, ", "))
	}
	for _, e := range rec.Events {
		if e.Important {
			_, _ = important.Fprintf(w, "  ! %s\n", e.Text)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", e.Text)
	}
	if strings.TrimSpace(rec.Memo) != "" {
		for _, line := range strings.Split(rec.Memo, "\n") {
			fmt.Fprintf(w, "  > %s\n", line)
		}
	}
}

func printSearch(w io.Writer, groups []cache.SearchGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	for _, group := range groups {
		_, _ = bold.Fprintln(w, group.Month.String())
		for _, hit := range group.Hits {
			text := strings.ReplaceAll(hit.Text, "\n", " ")
			if hit.Important {
				_, _ = important.Fprintf(w, "  %s %-5s %s\n", hit.Date, hit.Kind, text)
				continue
			}
			fmt.Fprintf(w, "  %s %-5s %s\n", hit.Date, hit.Kind, text)
		}
	}
}
