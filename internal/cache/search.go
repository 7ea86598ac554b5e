package cache

import (
	"sort"
	"strings"

	"github.com/haevelyn/schedule/internal/schedule"
)

// HitKind tells which part of a record matched a search.
type HitKind string

const (
	HitMemo  HitKind = "memo"
	HitEvent HitKind = "event"
)

// SearchHit is one matching memo or event.
type SearchHit struct {
	Date      string
	Kind      HitKind
	Text      string
	Important bool
}

// SearchGroup holds the hits of one month.
type SearchGroup struct {
	Month schedule.YearMonth
	Hits  []SearchHit
}

// Search finds records whose memo or event text contains query, ignoring case.
// Groups are ordered by month and hits by date; within a date the memo
// comes before the events, which keep their order. A blank query finds nothing.
func Search(records map[string]schedule.Record, query string) []SearchGroup {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	dates := make([]string, 0, len(records))
	for date := range records {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var groups []SearchGroup
	for _, date := range dates {
		hits := match(date, records[date], query)
		if len(hits) == 0 {
			continue
		}
		month, err := schedule.MonthOf(date)
		if err != nil {
			continue
		}
		if len(groups) == 0 || groups[len(groups)-1].Month != month {
			groups = append(groups, SearchGroup{Month: month})
		}
		last := &groups[len(groups)-1]
		last.Hits = append(last.Hits, hits...)
	}
	return groups
}

// Search runs Search over the cached records.
func (c *Cache) Search(query string) []SearchGroup {
	return Search(c.Snapshot(), query)
}

func match(date string, rec schedule.Record, query string) []SearchHit {
	var hits []SearchHit
	if rec.Memo != "" && strings.Contains(strings.ToLower(rec.Memo), query) {
		hits = append(hits, SearchHit{Date: date, Kind: HitMemo, Text: rec.Memo})
	}
	for _, e := range rec.Events {
		if strings.Contains(strings.ToLower(e.Text), query) {
			hits = append(hits, SearchHit{Date: date, Kind: HitEvent, Text: e.Text, Important: e.Important})
		}
	}
	return hits
}
