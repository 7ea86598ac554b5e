package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/haevelyn/schedule/internal/api"
	"github.com/haevelyn/schedule/internal/bootstrap"
	"github.com/haevelyn/schedule/internal/schedule"
)

func newListCommand() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the schedules of a month (the current month by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yearMonth, err := resolveMonth(year, month, time.Now())
			if err != nil {
				return err
			}
			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.cache.Load(cmd.Context(), yearMonth); err != nil {
				return fmt.Errorf("cache.Load(%s) > %w", yearMonth, err)
			}
			records := s.cache.Month(yearMonth)
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no schedules in %s\n", yearMonth)
				return nil
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year, e.g. 2025")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Show the schedule of one date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			yearMonth, err := schedule.MonthOf(date)
			if err != nil {
				return err
			}
			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.cache.Load(cmd.Context(), yearMonth); err != nil {
				return fmt.Errorf("cache.Load(%s) > %w", yearMonth, err)
			}
			rec, ok := s.cache.Get(date)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "no schedule on %s\n", date)
				return nil
			}
			printRecord(cmd.OutOrStdout(), date, rec)
			return nil
		},
	}
}

type editFlags struct {
	events      []string
	clearEvents bool
	memo        string
	breakDay    bool
	image       string
	clearImage  bool
	morning     string
	afternoon   string
	clearAll    bool
}

func newEditCommand() *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "edit <date>",
		Short: "Edit the schedule of one date",
		Long: `Edit the schedule of one date. Only the given flags change the schedule.
An event ending with "!" is marked important. Removing every field deletes the date.`,
		Example: `  schedule edit 2025-03-10 --event "stream!" --event collab --morning 7:10
  schedule edit 2025-03-11 --break-day --image img-3
  schedule edit 2025-03-12 --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := args[0]
			yearMonth, err := schedule.MonthOf(date)
			if err != nil {
				return err
			}
			edit := flags.toEdit(cmd.Flags())

			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.cache.Load(cmd.Context(), yearMonth); err != nil {
				return fmt.Errorf("cache.Load(%s) > %w", yearMonth, err)
			}
			outcome, err := s.cache.ApplyEdit(cmd.Context(), date, edit)
			if err != nil {
				return fmt.Errorf("%s: %w", outcome, err)
			}

			out := cmd.OutOrStdout()
			if rec, ok := s.cache.Get(date); ok {
				fmt.Fprintf(out, "%s\n", outcome)
				printRecord(out, date, rec)
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", outcome, date)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&flags.events, "event", nil, `event text, repeatable; a trailing "!" marks it important`)
	cmd.Flags().BoolVar(&flags.clearEvents, "clear-events", false, "remove every event")
	cmd.Flags().StringVar(&flags.memo, "memo", "", "memo text")
	cmd.Flags().BoolVar(&flags.breakDay, "break-day", false, "mark the date as a break day (--break-day=false to unmark)")
	cmd.Flags().StringVar(&flags.image, "image", "", "break day image id")
	cmd.Flags().BoolVar(&flags.clearImage, "clear-image", false, "remove the break day image")
	cmd.Flags().StringVar(&flags.morning, "morning", "", "morning time")
	cmd.Flags().StringVar(&flags.afternoon, "afternoon", "", "afternoon time")
	cmd.Flags().BoolVar(&flags.clearAll, "clear", false, "remove everything on the date")
	return cmd
}

// toEdit builds an edit from the flags the user actually set.
func (f editFlags) toEdit(set *pflag.FlagSet) schedule.Edit {
	edit := schedule.Edit{}
	if f.clearAll {
		edit = schedule.Clear()
	}
	changed := set.Changed

	if changed("event") {
		events := make([]schedule.Event, 0, len(f.events))
		for _, text := range f.events {
			events = append(events, parseEvent(text))
		}
		edit.Events = &events
	} else if f.clearEvents {
		events := []schedule.Event{}
		edit.Events = &events
	}
	if changed("memo") {
		memo := f.memo
		edit.Memo = &memo
	}
	if changed("break-day") {
		breakDay := f.breakDay
		edit.IsBreakDay = &breakDay
	}
	if changed("image") {
		image := f.image
		edit.BreakDayImageID = &image
	}
	if f.clearImage {
		edit.ClearBreakDayImage = true
	}
	if changed("morning") {
		morning := f.morning
		edit.MorningTime = &morning
	}
	if changed("afternoon") {
		afternoon := f.afternoon
		edit.AfternoonTime = &afternoon
	}
	return edit
}

func parseEvent(text string) schedule.Event {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "!") {
		return schedule.Event{Text: strings.TrimSpace(strings.TrimSuffix(trimmed, "!")), Important: true}
	}
	return schedule.Event{Text: trimmed}
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search memos and events of every schedule",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.cache.LoadAll(cmd.Context()); err != nil {
				return fmt.Errorf("cache.LoadAll() > %w", err)
			}
			printSearch(cmd.OutOrStdout(), s.cache.Search(strings.Join(args, " ")))
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var format, month string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write schedules to stdout as yaml or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q: use yaml or json", format)
			}
			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			var records map[string]schedule.Record
			if month == "" {
				if err := s.cache.LoadAll(cmd.Context()); err != nil {
					return fmt.Errorf("cache.LoadAll() > %w", err)
				}
				records = s.cache.Snapshot()
			} else {
				yearMonth, err := schedule.ParseYearMonth(month)
				if err != nil {
					return err
				}
				if err := s.cache.Load(cmd.Context(), yearMonth); err != nil {
					return fmt.Errorf("cache.Load(%s) > %w", yearMonth, err)
				}
				records = s.cache.Month(yearMonth)
			}
			return writeExport(cmd.OutOrStdout(), format, records)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVar(&month, "month", "", "only export one month (YYYY-MM)")
	return cmd
}

func writeExport(w io.Writer, format string, records map[string]schedule.Record) error {
	dtos := api.FromRecords(records)
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(dtos); err != nil {
			return fmt.Errorf("json.Encode() > %w", err)
		}
		return nil
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(dtos); err != nil {
		return fmt.Errorf("yaml.Encode() > %w", err)
	}
	return encoder.Close()
}

func newWatchCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-fetch schedules on client.refresh_cron and print the dates that changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			spec := strings.TrimSpace(s.cfg.Client.RefreshCron)
			if spec == "" {
				return fmt.Errorf("client.refresh_cron is empty, periodic refresh is disabled")
			}
			w := newWatcher(s, all, cmd.OutOrStdout())
			if err := w.refresh(cmd.Context()); err != nil {
				return err
			}

			scheduler := cron.New()
			app := bootstrap.New(0)
			app.AddShutdownHook(func(ctx context.Context) error {
				select {
				case <-scheduler.Stop().Done():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			return app.Run(cmd.Context(), func(ctx context.Context) error {
				if err := scheduleRefresh(ctx, scheduler, spec, w, cmd.ErrOrStderr()); err != nil {
					return err
				}
				scheduler.Start()
				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "watch every schedule instead of the current month")
	return cmd
}

// scheduleRefresh runs w.refresh on spec. Jobs use ctx, so a shutdown
// cancels a refresh in flight.
func scheduleRefresh(ctx context.Context, scheduler *cron.Cron, spec string, w *watcher, errOut io.Writer) error {
	if _, err := scheduler.AddFunc(spec, func() {
		if err := w.refresh(ctx); err != nil {
			fmt.Fprintf(errOut, "refresh failed: %v\n", err)
		}
	}); err != nil {
		return fmt.Errorf("cron.AddFunc(%s) > %w", spec, err)
	}
	return nil
}

// watcher refreshes a session's cache and reports what changed.
type watcher struct {
	s   *session
	all bool
	out io.Writer
	now func() time.Time
}

func newWatcher(s *session, all bool, out io.Writer) *watcher {
	return &watcher{s: s, all: all, out: out, now: time.Now}
}

func (w *watcher) refresh(ctx context.Context) error {
	var (
		changed []string
		err     error
	)
	if w.all {
		changed, err = w.s.cache.ResyncAll(ctx)
	} else {
		changed, err = w.s.cache.Resync(ctx, schedule.YearMonth{Year: w.now().Year(), Month: w.now().Month()})
	}
	if err != nil {
		return fmt.Errorf("resync > %w", err)
	}

	for _, date := range changed {
		if rec, ok := w.s.cache.Get(date); ok {
			printRecord(w.out, date, rec)
			continue
		}
		fmt.Fprintf(w.out, "%s removed\n", date)
	}
	return nil
}

func resolveMonth(year, month int, now time.Time) (schedule.YearMonth, error) {
	switch {
	case year == 0 && month == 0:
		return schedule.YearMonth{Year: now.Year(), Month: now.Month()}, nil
	case year == 0 || month == 0:
		return schedule.YearMonth{}, fmt.Errorf("--year and --month must be given together")
	default:
		return schedule.NewYearMonth(year, month)
	}
}
