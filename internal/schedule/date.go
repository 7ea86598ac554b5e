package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"
)

// ValidateDate checks that date is a calendar date in YYYY-MM-DD form.
func ValidateDate(date string) error {
	if date == "" {
		return &ValidationError{Field: "date", Message: "date is required"}
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a valid date (want YYYY-MM-DD)", date)}
	}
	return nil
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth validates and returns a YearMonth.
func NewYearMonth(year, month int) (YearMonth, error) {
	if year < 1 || year > 9999 {
		return YearMonth{}, &ValidationError{Field: "year", Message: fmt.Sprintf("year %d is out of range", year)}
	}
	if month < 1 || month > 12 {
		return YearMonth{}, &ValidationError{Field: "month", Message: fmt.Sprintf("month %d is out of range", month)}
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, &ValidationError{Field: "month", Message: fmt.Sprintf("%q is not a valid month (want YYYY-MM)", s)}
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing date.
func MonthOf(date string) (YearMonth, error) {
	if err := ValidateDate(date); err != nil {
		return YearMonth{}, err
	}
	t, _ := time.Parse(dateLayout, date)
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Contains reports whether date falls within the month.
func (m YearMonth) Contains(date string) bool {
	return strings.HasPrefix(date, m.String()+"-")
}
