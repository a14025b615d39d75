// Package timerange translates SRQL time presets into absolute UTC ranges.
package timerange

import (
	"fmt"
	"strings"
	"time"

	"srql-engine/internal/common"
)

// Kind discriminates the supported time filter shapes.
type Kind int

const (
	KindRelative Kind = iota
	KindToday
	KindYesterday
	KindAbsolute
	KindAbsoluteOpenEnd
	KindAbsoluteOpenStart
)

// Spec is a parsed, unresolved time filter.
type Spec struct {
	Kind  Kind
	Dur   time.Duration
	Start time.Time
	End   time.Time
}

// Range is a resolved pair of inclusive bounds.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve materializes the spec against a reference instant.
// The invariant Start <= End always holds for a returned range.
func (s *Spec) Resolve(now time.Time) (Range, error) {
	now = now.UTC()

	var r Range
	switch s.Kind {
	case KindRelative:
		r = Range{Start: now.Add(-s.Dur), End: now}
	case KindToday:
		r = Range{Start: midnight(now), End: now}
	case KindYesterday:
		today := midnight(now)
		r = Range{Start: today.AddDate(0, 0, -1), End: today}
	case KindAbsolute:
		r = Range{Start: s.Start, End: s.End}
	case KindAbsoluteOpenEnd:
		if s.Start.After(now) {
			return Range{}, common.NewError(common.ErrQueryTimeRangeInvalid, "time range start must be before end")
		}
		r = Range{Start: s.Start, End: now}
	case KindAbsoluteOpenStart:
		r = Range{Start: time.Time{}, End: s.End}
	default:
		return Range{}, common.NewError(common.ErrQueryTimeRangeInvalid, "unknown time filter kind")
	}

	if r.Start.After(r.End) {
		return Range{}, common.NewError(common.ErrQueryTimeRangeInvalid, "time range start must be before end")
	}
	return r, nil
}

// Parse interprets a time:/timeframe: token value.
func Parse(raw string) (*Spec, error) {
	value := stripQuotes(strings.TrimSpace(raw))

	// Absolute bounds keep their case; RFC3339 separators are parsed below.
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return parseAbsoluteRange(value)
	}
	value = strings.ToLower(value)

	if spec := parseRelativeKeyword(value); spec != nil {
		return spec, nil
	}

	if strings.Contains(value, "day") || strings.Contains(value, "hour") ||
		strings.Contains(value, "minute") || strings.Contains(value, "week") {
		if spec := parseSpelledDuration(value); spec != nil {
			return spec, nil
		}
	}

	return nil, common.NewError(common.ErrQueryTimeRangeInvalid, fmt.Sprintf("unsupported time token '%s'", raw))
}

func parseRelativeKeyword(value string) *Spec {
	if value == "today" {
		return &Spec{Kind: KindToday}
	}
	if value == "yesterday" {
		return &Spec{Kind: KindYesterday}
	}

	normalized := strings.NewReplacer("_", "", "-", "").Replace(value)
	if stripped, ok := strings.CutPrefix(normalized, "last"); ok {
		if spec := parseNumericSuffix(stripped); spec != nil {
			return spec
		}
	}
	return parseNumericSuffix(normalized)
}

func parseSpelledDuration(value string) *Spec {
	var cleaned strings.Builder
	for _, ch := range value {
		if ch == ' ' || ch == '\t' || ch == '"' {
			continue
		}
		cleaned.WriteRune(ch)
	}
	return parseNumericSuffix(cleaned.String())
}

func parseNumericSuffix(value string) *Spec {
	var digits, suffix strings.Builder
	for _, ch := range value {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		} else {
			suffix.WriteRune(ch)
		}
	}

	if digits.Len() == 0 {
		return nil
	}
	var amount int64
	if _, err := fmt.Sscanf(digits.String(), "%d", &amount); err != nil {
		return nil
	}

	switch strings.TrimSpace(suffix.String()) {
	case "s", "second", "seconds":
		return &Spec{Kind: KindRelative, Dur: time.Duration(amount) * time.Second}
	case "m", "minute", "minutes":
		return &Spec{Kind: KindRelative, Dur: time.Duration(amount) * time.Minute}
	case "h", "hour", "hours":
		return &Spec{Kind: KindRelative, Dur: time.Duration(amount) * time.Hour}
	case "d", "day", "days":
		return &Spec{Kind: KindRelative, Dur: time.Duration(amount) * 24 * time.Hour}
	case "w", "week", "weeks":
		return &Spec{Kind: KindRelative, Dur: time.Duration(amount) * 7 * 24 * time.Hour}
	default:
		return nil
	}
}

func parseAbsoluteRange(value string) (*Spec, error) {
	inner := strings.Trim(value, "[]")
	startRaw, endRaw, found := strings.Cut(inner, ",")
	if !found {
		return nil, common.NewError(common.ErrQueryTimeRangeInvalid, "invalid time range")
	}
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)

	switch {
	case startRaw != "" && endRaw != "":
		start, err := parseDatetime(startRaw)
		if err != nil {
			return nil, err
		}
		end, err := parseDatetime(endRaw)
		if err != nil {
			return nil, err
		}
		return &Spec{Kind: KindAbsolute, Start: start, End: end}, nil
	case startRaw != "":
		start, err := parseDatetime(startRaw)
		if err != nil {
			return nil, err
		}
		return &Spec{Kind: KindAbsoluteOpenEnd, Start: start}, nil
	case endRaw != "":
		end, err := parseDatetime(endRaw)
		if err != nil {
			return nil, err
		}
		return &Spec{Kind: KindAbsoluteOpenStart, End: end}, nil
	default:
		return nil, common.NewError(common.ErrQueryTimeRangeInvalid, "time range requires at least one bound")
	}
}

func parseDatetime(value string) (time.Time, error) {
	// Lowercase t/z separators are accepted.
	rfc := strings.NewReplacer("t", "T", "z", "Z").Replace(value)
	if ts, err := time.Parse(time.RFC3339Nano, rfc); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, common.NewError(common.ErrQueryTimeRangeInvalid, fmt.Sprintf("invalid time literal '%s'", value))
}

func midnight(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func stripQuotes(value string) string {
	value = strings.Trim(value, `"`)
	return strings.Trim(value, "'")
}
