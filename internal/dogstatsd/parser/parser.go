// Package parser decodes a single trimmed DogStatsD line into a typed
// Metric, Event, or ServiceCheck.
package parser

import (
	"strconv"
	"strings"
)

// MetricType is one of the six DogStatsD metric type codes.
type MetricType int

const (
	Count MetricType = iota
	Gauge
	Histogram
	Timer
	Set
	Distribution
)

func (t MetricType) String() string {
	switch t {
	case Count:
		return "count"
	case Gauge:
		return "gauge"
	case Histogram:
		return "histogram"
	case Timer:
		return "timer"
	case Set:
		return "set"
	case Distribution:
		return "distribution"
	default:
		return "unknown"
	}
}

var metricTypeCodes = map[string]MetricType{
	"c":  Count,
	"g":  Gauge,
	"h":  Histogram,
	"ms": Timer,
	"s":  Set,
	"d":  Distribution,
}

// AlertType is an Event's severity, defaulting to Info when absent or
// unrecognized.
type AlertType int

const (
	Info AlertType = iota
	Error
	Warning
	Success
)

var alertTypeCodes = map[string]AlertType{
	"error":   Error,
	"warning": Warning,
	"info":    Info,
	"success": Success,
}

// ServiceCheckStatus is one of the four DogStatsD service-check status
// codes.
type ServiceCheckStatus int

const (
	Ok ServiceCheckStatus = iota
	StatusWarning
	Critical
	Unknown
)

// Metric is a parsed DogStatsD metric line.
type Metric struct {
	Name        string
	Values      []float64
	MetricType  MetricType
	Tags        []string
	SampleRate  *string
	Timestamp   *string
	ContainerID *string
	Raw         string
}

// Event is a parsed DogStatsD event line.
type Event struct {
	Title            string
	Text             string
	Timestamp        *string
	Hostname         *string
	Priority         *string
	AlertType        AlertType
	AggregationKey   *string
	SourceTypeName   *string
	Tags             []string
	Raw              string
}

// ServiceCheck is a parsed DogStatsD service-check line.
type ServiceCheck struct {
	Name      string
	Status    ServiceCheckStatus
	Timestamp *string
	Hostname  *string
	Message   *string
	Tags      []string
	Raw       string
}

// Kind identifies which of the three message variants a ParseError arose
// from.
type Kind int

const (
	KindMetric Kind = iota
	KindEvent
	KindServiceCheck
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindServiceCheck:
		return "service_check"
	default:
		return "metric"
	}
}

// ParseError is the single error type returned by ParseLine, describing
// which message kind was attempted, why it failed, and the raw line that
// failed to parse.
type ParseError struct {
	Kind   Kind
	Reason string
	RawMsg string
}

func (e *ParseError) Error() string {
	return e.Kind.String() + " parse error: " + e.Reason + ": " + strconv.Quote(e.RawMsg)
}

// ParseLine dispatches a single trimmed line to the metric, event, or
// service-check parser based on its prefix, returning exactly one of
// *Metric, *Event, or *ServiceCheck.
func ParseLine(line string) (any, error) {
	switch {
	case strings.HasPrefix(line, "_e"):
		return parseEvent(line)
	case strings.HasPrefix(line, "_sc"):
		return parseServiceCheck(line)
	default:
		return parseMetric(line)
	}
}

func parseMetric(line string) (*Metric, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil, &ParseError{Kind: KindMetric, Reason: "missing type segment", RawMsg: line}
	}

	nameAndValues := strings.SplitN(parts[0], ":", 2)
	if len(nameAndValues) != 2 {
		return nil, &ParseError{Kind: KindMetric, Reason: "missing ':' between name and value", RawMsg: line}
	}
	name := nameAndValues[0]

	rawValues := strings.Split(nameAndValues[1], ":")
	values := make([]float64, 0, len(rawValues))
	for _, rv := range rawValues {
		v, err := strconv.ParseFloat(rv, 64)
		if err != nil {
			return nil, &ParseError{Kind: KindMetric, Reason: "invalid value " + strconv.Quote(rv), RawMsg: line}
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, &ParseError{Kind: KindMetric, Reason: "empty value sequence", RawMsg: line}
	}

	typeCode := parts[1]
	if len(typeCode) > 2 {
		return nil, &ParseError{Kind: KindMetric, Reason: "invalid type " + strconv.Quote(typeCode), RawMsg: line}
	}
	metricType, ok := metricTypeCodes[typeCode]
	if !ok {
		return nil, &ParseError{Kind: KindMetric, Reason: "invalid type " + strconv.Quote(typeCode), RawMsg: line}
	}

	m := &Metric{Name: name, Values: values, MetricType: metricType, Raw: line}

	for _, seg := range parts[2:] {
		if seg == "" {
			continue
		}
		switch {
		case seg[0] == '#':
			m.Tags = splitTags(seg[1:])
		case seg[0] == '@':
			rate := seg[1:]
			m.SampleRate = &rate
		case seg[0] == 'T':
			ts := seg[1:]
			m.Timestamp = &ts
		case strings.HasPrefix(seg, "c:"):
			cid := seg[2:]
			m.ContainerID = &cid
		default:
			// Unknown segment: forward-compatible no-op, per spec.
		}
	}

	return m, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// parseEvent parses `_e{<title_len>,<text_len>}:<title>|<text>[|...]`.
func parseEvent(line string) (*Event, error) {
	const reasonBadHeader = "malformed _e{len,len}: header"

	if !strings.HasPrefix(line, "_e{") {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}
	closeBrace := strings.IndexByte(line, '}')
	if closeBrace < 0 {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}
	lens := line[len("_e{"):closeBrace]
	lenParts := strings.SplitN(lens, ",", 2)
	if len(lenParts) != 2 {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}
	titleLen, err := strconv.Atoi(lenParts[0])
	if err != nil {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}
	textLen, err := strconv.Atoi(lenParts[1])
	if err != nil {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}

	if closeBrace+1 >= len(line) || line[closeBrace+1] != ':' {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}

	titleStart := closeBrace + 2
	titleEnd := titleStart + titleLen
	if titleEnd > len(line) {
		return nil, &ParseError{Kind: KindEvent, Reason: "title length overruns line", RawMsg: line}
	}
	title := line[titleStart:titleEnd]

	if titleEnd >= len(line) || line[titleEnd] != '|' {
		return nil, &ParseError{Kind: KindEvent, Reason: reasonBadHeader, RawMsg: line}
	}
	textStart := titleEnd + 1
	textEnd := textStart + textLen
	if textEnd > len(line) {
		return nil, &ParseError{Kind: KindEvent, Reason: "text length overruns line", RawMsg: line}
	}
	text := line[textStart:textEnd]

	ev := &Event{Title: title, Text: text, AlertType: Info, Raw: line}

	rest := line[textEnd:]
	if rest != "" {
		if rest[0] != '|' {
			return nil, &ParseError{Kind: KindEvent, Reason: "expected '|' after text", RawMsg: line}
		}
		rest = rest[1:]
	}
	for _, seg := range strings.Split(rest, "|") {
		if seg == "" {
			continue
		}
		switch {
		case seg[0] == '#':
			ev.Tags = splitTags(seg[1:])
		case strings.HasPrefix(seg, "d:"):
			v := seg[2:]
			ev.Timestamp = &v
		case strings.HasPrefix(seg, "h:"):
			v := seg[2:]
			ev.Hostname = &v
		case strings.HasPrefix(seg, "p:"):
			v := seg[2:]
			ev.Priority = &v
		case strings.HasPrefix(seg, "t:"):
			v := seg[2:]
			if at, ok := alertTypeCodes[v]; ok {
				ev.AlertType = at
			} else {
				ev.AlertType = Info
			}
		case strings.HasPrefix(seg, "k:"):
			v := seg[2:]
			ev.AggregationKey = &v
		case strings.HasPrefix(seg, "s:"):
			v := seg[2:]
			ev.SourceTypeName = &v
		default:
			return nil, &ParseError{Kind: KindEvent, Reason: "unrecognized field prefix in " + strconv.Quote(seg), RawMsg: line}
		}
	}

	return ev, nil
}

// parseServiceCheck parses `_sc|<name>|<status>[|...]`.
func parseServiceCheck(line string) (*ServiceCheck, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 || parts[0] != "_sc" {
		return nil, &ParseError{Kind: KindServiceCheck, Reason: "malformed _sc| header", RawMsg: line}
	}

	name := parts[1]
	statusCode, err := strconv.Atoi(parts[2])
	if err != nil || statusCode < 0 || statusCode > 3 {
		return nil, &ParseError{Kind: KindServiceCheck, Reason: "invalid status " + strconv.Quote(parts[2]), RawMsg: line}
	}

	sc := &ServiceCheck{Name: name, Status: ServiceCheckStatus(statusCode), Raw: line}

	for _, seg := range parts[3:] {
		if seg == "" {
			continue
		}
		switch {
		case seg[0] == '#':
			sc.Tags = splitTags(seg[1:])
		case strings.HasPrefix(seg, "d:"):
			v := seg[2:]
			sc.Timestamp = &v
		case strings.HasPrefix(seg, "h:"):
			v := seg[2:]
			sc.Hostname = &v
		case strings.HasPrefix(seg, "m:"):
			v := seg[2:]
			sc.Message = &v
		default:
			return nil, &ParseError{Kind: KindServiceCheck, Reason: "unrecognized field prefix in " + strconv.Quote(seg), RawMsg: line}
		}
	}

	return sc, nil
}
