package parser

import "testing"

func TestParseGauge(t *testing.T) {
	got, err := ParseLine("daemon:666|g")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m, ok := got.(*Metric)
	if !ok {
		t.Fatalf("got %T, want *Metric", got)
	}
	if m.Name != "daemon" || m.MetricType != Gauge || len(m.Values) != 1 || m.Values[0] != 666.0 {
		t.Errorf("got %+v", m)
	}
	if m.Raw != "daemon:666|g" {
		t.Errorf("Raw = %q", m.Raw)
	}
}

func TestParseMultiValue(t *testing.T) {
	got, err := ParseLine("daemon:666:777|g")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m := got.(*Metric)
	if len(m.Values) != 2 || m.Values[0] != 666 || m.Values[1] != 777 {
		t.Errorf("got %+v", m.Values)
	}
}

func TestParseMetricWithAllFields(t *testing.T) {
	got, err := ParseLine("statsd.example.time.micros:2.39283|d|@1.000000|#environment:dev|T1234|c:abc123")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	m := got.(*Metric)
	if m.Name != "statsd.example.time.micros" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.MetricType != Distribution {
		t.Errorf("MetricType = %v", m.MetricType)
	}
	if m.SampleRate == nil || *m.SampleRate != "1.000000" {
		t.Errorf("SampleRate = %v", m.SampleRate)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "environment:dev" {
		t.Errorf("Tags = %v", m.Tags)
	}
	if m.Timestamp == nil || *m.Timestamp != "1234" {
		t.Errorf("Timestamp = %v", m.Timestamp)
	}
	if m.ContainerID == nil || *m.ContainerID != "abc123" {
		t.Errorf("ContainerID = %v", m.ContainerID)
	}
}

func TestParseMetricUnknownFieldIgnored(t *testing.T) {
	got, err := ParseLine("daemon:666|g|zzz:whatever")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got.(*Metric).Name != "daemon" {
		t.Errorf("got %+v", got)
	}
}

func TestParseMetricInvalidType(t *testing.T) {
	_, err := ParseLine("daemon:666|bogus")
	if err == nil {
		t.Fatalf("want error")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != KindMetric {
		t.Fatalf("got %v", err)
	}
}

func TestParseMetricInvalidValue(t *testing.T) {
	_, err := ParseLine("daemon:notanumber|g")
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestParseMetricMissingColon(t *testing.T) {
	_, err := ParseLine("daemon666|g")
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestParseEvent(t *testing.T) {
	got, err := ParseLine("_e{2,4}:ab|cdef|d:160|h:myhost|p:high|t:error|#env:prod,onfire:true")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	ev, ok := got.(*Event)
	if !ok {
		t.Fatalf("got %T, want *Event", got)
	}
	if ev.Title != "ab" || ev.Text != "cdef" {
		t.Errorf("title/text = %q/%q", ev.Title, ev.Text)
	}
	if ev.Timestamp == nil || *ev.Timestamp != "160" {
		t.Errorf("Timestamp = %v", ev.Timestamp)
	}
	if ev.Hostname == nil || *ev.Hostname != "myhost" {
		t.Errorf("Hostname = %v", ev.Hostname)
	}
	if ev.Priority == nil || *ev.Priority != "high" {
		t.Errorf("Priority = %v", ev.Priority)
	}
	if ev.AlertType != Error {
		t.Errorf("AlertType = %v, want Error", ev.AlertType)
	}
	if len(ev.Tags) != 2 || ev.Tags[0] != "env:prod" || ev.Tags[1] != "onfire:true" {
		t.Errorf("Tags = %v", ev.Tags)
	}
}

func TestParseEventDefaultsAlertTypeToInfo(t *testing.T) {
	got, err := ParseLine("_e{1,1}:a|b")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got.(*Event).AlertType != Info {
		t.Errorf("AlertType = %v, want Info", got.(*Event).AlertType)
	}
}

func TestParseEventTitleLengthOverrun(t *testing.T) {
	_, err := ParseLine("_e{99,1}:a|b")
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestParseEventUnknownFieldIsError(t *testing.T) {
	_, err := ParseLine("_e{1,1}:a|b|z:bad")
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestParseServiceCheck(t *testing.T) {
	got, err := ParseLine("_sc|ab|2|d:160|h:myhost|#env:prod|m:mymessage")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	sc, ok := got.(*ServiceCheck)
	if !ok {
		t.Fatalf("got %T, want *ServiceCheck", got)
	}
	if sc.Name != "ab" || sc.Status != Critical {
		t.Errorf("name/status = %q/%v", sc.Name, sc.Status)
	}
	if sc.Timestamp == nil || *sc.Timestamp != "160" {
		t.Errorf("Timestamp = %v", sc.Timestamp)
	}
	if sc.Hostname == nil || *sc.Hostname != "myhost" {
		t.Errorf("Hostname = %v", sc.Hostname)
	}
	if len(sc.Tags) != 1 || sc.Tags[0] != "env:prod" {
		t.Errorf("Tags = %v", sc.Tags)
	}
	if sc.Message == nil || *sc.Message != "mymessage" {
		t.Errorf("Message = %v", sc.Message)
	}
}

func TestParseServiceCheckInvalidStatus(t *testing.T) {
	_, err := ParseLine("_sc|ab|9")
	if err == nil {
		t.Fatalf("want error")
	}
}

func TestParseServiceCheckUnknownFieldIsError(t *testing.T) {
	_, err := ParseLine("_sc|ab|0|z:bad")
	if err == nil {
		t.Fatalf("want error")
	}
}
