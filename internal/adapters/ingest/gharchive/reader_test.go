package gharchive

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
)

func gzipLines(t *testing.T, lines ...string) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	for _, l := range lines {
		if _, err := gz.Write([]byte(l + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return io.NopCloser(&buf)
}

func TestReaderStreamsEventsInOrder(t *testing.T) {
	rd, err := NewReader(gzipLines(t,
		`{"id":"1","type":"PushEvent","repo":{"id":10,"name":"pandas-dev/pandas"},"created_at":"2024-03-01T12:00:00Z"}`,
		`{"id":"2","type":"WatchEvent","repo":{"id":11,"name":"numpy/numpy"},"created_at":"2024-03-01T12:00:01Z"}`,
	))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer func() { _ = rd.Close() }()

	first, err := rd.Next()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.ID != "1" || first.Type != "PushEvent" || first.Repo.Name != "pandas-dev/pandas" {
		t.Fatalf("unexpected first event: %+v", first)
	}

	second, err := rd.Next()
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != "2" {
		t.Fatalf("unexpected second event: %+v", second)
	}

	if _, err := rd.Next(); err != io.EOF {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestReaderSkipsMalformedLines(t *testing.T) {
	rd, err := NewReader(gzipLines(t,
		`{"id":"1","type":"PushEvent","repo":{"id":10,"name":"a/b"},"created_at":"2024-03-01T12:00:00Z"}`,
		`{not json at all`,
		`{"id":"2","type":"ForkEvent","repo":{"id":11,"name":"c/d"},"created_at":"2024-03-01T12:00:01Z"}`,
	))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer func() { _ = rd.Close() }()

	var ids []string
	for {
		env, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, env.ID)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	events, skipped, bytesRead := rd.Stats()
	if events != 2 {
		t.Fatalf("events = %d, want 2", events)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if bytesRead <= 0 {
		t.Fatalf("bytes = %d, want > 0", bytesRead)
	}
}

func TestReaderRejectsNonGzip(t *testing.T) {
	if _, err := NewReader(io.NopCloser(bytes.NewBufferString("plain text"))); err == nil {
		t.Fatal("want error for non gzip input")
	}
}

func TestHourRefString(t *testing.T) {
	cases := []struct {
		hr   HourRef
		want string
	}{
		{NewHourRef(2024, 3, 1, 0), "2024-03-01-0"},
		{NewHourRef(2024, 3, 1, 5), "2024-03-01-5"},
		{NewHourRef(2024, 12, 31, 23), "2024-12-31-23"},
	}
	for _, c := range cases {
		if got := c.hr.String(); got != c.want {
			t.Fatalf("String() = %q, want %q", got, c.want)
		}
	}
}
