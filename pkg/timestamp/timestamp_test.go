package timestamp

import (
	"testing"
	"time"
)

func TestNow(t *testing.T) {
	before := time.Now().UnixMilli()
	got := Now()
	after := time.Now().UnixMilli()

	if got < before || got > after {
		t.Errorf("Now() = %d, want between %d and %d", got, before, after)
	}
}

func TestToUnixMs(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want int64
	}{
		{"zero time", time.Time{}, 0},
		{"epoch plus one", time.UnixMilli(1), 1},
		{"known instant", time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), 1672574400000},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ToUnixMs(test.in); got != test.want {
				t.Errorf("ToUnixMs(%v) = %d, want %d", test.in, got, test.want)
			}
		})
	}
}

func TestFromUnixMs(t *testing.T) {
	if !FromUnixMs(0).IsZero() {
		t.Error("FromUnixMs(0) should return zero time")
	}

	ms := int64(1672574400000)
	got := FromUnixMs(ms)
	if got.UnixMilli() != ms {
		t.Errorf("FromUnixMs(%d).UnixMilli() = %d", ms, got.UnixMilli())
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want string
	}{
		{"zero", 0, ""},
		{"known instant", 1672574400000, "2023-01-01T12:00:00Z"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Format(test.in); got != test.want {
				t.Errorf("Format(%d) = %q, want %q", test.in, got, test.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"zero int64", int64(0), 0},
		{"milliseconds int64", int64(1672574400000), 1672574400000},
		{"seconds int64", int64(1672574400), 1672574400000},
		{"milliseconds float64", float64(1672574400000), 1672574400000},
		{"seconds float64", float64(1672574400), 1672574400000},
		{"int seconds", 1672574400, 1672574400000},
		{"rfc3339 string", "2023-01-01T12:00:00Z", 1672574400000},
		{"numeric string seconds", "1672574400", 1672574400000},
		{"numeric string millis", "1672574400000", 1672574400000},
		{"empty string", "", 0},
		{"garbage string", "not a timestamp", 0},
		{"unsupported type", []int{1, 2}, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Parse(test.in); got != test.want {
				t.Errorf("Parse(%v) = %d, want %d", test.in, got, test.want)
			}
		})
	}
}

func TestParse_TimeValues(t *testing.T) {
	instant := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := Parse(instant); got != 1672574400000 {
		t.Errorf("Parse(time.Time) = %d, want 1672574400000", got)
	}
	if got := Parse(&instant); got != 1672574400000 {
		t.Errorf("Parse(*time.Time) = %d, want 1672574400000", got)
	}
	var nilTime *time.Time
	if got := Parse(nilTime); got != 0 {
		t.Errorf("Parse(nil *time.Time) = %d, want 0", got)
	}
}

func TestSince(t *testing.T) {
	if Since(0) != 0 {
		t.Error("Since(0) should return 0")
	}

	past := Now() - 5000
	d := Since(past)
	if d < 4*time.Second || d > 10*time.Second {
		t.Errorf("Since(now-5s) = %v, want about 5s", d)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"current", Now(), false},
		{"negative", -1, true},
		{"far future", 32503680000001, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Validate(test.in)
			if (err != nil) != test.wantErr {
				t.Errorf("Validate(%d) error = %v, wantErr %v", test.in, err, test.wantErr)
			}
		})
	}
}
