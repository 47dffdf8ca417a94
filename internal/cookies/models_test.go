package cookies

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestCookie_IsExpired(t *testing.T) {
	t.Run("returns false for session cookie (zero expiry)", func(t *testing.T) {
		c := &Cookie{
			Name:    "session",
			Value:   "abc123",
			Expires: time.Time{},
		}
		if c.IsExpired() {
			t.Error("expected session cookie to not be expired")
		}
	})

	t.Run("returns false for future expiry", func(t *testing.T) {
		c := &Cookie{
			Name:    "token",
			Value:   "xyz",
			Expires: time.Now().Add(24 * time.Hour),
		}
		if c.IsExpired() {
			t.Error("expected future cookie to not be expired")
		}
	})

	t.Run("returns true for past expiry", func(t *testing.T) {
		c := &Cookie{
			Name:    "old",
			Value:   "stale",
			Expires: time.Now().Add(-24 * time.Hour),
		}
		if !c.IsExpired() {
			t.Error("expected past cookie to be expired")
		}
	})

	t.Run("expiry equal to now is not expired", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c := &Cookie{Name: "edge", Expires: now}
		if c.ExpiredAt(now) {
			t.Error("expected cookie expiring exactly now to be kept")
		}
	})
}

func TestCookie_IsSession(t *testing.T) {
	if !(&Cookie{Name: "session"}).IsSession() {
		t.Error("expected cookie with zero expiry to be session cookie")
	}
	if (&Cookie{Name: "persistent", Expires: time.Now().Add(time.Hour)}).IsSession() {
		t.Error("expected cookie with expiry to not be session cookie")
	}
}

func TestCookie_Matches(t *testing.T) {
	c := &Cookie{Name: "sid", Value: "1", Domain: "example.com", Path: "/api"}

	tests := []struct {
		host   string
		path   string
		secure bool
		want   bool
	}{
		{"example.com", "/api", false, true},
		{"a.example.com", "/api/users", false, true},
		{"example.com", "/apiv2", false, false},
		{"example.com", "/", false, false},
		{"evilexample.com", "/api", false, false},
	}
	for _, tt := range tests {
		if got := c.Matches(tt.host, tt.path, tt.secure); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.host, tt.path, got, tt.want)
		}
	}

	secure := &Cookie{Name: "s", Value: "1", Domain: "example.com", Path: "/", Secure: true}
	if secure.Matches("example.com", "/", false) {
		t.Error("secure cookie must not be sent over plain http")
	}
	if !secure.Matches("example.com", "/", true) {
		t.Error("secure cookie should be sent over https")
	}
}

func TestCookie_ToRecord(t *testing.T) {
	t.Run("session cookie has null expires", func(t *testing.T) {
		c := &Cookie{Name: "a", Value: "1", Domain: "example.com", Path: "/"}
		data, err := json.Marshal(c.ToRecord())
		if err != nil {
			t.Fatal(err)
		}
		want := `{"name":"a","domain":"example.com","path":"/","expires":null,"secure":false,"value":"1"}`
		if string(data) != want {
			t.Errorf("got %s, want %s", data, want)
		}
	})

	t.Run("expiry is canonical", func(t *testing.T) {
		c := &Cookie{
			Name:    "a",
			Value:   "1",
			Domain:  "example.com",
			Path:    "/",
			Expires: time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC),
			Secure:  true,
		}
		r := c.ToRecord()
		if r.Expires == nil || *r.Expires != "2030-05-06T07:08:09+0000" {
			t.Errorf("unexpected expires %v", r.Expires)
		}
		back, err := Validate(r.Raw(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if *back != *c {
			t.Errorf("record round trip: got %+v, want %+v", back, c)
		}
	})
}

func TestToHTTPCookie(t *testing.T) {
	c := &Cookie{
		Name:    "session",
		Value:   "abc123",
		Domain:  "example.com",
		Path:    "/api",
		Secure:  true,
		Expires: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	hc := c.ToHTTPCookie()
	if hc.Name != "session" || hc.Value != "abc123" {
		t.Errorf("unexpected name/value %q=%q", hc.Name, hc.Value)
	}
	if hc.Domain != "example.com" || hc.Path != "/api" || !hc.Secure {
		t.Errorf("unexpected attributes %+v", hc)
	}
	if hc.RawExpires != "Tue, 01 Jan 2030 00:00:00 GMT" {
		t.Errorf("unexpected raw expires %q", hc.RawExpires)
	}
}

func TestFromHTTPCookie(t *testing.T) {
	t.Run("negative max-age becomes deletion", func(t *testing.T) {
		raw := FromHTTPCookie(&http.Cookie{Name: "gone", Value: "x", MaxAge: -1})
		if raw[FieldExpires] != "0" {
			t.Errorf("expected expires 0, got %q", raw[FieldExpires])
		}
	})

	t.Run("positive max-age becomes a timestamp", func(t *testing.T) {
		raw := FromHTTPCookie(&http.Cookie{Name: "t", Value: "x", MaxAge: 3600})
		c, err := Validate(raw, nil)
		if err == nil {
			t.Fatalf("expected missing domain error, got %+v", c)
		}
		raw[FieldDomain] = "example.com"
		raw[FieldPath] = "/"
		c, err = Validate(raw, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d := time.Until(c.Expires); d < 59*time.Minute || d > time.Hour {
			t.Errorf("unexpected expiry distance %v", d)
		}
	})

	t.Run("huge max-age is clamped, not wrapped into the past", func(t *testing.T) {
		raw := FromHTTPCookie(&http.Cookie{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", MaxAge: 10_000_000_000})
		c, err := Validate(raw, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c.IsExpired() {
			t.Errorf("cookie should not be expired, expires %s", FormatExpires(c.Expires))
		}
		if !c.Expires.Equal(MaxExpires) {
			t.Errorf("expected expiry %s, got %s", FormatExpires(MaxExpires), FormatExpires(c.Expires))
		}
	})

	t.Run("missing domain and path stay absent", func(t *testing.T) {
		raw := FromHTTPCookie(&http.Cookie{Name: "a", Value: "b"})
		if _, ok := raw[FieldDomain]; ok {
			t.Error("domain should be absent")
		}
		if _, ok := raw[FieldPath]; ok {
			t.Error("path should be absent")
		}
	})
}
