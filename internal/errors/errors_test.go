package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "E001",
			wantMsg: "Tracking frame imbalance",
			wantCat: CategoryRuntime,
		},
		{
			name:    "validation error",
			code:    "E040",
			wantMsg: "Missing required prop",
			wantCat: CategoryValidation,
		},
		{
			name:    "protocol error",
			code:    "E060",
			wantMsg: "Malformed client event",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryValidation, "prop %q rejected", "count")
	if err.Message != `prop "count" rejected` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Newf must not assign a code, got %q", err.Code)
	}
}

func TestErrorString(t *testing.T) {
	err := New("E040")
	if got := err.Error(); got != "E040: Missing required prop" {
		t.Errorf("Error() = %q", got)
	}

	uncoded := Newf(CategoryRuntime, "boom")
	if got := uncoded.Error(); got != "boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := New("E080").Wrap(inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is must see through the wrapper")
	}

	var ee *EffuseError
	wrapped := fmt.Errorf("saving: %w", err)
	if !errors.As(wrapped, &ee) || ee.Code != "E080" {
		t.Error("errors.As must recover the coded error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E080") != nil {
		t.Error("FromError(nil) must be nil")
	}

	ee := New("E041")
	if FromError(ee, "E080") != ee {
		t.Error("FromError must pass coded errors through")
	}

	converted := FromError(errors.New("x"), "E080")
	if converted.Code != "E080" || converted.Wrapped == nil {
		t.Errorf("FromError conversion: %+v", converted)
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New("E061"))
	if !IsCode(err, "E061") {
		t.Error("IsCode must find the code through wrapping")
	}
	if IsCode(err, "E060") {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(nil, "E061") {
		t.Error("IsCode(nil) must be false")
	}
}

func TestRegisterRejectsOverwrite(t *testing.T) {
	if Register("E001", ErrorTemplate{Message: "hijack"}) {
		t.Error("core codes must not be overwritable")
	}
	if !Register("X900", ErrorTemplate{Category: CategoryCLI, Message: "custom"}) {
		t.Error("new codes must register")
	}
	if New("X900").Message != "custom" {
		t.Error("registered template not used")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E060").Wrap(errors.New("eof"))
	got := err.FormatCompact()
	if !strings.Contains(got, "E060") || !strings.Contains(got, "eof") {
		t.Errorf("FormatCompact = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	defer EnableColors()
	DisableColors()

	got := New("E040").WithSuggestion("pass the prop").FormatJSON()
	for _, want := range []string{`"code":"E040"`, `"category":"validation"`, `"suggestion":"pass the prop"`} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatJSON = %q, missing %q", got, want)
		}
	}
}

func TestFormatIncludesHint(t *testing.T) {
	defer EnableColors()
	DisableColors()

	got := New("E040").WithSuggestion("pass the prop").Format()
	if !strings.Contains(got, "Hint: pass the prop") {
		t.Errorf("Format = %q", got)
	}
	if !strings.Contains(got, "Learn more:") {
		t.Errorf("Format missing doc link: %q", got)
	}
}
