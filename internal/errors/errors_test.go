package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
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
			name:    "config error",
			code:    "E101",
			wantMsg: "Unknown token store",
			wantCat: CategoryConfig,
		},
		{
			name:    "session error",
			code:    "E200",
			wantMsg: "Not signed in",
			wantCat: CategorySession,
		},
		{
			name:    "storage error",
			code:    "E220",
			wantMsg: "Token storage unavailable",
			wantCat: CategoryStorage,
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

func TestNewCopiesSuggestion(t *testing.T) {
	err := New("E200")
	if err.Suggestion != "Run 'storefront login' first" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	err.WithSuggestion("changed")
	if tmpl, _ := GetTemplate("E200"); tmpl.Suggestion == "changed" {
		t.Error("WithSuggestion modified the registry")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown sort %q", "cheapest")
	if err.Message != `unknown sort "cheapest"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{"code only", New("E100"), "E100: Invalid API URL"},
		{"with field", New("E100").WithField("apiUrl"), "E100: Invalid API URL (apiUrl)"},
		{"wrapped", New("E220").Wrap(fmt.Errorf("permission denied")), "E220: Token storage unavailable: permission denied"},
		{"no code", &StoreError{Message: "test error"}, "test error"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := New("E202").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}
	outer := fmt.Errorf("whoami: %w", err)
	var se *StoreError
	if !stderrors.As(outer, &se) || se.Code != "E202" {
		t.Errorf("errors.As = %v", se)
	}
	if Code(outer) != "E202" {
		t.Errorf("Code() = %q", Code(outer))
	}
	if Code(cause) != "" {
		t.Errorf("Code(plain) = %q", Code(cause))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E204") != nil {
		t.Error("FromError(nil) != nil")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "E204")
	if got.Code != "E204" || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}

	existing := New("E101")
	if FromError(fmt.Errorf("load: %w", existing), "E204") != existing {
		t.Error("FromError re-wrapped an existing StoreError")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E101").
		WithField("tokenStore.kind").
		WithDetail("dynamo is not supported").
		WithExample("tokenStore:\n  kind: file")
	out := err.Format()

	for _, want := range []string{
		"ERROR E101: Unknown token store",
		"Field: tokenStore.kind",
		"dynamo is not supported",
		"Hint: Use one of",
		"Example:",
		"    kind: file",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatColors(t *testing.T) {
	EnableColors()
	if out := New("E100").Format(); !strings.Contains(out, colorRed) {
		t.Error("colors enabled but no ANSI codes in output")
	}
	DisableColors()
	defer EnableColors()
	if out := New("E100").Format(); strings.Contains(out, "\033[") {
		t.Error("colors disabled but ANSI codes in output")
	}
}

func TestFormatCompact(t *testing.T) {
	got := New("E103").WithField("timeout").FormatCompact()
	if got != "E103: Invalid timeout (timeout)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E202").Wrap(stderrors.New("connection refused")).WithField("apiUrl")

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v\n%s", jerr, err.FormatJSON())
	}
	want := map[string]string{
		"code":     "E202",
		"category": "network",
		"field":    "apiUrl",
		"cause":    "connection refused",
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Errorf("%s = %q, want %q", k, decoded[k], v)
		}
	}
}

func TestFprintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	FprintError(&buf, fmt.Errorf("wrapped: %w", New("E200")))
	if !strings.Contains(buf.String(), "ERROR E200: Not signed in") {
		t.Errorf("coded error output = %q", buf.String())
	}

	buf.Reset()
	FprintError(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("plain error output = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("the quick brown fox jumps over the lazy dog", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") != nil")
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("empty registry")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %s before %s", codes[i-1], codes[i])
		}
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasPrefix(code, "E1") && !strings.HasPrefix(code, "E2") {
			t.Errorf("%s: outside the E1xx/E2xx ranges", code)
		}
	}

	Register("E299", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	defer delete(registry, "E299")
	if New("E299").Message != "Custom" {
		t.Error("registered template not used")
	}
}
