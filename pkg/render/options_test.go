package render

import (
	"testing"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"alpha", ModeAlpha, false},
		{"ALPHA", ModeAlpha, false},
		{"opaque", ModeOpaque, false},
		{" opaque ", ModeOpaque, false},
		{"sepia", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidMode) {
			t.Errorf("ParseMode(%q) code = %s", tt.input, errors.GetCode(err))
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	for _, m := range []Mode{ModeAlpha, ModeOpaque} {
		parsed, err := ParseMode(m.String())
		if err != nil || parsed != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), parsed, err)
		}
	}
	if Mode(9).String() != "Mode(9)" {
		t.Errorf("unknown mode String() = %q", Mode(9).String())
	}
}

func TestParseAllMissing(t *testing.T) {
	tests := []struct {
		input   string
		want    AllMissingPolicy
		wantErr bool
	}{
		{"error", AllMissingError, false},
		{"blank", AllMissingBlank, false},
		{"Blank", AllMissingBlank, false},
		{"ignore", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAllMissing(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAllMissing(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAllMissing(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{"tiff", FormatTIFF, false},
		{"tif", FormatTIFF, false},
		{"jpeg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ParseFormat(%q) code = %s", tt.input, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		path        string
		format      Format
		contentType string
		ext         string
	}{
		{"out.png", FormatPNG, "image/png", ".png"},
		{"out", FormatPNG, "image/png", ".png"},
		{"OUT.TIF", FormatTIFF, "image/tiff", ".tiff"},
		{"maps/t2m.tiff", FormatTIFF, "image/tiff", ".tiff"},
	}

	for _, tt := range tests {
		f := FormatForPath(tt.path)
		if f != tt.format {
			t.Errorf("FormatForPath(%q) = %q, want %q", tt.path, f, tt.format)
		}
		if f.ContentType() != tt.contentType {
			t.Errorf("%q.ContentType() = %q, want %q", f, f.ContentType(), tt.contentType)
		}
		if f.Extension() != tt.ext {
			t.Errorf("%q.Extension() = %q, want %q", f, f.Extension(), tt.ext)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	r := New()
	if r.Mode() != ModeAlpha {
		t.Errorf("default Mode() = %v, want alpha", r.Mode())
	}
	if r.Format() != FormatPNG {
		t.Errorf("default Format() = %v, want png", r.Format())
	}
	if r.allMissing != AllMissingError {
		t.Errorf("default all-missing = %v, want error", r.allMissing)
	}
	if r.scale != 1 {
		t.Errorf("default scale = %d, want 1", r.scale)
	}

	r = New(WithScale(0), WithScale(-2), WithLogger(nil))
	if r.scale != 1 {
		t.Errorf("WithScale(<1) should be ignored, scale = %d", r.scale)
	}
	if r.logger == nil {
		t.Error("WithLogger(nil) should keep the default logger")
	}
}
