package extract

import (
	"testing"
	"time"

	"github.com/tony-held-carb/feedback-portal-sub001/internal/schema"
)

// ----------------------------------------------------------------------------
// Coerce Tests
// ----------------------------------------------------------------------------

func TestCoerce(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		want          schema.ValueType
		wantKind      Kind
		wantCanonical string
		wantWarn      bool
	}{
		// Strings
		{
			name:          "plain string",
			input:         "Acme",
			want:          schema.TypeString,
			wantKind:      KindString,
			wantCanonical: "Acme",
		},
		{
			name:          "string trimmed",
			input:         "  Acme Corp  ",
			want:          schema.TypeString,
			wantKind:      KindString,
			wantCanonical: "Acme Corp",
		},
		{
			name:          "formula escape stripped",
			input:         `="0042"`,
			want:          schema.TypeString,
			wantKind:      KindString,
			wantCanonical: "0042",
		},
		{
			name:     "empty string is absence not error",
			input:    "",
			want:     schema.TypeString,
			wantKind: KindAbsent,
		},
		{
			name:     "whitespace only is absence",
			input:    "   ",
			want:     schema.TypeInteger,
			wantKind: KindAbsent,
		},
		{
			name:          "dropdown placeholder stays a value",
			input:         "Please Select",
			want:          schema.TypeString,
			wantKind:      KindString,
			wantCanonical: "Please Select",
		},

		// Integers
		{
			name:          "plain integer",
			input:         "1002001",
			want:          schema.TypeInteger,
			wantKind:      KindInteger,
			wantCanonical: "1002001",
		},
		{
			name:          "integer with thousands separator",
			input:         "1,002,001",
			want:          schema.TypeInteger,
			wantKind:      KindInteger,
			wantCanonical: "1002001",
		},
		{
			name:          "float-rendered integer",
			input:         "1002001.0",
			want:          schema.TypeInteger,
			wantKind:      KindInteger,
			wantCanonical: "1002001",
		},
		{
			name:          "accounting negative integer",
			input:         "(42)",
			want:          schema.TypeInteger,
			wantKind:      KindInteger,
			wantCanonical: "-42",
		},
		{
			name:     "fractional value does not coerce to integer",
			input:    "3.5",
			want:     schema.TypeInteger,
			wantKind: KindAbsent,
			wantWarn: true,
		},
		{
			name:     "text does not coerce to integer",
			input:    "Acme",
			want:     schema.TypeInteger,
			wantKind: KindAbsent,
			wantWarn: true,
		},

		// Floats
		{
			name:          "plain float",
			input:         "34.05",
			want:          schema.TypeFloat,
			wantKind:      KindFloat,
			wantCanonical: "34.05",
		},
		{
			name:          "currency float",
			input:         "$1,234.56",
			want:          schema.TypeFloat,
			wantKind:      KindFloat,
			wantCanonical: "1234.56",
		},
		{
			name:          "negative float",
			input:         "-118.25",
			want:          schema.TypeFloat,
			wantKind:      KindFloat,
			wantCanonical: "-118.25",
		},
		{
			name:     "text does not coerce to float",
			input:    "north",
			want:     schema.TypeFloat,
			wantKind: KindAbsent,
			wantWarn: true,
		},

		// Datetimes (civil)
		{
			name:          "iso date",
			input:         "2025-03-14",
			want:          schema.TypeDateTime,
			wantKind:      KindDateTime,
			wantCanonical: "2025-03-14T00:00:00",
		},
		{
			name:          "iso datetime",
			input:         "2025-03-14 09:30:00",
			want:          schema.TypeDateTime,
			wantKind:      KindDateTime,
			wantCanonical: "2025-03-14T09:30:00",
		},
		{
			name:          "us date",
			input:         "3/14/2025",
			want:          schema.TypeDateTime,
			wantKind:      KindDateTime,
			wantCanonical: "2025-03-14T00:00:00",
		},
		{
			name:     "timezone-aware value dropped",
			input:    "2025-03-14T09:30:00Z",
			want:     schema.TypeDateTime,
			wantKind: KindAbsent,
			wantWarn: true,
		},
		{
			name:     "offset value dropped",
			input:    "2025-03-14T09:30:00+07:00",
			want:     schema.TypeDateTime,
			wantKind: KindAbsent,
			wantWarn: true,
		},
		{
			name:     "garbage date dropped",
			input:    "mid March",
			want:     schema.TypeDateTime,
			wantKind: KindAbsent,
			wantWarn: true,
		},

		// Booleans
		{
			name:          "yes",
			input:         "Yes",
			want:          schema.TypeBoolean,
			wantKind:      KindBool,
			wantCanonical: "true",
		},
		{
			name:          "zero",
			input:         "0",
			want:          schema.TypeBoolean,
			wantKind:      KindBool,
			wantCanonical: "false",
		},
		{
			name:     "maybe is not a boolean",
			input:    "maybe",
			want:     schema.TypeBoolean,
			wantKind: KindAbsent,
			wantWarn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warn := Coerce(tt.input, tt.want)
			if got.Kind() != tt.wantKind {
				t.Fatalf("Coerce(%q, %s) kind = %s, want %s", tt.input, tt.want, got.Kind(), tt.wantKind)
			}
			if (warn != "") != tt.wantWarn {
				t.Errorf("Coerce(%q, %s) warn = %q, wantWarn=%v", tt.input, tt.want, warn, tt.wantWarn)
			}
			if tt.wantKind != KindAbsent && got.Canonical() != tt.wantCanonical {
				t.Errorf("Canonical() = %q, want %q", got.Canonical(), tt.wantCanonical)
			}
		})
	}
}

func TestCanonicalAbsentIsEmpty(t *testing.T) {
	if got := Absent().Canonical(); got != "" {
		t.Errorf("Absent().Canonical() = %q, want empty", got)
	}
}

func TestDateTimeCanonicalIsCivil(t *testing.T) {
	// A datetime built in any location must render without zone or offset.
	loc := time.FixedZone("PST", -8*3600)
	v := DateTime(time.Date(2025, 3, 14, 9, 30, 0, 0, loc))
	if got := v.Canonical(); got != "2025-03-14T09:30:00" {
		t.Errorf("Canonical() = %q", got)
	}
}
