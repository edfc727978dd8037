package store

import (
	"database/sql"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voltstream/voltstream/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

func TestParseNullFloat(t *testing.T) {
	tests := []struct {
		name  string
		input sql.NullString
		want  *float64
	}{
		{
			name:  "null yields nil",
			input: sql.NullString{},
			want:  nil,
		},
		{
			name:  "empty string yields nil",
			input: sql.NullString{String: "", Valid: true},
			want:  nil,
		},
		{
			name:  "whitespace yields nil",
			input: sql.NullString{String: "   ", Valid: true},
			want:  nil,
		},
		{
			name:  "non-numeric yields nil",
			input: sql.NullString{String: "offline", Valid: true},
			want:  nil,
		},
		{
			name:  "NaN yields nil",
			input: sql.NullString{String: "NaN", Valid: true},
			want:  nil,
		},
		{
			name:  "infinity yields nil",
			input: sql.NullString{String: "Inf", Valid: true},
			want:  nil,
		},
		{
			name:  "negative infinity yields nil",
			input: sql.NullString{String: "-Inf", Valid: true},
			want:  nil,
		},
		{
			name:  "zero is a real reading",
			input: sql.NullString{String: "0", Valid: true},
			want:  floatPtr(0),
		},
		{
			name:  "decimal reading",
			input: sql.NullString{String: "231.75", Valid: true},
			want:  floatPtr(231.75),
		},
		{
			name:  "negative reading",
			input: sql.NullString{String: "-12.5", Valid: true},
			want:  floatPtr(-12.5),
		},
		{
			name:  "padded reading",
			input: sql.NullString{String: " 50.0 ", Valid: true},
			want:  floatPtr(50.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNullFloat(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				if assert.NotNil(t, got) {
					assert.Equal(t, *tt.want, *got)
				}
			}
		})
	}
}

func TestLocationLabel(t *testing.T) {
	valid := func(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

	label := locationLabel(valid("Engineering Building"), valid("3"), valid("301"))
	if assert.NotNil(t, label) {
		assert.Equal(t, "Engineering Building floor 3 room 301", *label)
	}

	label = locationLabel(valid("Library"), sql.NullString{}, sql.NullString{})
	if assert.NotNil(t, label) {
		assert.Equal(t, "Library", *label)
	}

	assert.Nil(t, locationLabel(sql.NullString{}, sql.NullString{}, sql.NullString{}))
}

func floatPtr(v float64) *float64 {
	return &v
}
