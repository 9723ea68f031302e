package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1921", want: "1921"},
		{in: "1921-03", want: "1921-03"},
		{in: "1921-03-05", want: "1921-03-05"},
		{in: "1921~", want: "1921~"},
		{in: "1921-03?", want: "1921-03?"},
		{in: "1920/1929", want: "1920/1929"},
		{in: "03/05/1921", want: "1921-03-05"},
		{in: "March 5, 1921", want: "1921-03-05"},
		{in: "Mar 1921", want: "1921-03"},
		{in: "2021-06-01T10:00:00Z", want: "2021-06-01"},
		{in: "0000", want: "0000"},
		{in: "0000-01", want: "0000-01"},
		{in: "circa 1850", want: "circa 1850"},
		{in: "circa 1850-1860", want: "circa 1850-1860"},
		{in: "2001-21", want: "2001-21"},
		{in: "1985/..", want: "1985/.."},
		{in: "../1985", want: "../1985"},
		{in: "31/12/1999", want: "31/12/1999"},
		{in: "unknown", want: "unknown"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestDateYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1921-03-05", want: "1921"},
		{in: "1920/1929", want: "1920"},
		{in: "0000", want: "0000"},
		{in: "2001-21", want: "2001"},
		{in: "1985/..", want: "1985"},
		{in: "circa 1850-1860", want: "1850"},
		{in: "n.d.", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DateYear(tt.in))
		})
	}
}

func TestParseDateRejectsUnmodeledForms(t *testing.T) {
	for _, in := range []string{"2001-21", "1985/..", "31/12/1999", "circa 1850", ""} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
	assert.Equal(t, "", Date{}.String())
}

func TestParseDateRange(t *testing.T) {
	d, ok := ParseDate("1920-01/1929-12")
	assert.True(t, ok)
	assert.Equal(t, 1920, d.Year)
	if assert.NotNil(t, d.End) {
		assert.Equal(t, 1929, d.End.Year)
		assert.Equal(t, 12, d.End.Month)
	}
}
