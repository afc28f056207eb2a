package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/font/basicfont"
)

func TestFitTextFullWhenItFits(t *testing.T) {
	face := basicfont.Face7x13
	got := fitText(face, 1000, 1, "Verstappen", "Red Bull")
	assert.Equal(t, "1. Verstappen (Red Bull)", got)
}

func TestFitTextShrinksTeamFirst(t *testing.T) {
	face := basicfont.Face7x13
	full := MeasureText(face, "1. Verstappen (Red Bull)")

	got := fitText(face, full-1, 1, "Verstappen", "Red Bull")
	assert.Contains(t, got, "Verstappen", "driver survives while the team shrinks")
	assert.LessOrEqual(t, MeasureText(face, got), full-1)
}

func TestFitTextMinimalFormOnTinyWidth(t *testing.T) {
	face := basicfont.Face7x13
	got := fitText(face, 10, 3, "Verstappen", "Red Bull")
	assert.Equal(t, "3. Verst.. (Red..)", got)
}

func TestFitTextShortNamesNeverPadded(t *testing.T) {
	face := basicfont.Face7x13
	got := fitText(face, 10, 2, "Yuki", "RB")
	assert.Equal(t, "2. Yuki.. (RB..)", got)
}

func TestFitTextWithinWidthOrMinimal(t *testing.T) {
	face := basicfont.Face7x13
	minimal := "1. Verst.. (Red..)"
	for width := 400; width >= 10; width -= 7 {
		got := fitText(face, width, 1, "Verstappen", "Red Bull Racing")
		if MeasureText(face, got) > width {
			// Only the last-resort form may overflow.
			assert.Equal(t, minimal, got)
		}
	}
}
