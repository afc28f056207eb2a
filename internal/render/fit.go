package render

import (
	"fmt"

	"golang.org/x/image/font"
)

// fitText composes "{pos}. {driver} ({team})" and shrinks it until it
// renders within maxWidth. The team name gives way before the driver
// name. If even the minimum lengths overflow, the minimal form is
// returned regardless; callers accept that one documented overflow.
func fitText(face font.Face, maxWidth, pos int, driver, team string) string {
	width := func(s string) int { return MeasureText(face, s) }

	full := fmt.Sprintf("%d. %s (%s)", pos, driver, team)
	if width(full) <= maxWidth {
		return full
	}

	teamRunes := []rune(team)
	for i := len(teamRunes); i > 2; i-- {
		s := fmt.Sprintf("%d. %s (%s..)", pos, driver, string(teamRunes[:i]))
		if width(s) <= maxWidth {
			return s
		}
	}

	shortTeam := string(truncRunes(teamRunes, 3)) + ".."
	driverRunes := []rune(driver)
	for i := len(driverRunes); i > 2; i-- {
		s := fmt.Sprintf("%d. %s. (%s)", pos, string(driverRunes[:i]), shortTeam)
		if width(s) <= maxWidth {
			return s
		}
	}

	return fmt.Sprintf("%d. %s.. (%s..)", pos,
		string(truncRunes(driverRunes, 5)), string(truncRunes(teamRunes, 3)))
}

func truncRunes(r []rune, n int) []rune {
	if len(r) > n {
		return r[:n]
	}
	return r
}
