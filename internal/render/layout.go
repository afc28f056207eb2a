package render

// Layout is the fixed pixel partitioning of the 800x480 canvas. All
// values are constants shared by every render call; nothing here is
// mutated at runtime.
type Layout struct {
	// Header
	HeaderHeight   int
	HeaderSplitX   int
	HeaderPaddingX int

	// Main content split
	ContentYStart   int
	LeftColumnWidth int
	RightColumnX    int

	// Track map area (left column)
	TrackTop        int
	TrackSideMargin int

	// Schedule (right column)
	ScheduleTitleY   int
	ScheduleStartY   int
	ScheduleRowH     int
	ScheduleDateX    int
	ScheduleDayX     int
	ScheduleTimeX    int
	ScheduleNameX    int
	ScheduleGuardGap int

	// Historical results (footer area)
	ResultsYStart     int
	ResultsCol1X      int
	ResultsCol2X      int
	ResultsTimeOffset int
	ResultsRowH       int
	ResultsDataYGap   int

	// Circuit stats (between schedule and results)
	StatsRowH int

	// General
	Padding        int
	SeparatorWidth int
}

// DefaultLayout partitions the canvas the way the production panels
// expect it. The schedule guard gap reserves room for the countdown box
// and stats block below the last schedule row; treat it as tunable, not
// derived.
func DefaultLayout() Layout {
	return Layout{
		HeaderHeight:   90,
		HeaderSplitX:   230,
		HeaderPaddingX: 15,

		ContentYStart:   105,
		LeftColumnWidth: 500,
		RightColumnX:    510,

		TrackTop:        92,
		TrackSideMargin: 3,

		ScheduleTitleY:   100,
		ScheduleStartY:   140,
		ScheduleRowH:     28,
		ScheduleDateX:    510,
		ScheduleDayX:     575,
		ScheduleTimeX:    620,
		ScheduleNameX:    680,
		ScheduleGuardGap: 80,

		ResultsYStart:     385,
		ResultsCol1X:      109,
		ResultsCol2X:      455,
		ResultsTimeOffset: 260,
		ResultsRowH:       20,
		ResultsDataYGap:   4,

		StatsRowH: 18,

		Padding:        15,
		SeparatorWidth: 2,
	}
}

// ScheduleGuardY is the Y offset past which no more schedule rows are
// drawn; entries that would cross it are dropped.
func (l Layout) ScheduleGuardY() int {
	return l.ResultsYStart - l.ScheduleGuardGap
}
