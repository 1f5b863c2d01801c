package event

import (
	"reflect"
	"testing"

	"github.com/mkombe/ratiba/core"
)

func day(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) failed: %v", s, err)
	}
	return d
}

func evt(id, email, date, start, end string, completed bool) Event {
	return Event{
		ID:         id,
		OwnerID:    "uid-" + email,
		OwnerEmail: email,
		Title:      "revision " + id,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Color:      DefaultColor(),
		Completed:  completed,
	}
}

func TestBuildWeekView_gridAndSummary(t *testing.T) {
	events := []Event{
		evt("a", "awe@test.cd", "2024-06-03", "09:00", "10:00", false), // Monday
		evt("b", "awe@test.cd", "2024-06-09", "23:00", "23:30", true),  // Sunday
	}
	view := BuildWeekView(events, day(t, "2024-06-03"))

	if view.WeekStart != "2024-06-03" {
		t.Fatalf("WeekStart = %s; want 2024-06-03", view.WeekStart)
	}

	// summary
	if view.Summary.Total != 2 || view.Summary.Completed != 1 || view.Summary.Percentage != 50 {
		t.Errorf("summary = %+v; want total=2 completed=1 percentage=50", view.Summary)
	}

	// Monday column: 09:00-10:00 -> top 180, height 60
	mon := view.Days[0]
	if len(mon.Events) != 1 {
		t.Fatalf("Monday has %d events; want 1", len(mon.Events))
	}
	if mon.Events[0].Top != 180 || mon.Events[0].Height != 60 {
		t.Errorf("Monday event at top=%d height=%d; want 180/60", mon.Events[0].Top, mon.Events[0].Height)
	}

	// Sunday column: 23:00-23:30 -> top 1020, height 30
	sun := view.Days[6]
	if len(sun.Events) != 1 {
		t.Fatalf("Sunday has %d events; want 1", len(sun.Events))
	}
	if sun.Events[0].Top != 1020 || sun.Events[0].Height != 30 {
		t.Errorf("Sunday event at top=%d height=%d; want 1020/30", sun.Events[0].Top, sun.Events[0].Height)
	}

	// middle days are empty
	for i := 1; i < 6; i++ {
		if len(view.Days[i].Events) != 0 {
			t.Errorf("day %d has %d events; want 0", i, len(view.Days[i].Events))
		}
	}

	// per-day counts only list days that have events
	wantDays := []DaySummary{{Date: "2024-06-03", Count: 1}, {Date: "2024-06-09", Count: 1}}
	if !reflect.DeepEqual(view.Summary.Days, wantDays) {
		t.Errorf("summary days = %+v; want %+v", view.Summary.Days, wantDays)
	}
}

func TestBuildWeekView_clamping(t *testing.T) {
	events := []Event{
		evt("early", "a@test.cd", "2024-06-03", "05:00", "05:10", false), // before grid origin
	}
	view := BuildWeekView(events, day(t, "2024-06-03"))

	got := view.Days[0].Events[0]
	if got.Top != 0 {
		t.Errorf("top = %d; want clamped to 0", got.Top)
	}
	if got.Height != MinEventHeight {
		t.Errorf("height = %d; want clamped to %d", got.Height, MinEventHeight)
	}
}

func TestBuildWeekView_emptyPercentageIsZero(t *testing.T) {
	view := BuildWeekView(nil, day(t, "2024-06-03"))
	if view.Summary.Total != 0 || view.Summary.Percentage != 0 {
		t.Errorf("empty summary = %+v; want total=0 percentage=0", view.Summary)
	}
	if view.Summary.Percentage < 0 || view.Summary.Percentage > 100 {
		t.Errorf("percentage %d out of [0,100]", view.Summary.Percentage)
	}
}

func TestBuildWeekView_windowBoundaries(t *testing.T) {
	events := []Event{
		evt("first", "a@test.cd", "2024-06-03", "00:00", "01:00", false), // first day, midnight
		evt("after", "a@test.cd", "2024-06-10", "09:00", "10:00", false), // one day past the window
	}
	view := BuildWeekView(events, day(t, "2024-06-03"))

	if view.Summary.Total != 1 {
		t.Fatalf("total = %d; want 1 (boundary included, next Monday excluded)", view.Summary.Total)
	}
	if len(view.Checklist) != 1 || view.Checklist[0].ID != "first" {
		t.Errorf("checklist = %+v; want only the boundary event", view.Checklist)
	}
}

func TestBuildWeekView_checklistOrder(t *testing.T) {
	events := []Event{
		evt("c", "a@test.cd", "2024-06-05", "08:00", "09:00", false),
		evt("a", "a@test.cd", "2024-06-03", "14:00", "15:00", false),
		evt("b", "a@test.cd", "2024-06-03", "09:00", "10:00", false),
		evt("d", "a@test.cd", "2024-06-09", "07:30", "08:00", false),
	}
	view := BuildWeekView(events, day(t, "2024-06-05"))

	var got []string
	for _, e := range view.Checklist {
		got = append(got, e.ID)
	}
	want := []string{"b", "a", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("checklist order = %v; want %v", got, want)
	}
}

func TestBuildWeekView_idempotent(t *testing.T) {
	events := []Event{
		evt("a", "awe@test.cd", "2024-06-03", "09:00", "10:00", false),
		evt("b", "king@test.cd", "2024-06-04", "10:00", "11:00", true),
		evt("c", "awe@test.cd", "2024-06-04", "10:00", "11:00", false), // same slot as b
	}
	ref := day(t, "2024-06-03")

	first := BuildWeekView(events, ref)
	second := BuildWeekView(events, ref)
	if !reflect.DeepEqual(first, second) {
		t.Error("rebuilding the view model from the same snapshot changed the output")
	}
}

func TestBuildAdminView_rollup(t *testing.T) {
	events := []Event{
		// owner2: 1 of 4 completed
		evt("b1", "zeze@test.cd", "2024-06-03", "08:00", "09:00", true),
		evt("b2", "zeze@test.cd", "2024-06-04", "08:00", "09:00", false),
		evt("b3", "zeze@test.cd", "2024-06-05", "08:00", "09:00", false),
		evt("b4", "zeze@test.cd", "2024-06-06", "08:00", "09:00", false),
		// owner1: 2 of 2 completed
		evt("a1", "awe@test.cd", "2024-06-03", "09:00", "10:00", true),
		evt("a2", "awe@test.cd", "2024-06-07", "09:00", "10:00", true),
		// outside the window: ignored entirely
		evt("x", "awe@test.cd", "2024-06-10", "09:00", "10:00", false),
	}
	view := BuildAdminView(events, day(t, "2024-06-03"))

	if len(view.Progress) != 2 {
		t.Fatalf("progress has %d entries; want 2", len(view.Progress))
	}
	// sorted alphabetically by email
	if view.Progress[0].Email != "awe@test.cd" || view.Progress[1].Email != "zeze@test.cd" {
		t.Errorf("progress order = [%s %s]; want alphabetical", view.Progress[0].Email, view.Progress[1].Email)
	}
	if view.Progress[0].Percentage != 100 {
		t.Errorf("awe percentage = %v; want 100", view.Progress[0].Percentage)
	}
	if view.Progress[1].Percentage != 25 {
		t.Errorf("zeze percentage = %v; want 25", view.Progress[1].Percentage)
	}

	// groups mirror the same owners, sub-lists chronological
	if len(view.Groups) != 2 {
		t.Fatalf("groups has %d entries; want 2", len(view.Groups))
	}
	var got []string
	for _, e := range view.Groups[1].Events {
		got = append(got, e.ID)
	}
	if want := []string{"b1", "b2", "b3", "b4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("zeze group order = %v; want %v", got, want)
	}
}

func TestBuildAdminView_unknownOwnerBucket(t *testing.T) {
	events := []Event{
		evt("a", "", "2024-06-03", "09:00", "10:00", true),
		evt("b", "", "2024-06-04", "09:00", "10:00", false),
	}
	view := BuildAdminView(events, day(t, "2024-06-03"))

	if len(view.Progress) != 1 || view.Progress[0].Email != UnknownOwner {
		t.Fatalf("progress = %+v; want a single %q bucket", view.Progress, UnknownOwner)
	}
	if view.Progress[0].Total != 2 || view.Progress[0].Completed != 1 {
		t.Errorf("unknown bucket = %+v; want total=2 completed=1", view.Progress[0])
	}
}
