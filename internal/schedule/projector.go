package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/dmorneau/carebell/internal/model"
)

// Palette assigns each parent a pastel color by their position in the
// name-sorted parent list.
var Palette = []string{"#87CEEB", "#FFB6C1", "#D8BFD8", "#FFDAB9", "#98FB98"}

// Project expands weekly reminders into calendar events, one per enabled
// weekday, bounded to a recurrence window from January 1 of last year
// through December 31 of next year. Reminders whose parent is not in
// parents are skipped.
func Project(reminders []model.Reminder, parents []model.Parent, now time.Time) []model.CalendarEvent {
	sorted := make([]model.Parent, len(parents))
	copy(sorted, parents)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	type parentInfo struct {
		name  string
		color string
	}
	byID := make(map[int64]parentInfo, len(sorted))
	for i, p := range sorted {
		byID[p.ID] = parentInfo{name: p.Name, color: Palette[i%len(Palette)]}
	}

	startRecur := fmt.Sprintf("%d-01-01", now.Year()-1)
	endRecur := fmt.Sprintf("%d-12-31", now.Year()+1)

	var events []model.CalendarEvent
	for _, r := range reminders {
		info, ok := byID[r.ParentID]
		if !ok {
			continue
		}
		hour12, minute, period := ParseTime(r.Time)
		h := hour12 % 12
		if period == "PM" {
			h += 12
		}
		startTime := fmt.Sprintf("%02d:%02d", h, minute)

		for dow, set := range weekdayList(&r) {
			if !set {
				continue
			}
			events = append(events, model.CalendarEvent{
				ID:             fmt.Sprintf("%d-%d", r.ID, dow),
				ReminderID:     r.ID,
				ParentID:       r.ParentID,
				Title:          fmt.Sprintf("%s (%s)", r.Name, info.name),
				Category:       r.Category,
				DeliveryMethod: r.DeliveryMethod,
				Weekday:        dow,
				StartTime:      startTime,
				StartRecur:     startRecur,
				EndRecur:       endRecur,
				Color:          info.color,
				Notes:          r.Notes,
			})
		}
	}
	return events
}

// weekdayList orders the day flags Sunday = 0 through Saturday = 6 so
// event IDs come out in weekday order.
func weekdayList(r *model.Reminder) [7]bool {
	return [7]bool{r.Sunday, r.Monday, r.Tuesday, r.Wednesday, r.Thursday, r.Friday, r.Saturday}
}
