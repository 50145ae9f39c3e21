package core

// ResolveStatus computes the lifecycle state of an event on the given day.
//
//   - start unknown: StatusUnknown
//   - end unknown: the event is treated as a single-day event on start
//   - today < start: StatusUpcoming
//   - start <= today <= end: StatusOngoing
//   - today > end: StatusEnded
func ResolveStatus(start, end, today Date) Status {
	if start.IsZero() {
		return StatusUnknown
	}
	if end.IsZero() {
		end = start
	}
	switch {
	case today.Before(start):
		return StatusUpcoming
	case today.After(end):
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// EffectiveEnd returns the end date used for lifecycle decisions: the end
// date when known, otherwise the start date.
func (e *Event) EffectiveEnd() Date {
	if !e.EndDate.IsZero() {
		return e.EndDate
	}
	return e.StartDate
}

// Resolve sets the event status for the given day and returns it.
func (e *Event) Resolve(today Date) Status {
	e.Status = ResolveStatus(e.StartDate, e.EndDate, today)
	return e.Status
}
