package engine

// MeterState is the full meter snapshot for one billing period.
type MeterState struct {
	Period   Period
	Building BuildingMeters
	Rooms    []RoomMeter
}

// Rollover returns the next period's state: every current register becomes
// the new previous and current resets to zero. The input is not mutated, so
// the caller can persist old and new states in one transaction and the
// transition stays auditable.
//
// Rollover is an explicit operator action. It is never triggered by the
// calendar.
func Rollover(s MeterState) MeterState {
	next := MeterState{
		Period: s.Period.Next(),
		Building: BuildingMeters{
			SinglePhase: Reading{Previous: s.Building.SinglePhase.Current},
			ThreePhase:  Reading{Previous: s.Building.ThreePhase.Current},
		},
		Rooms: make([]RoomMeter, len(s.Rooms)),
	}
	for i, room := range s.Rooms {
		next.Rooms[i] = RoomMeter{
			ApartmentID: room.ApartmentID,
			Reading:     Reading{Previous: room.Current},
		}
	}
	return next
}
