package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Next(t *testing.T) {
	assert.Equal(t, Period{Month: 7, Year: 2026}, Period{Month: 6, Year: 2026}.Next())
	assert.Equal(t, Period{Month: 1, Year: 2027}, Period{Month: 12, Year: 2026}.Next())
}

func TestRollover(t *testing.T) {
	node := testNode(t)
	roomA := node.Generate()
	roomB := node.Generate()

	state := MeterState{
		Period: Period{Month: 12, Year: 2026},
		Building: BuildingMeters{
			SinglePhase: Reading{Previous: 1000, Current: 1500},
			ThreePhase:  Reading{Previous: 2000, Current: 2300},
		},
		Rooms: []RoomMeter{
			{ApartmentID: roomA, Reading: Reading{Previous: 100, Current: 150}},
			{ApartmentID: roomB, Reading: Reading{Previous: 50, Current: 80}},
		},
	}

	next := Rollover(state)

	assert.Equal(t, Period{Month: 1, Year: 2027}, next.Period)
	assert.Equal(t, Reading{Previous: 1500, Current: 0}, next.Building.SinglePhase)
	assert.Equal(t, Reading{Previous: 2300, Current: 0}, next.Building.ThreePhase)
	require.Len(t, next.Rooms, 2)
	assert.Equal(t, Reading{Previous: 150, Current: 0}, next.Rooms[0].Reading)
	assert.Equal(t, Reading{Previous: 80, Current: 0}, next.Rooms[1].Reading)

	// Input state untouched.
	assert.Equal(t, Reading{Previous: 1000, Current: 1500}, state.Building.SinglePhase)
	assert.Equal(t, Reading{Previous: 100, Current: 150}, state.Rooms[0].Reading)

	// Fresh period bills nothing until readings come in.
	assert.Equal(t, int64(0), next.Building.TotalConsumption())
	assert.Equal(t, int64(0), TotalRoomConsumption(next.Rooms))
}
