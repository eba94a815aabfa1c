// Package engine computes utility-billing invoice lines for a rental house.
//
// Everything in this package is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
//
// The surrounding billing service owns persistence, duplicate checks and
// period bookkeeping; the engine only turns meter readings, occupancy and
// configured rates into candidate invoice lines.
package engine

import (
	"errors"
	"math"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNegativeReading    = errors.New("negative_reading")
	ErrNegativeTenants    = errors.New("negative_tenant_count")
	ErrNegativeRent       = errors.New("negative_rent")
	ErrNonPositiveRate    = errors.New("non_positive_rate")
	ErrInvalidPeriod      = errors.New("invalid_period")
	ErrDuplicateRoomMeter = errors.New("duplicate_room_meter")
)

// Reading is one electricity meter register in kWh.
// Current < Previous clamps to zero consumption rather than going negative;
// a register swap mid-period is an operator problem, not a billing one.
type Reading struct {
	Previous int64
	Current  int64
}

// Validate rejects negative registers. Regression (current < previous) is
// allowed and clamps in Consumption.
func (r Reading) Validate() error {
	if r.Previous < 0 || r.Current < 0 {
		return ErrNegativeReading
	}
	return nil
}

// Consumption returns max(0, current-previous).
func (r Reading) Consumption() int64 {
	if r.Current <= r.Previous {
		return 0
	}
	return r.Current - r.Previous
}

// BuildingMeters holds the two building-level registers, one per circuit class.
type BuildingMeters struct {
	SinglePhase Reading
	ThreePhase  Reading
}

func (b BuildingMeters) Validate() error {
	if err := b.SinglePhase.Validate(); err != nil {
		return err
	}
	return b.ThreePhase.Validate()
}

// TotalConsumption is the whole building's metered draw for the period.
func (b BuildingMeters) TotalConsumption() int64 {
	return b.SinglePhase.Consumption() + b.ThreePhase.Consumption()
}

// RoomMeter is a per-room register. Every room carries a reading, occupied or
// not: empty rooms still draw common power and their meters feed the shared
// pool residual.
type RoomMeter struct {
	ApartmentID snowflake.ID
	Reading
}

// Occupancy describes one room eligible for invoicing.
type Occupancy struct {
	ApartmentID snowflake.ID
	// TenantCount is the billable headcount. Non-resident contract signers
	// are already excluded by the contract service.
	TenantCount int
	// Rent is the monthly price in VND, room override applied upstream.
	Rent int64
}

// Rates is the cost configuration, VND. All rates must be positive; the
// settings service validates before they get here, the engine re-checks.
type Rates struct {
	ElectricityPerKWH int64
	WaterPerPerson    int64
	InternetPerRoom   int64
	ServicePerPerson  int64
}

func (r Rates) Validate() error {
	if r.ElectricityPerKWH <= 0 || r.WaterPerPerson <= 0 || r.InternetPerRoom <= 0 || r.ServicePerPerson <= 0 {
		return ErrNonPositiveRate
	}
	return nil
}

// Period is a billing month.
type Period struct {
	Month int
	Year  int
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 2000 {
		return ErrInvalidPeriod
	}
	return nil
}

// Next advances one month, December rolling the year.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Adjustment is a free-form operator amount added to one room's line.
type Adjustment struct {
	Amount      int64
	Description string
}

// Line is one candidate invoice line. Total always equals the sum of its
// components; electricity is already split into room and shared parts.
type Line struct {
	ApartmentID       snowflake.ID
	Rent              int64
	RoomElectricity   int64
	SharedElectricity int64
	Electricity       int64
	Water             int64
	Internet          int64
	Service           int64
	Other             int64
	OtherDescription  string
	Total             int64
}

// Input bundles everything ComputeInvoices needs. AlreadyInvoiced lets the
// caller inject the duplicate check without the engine touching storage.
type Input struct {
	Building    BuildingMeters
	Rooms       []RoomMeter
	Occupancies []Occupancy
	Rates       Rates
	Adjustments map[snowflake.ID]Adjustment
	// AlreadyInvoiced reports whether the room already has an invoice for
	// the period being generated. Nil means nothing is invoiced yet.
	AlreadyInvoiced func(snowflake.ID) bool
}

// TotalRoomConsumption sums consumption over every room register.
func TotalRoomConsumption(rooms []RoomMeter) int64 {
	var total int64
	for _, room := range rooms {
		total += room.Consumption()
	}
	return total
}

// SharedPool is the common-area residual: building draw not accounted for by
// any room register, clamped at zero when room meters outrun the building.
func SharedPool(buildingTotal, roomTotal int64) int64 {
	if roomTotal >= buildingTotal {
		return 0
	}
	return buildingTotal - roomTotal
}

// PerOccupantShare divides the shared pool per head across all invoiced
// occupants. The share stays fractional; rounding to VND happens only when a
// line is priced. Zero occupants yields zero share.
//
// Per-head rather than per-room is deliberate: larger households absorb
// proportionally more of the common-area load.
func PerOccupantShare(pool int64, totalOccupants int) float64 {
	if totalOccupants <= 0 {
		return 0
	}
	return float64(pool) / float64(totalOccupants)
}

// ComputeInvoices produces one line per occupied, not-yet-invoiced room.
//
// Rooms with zero tenants never appear in the output, whatever their meters
// say. Rooms without a meter reading bill zero room electricity.
func ComputeInvoices(in Input) ([]Line, error) {
	if err := in.Building.Validate(); err != nil {
		return nil, err
	}
	if err := in.Rates.Validate(); err != nil {
		return nil, err
	}

	consumptionByRoom := make(map[snowflake.ID]int64, len(in.Rooms))
	for _, room := range in.Rooms {
		if err := room.Validate(); err != nil {
			return nil, err
		}
		if _, ok := consumptionByRoom[room.ApartmentID]; ok {
			return nil, ErrDuplicateRoomMeter
		}
		consumptionByRoom[room.ApartmentID] = room.Consumption()
	}

	totalOccupants := 0
	for _, occ := range in.Occupancies {
		if occ.TenantCount < 0 {
			return nil, ErrNegativeTenants
		}
		if occ.Rent < 0 {
			return nil, ErrNegativeRent
		}
		totalOccupants += occ.TenantCount
	}

	pool := SharedPool(in.Building.TotalConsumption(), TotalRoomConsumption(in.Rooms))
	share := PerOccupantShare(pool, totalOccupants)

	lines := make([]Line, 0, len(in.Occupancies))
	for _, occ := range in.Occupancies {
		if occ.TenantCount == 0 {
			continue
		}
		if in.AlreadyInvoiced != nil && in.AlreadyInvoiced(occ.ApartmentID) {
			continue
		}
		lines = append(lines, composeLine(occ, consumptionByRoom[occ.ApartmentID], share, in.Rates, in.Adjustments[occ.ApartmentID]))
	}

	return lines, nil
}

func composeLine(occ Occupancy, roomKWH int64, sharedKWHPerHead float64, rates Rates, adj Adjustment) Line {
	roomElectricity := roomKWH * rates.ElectricityPerKWH
	sharedElectricity := roundMoney(sharedKWHPerHead * float64(occ.TenantCount) * float64(rates.ElectricityPerKWH))
	electricity := roomElectricity + sharedElectricity

	water := rates.WaterPerPerson * int64(occ.TenantCount)
	internet := rates.InternetPerRoom
	service := rates.ServicePerPerson * int64(occ.TenantCount)

	return Line{
		ApartmentID:       occ.ApartmentID,
		Rent:              occ.Rent,
		RoomElectricity:   roomElectricity,
		SharedElectricity: sharedElectricity,
		Electricity:       electricity,
		Water:             water,
		Internet:          internet,
		Service:           service,
		Other:             adj.Amount,
		OtherDescription:  adj.Description,
		Total:             occ.Rent + electricity + water + internet + service + adj.Amount,
	}
}

func roundMoney(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}
