package reps

// Gravity is the gravitational constant used for power estimation. The
// exported payload shape and this constant are an external contract; do
// not change either without coordinating with downstream consumers.
const Gravity = 9.81

// SetEntry is the externally consumed per-rep payload.
type SetEntry struct {
	MeanVelocity float64 `json:"mean_velocity"`
	PeakVelocity float64 `json:"peak_velocity"`
	LoadKg       float64 `json:"load_kg"`
	PowerWatts   float64 `json:"power_watts"`
	VelocityDrop float64 `json:"velocity_drop"`
}

// Export shapes a completed rep into the external payload for the given
// load. Power is estimated as load × mean velocity × g.
func (r Record) Export(loadKg float64) SetEntry {
	return SetEntry{
		MeanVelocity: r.MeanVelocity,
		PeakVelocity: r.PeakVelocity,
		LoadKg:       loadKg,
		PowerWatts:   loadKg * r.MeanVelocity * Gravity,
		VelocityDrop: r.VelocityDropPercent,
	}
}

// ExportSet shapes a whole session log for external consumption.
func ExportSet(records []Record, loadKg float64) []SetEntry {
	entries := make([]SetEntry, len(records))
	for i, r := range records {
		entries[i] = r.Export(loadKg)
	}
	return entries
}
