package stats

// Overview captures the marketplace counters exposed on the public dashboard.
type Overview struct {
	ActiveOffers int64
	Producers    int64
	Buyers       int64
}
