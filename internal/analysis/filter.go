package analysis

// FilterRecords selects the records relevant to the analysis: stop id
// matching the target station (ignoring the trailing direction letter) and
// route id in the target route set. Relative order is preserved. Zero
// matches is not an error; absence of data surfaces later as empty groups.
func (c Config) FilterRecords(records []ArrivalRecord) []ArrivalRecord {
	routes := make(map[string]struct{}, len(c.Routes))
	for _, r := range c.Routes {
		routes[r] = struct{}{}
	}

	var kept []ArrivalRecord
	for _, rec := range records {
		if !c.matchesStation(rec.StopID) {
			continue
		}
		if _, ok := routes[rec.RouteID]; !ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// matchesStation reports whether the stop id, minus its trailing direction
// letter, equals the target station code.
func (c Config) matchesStation(stopID string) bool {
	if len(stopID) < 2 {
		return false
	}
	return stopID[:len(stopID)-1] == c.StationCode
}
