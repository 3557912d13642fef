package station

import "sort"

// Aggregate flattens the records of every station, applies the filter and
// returns the result newest first. Records with equal timestamps keep their
// flatten order.
func Aggregate(stations []*Station, spec FilterSpec) []AggregatedRecord {
	total := 0
	for _, s := range stations {
		total += len(s.Records)
	}

	records := make([]AggregatedRecord, 0, total)
	for _, s := range stations {
		for _, r := range s.Records {
			records = append(records, AggregatedRecord{StationName: s.Name, Record: r})
		}
	}

	return apply(records, spec)
}

// FilterRecords applies the filter to a single station's records.
func FilterRecords(st *Station, spec FilterSpec) []AggregatedRecord {
	return Aggregate([]*Station{st}, spec)
}

func apply(records []AggregatedRecord, spec FilterSpec) []AggregatedRecord {
	kept := records[:0]
	for _, r := range records {
		if spec.From != nil && r.TS < *spec.From {
			continue
		}
		if spec.To != nil && r.TS > *spec.To {
			continue
		}
		if spec.Pollutant != "" {
			// Retention is by field presence, not by a non-null reading.
			if _, ok := r.Value(spec.Pollutant); !ok {
				continue
			}
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TS > kept[j].TS
	})

	if spec.Limit > 0 && len(kept) > spec.Limit {
		kept = kept[:spec.Limit]
	}

	return kept
}
