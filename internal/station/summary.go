package station

// PollutantStats summarizes the present readings of one pollutant.
type PollutantStats struct {
	Count int
	Min   float64
	Max   float64
	Sum   float64
}

// Mean returns the average reading, or false when there were none.
func (s PollutantStats) Mean() (float64, bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

// Summary describes a set of records.
type Summary struct {
	RecordCount int
	FirstTS     *float64
	LastTS      *float64
	Pollutants  map[Pollutant]PollutantStats
}

// Summarize computes per-pollutant statistics over records. Absent optional
// readings are skipped; a zero reading counts.
func Summarize(records []Record) Summary {
	sum := Summary{
		RecordCount: len(records),
		Pollutants:  make(map[Pollutant]PollutantStats, len(Pollutants)),
	}
	for _, p := range Pollutants {
		sum.Pollutants[p] = PollutantStats{}
	}

	for i := range records {
		rec := &records[i]

		if sum.FirstTS == nil || rec.TS < *sum.FirstTS {
			ts := rec.TS
			sum.FirstTS = &ts
		}
		if sum.LastTS == nil || rec.TS > *sum.LastTS {
			ts := rec.TS
			sum.LastTS = &ts
		}

		for _, p := range Pollutants {
			v, _ := rec.Value(p)
			if v == nil {
				continue
			}
			stats := sum.Pollutants[p]
			if stats.Count == 0 || *v < stats.Min {
				stats.Min = *v
			}
			if stats.Count == 0 || *v > stats.Max {
				stats.Max = *v
			}
			stats.Count++
			stats.Sum += *v
			sum.Pollutants[p] = stats
		}
	}

	return sum
}
