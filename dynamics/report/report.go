// Package report implements CSV export of timestep monitor data,
// grounded on QuaC_Pulse_Visitor.cpp's writeTimesteppingDataToCsv: one
// row per accepted step, auto-suffixed with a timestamp so repeated
// runs never collide on disk. Uses encoding/csv: no CSV library
// appears anywhere in the retrieved example corpus, so the standard
// library is the only grounded choice here.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TimestepRow is one monitored instant: the time, and the population
// (diagonal / |amplitude|^2) of each tracked basis state.
type TimestepRow struct {
	Time        float64
	Populations []float64
}

// WriteCSV writes rows to path with a "_<stamp>" suffix inserted
// before the file extension (appended when there is none; no suffix
// when stamp is empty), returning the final path written. The stamp is
// supplied by the caller, since this package never calls time.Now/Date
// itself; the HTTP handler passes a "YYYYMMDD_HH:MM:SS" timestamp. The
// header row is "time,p0,p1,...,p{n-1}".
func WriteCSV(path string, stamp string, rows []TimestepRow) (string, error) {
	finalPath := suffixed(path, stamp)

	f, err := os.Create(finalPath)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", finalPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	nbPops := 0
	if len(rows) > 0 {
		nbPops = len(rows[0].Populations)
	}
	header := make([]string, 0, nbPops+1)
	header = append(header, "time")
	for i := 0; i < nbPops; i++ {
		header = append(header, fmt.Sprintf("p%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("report: write header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(row.Populations)+1)
		record = append(record, strconv.FormatFloat(row.Time, 'g', -1, 64))
		for _, p := range row.Populations {
			record = append(record, strconv.FormatFloat(p, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("report: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: flush: %w", err)
	}
	return finalPath, nil
}

// suffixed inserts "_<stamp>" before path's extension, or appends it
// if path has no extension.
func suffixed(path, stamp string) string {
	if stamp == "" {
		return path
	}
	idx := strings.LastIndex(path, ".")
	slash := strings.LastIndex(path, "/")
	if idx <= slash {
		return path + "_" + stamp
	}
	return path[:idx] + "_" + stamp + path[idx:]
}
