// Package rawdata reads the local store of fetched traffic measurements and writes
// the CSV files produced by the fetch and analyze tools.
package rawdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
)

var ErrNoData = errors.New("no data files found")

var required = []string{"instance_id", "date", "uptime"}

// LoadDir reads every CSV file of dir, in name order, and returns the rows with
// exact duplicates removed. The first occurrence of a duplicate wins.
func LoadDir(dir string) ([]coverage.RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var all []coverage.RawRecord
	files := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		records, err := ParseCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		all = append(all, records...)
		files++
	}
	if files == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoData, dir)
	}

	seen := make(map[string]bool, len(all))
	out := all[:0]
	for _, r := range all {
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	log.Printf("[rawdata] loaded %d rows from %d files in %s (%d duplicates dropped)",
		len(out), files, dir, len(all)-len(out))
	return out, nil
}

// ParseCSV reads one measurement file. Columns other than instance_id, date and
// uptime are kept as passthrough values.
func ParseCSV(path string) ([]coverage.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	out := make([]coverage.RawRecord, 0, len(rows)-1)
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		rec := rows[rowIdx]
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id, err := strconv.ParseFloat(get("instance_id"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid instance_id %q", rowIdx+1, get("instance_id"))
		}
		// an empty uptime is a missing measurement
		var uptime float64
		if s := get("uptime"); s != "" {
			if uptime, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("row %d: invalid uptime %q", rowIdx+1, s)
			}
		}

		pass := map[string]string{}
		for name := range col {
			if name == "" || name == "instance_id" || name == "date" || name == "uptime" {
				continue
			}
			pass[name] = get(name)
		}
		if len(pass) == 0 {
			pass = nil
		}

		out = append(out, coverage.RawRecord{
			InstanceID:  int64(id),
			Date:        get("date"),
			Uptime:      uptime,
			Passthrough: pass,
		})
	}
	return out, nil
}

func rowKey(r coverage.RawRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\x1f%s\x1f%g", r.InstanceID, r.Date, r.Uptime)
	for _, k := range passthroughColumns([]coverage.RawRecord{r}) {
		b.WriteString("\x1f" + k + "=" + r.Passthrough[k])
	}
	return b.String()
}

// passthroughColumns returns the sorted union of passthrough column names.
func passthroughColumns(records []coverage.RawRecord) []string {
	set := map[string]bool{}
	for _, r := range records {
		for k := range r.Passthrough {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
