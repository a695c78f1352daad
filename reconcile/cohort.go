// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/katalvlaran/eumfa/table"
)

// Open bounds of cohort labels such as ">1970" and "2040<".
const (
	OpenStart = 0
	OpenEnd   = 9999
)

// CohortColumn is the default age-cohort column.
const CohortColumn = "Age cohort"

// ParseCohort parses "1970-1989", ">1970" (up to 1970), "2040<" (from
// 2040) or a single year into an inclusive year range.
func ParseCohort(s string) (start, end int, ok bool) {
	s = strings.TrimSpace(s)
	atoi := func(v string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	switch {
	case strings.HasPrefix(s, ">"):
		end, ok = atoi(s[1:])
		return OpenStart, end, ok
	case strings.HasSuffix(s, "<"):
		start, ok = atoi(s[:len(s)-1])
		return start, OpenEnd, ok
	case strings.Contains(s, "-"):
		a, b, _ := strings.Cut(s, "-")
		var okA, okB bool
		start, okA = atoi(a)
		end, okB = atoi(b)
		return start, end, okA && okB
	}
	start, ok = atoi(s)

	return start, start, ok
}

// SplitCohorts keeps the part of every cohort row lying after baseYear.
// Rows starting after baseYear pass unchanged. Rows with
// start <= baseYear < end are scaled by (end-baseYear)/(end-start+1) and
// relabelled "{baseYear+1}-{end}". Earlier and unparsable rows are dropped.
// col "" uses CohortColumn.
func SplitCohorts(t *table.Table, baseYear int, col string) (*table.Table, error) {
	if col == "" {
		col = CohortColumn
	}
	pos := -1
	for j, c := range t.Columns() {
		if c == col {
			pos = j
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
	}
	out, err := table.New(t.Columns(), t.Value())
	if err != nil {
		return nil, err
	}
	for i := 0; i < t.Len(); i++ {
		keys := t.Keys(i)
		start, end, ok := ParseCohort(keys[pos])
		switch {
		case !ok:
			continue
		case start > baseYear:
			_ = out.Append(keys, t.Val(i))
		case start <= baseYear && baseYear < end:
			frac := float64(end-baseYear) / float64(end-start+1)
			keys[pos] = strconv.Itoa(baseYear+1) + "-" + strconv.Itoa(end)
			_ = out.Append(keys, t.Val(i)*frac)
		}
	}

	return out, nil
}
