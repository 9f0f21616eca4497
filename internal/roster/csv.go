package roster

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"strings"

	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
)

// ParseRosterCSV reads a roster listing: a header record followed by one
// record per member whose first field is the display name. Names are returned
// normalized, in listing order. Blank lines are skipped; a missing header, a
// malformed record or an empty name is a validation error.
func ParseRosterCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.ValidationError("roster listing is empty").Build()
		}
		return nil, errors.ValidationError("malformed roster header").WithCause(err).Build()
	}

	var names []string
	for {
		record, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			return names, nil
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, errors.ValidationError("malformed roster record").
				WithCause(err).
				WithContext("line", line).
				Build()
		}
		name := NormalizeName(record[0])
		if name == "" {
			if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
				continue
			}
			line, _ := cr.FieldPos(0)
			return nil, errors.ValidationError("roster record has an empty name").
				WithContext("line", line).
				Build()
		}
		names = append(names, name)
	}
}
