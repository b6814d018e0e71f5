package formatives

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVLoader reads formatives tables from CSV files.
type CSVLoader struct{}

// Load implements the loader contract used by the graph builder.
func (CSVLoader) Load(path string) (*Table, error) {
	return Load(path)
}

// Load reads a formatives CSV file.
//
// The first column holds lexeme ids; every other column is a paradigm cell
// (or a reserved stem column). Cells are list literals such as "['a', 'b']";
// empty and "nan" cells are not applicable.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening formatives %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading formatives %s: %w", path, err)
	}
	return t, nil
}

// Read parses a formatives table from CSV.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header: %w", ErrMalformedCell)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header: %w", ErrMalformedCell)
	}

	columns := header[1:]
	t := NewTable(columns)

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		line++

		lexeme := strings.TrimSpace(record[0])
		if lexeme == "" {
			return nil, fmt.Errorf("row %d has no lexeme id: %w", line, ErrMalformedCell)
		}

		cells := make(map[string][]string, len(columns))
		for i, col := range columns {
			exps, err := ParseCell(record[i+1])
			if err != nil {
				return nil, fmt.Errorf("lexeme %q column %q: %w", lexeme, col, err)
			}
			cells[col] = exps
		}

		if err := t.AddRow(lexeme, cells); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// ParseCell parses one cell value into its exponent list.
// Returns nil for not-applicable cells.
func ParseCell(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		items, bare, err := parseList(s[1 : len(s)-1])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, err)
		}
		// [nan] is how an empty cell survives a round trip through pandas
		if len(items) == 1 && bare[0] && strings.EqualFold(items[0], "nan") {
			return nil, nil
		}
		return items, nil
	}

	if q := s[0]; (q == '\'' || q == '"') && len(s) >= 2 {
		value, rest, err := readQuoted(s)
		if err != nil || strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("%q: %w", raw, ErrMalformedCell)
		}
		return []string{value}, nil
	}

	return nil, fmt.Errorf("%q is not a list: %w", raw, ErrMalformedCell)
}

// parseList splits the inside of a list literal. Quoted items honor backslash
// escapes; unquoted items are taken verbatim. bare reports which items were
// unquoted.
func parseList(inner string) (items []string, bare []bool, err error) {
	items = []string{}
	s := inner
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return items, bare, nil
		}

		var item string
		quoted := s[0] == '\'' || s[0] == '"'
		if quoted {
			item, s, err = readQuoted(s)
			if err != nil {
				return nil, nil, err
			}
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			item = strings.TrimSpace(s[:end])
			s = s[end:]
			if item == "" {
				return nil, nil, ErrMalformedCell
			}
		}
		items = append(items, item)
		bare = append(bare, !quoted)

		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return items, bare, nil
		}
		if s[0] != ',' {
			return nil, nil, ErrMalformedCell
		}
		s = s[1:]
	}
}

// readQuoted reads a quoted literal from the start of s and returns the
// unescaped value and the remainder after the closing quote.
func readQuoted(s string) (string, string, error) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
		case c == quote:
			return sb.String(), s[i+1:], nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", "", ErrMalformedCell
}
