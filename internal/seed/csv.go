// Package seed reads the startup product table from a CSV file, the
// embedded default dataset, or a PostgreSQL table.
package seed

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"ProductStore/internal/catalog"
)

//go:embed products.csv
var defaultProducts []byte

// Default returns the embedded dataset.
func Default() ([]catalog.Product, error) {
	return ReadCSV(bytes.NewReader(defaultProducts))
}

// LoadFile reads products from a CSV file; a .gz suffix selects gzip.
func LoadFile(path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	rows, err := ReadCSV(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return rows, nil
}

// ReadCSV parses a header-led CSV. Columns are matched by name, in any
// order; every product column must be present and extra columns are ignored.
// Rows keep file order.
func ReadCSV(r io.Reader) ([]catalog.Product, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv: header row missing")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []catalog.Product
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		var p catalog.Product
		for _, field := range catalog.Fields {
			v, err := catalog.ParseFieldValue(field, rec[cols[field]])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			if err := p.Set(field, v); err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(catalog.Fields))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := catalog.FieldKind(name); ok {
			cols[name] = i
		}
	}

	var missing []string
	for _, field := range catalog.Fields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("csv header missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}
