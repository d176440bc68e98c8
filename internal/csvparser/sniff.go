package csvparser

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
)

// ErrSniffInconclusive is returned when the sample cannot be classified.
var ErrSniffInconclusive = errors.New("could not determine whether the file has a header")

// sniffRows is the number of data rows inspected after the candidate header.
const sniffRows = 20

// Sample returns at most n bytes from the start of content. When the content
// is cut, the trailing partial line is dropped so the sniffer never sees a
// truncated row.
func Sample(content []byte, n int) []byte {
	if n <= 0 || len(content) <= n {
		return content
	}
	sample := content[:n]
	if i := bytes.LastIndexByte(sample, '\n'); i >= 0 {
		return sample[:i+1]
	}
	return sample
}

// HasHeader guesses whether the first row of sample is a header.
//
// Each column is typed over up to 20 following rows, either as a number kind
// (integer, float or complex, the first that parses) or as a fixed value
// length. Columns whose type changes between rows are dropped.
// Every remaining column then votes: the first-row cell not matching the
// column type counts for a header, matching counts against. The file has a
// header when the vote is positive.
//
// RETURNS:
//   - Whether a header is present.
//   - ErrSniffInconclusive if the sample is empty, has fewer than two rows,
//     contains no delimiter or cannot be parsed.
func HasHeader(sample []byte, settings config.CSVSettings) (bool, error) {
	if len(bytes.TrimSpace(sample)) == 0 {
		return false, ErrSniffInconclusive
	}
	if !bytes.ContainsRune(sample, settings.Comma()) {
		return false, ErrSniffInconclusive
	}

	rows, err := ReadRows(sample, settings)
	if err != nil {
		return false, errors.Join(ErrSniffInconclusive, err)
	}
	if len(rows) < 2 {
		return false, ErrSniffInconclusive
	}

	header := rows[0].Fields
	columns := len(header)

	// columnTypes[i] is nil while unknown; *columnType afterwards.
	columnTypes := make(map[int]*columnType, columns)
	for i := 0; i < columns; i++ {
		columnTypes[i] = nil
	}

	checked := 0
	for _, row := range rows[1:] {
		if checked >= sniffRows {
			break
		}
		checked++

		if len(row.Fields) != columns {
			continue
		}

		for col, known := range columnTypes {
			current := typeOf(row.Fields[col])
			if known == nil {
				columnTypes[col] = &current
				continue
			}
			if *known != current {
				delete(columnTypes, col)
			}
		}
	}

	votes := 0
	for col, known := range columnTypes {
		if known == nil {
			continue
		}
		cell := header[col]
		if known.kind != notNumber {
			if parsesAs(cell, known.kind) {
				votes--
			} else {
				votes++
			}
			continue
		}
		if utf8.RuneCountInString(cell) != known.length {
			votes++
		} else {
			votes--
		}
	}

	return votes > 0, nil
}

// numberKind is the narrowest numeric type a cell parses as.
type numberKind int

const (
	notNumber numberKind = iota
	intNumber
	floatNumber
	complexNumber
)

// columnType is either a number kind or a fixed value length.
type columnType struct {
	kind   numberKind
	length int
}

func typeOf(value string) columnType {
	for _, kind := range []numberKind{intNumber, floatNumber, complexNumber} {
		if parsesAs(value, kind) {
			return columnType{kind: kind}
		}
	}
	return columnType{length: utf8.RuneCountInString(value)}
}

// parsesAs reports whether value parses as the given number kind.
// Every integer also parses as a float and every float as a complex number.
func parsesAs(value string, kind numberKind) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	var err error
	switch kind {
	case intNumber:
		_, err = strconv.ParseInt(value, 10, 64)
	case floatNumber:
		_, err = strconv.ParseFloat(value, 64)
	case complexNumber:
		_, err = strconv.ParseComplex(value, 128)
	default:
		return false
	}
	return err == nil
}
