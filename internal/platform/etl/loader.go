package etl

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/saudemart/saudemart/internal/domain/atendimento"
)

// Loader reads CSV/TXT drops from the source directories (SIGSAUDE exports
// and payer files) and normalizes them into staging rows. Files arrive with
// inconsistent delimiters and encodings, so both are sniffed per file.
type Loader struct {
	dirs   []string
	logger zerolog.Logger
}

func NewLoader(dirs []string, logger zerolog.Logger) *Loader {
	return &Loader{dirs: dirs, logger: logger}
}

// Stats counts what a load pass saw before the merge.
type Stats struct {
	Files       int
	LinhasLidas int
	Descartadas int
}

// Load reads every file in the configured directories. Rows with an
// unparseable date are discarded and counted, not failed: a dead row in a
// payer drop must not block the rest of the day's load.
func (l *Loader) Load() ([]atendimento.StagingRow, Stats, error) {
	var stats Stats
	var out []atendimento.StagingRow

	files, err := l.discover()
	if err != nil {
		return nil, stats, err
	}

	for _, path := range files {
		rows, read, discarded, err := l.loadFile(path)
		if err != nil {
			return nil, stats, fmt.Errorf("load %s: %w", path, err)
		}
		stats.Files++
		stats.LinhasLidas += read
		stats.Descartadas += discarded
		out = append(out, rows...)

		l.logger.Debug().
			Str("file", filepath.Base(path)).
			Int("rows", read).
			Int("discarded", discarded).
			Msg("file staged")
	}
	return out, stats, nil
}

func (l *Loader) discover() ([]string, error) {
	var files []string
	for _, dir := range l.dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext == ".csv" || ext == ".txt" {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadFile(path string) ([]atendimento.StagingRow, int, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("decode latin-1: %w", err)
		}
	}

	delim := detectDelimiter(firstLine(raw))
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, 0, 0, nil
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []atendimento.StagingRow
	read, discarded := 0, 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, read, discarded, fmt.Errorf("read record: %w", err)
		}
		read++

		data, ok := parseDate(field(record, "Data"))
		if !ok {
			discarded++
			continue
		}

		qtde := clampInt(parseInt(field(record, "Qtde")))
		preco := clampDecimal(parseDecimal(field(record, "PrecoUnitario")))
		receita := parseDecimal(field(record, "Receita"))
		if rawReceita := field(record, "Receita"); rawReceita == "" || rawReceita == "NA" {
			receita = preco.Mul(decimal.NewFromInt(int64(qtde)))
		}

		rows = append(rows, atendimento.StagingRow{
			Data:          data,
			ClienteID:     field(record, "ClienteId"),
			Operadora:     orNA(field(record, "Operadora")),
			Procedimento:  orNA(field(record, "Procedimento")),
			Categoria:     orNA(field(record, "Categoria")),
			Qtde:          qtde,
			PrecoUnitario: preco,
			Receita:       receita,
		})
	}
	return rows, read, discarded, nil
}

func firstLine(raw []byte) string {
	sc := bufio.NewScanner(strings.NewReader(string(raw)))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

func detectDelimiter(header string) rune {
	for _, d := range []rune{',', ';', '|', '\t'} {
		if strings.ContainsRune(header, d) {
			return d
		}
	}
	return ','
}

var dateFormats = []string{"2006-01-02", "02/01/2006", "2006/01/02"}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, f := range dateFormats {
		if t, err := time.Parse(f, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseDecimal tolerates Brazilian decimal commas and the NA/NaN markers
// payer files use for missing values.
func parseDecimal(v string) decimal.Decimal {
	if v == "" || v == "NA" || v == "NaN" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(v string) int {
	return int(parseDecimal(v).IntPart())
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampDecimal(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
