// Package voteview downloads the Voteview member ideology table and extracts
// DW-NOMINATE scores keyed by bioguide id.
package voteview

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/domain/model"
)

// DefaultURL is the combined House and Senate member table.
const DefaultURL = "https://voteview.com/static/data/out/members/HSall_members.csv.zip"

// Sentinel kinds for voteview errors.
var (
	ErrArchive = errors.New("voteview archive has no csv member")
	ErrColumns = errors.New("voteview table missing required columns")
)

var zipMagic = []byte("PK\x03\x04")

// Candidate header names per field.
var (
	bioguideCols = []string{"bioguide_id", "bioguide"}
	congressCols = []string{"congress"}
	chamberCols  = []string{"chamber"}
	nameCols     = []string{"bioname", "name"}
	dim1Cols     = []string{"nominate_dim1", "dim1"}
	dim2Cols     = []string{"nominate_dim2", "dim2"}
)

// Source fetches the member table.
type Source struct {
	http fetch.Getter
	url  string
}

// NewSource creates a source for url, defaulting to DefaultURL.
func NewSource(getter fetch.Getter, url string) *Source {
	if url == "" {
		url = DefaultURL
	}
	return &Source{http: getter, url: url}
}

// Download returns the member table as CSV bytes, unpacking a zip archive
// when the server sends one.
func (s *Source) Download(ctx context.Context) ([]byte, error) {
	raw, err := s.http.GetBytes(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("download voteview: %w", err)
	}
	return ExtractCSV(raw)
}

// ExtractCSV returns raw unchanged unless it is a zip archive, in which case
// the first .csv entry is returned.
func ExtractCSV(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, zipMagic) {
		return raw, nil
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchive, err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArchive, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArchive, err)
		}
		return data, nil
	}
	return nil, ErrArchive
}

// Ideology extracts the scores of one congress keyed by bioguide id. A zero
// congress selects the latest present in the table, which is returned.
func Ideology(table []byte, congress int) (map[string]model.Ideology, int, error) {
	r := csv.NewReader(bytes.NewReader(table))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrColumns, err)
	}
	cols := index(header)
	bio, okBio := cols.find(bioguideCols)
	cong, okCong := cols.find(congressCols)
	if !okBio || !okCong {
		return nil, 0, fmt.Errorf("%w: need bioguide_id and congress", ErrColumns)
	}
	chamber, _ := cols.find(chamberCols)
	name, _ := cols.find(nameCols)
	dim1, _ := cols.find(dim1Cols)
	dim2, _ := cols.find(dim2Cols)

	byCongress := make(map[int]map[string]model.Ideology)
	latest := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read voteview table: %w", err)
		}
		id := field(rec, bio)
		c, convErr := strconv.Atoi(field(rec, cong))
		if id == "" || convErr != nil {
			continue
		}
		if congress != 0 && c != congress {
			continue
		}
		if c > latest {
			latest = c
		}
		if byCongress[c] == nil {
			byCongress[c] = make(map[string]model.Ideology)
		}
		byCongress[c][id] = model.Ideology{
			Congress: c,
			Chamber:  strings.ToLower(field(rec, chamber)),
			Name:     field(rec, name),
			Dim1:     number(field(rec, dim1)),
			Dim2:     number(field(rec, dim2)),
		}
	}

	if congress == 0 {
		congress = latest
	}
	out := byCongress[congress]
	if out == nil {
		out = map[string]model.Ideology{}
	}
	return out, congress, nil
}

type columns map[string]int

func index(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return cols
}

func (c columns) find(names []string) (int, bool) {
	for _, n := range names {
		if i, ok := c[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func number(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
