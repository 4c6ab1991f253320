package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// CSVRow is one parsed data row; Line is 1-based and counts the header.
type CSVRow struct {
	Line    int
	Request RunRequest
}

type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Rows      int         `json:"rows"`
	Queued    []uuid.UUID `json:"queued,omitempty"`
	Processed int         `json:"processed"`
	Errors    []RowError  `json:"errors"`
}

// ParseCSV reads a lawn_id,start_date[,user_input][,subscription_year] file. user_input holds a
// ;-separated list. Bad rows are reported and skipped; only an unreadable file or a
// missing lawn_id column fails the whole parse.
func ParseCSV(r io.Reader) ([]CSVRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: csv file is empty", ErrInputValidation)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read csv header: %v", ErrInputValidation, err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	lawnCol, ok := cols["lawn_id"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: csv header must contain lawn_id", ErrInputValidation)
	}
	dateCol, hasDate := cols["start_date"]
	inputCol, hasInput := cols["user_input"]
	yearCol, hasYear := cols["subscription_year"]

	var (
		rows    []CSVRow
		rowErrs []RowError
		line    = 1
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.StartLine
			}
			rowErrs = append(rowErrs, RowError{Line: line, Error: err.Error()})
			continue
		}
		line, _ = reader.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		lawnID, err := ParseLawnID(field(rec, lawnCol))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Error: err.Error()})
			continue
		}
		req := RunRequest{LawnID: lawnID}
		if hasDate {
			req.StartDate = strings.TrimSpace(field(rec, dateCol))
		}
		if hasInput {
			req.UserInput = splitUserInput(field(rec, inputCol))
		}
		if hasYear {
			if v := strings.TrimSpace(field(rec, yearCol)); v != "" {
				year, err := strconv.Atoi(v)
				if err != nil || year < 1900 || year > 9999 {
					rowErrs = append(rowErrs, RowError{Line: line, Error: fmt.Sprintf("%v: subscription_year must be a year", ErrInputValidation)})
					continue
				}
				req.SubscriptionYear = year
			}
		}
		rows = append(rows, CSVRow{Line: line, Request: req})
	}
	return rows, rowErrs, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func splitUserInput(s string) json.RawMessage {
	items := []string{}
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	raw, _ := json.Marshal(items)
	return raw
}

// EnqueueCSV queues one job per valid row.
func (s *LawnEngineService) EnqueueCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, rowErrs, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Rows: len(rows) + len(rowErrs), Errors: rowErrs}
	for _, row := range rows {
		job, err := s.Enqueue(ctx, row.Request, SourceCSV)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: row.Line, Error: err.Error()})
			continue
		}
		res.Queued = append(res.Queued, job.ID)
	}
	sortRowErrors(res.Errors)
	return res, nil
}

// RunCSV processes rows in-process. Different lawns run in parallel up to parallelism;
// rows for the same lawn run one after another in file order.
func (s *LawnEngineService) RunCSV(ctx context.Context, r io.Reader, parallelism int) (*ImportResult, error) {
	rows, rowErrs, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	var order []uint
	byLawn := map[uint][]CSVRow{}
	for _, row := range rows {
		if _, ok := byLawn[row.Request.LawnID]; !ok {
			order = append(order, row.Request.LawnID)
		}
		byLawn[row.Request.LawnID] = append(byLawn[row.Request.LawnID], row)
	}

	res := &ImportResult{Rows: len(rows) + len(rowErrs), Errors: rowErrs}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, lawnID := range order {
		group := byLawn[lawnID]
		g.Go(func() error {
			for _, row := range group {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, err := s.run(gctx, row.Request)
				mu.Lock()
				if err != nil {
					res.Errors = append(res.Errors, RowError{Line: row.Line, Error: err.Error()})
				} else {
					res.Processed++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	sortRowErrors(res.Errors)
	return res, nil
}

func sortRowErrors(errs []RowError) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Line < errs[j].Line })
}
