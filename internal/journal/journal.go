// Package journal keeps a local CSV record of live-polled samples with
// daily file rotation. Files are named YYYY-MM-DD.csv.
package journal

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/luki/greensat/internal/telemetry"
)

const (
	fileLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05"
)

var header = []string{"time", "temp", "hum", "gaz_pct", "press", "lux", "air_pct"}

// Journal appends samples to the current day's CSV file:
//
//	time,temp,hum,gaz_pct,press,lux,air_pct
//
// Missing metrics are written as empty fields.
type Journal struct {
	dir     string
	current *os.File
	writer  *csv.Writer
	curDate string
}

// New creates a journal in dir, creating the directory if needed.
func New(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create journal dir: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// Dir returns the journal directory.
func (j *Journal) Dir() string { return j.dir }

// Write appends s to the file for s's local date, rotating when the date
// changes.
func (j *Journal) Write(s telemetry.Sample) error {
	dateStr := s.Time.Format(fileLayout)

	if j.curDate != dateStr || j.current == nil {
		if err := j.Close(); err != nil {
			return err
		}
		path := filepath.Join(j.dir, dateStr+".csv")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		j.current = f
		j.writer = csv.NewWriter(f)
		j.curDate = dateStr

		info, err := f.Stat()
		if err != nil {
			return err
		}
		if info.Size() == 0 {
			if err := j.writer.Write(header); err != nil {
				return err
			}
		}
	}

	if err := j.writer.Write([]string{
		s.Time.Format(timeLayout),
		formatFloat(s.Temperature),
		formatFloat(s.Humidity),
		formatFloat(s.GasPercent),
		formatFloat(s.Pressure),
		formatFloat(s.Lux),
		formatFloat(s.AirPercent),
	}); err != nil {
		return err
	}
	j.writer.Flush()
	return j.writer.Error()
}

// Close flushes and closes the current file.
func (j *Journal) Close() error {
	if j.writer != nil {
		j.writer.Flush()
	}
	if j.current == nil {
		return nil
	}
	err := j.current.Close()
	j.current, j.writer = nil, nil
	return err
}

// ListDays returns the dates with a journal file, newest first.
func ListDays(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if strings.HasSuffix(name, ".csv") {
			days = append(days, strings.TrimSuffix(name, ".csv"))
		}
	}
	return days, nil
}

// LoadDay reads the samples journaled on day (YYYY-MM-DD) in dir.
func LoadDay(dir, day string) ([]telemetry.Sample, error) {
	return LoadFile(filepath.Join(dir, day+".csv"))
}

// LoadFile reads all samples from a journal file. Rows with an unreadable
// timestamp are skipped.
func LoadFile(path string) ([]telemetry.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var samples []telemetry.Sample
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == "time" {
			continue
		}
		if len(row) < len(header) {
			continue
		}

		t, err := telemetry.ParseTimestamp(row[0], time.Local)
		if err != nil {
			continue
		}
		samples = append(samples, telemetry.Sample{
			Time:        t,
			Temperature: parseFloat(row[1]),
			Humidity:    parseFloat(row[2]),
			GasPercent:  parseFloat(row[3]),
			Pressure:    parseFloat(row[4]),
			Lux:         parseFloat(row[5]),
			AirPercent:  parseFloat(row[6]),
		})
	}
	return samples, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
