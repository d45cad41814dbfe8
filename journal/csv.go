package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSV writes one file per day (guardian_YYYY-MM-DD.csv) under dir, appending
// to an existing file so restarts never clobber earlier events. The file
// rotates automatically when an event lands on a new day.
type CSV struct {
	dir string
	day string
	w   *csv.Writer
	f   *os.File
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSV{dir: dir}, nil
}

func (j *CSV) Record(e Event) error {
	day := e.Time.Format("2006-01-02")
	if j.w == nil || day != j.day {
		if err := j.rotate(day); err != nil {
			return err
		}
	}

	err := j.w.Write([]string{
		e.ID,
		e.Time.Format("2006-01-02 15:04:05.000"),
		string(e.Action),
		e.Detail,
		strconv.FormatFloat(e.PnL, 'f', 2, 64),
		strconv.Itoa(e.Positions),
		string(e.Outcome),
	})
	if err != nil {
		return err
	}

	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) rotate(day string) error {
	if j.f != nil {
		j.w.Flush()
		j.f.Close()
	}

	path := filepath.Join(j.dir, fmt.Sprintf("guardian_%s.csv", day))

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write([]string{"event_id", "timestamp", "action", "detail", "pnl", "positions", "outcome"}); err != nil {
			f.Close()
			return err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return err
		}
	}

	j.f = f
	j.w = w
	j.day = day
	return nil
}

func (j *CSV) Close() error {
	if j.f == nil {
		return nil
	}
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

// Path returns the file a given event time would be written to.
func (j *CSV) Path(t time.Time) string {
	return filepath.Join(j.dir, fmt.Sprintf("guardian_%s.csv", t.Format("2006-01-02")))
}
