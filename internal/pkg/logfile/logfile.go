// Package logfile appends program output to a daily file in the logs
// directory next to the executable.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ansel1/merry"
)

// New opens today's file for appending, e.g. logs/2026-10-18.poll.log for
// the suffix ".poll".
func New(filenameSuffix string) (*os.File, error) {
	if err := ensureDir(); err != nil {
		return nil, err
	}
	name := filename(daytime(time.Now()), filenameSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, merry.Append(err, name)
	}
	return f, nil
}

func filename(t time.Time, suffix string) string {
	return filepath.Join(LogDir, fmt.Sprintf("%s%s.log", t.Format("2006-01-02"), suffix))
}

func daytime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func ensureDir() error {
	_, err := os.Stat(LogDir)
	if os.IsNotExist(err) {
		err = os.MkdirAll(LogDir, os.ModePerm)
	}
	return err
}

var LogDir = filepath.Join(filepath.Dir(os.Args[0]), "logs")
