// Package data journals polled measurements into a sqlite file.
package data

import (
	"context"
	"time"

	"github.com/ansel1/merry"
	"github.com/fpawel/bga244/internal/bga"
	"github.com/fpawel/bga244/internal/pkg"
	"github.com/jmoiron/sqlx"
)

func Open(filename string) (*sqlx.DB, error) {
	db, err := pkg.OpenSqliteDBx(filename)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(SQLCreate); err != nil {
		log.ErrIfFail(db.Close)
		return nil, merry.Append(err, filename)
	}
	return db, nil
}

type Ratio struct {
	RatioID        int64   `db:"ratio_id"`
	Tm             string  `db:"tm"`
	Port           string  `db:"port"`
	PrimaryGas     string  `db:"primary_gas"`
	SecondaryGas   string  `db:"secondary_gas"`
	PrimaryRatio   float64 `db:"primary_ratio"`
	SecondaryRatio float64 `db:"secondary_ratio"`
	Uncertainty    float64 `db:"uncertainty"`
}

func (x Ratio) Time() time.Time {
	return parseTime(x.Tm)
}

func (x Ratio) BinaryRatio() bga.BinaryRatio {
	return bga.BinaryRatio{
		Gases:       bga.GasPair{Primary: x.PrimaryGas, Secondary: x.SecondaryGas},
		Primary:     x.PrimaryRatio,
		Secondary:   x.SecondaryRatio,
		Uncertainty: x.Uncertainty,
	}
}

type Telemetry struct {
	TelemetryID      int64   `db:"telemetry_id"`
	Tm               string  `db:"tm"`
	Port             string  `db:"port"`
	AmbientPressure  float64 `db:"ambient_pressure"`
	AnalysisPressure float64 `db:"analysis_pressure"`
	CellTemperature  float64 `db:"cell_temperature"`
	PressureUnit     string  `db:"pressure_unit"`
	TemperatureUnit  string  `db:"temperature_unit"`
}

func (x Telemetry) Time() time.Time {
	return parseTime(x.Tm)
}

func SaveRatio(ctx context.Context, db *sqlx.DB, tm time.Time, port string, r bga.BinaryRatio) (int64, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO ratio (tm, port, primary_gas, secondary_gas, primary_ratio, secondary_ratio, uncertainty)
VALUES (julianday(?), ?, ?, ?, ?, ?, ?)`,
		formatTime(tm), port, r.Gases.Primary, r.Gases.Secondary, r.Primary, r.Secondary, r.Uncertainty)
	if err != nil {
		return 0, merry.Append(err, "save ratio")
	}
	return pkg.SqlGetNewInsertedID(res)
}

func SaveTelemetry(ctx context.Context, db *sqlx.DB, tm time.Time, port string, t bga.Telemetry) (int64, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO telemetry (tm, port, ambient_pressure, analysis_pressure, cell_temperature, pressure_unit, temperature_unit)
VALUES (julianday(?), ?, ?, ?, ?, ?, ?)`,
		formatTime(tm), port, t.AmbientPressure, t.AnalysisPressure, t.CellTemperature, t.PressureUnit, t.TemperatureUnit)
	if err != nil {
		return 0, merry.Append(err, "save telemetry")
	}
	return pkg.SqlGetNewInsertedID(res)
}

// ListRatios returns the ratios recorded since the given time, oldest first.
func ListRatios(ctx context.Context, db *sqlx.DB, since time.Time) (xs []Ratio, err error) {
	err = db.SelectContext(ctx, &xs, `
SELECT ratio_id, STRFTIME('%Y-%m-%d %H:%M:%f', tm) AS tm, port, primary_gas, secondary_gas,
       primary_ratio, secondary_ratio, uncertainty
FROM ratio
WHERE tm >= julianday(?)
ORDER BY tm, ratio_id`, formatTime(since))
	return
}

// ListTelemetry returns the telemetry recorded since the given time, oldest first.
func ListTelemetry(ctx context.Context, db *sqlx.DB, since time.Time) (xs []Telemetry, err error) {
	err = db.SelectContext(ctx, &xs, `
SELECT telemetry_id, STRFTIME('%Y-%m-%d %H:%M:%f', tm) AS tm, port, ambient_pressure, analysis_pressure,
       cell_temperature, pressure_unit, temperature_unit
FROM telemetry
WHERE tm >= julianday(?)
ORDER BY tm, telemetry_id`, formatTime(since))
	return
}

const timeLayout = "2006-01-02 15:04:05.000"

// times are stored as UTC julian days
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		log.PrintErr(merry.Append(err, s))
		return time.Time{}
	}
	return t.Local()
}
