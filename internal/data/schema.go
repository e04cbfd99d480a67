package data

const SQLCreate = `
PRAGMA foreign_keys = ON;
PRAGMA encoding = 'UTF-8';

CREATE TABLE IF NOT EXISTS ratio
(
    ratio_id        INTEGER PRIMARY KEY NOT NULL,
    tm              REAL                NOT NULL,
    port            TEXT                NOT NULL,
    primary_gas     TEXT                NOT NULL,
    secondary_gas   TEXT                NOT NULL,
    primary_ratio   REAL                NOT NULL,
    secondary_ratio REAL                NOT NULL,
    uncertainty     REAL                NOT NULL
);

CREATE INDEX IF NOT EXISTS ratio_tm ON ratio (tm);

CREATE TABLE IF NOT EXISTS telemetry
(
    telemetry_id      INTEGER PRIMARY KEY NOT NULL,
    tm                REAL                NOT NULL,
    port              TEXT                NOT NULL,
    ambient_pressure  REAL                NOT NULL,
    analysis_pressure REAL                NOT NULL,
    cell_temperature  REAL                NOT NULL,
    pressure_unit     TEXT                NOT NULL,
    temperature_unit  TEXT                NOT NULL
);

CREATE INDEX IF NOT EXISTS telemetry_tm ON telemetry (tm);
`
