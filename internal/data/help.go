package data

import "github.com/powerman/structlog"

var log = structlog.New()
