package http

import (
	"time"

	xutil "Indicadores/pkg/util"
)

// ParseDay parses yyyy-mm-dd or dd-mm-yyyy path values.
func ParseDay(s string) (time.Time, bool) { return xutil.ParseDay(s) }
