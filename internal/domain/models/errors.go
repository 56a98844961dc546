package models

import "errors"

var (
	ErrUnknownIndicator      = errors.New("unknown indicator")
	ErrComparisonUnavailable = errors.New("comparison needs at least two selected indicators")
	ErrComparisonSize        = errors.New("comparison takes between 2 and 3 indicators")
	ErrInvalidYear           = errors.New("invalid year")
	ErrViewClosed            = errors.New("view is not open")
)

// User-facing messages shown when a load fails.
const (
	MsgSnapshotFailed   = "Error al cargar los indicadores económicos"
	MsgDetailFailed     = "Error al cargar los datos del indicador"
	MsgComparisonFailed = "Error al cargar los datos para la comparación"
	MsgNoData           = "No hay datos disponibles para este período."
	MsgDateUnavailable  = "Fecha no disponible"
)
