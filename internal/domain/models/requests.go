package models

// Requests for the JSON API, web forms and websocket actions.

type HistoryRequest struct {
	Code string `param:"code" json:"code" validate:"required,indicator"`
	Year int    `query:"year" json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

type DateRequest struct {
	Code string `param:"code" json:"code" validate:"required,indicator"`
	Date string `param:"date" json:"date" validate:"required"`
}

type CompareRequest struct {
	Codes string `query:"codes" json:"codes" validate:"required"`
	Year  int    `query:"year" json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

type CodeRequest struct {
	Code string `param:"code" json:"code" validate:"required,indicator"`
	Name string `form:"name" json:"name"`
}

type YearForm struct {
	Year int `form:"year" json:"year" validate:"required,gte=1900,lte=2100"`
}

// Websocket actions.
const (
	ActionRefresh         = "refresh"
	ActionToggle          = "toggle"
	ActionOpenDetail      = "open_detail"
	ActionDetailYear      = "detail_year"
	ActionCloseDetail     = "close_detail"
	ActionOpenComparison  = "open_comparison"
	ActionComparisonYear  = "comparison_year"
	ActionCloseComparison = "close_comparison"
)

type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=refresh toggle open_detail detail_year close_detail open_comparison comparison_year close_comparison"`
	Code   string `json:"code" validate:"omitempty,indicator"`
	Name   string `json:"name"`
	Year   int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}
