package models

import "time"

type Result struct {
	Triggers int
	Renders  int
	Failed   []FailedRender
	Duration time.Duration
}

type FailedRender struct {
	Viewport Viewport
	Error    error
}
