package tui

import (
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
)

type countFilesMsg struct {
	total int
	err   error
}

type eventMsg ledger.Event

type processCompleteMsg struct {
	stats internal.RunStats
	err   error
}
