package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"rigs-and-ruin/sim/logging"
)

// JSONSink appends one JSON document per event to a file, flushing in batches
// to keep the sink worker off the write syscall hot path.
type JSONSink struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	pending  int
	maxBatch int
	flushDue time.Time
	interval time.Duration
}

func NewJSONSink(cfg logging.JSONConfig) (*JSONSink, error) {
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 32
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &JSONSink{
		file:     file,
		writer:   bufio.NewWriter(file),
		maxBatch: maxBatch,
		interval: interval,
		flushDue: time.Now().Add(interval),
	}, nil
}

func (s *JSONSink) Write(event logging.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(append(data, '\n')); err != nil {
		return err
	}
	s.pending++
	if s.pending >= s.maxBatch || time.Now().After(s.flushDue) {
		s.pending = 0
		s.flushDue = time.Now().Add(s.interval)
		return s.writer.Flush()
	}
	return nil
}

func (s *JSONSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
