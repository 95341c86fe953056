package sink

import (
	"context"

	"github.com/amishk599/jobscout/internal/model"
)

// NopSink discards records; used in dry-run mode.
type NopSink struct{}

func NewNopSink() *NopSink { return &NopSink{} }

func (s *NopSink) Name() string                                      { return "nop" }
func (s *NopSink) Append(_ context.Context, _ model.StoredJob) error { return nil }
func (s *NopSink) Close() error                                      { return nil }
