// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/serigen/serigen/internal/model"
	"github.com/serigen/serigen/internal/repository"
)

// recentCodesLimit is how many codes the dashboard shows.
const recentCodesLimit = 10

// SuffixParseError reports a persisted code whose final segment is not a
// non-negative integer. It carries the offending code string.
type SuffixParseError struct {
	Value string
}

func (e *SuffixParseError) Error() string {
	return fmt.Sprintf("failed to parse suffix from code %q", e.Value)
}

// SequenceService allocates daily-sequenced serial codes.
//
// Allocation is optimistic: the latest suffix is read without any lock and
// the insert relies on the codes.code unique constraint to reject the loser
// of a concurrent race. The service never retries; a
// *repository.DuplicateCodeError tells the caller to re-invoke.
type SequenceService struct {
	store *repository.Store
	now   func() time.Time
}

// NewSequenceService creates a SequenceService over the given store.
func NewSequenceService(store *repository.Store) *SequenceService {
	return &SequenceService{store: store, now: time.Now}
}

// TodayPrefix returns the daily bucket prefix for the current local date,
// e.g. V20240106.
func (s *SequenceService) TodayPrefix() string {
	return "V" + s.now().Format("20060102")
}

// AllocateNext determines the next free suffix for the prefix, persists the
// new code owned by userID, and returns the stored row hydrated with its
// owner. Suffixes are unpadded positive integers starting at 1 for a fresh
// prefix.
func (s *SequenceService) AllocateNext(ctx context.Context, prefix string, userID int64) (*model.Code, error) {
	var base int64

	latest, err := s.store.LatestCodeByPrefix(ctx, prefix)
	switch {
	case errors.Is(err, repository.ErrCodeNotFound):
		// Empty bucket: the first code of the day is <prefix>.1.
	case err != nil:
		return nil, err
	default:
		base, err = parseSuffix(latest)
		if err != nil {
			return nil, err
		}
	}

	newCode := fmt.Sprintf("%s.%d", prefix, base+1)

	id, err := s.store.InsertCode(ctx, newCode, userID, s.now().UTC())
	if err != nil {
		// Includes *repository.DuplicateCodeError when a concurrent
		// allocation won the race for this suffix.
		return nil, err
	}

	return s.store.GetCodeByID(ctx, id)
}

// Recent returns the codes shown on the dashboard, newest first.
func (s *SequenceService) Recent(ctx context.Context) ([]model.Code, error) {
	return s.store.ListRecentCodes(ctx, recentCodesLimit)
}

// Reset clears all issued codes.
func (s *SequenceService) Reset(ctx context.Context) error {
	return s.store.DeleteAllCodes(ctx)
}

// parseSuffix extracts the final dot-separated segment of a code string as
// a non-negative integer.
func parseSuffix(code string) (int64, error) {
	idx := strings.LastIndex(code, ".")
	if idx < 0 || idx == len(code)-1 {
		return 0, &SuffixParseError{Value: code}
	}

	n, err := strconv.ParseInt(code[idx+1:], 10, 64)
	if err != nil || n < 0 {
		return 0, &SuffixParseError{Value: code}
	}
	return n, nil
}
