package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorCodeDefaultCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrCodeTimeout, CategoryTransient},
		{ErrCodeUnavailable, CategoryTransient},
		{ErrCodeNotFound, CategoryPermanent},
		{ErrCodeInvalidInput, CategoryPermanent},
		{ErrCodeRateLimit, CategoryResource},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeCorruption, CategoryInternal},
		{ErrCodeClaimFailed, CategoryTransient},
		{ErrCodeNotifyFailed, CategoryTransient},
		{ErrCodeMarketplace, CategoryTransient},
		{ErrCodeSnapshot, CategoryInternal},
		{ErrorCode("BOGUS"), CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.DefaultCategory(); got != tt.want {
				t.Errorf("DefaultCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryRetryable(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     bool
	}{
		{CategoryTransient, true},
		{CategoryResource, true},
		{CategoryPermanent, false},
		{CategoryInternal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewWithOptions(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := New(ErrCodeClaimFailed, "claim for task t-1 failed",
		WithWorker("indexer-2"),
		WithTaskID("t-1"),
		WithMetadata("attempt", "3"),
		WithTimestamp(ts),
	)

	if err.Code() != ErrCodeClaimFailed {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeClaimFailed)
	}
	if err.Category() != CategoryTransient {
		t.Errorf("Category() = %v, want transient", err.Category())
	}
	if !err.Retryable() {
		t.Error("claim failure should default to retryable")
	}
	if err.Worker() != "indexer-2" {
		t.Errorf("Worker() = %q", err.Worker())
	}
	if err.TaskID() != "t-1" {
		t.Errorf("TaskID() = %q", err.TaskID())
	}
	if err.Metadata()["attempt"] != "3" {
		t.Errorf("Metadata() = %v", err.Metadata())
	}
	if !err.Timestamp().Equal(ts) {
		t.Errorf("Timestamp() = %v, want %v", err.Timestamp(), ts)
	}
}

func TestWithRetryableOverride(t *testing.T) {
	err := New(ErrCodeTimeout, "slow store", WithRetryable(false))
	if err.Retryable() {
		t.Error("explicit override should win over the category default")
	}
}

func TestErrorMessage(t *testing.T) {
	plain := New(ErrCodeNotFound, "worker record missing")
	if plain.Error() != "worker record missing" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := stderrors.New("connection refused")
	wrapped := New(ErrCodeUnavailable, "store unreachable", WithCause(cause))
	want := "store unreachable: connection refused"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
}

func TestWrapPreservesStructure(t *testing.T) {
	inner := ClaimFailed("t-9", stderrors.New("kv write rejected"))
	outer := Wrap(fmt.Errorf("cycle step: %w", inner), "coordination cycle")

	if outer.Code() != ErrCodeClaimFailed {
		t.Errorf("Code() = %v, want claim code preserved", outer.Code())
	}
	if outer.TaskID() != "t-9" {
		t.Errorf("TaskID() = %q, want preserved", outer.TaskID())
	}
	if !outer.Retryable() {
		t.Error("retryability should carry over")
	}
}

func TestWrapContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"plain", stderrors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.err, "browse").Code(); got != tt.want {
				t.Errorf("Wrap().Code() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapWithCode(nil, ErrCodeInternal, "nothing") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestCodeAndCategoryChecks(t *testing.T) {
	err := NotifyFailed("indexer-1", "t-3", stderrors.New("bus closed"))

	if !Is(err, ErrCodeNotifyFailed) {
		t.Error("Is should match the notify code")
	}
	if Is(err, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if !IsTransient(err) {
		t.Error("notify failure should be transient")
	}
	if !IsRetryable(err) {
		t.Error("notify failure should be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("unstructured errors default to not retryable")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	orig := ClaimFailed("t-7", stderrors.New("kv down"), WithWorker("scraper-1"))

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Error
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Code() != ErrCodeClaimFailed {
		t.Errorf("Code() = %v", decoded.Code())
	}
	if decoded.Worker() != "scraper-1" {
		t.Errorf("Worker() = %q", decoded.Worker())
	}
	if decoded.TaskID() != "t-7" {
		t.Errorf("TaskID() = %q", decoded.TaskID())
	}
	if !decoded.Retryable() {
		t.Error("retryability should survive the round trip")
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(0)

	c.Add(nil)
	if c.Len() != 0 {
		t.Errorf("Len() after nil add = %d", c.Len())
	}

	c.Add(ClaimFailed("t-1", stderrors.New("kv down")))
	c.Add(NotifyFailed("w-1", "t-1", stderrors.New("bus closed")))
	c.Collect(stderrors.New("corrupt snapshot"), "loading profiles")

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	errs := c.Errors()
	if len(errs) != 3 {
		t.Fatalf("Errors() len = %d", len(errs))
	}
	if errs[0].Code() != ErrCodeClaimFailed {
		t.Errorf("first error code = %v", errs[0].Code())
	}
	if errs[2].Code() != ErrCodeInternal {
		t.Errorf("collected plain error code = %v", errs[2].Code())
	}

	byCat := c.ByCategory()
	if byCat[CategoryTransient] != 2 {
		t.Errorf("transient count = %d, want 2", byCat[CategoryTransient])
	}
	if byCat[CategoryInternal] != 1 {
		t.Errorf("internal count = %d, want 1", byCat[CategoryInternal])
	}

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len() after Reset = %d", c.Len())
	}
}

func TestCollectorLimit(t *testing.T) {
	c := NewCollector(2)
	for i := 0; i < 5; i++ {
		c.Add(Internal(fmt.Sprintf("fault %d", i)))
	}

	if got := len(c.Errors()); got != 2 {
		t.Errorf("retained = %d, want 2", got)
	}
	if c.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", c.Dropped())
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
}
