package diagnostic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaError_IsAndCode(t *testing.T) {
	err := Errorf("no-table", "shop.Order", "no table given and defaults are disabled")
	wrapped := fmt.Errorf("resolve: %w", err)

	assert.True(t, errors.Is(wrapped, &MetaError{Code: "no-table"}))
	assert.False(t, errors.Is(wrapped, &MetaError{Code: "bad-table"}))
	assert.Equal(t, "no-table", CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "shop.Order: [no-table]")
}

func TestMetaError_WrapAndSuggestions(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, "strategy-not-found", "shop.Order", "unknown class strategy %q", "flt").
		WithSuggestions("flat")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "did you mean flat?")

	d := err.Diagnostic()
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, []string{"flat"}, d.Suggestions)
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Warnf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func TestCollector(t *testing.T) {
	log := &recordingLogger{}
	c := NewCollector(log)

	c.Warn("unsupported-fk-action", "shop.Order.Customer", "cascade is not supported")
	c.Info("default-strategy", "shop.Order", "using %s", "full")
	c.Error(Errorf("bad-table", "shop.Order", "table ORDERS does not exist"))

	snap := c.Snapshot()
	require.Len(t, snap.Warnings, 1)
	require.Len(t, snap.Infos, 1)
	require.Len(t, snap.Errors, 1)
	assert.True(t, snap.HasCode("bad-table"))
	assert.Len(t, log.lines, 1)
	assert.Contains(t, log.lines[0], "unsupported-fk-action")

	c.Reset()
	assert.True(t, c.Snapshot().IsValid())
}

func TestDiagnostics_ErrorJoin(t *testing.T) {
	var d Diagnostics
	assert.NoError(t, d.Error())

	d.AddError("a", "first", "", "")
	d.AddError("b", "second", "ctx", "T.C")
	err := d.Error()
	require.Error(t, err)
	assert.Equal(t, "[a] first; [ctx] T.C: [b] second", err.Error())
}
