package guest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/faultline/internal/outcome"
	"github.com/roach88/faultline/internal/sink"
	"github.com/roach88/faultline/internal/terminate"
)

func TestReporter_ChannelsAgree(t *testing.T) {
	tests := []struct {
		outcome outcome.Outcome
		marker  string
		code    outcome.Code
	}{
		{outcome.Pass, "[ok]", outcome.Success},
		{outcome.Fail, "[test did not panic]", outcome.Failed},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			rec := sink.NewRecorder()
			sig := terminate.NewRecorder(nil)
			rep := NewReporter(rec, sig, outcome.DefaultCodes(), outcome.DefaultMarkers(), nil)

			require.NoError(t, rep.Report(tt.outcome))
			assert.Equal(t, []string{tt.marker}, rec.Lines())
			assert.Equal(t, []outcome.Code{tt.code}, sig.Codes())
			assert.True(t, rep.Reported())
		})
	}
}

func TestReporter_OnlyOnce(t *testing.T) {
	rec := sink.NewRecorder()
	sig := terminate.NewRecorder(nil)
	rep := NewReporter(rec, sig, outcome.DefaultCodes(), outcome.DefaultMarkers(), nil)

	require.NoError(t, rep.Report(outcome.Pass))
	assert.ErrorIs(t, rep.Report(outcome.Fail), ErrAlreadyReported)

	assert.Equal(t, []string{"[ok]"}, rec.Lines())
	assert.Equal(t, []outcome.Code{outcome.Success}, sig.Codes())
}

func TestReporter_RejectsUnknown(t *testing.T) {
	rep := NewReporter(sink.Discard, terminate.None{}, outcome.DefaultCodes(), outcome.Markers{}, nil)
	assert.Error(t, rep.Report(outcome.Unknown))
	assert.False(t, rep.Reported())
}
