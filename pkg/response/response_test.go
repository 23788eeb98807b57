package response

import (
	stderrors "errors"
	"net/http"
	"testing"

	"CareCompanion/pkg/errors"
)

func TestErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.ReminderNotFound, http.StatusNotFound},
		{errors.OccurrenceNotActionable, http.StatusConflict},
		{errors.SnoozeMinutesInvalid, http.StatusBadRequest},
		{errors.CaregiverOnly, http.StatusForbidden},
		{errors.TooManyRequests, http.StatusTooManyRequests},
		{errors.AssistantUnavailable, http.StatusServiceUnavailable},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := errorToHTTPStatus(c.err); got != c.want {
			t.Errorf("errorToHTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
