package workflow

import (
	"testing"

	"github.com/crucial707/asset-lifecycle/internal/models"
)

func TestValidTransition_Requests(t *testing.T) {
	cases := []struct {
		action string
		from   string
		want   bool
	}{
		{"approve", models.RequestPendingManager, true},
		{"approve", models.RequestPendingICT, false},
		{"assign", models.RequestPendingICT, true},
		{"assign", models.RequestAssigned, false},
		{"verify_receipt", models.RequestAssigned, true},
		{"verify_receipt", models.RequestReceived, false},
		{"cancel", models.RequestDraft, true},
		{"cancel", models.RequestPendingManager, true},
		{"cancel", models.RequestPendingICT, true},
		{"cancel", models.RequestAssigned, false},
		{"cancel", models.RequestRejected, false},
		{"unknown", models.RequestPendingManager, false},
	}

	for _, tc := range cases {
		if got := validTransition(requestTransitions, tc.action, tc.from); got != tc.want {
			t.Errorf("request %s from %s = %v, want %v", tc.action, tc.from, got, tc.want)
		}
	}
}

func TestValidTransition_Returns(t *testing.T) {
	cases := []struct {
		action string
		from   string
		want   bool
	}{
		{"verify_received", models.ReturnPendingICT, true},
		{"verify_received", models.ReturnInTransit, true},
		{"verify_received", models.ReturnReceived, false},
		{"cancel", models.ReturnPendingICT, true},
		{"cancel", models.ReturnCancelled, false},
	}

	for _, tc := range cases {
		if got := validTransition(returnTransitions, tc.action, tc.from); got != tc.want {
			t.Errorf("return %s from %s = %v, want %v", tc.action, tc.from, got, tc.want)
		}
	}
}

func TestValidTransition_Changes(t *testing.T) {
	for _, action := range []string{"approve", "reject", "cancel"} {
		if !validTransition(changeTransitions, action, models.ChangePendingManager) {
			t.Errorf("change %s from pending_manager should be valid", action)
		}
		if validTransition(changeTransitions, action, models.ChangeApproved) {
			t.Errorf("change %s from approved should be invalid", action)
		}
	}
}
