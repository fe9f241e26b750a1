package workflow

import "github.com/crucial707/asset-lifecycle/internal/models"

// Allowed source states per action. An action missing a current status is a
// state conflict, not a validation problem: the entity moved on.

var requestTransitions = map[string][]string{
	"approve":        {models.RequestPendingManager},
	"reject":         {models.RequestPendingManager},
	"assign":         {models.RequestPendingICT},
	"verify_receipt": {models.RequestAssigned},
	"cancel":         {models.RequestDraft, models.RequestPendingManager, models.RequestPendingICT},
}

var returnTransitions = map[string][]string{
	"verify_received": {models.ReturnPendingICT, models.ReturnInTransit},
	"cancel":          {models.ReturnPendingICT, models.ReturnInTransit},
}

var changeTransitions = map[string][]string{
	"approve": {models.ChangePendingManager},
	"reject":  {models.ChangePendingManager},
	"cancel":  {models.ChangePendingManager},
}

func validTransition(table map[string][]string, action, fromStatus string) bool {
	for _, status := range table[action] {
		if status == fromStatus {
			return true
		}
	}
	return false
}
