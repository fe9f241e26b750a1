package requests

import (
	"github.com/crucial707/asset-lifecycle/cmd/cli/client"
	"github.com/crucial707/asset-lifecycle/cmd/cli/output"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Requests
// ==========================
func InitRequests(rootCmd *cobra.Command) {

	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Manage asset requests",
	}

	requestsCmd.AddCommand(
		createRequestCmd(),
		listMineCmd(),
		listQueueCmd(),
		approveCmd(),
		rejectCmd(),
		assignCmd(),
		receiptCmd(),
		cancelCmd(),
	)

	rootCmd.AddCommand(requestsCmd)
}

func renderRequests(reqs []models.AssetRequest) {
	rows := make([][]interface{}, 0, len(reqs))
	for _, q := range reqs {
		rows = append(rows, []interface{}{q.ID, q.CategoryID, q.Status, q.Justification, q.CreatedAt.Format("2006-01-02")})
	}
	output.RenderTable([]string{"ID", "Category", "Status", "Justification", "Created"}, rows)
}

// ==========================
// CREATE
// ==========================
func createRequestCmd() *cobra.Command {
	var categoryID, unitID int
	var justification string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Request an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"category_id":   categoryID,
				"justification": justification,
			}
			if unitID != 0 {
				payload["unit_id"] = unitID
			}

			var req models.AssetRequest
			if err := client.Post("/requests", payload, &req); err != nil {
				return err
			}
			client.PrintJSON(req)
			return nil
		},
	}

	cmd.Flags().IntVar(&categoryID, "category", 0, "category id")
	cmd.Flags().IntVar(&unitID, "unit", 0, "unit id (defaults to your unit)")
	cmd.Flags().StringVar(&justification, "justification", "", "why the asset is needed")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("justification")
	return cmd
}

// ==========================
// LISTS
// ==========================
func listMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var reqs []models.AssetRequest
			if err := client.Get("/requests/mine", &reqs); err != nil {
				return err
			}
			renderRequests(reqs)
			return nil
		},
	}
}

func listQueueCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the agency request queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/requests/queue"
			if status != "" {
				path += "?status=" + status
			}
			var reqs []models.AssetRequest
			if err := client.Get(path, &reqs); err != nil {
				return err
			}
			renderRequests(reqs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "queue status (default pending_ict)")
	return cmd
}

// ==========================
// DECISIONS
// ==========================
func approveCmd() *cobra.Command {
	return actionCmd("approve [id]", "Approve a pending request", "/approve", nil)
}

func rejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject [id]",
		Short: "Reject a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.AssetRequest
			if err := client.Post("/requests/"+args[0]+"/reject", map[string]string{"reason": reason}, &req); err != nil {
				return err
			}
			client.PrintJSON(req)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (required)")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func assignCmd() *cobra.Command {
	var assetID int

	cmd := &cobra.Command{
		Use:   "assign [id]",
		Short: "Assign an available asset to an approved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.AssetRequest
			if err := client.Post("/requests/"+args[0]+"/assign", map[string]int{"asset_id": assetID}, &req); err != nil {
				return err
			}
			client.PrintJSON(req)
			return nil
		},
	}

	cmd.Flags().IntVar(&assetID, "asset", 0, "asset id to assign")
	cmd.MarkFlagRequired("asset")
	return cmd
}

func receiptCmd() *cobra.Command {
	return actionCmd("receipt [id]", "Confirm receipt of your assigned asset", "/receipt", nil)
}

func cancelCmd() *cobra.Command {
	return actionCmd("cancel [id]", "Cancel your request", "/cancel", nil)
}

func actionCmd(use, short, action string, payload interface{}) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.AssetRequest
			if err := client.Post("/requests/"+args[0]+action, payload, &req); err != nil {
				return err
			}
			client.PrintJSON(req)
			return nil
		},
	}
}
