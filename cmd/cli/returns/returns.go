package returns

import (
	"github.com/crucial707/asset-lifecycle/cmd/cli/client"
	"github.com/crucial707/asset-lifecycle/cmd/cli/output"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Returns
// ==========================
func InitReturns(rootCmd *cobra.Command) {

	returnsCmd := &cobra.Command{
		Use:   "returns",
		Short: "Manage asset returns",
	}

	returnsCmd.AddCommand(
		initiateCmd(),
		queueCmd(),
		receiveCmd(),
		cancelCmd(),
	)

	rootCmd.AddCommand(returnsCmd)
}

// ==========================
// INITIATE
// ==========================
func initiateCmd() *cobra.Command {
	var assetID int
	var reason string

	cmd := &cobra.Command{
		Use:   "initiate",
		Short: "Start returning an asset you hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ret models.AssetReturnRequest
			err := client.Post("/returns", map[string]interface{}{
				"asset_id": assetID,
				"reason":   reason,
			}, &ret)
			if err != nil {
				return err
			}
			client.PrintJSON(ret)
			return nil
		},
	}

	cmd.Flags().IntVar(&assetID, "asset", 0, "asset id to return")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for returning")
	cmd.MarkFlagRequired("asset")
	return cmd
}

// ==========================
// QUEUE
// ==========================
func queueCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the agency return queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/returns/queue"
			if status != "" {
				path += "?status=" + status
			}
			var rets []models.AssetReturnRequest
			if err := client.Get(path, &rets); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(rets))
			for _, r := range rets {
				rows = append(rows, []interface{}{r.ID, r.AssetID, r.RequestedByID, r.Status, r.CreatedAt.Format("2006-01-02")})
			}
			output.RenderTable([]string{"ID", "Asset", "Requested By", "Status", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "queue status (default pending_ict)")
	return cmd
}

// ==========================
// RECEIVE
// ==========================
func receiveCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "receive [id]",
		Short: "Verify a return as physically received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ret models.AssetReturnRequest
			if err := client.Post("/returns/"+args[0]+"/receive", map[string]string{"note": note}, &ret); err != nil {
				return err
			}
			client.PrintJSON(ret)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "verification note")
	return cmd
}

// ==========================
// CANCEL
// ==========================
func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a return you initiated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ret models.AssetReturnRequest
			if err := client.Post("/returns/"+args[0]+"/cancel", nil, &ret); err != nil {
				return err
			}
			client.PrintJSON(ret)
			return nil
		},
	}
}
