package assets

import (
	"fmt"

	"github.com/crucial707/asset-lifecycle/cmd/cli/client"
	"github.com/crucial707/asset-lifecycle/cmd/cli/output"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage the asset registry",
	}

	assetsCmd.AddCommand(
		listAssetsCmd(),
		registerAssetCmd(),
		retireAssetCmd(),
		verifyAssetCmd(),
		historyCmd(),
		reportCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

// ==========================
// LIST
// ==========================
func listAssetsCmd() *cobra.Command {
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/assets"
			if status != "" {
				path += "?status=" + status
			}

			var assets []models.Asset
			if err := client.Get(path, &assets); err != nil {
				return err
			}

			if asJSON {
				client.PrintJSON(assets)
				return nil
			}

			rows := make([][]interface{}, 0, len(assets))
			for _, a := range assets {
				holder := ""
				if a.CurrentHolderID != nil {
					holder = fmt.Sprintf("%d", *a.CurrentHolderID)
				}
				tag := ""
				if a.AssetTag != nil {
					tag = *a.AssetTag
				}
				rows = append(rows, []interface{}{a.ID, tag, a.Name, a.Status, holder})
			}
			output.RenderTable([]string{"ID", "Tag", "Name", "Status", "Holder"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (available, assigned, maintenance, retired)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// REGISTER
// ==========================
func registerAssetCmd() *cobra.Command {
	var name, serial, tag, acquired, eolDue string
	var categoryID, unitID int
	var autoTag bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new asset into the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"name":        name,
				"category_id": categoryID,
				"auto_tag":    autoTag,
			}
			if unitID != 0 {
				payload["unit_id"] = unitID
			}
			if serial != "" {
				payload["serial_number"] = serial
			}
			if tag != "" {
				payload["asset_tag"] = tag
			}
			if acquired != "" {
				payload["acquired_at"] = acquired
			}
			if eolDue != "" {
				payload["eol_due_date"] = eolDue
			}

			var asset models.Asset
			if err := client.Post("/assets", payload, &asset); err != nil {
				return err
			}
			client.PrintJSON(asset)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "asset name")
	cmd.Flags().IntVar(&categoryID, "category", 0, "category id")
	cmd.Flags().IntVar(&unitID, "unit", 0, "unit id (omit for centrally managed)")
	cmd.Flags().StringVar(&serial, "serial", "", "serial number")
	cmd.Flags().StringVar(&tag, "tag", "", "asset tag (omit with --auto-tag)")
	cmd.Flags().BoolVar(&autoTag, "auto-tag", false, "generate a unique tag")
	cmd.Flags().StringVar(&acquired, "acquired", "", "acquisition date YYYY-MM-DD")
	cmd.Flags().StringVar(&eolDue, "eol-due", "", "end-of-life date YYYY-MM-DD")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("category")
	return cmd
}

// ==========================
// RETIRE
// ==========================
func retireAssetCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "retire [id]",
		Short: "Retire an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var asset models.Asset
			if err := client.Post("/assets/"+args[0]+"/retire", map[string]string{"note": note}, &asset); err != nil {
				return err
			}
			client.PrintJSON(asset)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "retirement note")
	return cmd
}

// ==========================
// VERIFY (physical check)
// ==========================
func verifyAssetCmd() *cobra.Command {
	var location, note string

	cmd := &cobra.Command{
		Use:   "verify [tag]",
		Short: "Record a physical verification of an asset by tag or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out any
			err := client.Post("/assets/verify", map[string]string{
				"tag":      args[0],
				"method":   "manual",
				"location": location,
				"note":     note,
			}, &out)
			if err != nil {
				return err
			}
			client.PrintJSON(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "where the asset was sighted")
	cmd.Flags().StringVar(&note, "note", "", "verification note")
	return cmd
}

// ==========================
// HISTORY
// ==========================
func historyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show an asset's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.AssetHistory
			if err := client.Get("/assets/"+args[0]+"/history", &entries); err != nil {
				return err
			}

			if asJSON {
				client.PrintJSON(entries)
				return nil
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{e.ID, e.Event, e.ActorID, e.Note, e.CreatedAt.Format("2006-01-02 15:04")})
			}
			output.RenderTable([]string{"ID", "Event", "Actor", "Note", "At"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// REPORT
// ==========================
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show asset counts by status and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out any
			if err := client.Get("/assets/report", &out); err != nil {
				return err
			}
			client.PrintJSON(out)
			return nil
		},
	}
}
