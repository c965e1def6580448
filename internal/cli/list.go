package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/output"
)

var (
	listOwner int64
	listPage  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List virtual hosts",
	Long: `List virtual hosts, one page at a time.

Examples:
  vhostctl list
  vhostctl list --owner 7 --page 2
  vhostctl list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().Int64Var(&listOwner, "owner", 0, "Only list hosts owned by this id (0 lists all)")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")

	rootCmd.AddCommand(listCmd)
}

// ListResult is the JSON form of one page of hosts.
type ListResult struct {
	Hosts       []HostResult `json:"hosts"`
	Total       int          `json:"total"`
	PerPage     int          `json:"perPage"`
	CurrentPage int          `json:"currentPage"`
	LastPage    int          `json:"lastPage"`
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *App) error {
		page, err := app.Service.List(ctx, listOwner, listPage)
		if err != nil {
			return err
		}

		result := ListResult{
			Hosts:       make([]HostResult, 0, len(page.Items)),
			Total:       page.Total,
			PerPage:     page.PerPage,
			CurrentPage: page.CurrentPage,
			LastPage:    page.LastPage,
		}
		for i := range page.Items {
			result.Hosts = append(result.Hosts, newHostResult(&page.Items[i]))
		}

		if jsonOutput {
			return output.JSON(result)
		}

		if page.Total == 0 {
			output.Info("No virtual hosts")
			return nil
		}

		headers := []string{"ID", "OWNER", "DOMAIN", "PORT", "URL", "CREATED"}
		rows := make([][]string, 0, len(result.Hosts))
		for _, h := range result.Hosts {
			rows = append(rows, []string{
				strconv.FormatInt(h.ID, 10),
				strconv.FormatInt(h.OwnerID, 10),
				h.Domain,
				strconv.Itoa(h.Port),
				h.URL,
				h.CreatedAt.Local().Format("2006-01-02 15:04"),
			})
		}
		output.Table(headers, rows)
		output.Print("")
		output.Print("Page %d of %d (%d hosts)", page.CurrentPage, page.LastPage, page.Total)
		return nil
	})
}
