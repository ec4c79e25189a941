package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// routesCmd represents the routes command
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "print the canned route table",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"name", "path", "status", "content type", "body", "delay"})
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)

		delay := viper.GetDuration("slow-delay")
		for _, r := range testapp.DefaultTable().Routes() {
			path := r.Path
			if path == "" {
				path = "*"
			}
			d := "-"
			if r.Slow {
				d = delay.String()
			}
			table.Append([]string{r.Name, path, strconv.Itoa(r.StatusCode), testapp.ContentType, strings.Replace(string(r.Body), "\n", `\n`, -1), d})
		}
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
