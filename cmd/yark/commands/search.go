package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gotofritz/yark/cmd/yark/opts"
	"github.com/gotofritz/yark/pkg/archive"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command
func NewSearchCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "search <path> <id>",
		Short: "Show the current state of one archived item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := archive.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			v, err := a.Search(args[1])
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Println(v.Title.Current())
			fmt.Printf("  url          %s\n", v.URL())
			fmt.Printf("  uploaded     %s\n", v.Uploaded.Format("2006-01-02"))
			fmt.Printf("  views        %d\n", v.Views.Current())
			fmt.Printf("  likes        %d\n", v.Likes.Current())
			fmt.Printf("  downloaded   %t\n", v.Downloaded(a.VideosDir()))
			if v.Deleted.Current() {
				color.New(color.FgRed).Fprintln(os.Stdout, "  deleted upstream")
			}
			return nil
		},
	}
}
