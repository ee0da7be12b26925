package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statOpts = &deviceOpts{}

var StatCmd = &cobra.Command{
	Use:   "stat <file>",
	Short: "Show block and HDU accounting for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	statOpts.register(StatCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	f, err := openTarget(args[0], *statOpts)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("%s: %d blocks, %d HDUs\n", f.Path(), f.BlockCount(), len(f.HDUs()))
	for i, hdu := range f.HDUs() {
		start, end := hdu.DataExtent()
		fmt.Printf("  HDU %d: %d cards, data blocks [%d, %d), modified=%v\n",
			i, len(hdu.Headers()), start, end, hdu.Modified())
	}

	return nil
}
