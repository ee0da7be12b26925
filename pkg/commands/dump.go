package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stelladrift/fits/pkg/fits"
)

var dumpOpts = &deviceOpts{}

var DumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print every header card of every HDU",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpOpts.register(DumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := openTarget(args[0], *dumpOpts)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, hdu := range f.HDUs() {
		start, end := hdu.DataExtent()
		fmt.Printf("== HDU %d: %s, data blocks [%d, %d)\n", i, hduLabel(hdu), start, end)
		for _, card := range hdu.Headers() {
			fmt.Println(card.String())
		}
	}

	return nil
}

// hduLabel names an HDU for display only: primary units start with SIMPLE,
// extensions carry their XTENSION type. The data itself stays opaque.
func hduLabel(hdu *fits.HDU) string {
	if _, err := hdu.Header("SIMPLE"); err == nil {
		return "primary"
	}
	if card, err := hdu.Header("XTENSION"); err == nil {
		if value, ok := card.(*fits.ValueCard); ok && value.Value().Kind == fits.ValueText {
			return value.Value().Text
		}
	}
	return "unlabeled"
}
