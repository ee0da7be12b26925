package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var copyOpts = &deviceOpts{}

var CopyCmd = &cobra.Command{
	Use:   "copy <file> <output>",
	Short: "Re-serialize a file to a new path",
	Args:  cobra.ExactArgs(2),
	RunE:  runCopy,
}

func init() {
	copyOpts.register(CopyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	f, err := openTarget(args[0], *copyOpts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(args[1]); err != nil {
		return err
	}

	log.Info().Msgf("copied %s to %s", args[0], args[1])
	return nil
}
