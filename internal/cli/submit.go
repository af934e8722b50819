package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/returnloop/kiosk/internal/draft"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a return request without the TUI",
	Long: `Submit builds and uploads one return request. The barcode comes from
--barcode, or from a camera scan when --scan is given. Attach evidence
files with repeated --file flags.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().String("barcode", "", "product barcode")
	submitCmd.Flags().Bool("scan", false, "scan the barcode from the camera")
	submitCmd.Flags().StringArray("file", nil, "evidence photo or video (repeatable)")
	submitCmd.Flags().Duration("scan-timeout", 30*time.Second, "give up scanning after this long")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	barcode, _ := cmd.Flags().GetString("barcode")
	scan, _ := cmd.Flags().GetBool("scan")
	files, _ := cmd.Flags().GetStringArray("file")
	scanTimeout, _ := cmd.Flags().GetDuration("scan-timeout")

	if scan && barcode != "" {
		return fmt.Errorf("--scan and --barcode are mutually exclusive")
	}
	if scan {
		code, err := scanOnce(env.cfg, env.log, env.cfg.Camera.Device, scanTimeout)
		if err != nil {
			return err
		}
		barcode = code
		fmt.Printf("Scanned barcode %s\n", barcode)
	}

	d := draft.New()
	d.Barcode = barcode
	for _, path := range files {
		if err := d.AddFile(path); err != nil {
			return err
		}
	}
	if errs := d.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(cmd.ErrOrStderr(), e.Message)
		}
		return fmt.Errorf("return request is incomplete")
	}

	ctx, cancel := signalContext()
	defer cancel()

	created, err := env.client.CreateReturn(ctx, d.Barcode, d.FilePaths())
	if err != nil {
		return err
	}
	fmt.Printf("Return request #%d submitted (%s, %d files)\n", created.ID, created.Status, len(created.MediaFiles))
	return nil
}
