package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/returnloop/kiosk/internal/app"
	"github.com/returnloop/kiosk/internal/capture"
	"github.com/returnloop/kiosk/internal/capture/v4l2"
	"github.com/returnloop/kiosk/internal/capture/zxing"
	"github.com/returnloop/kiosk/internal/config"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the available camera devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan one barcode from the camera and print it",
	Long: `Scan opens the configured camera, decodes the first barcode or QR code
it sees, prints the payload to stdout, and releases the camera.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(devicesCmd, scanCmd)

	scanCmd.Flags().Duration("timeout", 30*time.Second, "give up after this long without a decode")
	scanCmd.Flags().String("device", "", "camera device to use (default: auto-select)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closeLog := app.OpenLogger(cfg)
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()

	devices, err := v4l2.NewEnumerator(logger).List(ctx)
	if err != nil {
		return fmt.Errorf("enumerate cameras: %w", err)
	}
	if len(devices) == 0 {
		fmt.Println("No camera devices found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%s\t%s\n", d.ID, d.Label)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closeLog := app.OpenLogger(cfg)
	defer closeLog()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	device, _ := cmd.Flags().GetString("device")
	if device == "" {
		device = cfg.Camera.Device
	}

	code, err := scanOnce(cfg, logger, device, timeout)
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}

// scanOnce runs a headless capture session to completion: one decoded
// payload, a session failure, a timeout, or an interrupt, whichever comes
// first. The camera is released on every path.
func scanOnce(cfg config.Config, logger *slog.Logger, device string, timeout time.Duration) (string, error) {
	results := make(chan string, 1)
	failures := make(chan error, 1)

	sess := capture.NewSession(
		v4l2.NewEnumerator(logger),
		zxing.New(),
		capture.NopSink{},
		capture.Config{
			Device:    device,
			FrameRate: cfg.Camera.FrameRate,
			Logger:    logger,
		},
		capture.Callbacks{
			OnResult: func(code string) { results <- code },
			OnError:  func(err error) { failures <- err },
		},
	)

	ctx, cancel := signalContext()
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		return "", fmt.Errorf("%s", capture.UserMessage(err))
	}
	defer sess.Stop()

	select {
	case code := <-results:
		return code, nil
	case err := <-failures:
		return "", fmt.Errorf("%s", capture.UserMessage(err))
	case <-time.After(timeout):
		return "", fmt.Errorf("no barcode detected within %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
