package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vizarcade.dev/cmd/admin"
	"vizarcade.dev/cmd/gateway"
	"vizarcade.dev/config"
	"vizarcade.dev/pkg/bootkit"
	"vizarcade.dev/pkg/logging"
	"vizarcade.dev/pkg/types/acrcloud"
)

type serveOptions struct {
	configPath   string
	envFile      string
	listenerAddr string
	adminAddr    string
}

func newRootCommand() *cobra.Command {
	options := &serveOptions{}

	root := &cobra.Command{
		Use:           "vizarcade",
		Short:         "Backend for the VIZarcade music visualizer: song recognition and theme generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(options)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway and admin listeners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(options)
		},
	}

	for _, c := range []*cobra.Command{root, serveCmd} {
		flags := c.Flags()
		flags.StringVar(&options.configPath, "config", "config/config.yaml", "Path to the configuration file")
		flags.StringVar(&options.envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
		flags.StringVar(&options.listenerAddr, "gateway-listener-address", "", "The address the gateway listener binds to, overrides listener.addr")
		flags.StringVar(&options.adminAddr, "admin-listener-address", "", "The address the admin listener binds to, overrides listener.adminAddr")
	}

	root.AddCommand(serveCmd, newSignCommand())

	return root
}

func loadConfig(options *serveOptions) (*config.Config, error) {
	if options.envFile != "" {
		err := godotenv.Load(options.envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := config.LoadConfig(options.configPath)
	if err != nil {
		return nil, err
	}

	if options.listenerAddr != "" {
		cfg.Listener.Addr = options.listenerAddr
	}

	if options.adminAddr != "" {
		cfg.Listener.AdminAddr = options.adminAddr
	}

	return cfg, nil
}

func serve(options *serveOptions) error {
	cfg, err := loadConfig(options)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := logging.Setup(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// drain wait must fit inside the stop timeout
	app := bootkit.New(
		bootkit.StartTimeout(time.Second*10),                       //nolint:mnd
		bootkit.StopTimeout(cfg.Listener.DrainWait+time.Second*15), //nolint:mnd
	)

	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return gateway.StartGateway(ctx, lifeCycle, cfg)
	})
	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return admin.NewAdminServer(ctx, cfg, lifeCycle)
	})

	return app.Start()
}

type signOptions struct {
	accessKey    string
	accessSecret string
	timestamp    int64
}

// newSignCommand prints the signature fields for a request, handy when
// checking credentials against the ACRCloud console with curl.
func newSignCommand() *cobra.Command {
	options := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the ACRCloud identify signature for the given credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if options.accessKey == "" || options.accessSecret == "" {
				return errors.New("--access-key and --access-secret are required")
			}

			timestamp := options.timestamp
			if timestamp == 0 {
				timestamp = time.Now().Unix()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "timestamp: %s\n", strconv.FormatInt(timestamp, 10))
			fmt.Fprintf(out, "string_to_sign: %q\n", acrcloud.StringToSign(options.accessKey, timestamp))
			fmt.Fprintf(out, "signature: %s\n", acrcloud.Sign(options.accessKey, options.accessSecret, timestamp))

			return nil
		},
	}

	cmd.Flags().StringVar(&options.accessKey, "access-key", os.Getenv("ACR_ACCESS_KEY"), "ACRCloud access key")
	cmd.Flags().StringVar(&options.accessSecret, "access-secret", os.Getenv("ACR_ACCESS_SECRET"), "ACRCloud access secret")
	cmd.Flags().Int64Var(&options.timestamp, "timestamp", 0, "Unix timestamp in seconds, defaults to now")

	return cmd
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		slog.Error("vizarcade exited with error", "error", err)
		os.Exit(1)
	}
}
