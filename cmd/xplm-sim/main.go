/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command xplm-sim runs plugin scenarios against the simulated host.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/srediag/plugin-xplm/adapter"
	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/internal/scenario"
	"github.com/srediag/plugin-xplm/pkg/health"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

var (
	version = "dev"
	commit  = "none"

	serveAddr string
	hold      bool
	verbose   bool
	logLevel  string
	otelFlag  bool
)

func versionString() string {
	return fmt.Sprintf("xplm-sim %s (commit: %s, SDK %v)", version, commit, xplm.Target)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "xplm-sim",
		Short:         "Run plugin scenarios on a simulated host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if logLevel == "" {
				return nil
			}
			lv, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logging.SetLevel(lv)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (error, warn, info, debug, trace)")

	runCmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and report failed expectations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&serveAddr, "serve", "", "serve /live, /ready and /metrics on this address")
	runCmd.Flags().BoolVar(&hold, "hold", false, "keep the plugin loaded after the last step until interrupted")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "mirror the host console to stderr")
	runCmd.Flags().BoolVar(&otelFlag, "otel", false, "trace callbacks with the global OpenTelemetry providers")

	checkCmd := &cobra.Command{
		Use:   "check <scenario.yaml>...",
		Short: "Validate scenario files without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := scenario.Load(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(runCmd, checkCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	var console io.Writer
	if verbose {
		console = cmd.ErrOrStderr()
	}
	r, err := scenario.NewRunner(sc, scenario.Options{Out: console, OTel: otelFlag})
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if serveAddr != "" {
		mux := adapter.NewMux(r.Shim(), r.Registry(), health.Options{MaxGoroutines: 1000})
		srv, err := adapter.Listen(serveAddr, mux, logging.New("xplm-sim", logging.WriterSink(cmd.ErrOrStderr())))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "serving on http://%s\n", srv.Addr())
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Close(sctx)
		}()
	}

	rep, err := r.Run(ctx)
	printReport(cmd.OutOrStdout(), rep)
	if err != nil {
		return err
	}
	if hold {
		fmt.Fprintln(cmd.ErrOrStderr(), "holding, interrupt to unload")
		r.Idle(ctx)
	}
	if !rep.OK() {
		return fmt.Errorf("%d expectation(s) failed", len(rep.Failures))
	}
	return nil
}

func printReport(w io.Writer, rep *scenario.Report) {
	name := rep.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(w, "%s: %d steps, %d frames, %d reloads\n", name, rep.Steps, rep.Frames, rep.Reloads)
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  FAIL %v\n", f)
	}
}
