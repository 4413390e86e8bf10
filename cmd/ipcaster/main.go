// Command ipcaster is a thin CLI wrapper over the scheduler/egress/api
// packages: `play` runs a one-shot set of file-to-UDP streams until
// they all reach EOF; `service` starts the REST API and blocks.
//
// Grounded on ipcaster's original main.cpp / ConsoleOptions.hpp.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/adolfomarver/ipcaster/api"
	"github.com/adolfomarver/ipcaster/egress"
	ipclog "github.com/adolfomarver/ipcaster/log"
	"github.com/adolfomarver/ipcaster/scheduler"
)

const defaultServicePort = 8080
const muxerTickPeriod = 4 * time.Millisecond

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("ipcaster", flag.ContinueOnError)
	flags.Usage = printUsage

	verbosity := flags.Int("v", int(ipclog.Info), "verbosity level (0=QUIET .. 6=DEBUG1)")
	license := flags.Bool("l", false, "show the license")
	help := flags.Bool("h", false, "show this help message")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *help || len(args) == 0 {
		printUsage()
		return 0
	}
	if *license {
		printLicense()
		return 0
	}
	if *verbosity < int(ipclog.Quiet) || *verbosity > int(ipclog.Debug1) {
		fmt.Fprintln(os.Stderr, "invalid verbose level")
		return 1
	}

	ipclog.InitLogger(ipclog.Verbosity(*verbosity), "", 0, 0, 0)

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage()
		return 1
	}

	switch rest[0] {
	case "play":
		return runPlay(rest[1:])
	case "service":
		return runService(rest[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", rest[0])
		printUsage()
		return 1
	}
}

// runPlay creates one stream per {file ip port} triple and blocks
// until every one of them has reached EOF.
func runPlay(args []string) int {
	if len(args)%3 != 0 || len(args) == 0 {
		fmt.Fprintln(os.Stderr, "play: arguments must be groups of {file ip port}")
		return 1
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		return 1
	}

	muxer := egress.NewMuxer(conn, muxerTickPeriod)
	defer muxer.Close()

	sched := scheduler.New(muxer, ipclog.Sugar.Desugar())
	defer sched.Close()

	for i := 0; i+3 <= len(args); i += 3 {
		path, ip, portStr := args[i], args[i+1], args[i+2]
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			fmt.Fprintf(os.Stderr, "play: invalid port %q: %v\n", portStr, err)
			return 1
		}
		if _, err := sched.CreateStream(path, ip, uint16(port)); err != nil {
			fmt.Fprintf(os.Stderr, "play: %s: %v\n", path, err)
			return 1
		}
	}

	statusTicker := time.NewTicker(100 * time.Millisecond)
	defer statusTicker.Stop()

	for range statusTicker.C {
		if len(sched.ListStreams()) == 0 {
			return 0
		}
		printStatus(sched, muxer)
	}
	return 0
}

// printStatus prints a one-line snapshot of stream count, clocks, and
// output bandwidth, mirroring IPCaster::printStatus.
func printStatus(sched *scheduler.Scheduler, muxer *egress.Muxer) {
	streams := muxer.Streams()
	bps, maxBurst := muxer.OutputBandwidth()

	fmt.Printf("\rstreams=%d", len(streams))
	for _, st := range streams {
		fmt.Printf(" clock=%.3fs", st.CurrentTime().Seconds())
	}
	fmt.Printf(" bw=%.2fMbps maxBurst=%s", float64(bps)/1_000_000, maxBurst)
}

// runService starts the REST API server and blocks until interrupted.
func runService(args []string) int {
	flags := flag.NewFlagSet("service", flag.ContinueOnError)
	port := flags.Uint("port", defaultServicePort, "listening port")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "service: %v\n", err)
		return 1
	}

	muxer := egress.NewMuxer(conn, muxerTickPeriod)
	defer muxer.Close()

	logger := ipclog.Sugar.Desugar()
	sched := scheduler.New(muxer, logger)
	defer sched.Close()

	srv := api.NewServer(fmt.Sprintf(":%d", *port), sched, muxer, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "service: %v\n", err)
			return 1
		}
	case <-sigCh:
		srv.Close()
	}
	return 0
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println()
	fmt.Println("ipcaster [-v] [-l] [-h] {service {service_args} | play {play_args}}")
	fmt.Println()
	fmt.Println("  -v N    verbosity level (0=QUIET .. 6=DEBUG1)")
	fmt.Println("  -l      show the license")
	fmt.Println("  -h      show this help message")
	fmt.Println()
	fmt.Println("  {service_args} [-port P]   http listening port, default 8080")
	fmt.Println()
	fmt.Println("  {play_args} [{file} {target_ip} {target_port}] ...")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println()
	fmt.Println("ipcaster service")
	fmt.Println("ipcaster service -port 8080")
	fmt.Println("ipcaster play file1.ts 127.0.0.1 50000")
	fmt.Println("ipcaster play file1.ts 127.0.0.1 50000 file2.ts 127.0.0.1 50001")
	fmt.Println("ipcaster -v 5 service")
}

func printLicense() {
	fmt.Println("-----------------")
	fmt.Println("IPCaster license:")
	fmt.Println("-----------------")
	fmt.Println()
	fmt.Println("Licensed under the Apache License, Version 2.0 (the \"License\");")
	fmt.Println("you may not use this file except in compliance with the License.")
	fmt.Println("You may obtain a copy of the License at")
	fmt.Println()
	fmt.Println("     http://www.apache.org/licenses/LICENSE-2.0")
	fmt.Println()
	fmt.Println("Unless required by applicable law or agreed to in writing, software")
	fmt.Println("distributed under the License is distributed on an \"AS IS\" BASIS,")
	fmt.Println("WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.")
	fmt.Println("See the License for the specific language governing permissions and")
	fmt.Println("limitations under the License.")
}
