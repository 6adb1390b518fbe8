// Command racewatch drives an HTTP target with one of four load-traffic
// shapes (burst, constant, ramp-up, stress test) and reports latency
// percentiles plus a response-diversity metric.
package main

// Do not add any external dependencies outside the teacher's stack.

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"fortio.org/cli"
	"fortio.org/dflag"
	"fortio.org/log"

	"github.com/racewatch/racewatch/controller"
	"github.com/racewatch/racewatch/curlparse"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/version"
)

type headerList struct{}

func (*headerList) String() string { return "" }

func (*headerList) Set(value string) error {
	key, val, found := strings.Cut(value, ":")
	if !found {
		return fmt.Errorf("invalid -H value %q, expecting Key:Value", value)
	}
	headerFlags[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	return nil
}

var headerFlags = map[string]string{}

var (
	urlFlag        = flag.String("url", "", "target URL for the load test")
	curlFlag       = flag.String("curl", "", "a curl command line to derive the target, method, headers and body from")
	methodFlag     = flag.String("method", "", "HTTP method, overrides -curl's method if set")
	bodyFlag       = flag.String("body", "", "request body, overrides -curl's body if set")
	vusFlag        = flag.Int("c", 100, "number of virtual users / concurrent connections")
	modeFlag       = flag.String("mode", "burst", "traffic shape: burst, constant, rampup, or stress")
	durationFlag   = flag.Int("duration", 0, "duration in seconds for constant/rampup modes")
	iterationsFlag = flag.Int("iterations", 1, "iterations value stored in the run config; no mode reads it (burst sends one request per virtual user)")
	jsonFlag       = flag.Bool("json", false, "print the result as JSON instead of a human summary")
	versionFlag    = flag.Bool("version", false, "print version and exit")

	// Dynamic flags (dflag). buildConfig reads each value once, so a run
	// uses the value in effect when it starts; a later change does not
	// reach a run already in progress.
	timeoutFlag   = dflag.DynInt64(flag.CommandLine, "timeout-ms", 10000, "per-request timeout in milliseconds")
	thinkTimeFlag = dflag.DynInt64(flag.CommandLine, "think-time-ms", 0, "delay between iterations for a single virtual user")
)

func main() {
	os.Exit(Main())
}

// Main runs the racewatch CLI and returns its exit code; split out from
// main so it can be driven from a testscript harness.
func Main() int {
	cli.ProgramName = "racewatch"
	cli.ArgsHelp = ""
	cli.MinArgs = 0
	cli.MaxArgs = 0
	flag.Var(&headerList{}, "H", "additional request header Key:Value, repeatable")
	cli.Main()

	if *versionFlag {
		fmt.Println(version.Long())
		return 0
	}

	cfg, err := buildConfig()
	if err != nil {
		cli.ErrUsage("Error: %v", err)
	}

	c := controller.New()
	result, err := c.Run(cfg, nil)
	if err != nil {
		log.Errf("run failed: %v", err)
		return 1
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Errf("failed to encode result: %v", err)
			return 1
		}
		return 0
	}

	fmt.Printf("Mode: %s  VirtualUsers: %d\n", cfg.Mode, cfg.VirtualUsers)
	fmt.Printf("Requests: %d  Success: %d  Errors: %d  Cancelled: %d\n",
		result.TotalRequests, result.SuccessCount, result.ErrorCount, result.CancelledCount)
	fmt.Printf("Duration: %.1f ms  RPS: %.1f\n", result.TotalDurationMs, result.RequestsPerSecond)
	fmt.Printf("Latency ms: min=%.2f avg=%.2f max=%.2f p50=%.2f p90=%.2f p95=%.2f p99=%.2f p99.9=%.2f\n",
		result.LatencyMinMs, result.LatencyAvgMs, result.LatencyMaxMs,
		result.Latency.P50, result.Latency.P90, result.Latency.P95, result.Latency.P99, result.Latency.P999)
	fmt.Printf("Race: unique_responses=%d race_conditions=%d consistency=%.1f%%\n",
		result.Race.UniqueResponses, result.Race.RaceConditionsDetected, result.Race.ResponseConsistency)
	if result.WasCancelled {
		fmt.Println("run was cancelled before completion")
	}
	return 0
}

// buildConfig merges a -curl derivation with the explicit flags, which
// always win over whatever the curl command implied.
func buildConfig() (racecfg.TestConfig, error) {
	var cfg racecfg.TestConfig
	if *curlFlag != "" {
		parsed, err := curlparse.Parse(*curlFlag)
		if err != nil {
			return racecfg.TestConfig{}, err
		}
		cfg = parsed
	}

	if *urlFlag != "" {
		cfg.URL = *urlFlag
	}
	if *methodFlag != "" {
		cfg.Method = *methodFlag
	}
	if *bodyFlag != "" {
		cfg.Body = []byte(*bodyFlag)
	}
	if len(headerFlags) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range headerFlags {
			cfg.Headers[k] = v
		}
	}
	cfg.VirtualUsers = *vusFlag
	cfg.Mode = racecfg.ParseMode(*modeFlag)
	cfg.DurationSecs = *durationFlag
	cfg.Iterations = *iterationsFlag
	cfg.TimeoutMs = int(timeoutFlag.Get())
	cfg.ThinkTimeMs = int(thinkTimeFlag.Get())

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return racecfg.TestConfig{}, err
	}
	return cfg, nil
}
