package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Cray-HPE/hms-xname/xnametypes"
	"github.com/cznic/mathutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/internal/format"
	"github.com/OpenCHAMI/mercator/internal/util"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/drivers"
	"github.com/OpenCHAMI/mercator/pkg/secrets"
)

var registry = drivers.Default()

// Target is one BMC to act on. ID is a display name, usually an xname.
type Target struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Host   string `json:"host" yaml:"host"`
	Vendor string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

func (t Target) Name() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Host
}

// looksLikeXname reports whether id is meant to be an xname, i.e. "x" followed
// by a cabinet number.
func looksLikeXname(id string) bool {
	return len(id) > 1 && (id[0] == 'x' || id[0] == 'X') && id[1] >= '0' && id[1] <= '9'
}

// ParseTargets reads a YAML or JSON list of targets. Entries without a vendor
// get defaultVendor; ids that look like xnames must be valid ones.
func ParseTargets(data []byte, dataFormat format.DataFormat, defaultVendor string) ([]Target, error) {
	var targets []Target
	if err := format.Unmarshal(data, &targets, dataFormat); err != nil {
		return nil, err
	}
	for i := range targets {
		t := &targets[i]
		if t.Host == "" {
			return nil, fmt.Errorf("target %d (%s) has no host", i, t.ID)
		}
		if looksLikeXname(t.ID) && xnametypes.GetHMSType(t.ID) == xnametypes.HMSTypeInvalid {
			return nil, fmt.Errorf("target %d has an invalid xname %q", i, t.ID)
		}
		if t.Vendor == "" {
			t.Vendor = defaultVendor
		}
	}
	return targets, nil
}

// resolveTargets selects targets from --targets-file, positional arguments
// and --host. Arguments matching a target id pick that target; any other
// argument is taken as a host.
func resolveTargets(args []string) ([]Target, error) {
	vendorName := viper.GetString("vendor")
	var known []Target
	if path := viper.GetString("targets-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read targets file: %w", err)
		}
		known, err = ParseTargets(data, format.DataFormatFromFileExt(path, format.FORMAT_YAML), vendorName)
		if err != nil {
			return nil, fmt.Errorf("failed to parse targets file %s: %w", path, err)
		}
	}
	return selectTargets(known, args, viper.GetString("host"), vendorName)
}

func selectTargets(known []Target, args []string, host, vendorName string) ([]Target, error) {
	if len(args) == 0 {
		if len(known) > 0 {
			return known, nil
		}
		if host == "" {
			return nil, fmt.Errorf("no target given: set --host, pass hosts as arguments or use --targets-file")
		}
		return []Target{{Host: host, Vendor: vendorName}}, nil
	}

	byID := make(map[string]Target, len(known))
	for _, t := range known {
		if t.ID != "" {
			byID[t.ID] = t
		}
	}
	targets := make([]Target, 0, len(args))
	for _, arg := range args {
		if t, ok := byID[arg]; ok {
			targets = append(targets, t)
			continue
		}
		if looksLikeXname(arg) && len(known) > 0 {
			log.Error().Msgf("target '%s' not found in targets file; skipping", arg)
			continue
		}
		targets = append(targets, Target{Host: arg, Vendor: vendorName})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("none of the requested targets were found")
	}
	return targets, nil
}

func options() map[string]string {
	opts := viper.GetStringMapString("option")
	if opts == nil {
		opts = map[string]string{}
	}
	return opts
}

// connect opens an adapter for t with credentials from store.
func connect(ctx context.Context, store secrets.Store, t Target) (*adapter.Adapter, error) {
	creds, err := util.GetBMCCredentials(store, t.Host)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("host", t.Host).Str("vendor", t.Vendor).Msg("connecting")
	return registry.New(ctx, t.Vendor, adapter.Config{
		Host:     t.Host,
		Username: creds.Username,
		Password: creds.Password,
		Insecure: viper.GetBool("insecure"),
		Timeout:  viper.GetDuration("timeout"),
		Options:  options(),
	})
}

// Result is the outcome of one operation against one target.
type Result struct {
	Target string `json:"target" yaml:"target"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// runAll connects to every target and runs fn, at most concurrency at a time.
// Results keep the order of targets.
func runAll(ctx context.Context, targets []Target, fn func(context.Context, *adapter.Adapter) (any, error)) []Result {
	concurrency := viper.GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = mathutil.Clamp(len(targets), 1, 10000)
	}
	store := util.BuildSecretStore()
	return concurrent_helper(concurrency, targets, func(t Target) Result {
		result := Result{Target: t.Name()}
		a, err := connect(ctx, store, t)
		if err != nil {
			log.Error().Err(err).Str("target", t.Name()).Msg("failed to connect")
			result.Error = err.Error()
			return result
		}
		defer func() {
			if err := a.Close(context.Background()); err != nil {
				log.Debug().Err(err).Str("target", t.Name()).Msg("failed to close session")
			}
		}()
		value, err := fn(ctx, a)
		if err != nil {
			log.Error().Err(err).Str("target", t.Name()).Msg("operation failed")
			result.Error = err.Error()
			return result
		}
		result.Value = value
		return result
	})
}

func concurrent_helper(concurrency int, targets []Target, runner func(Target) Result) []Result {
	type indexed struct {
		index  int
		target Target
	}
	work := make(chan indexed, 1)
	results := make([]Result, len(targets))
	var wg sync.WaitGroup

	// Worker threads
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for item := range work {
				results[item.index] = runner(item.target)
			}
		}()
	}

	for i, t := range targets {
		work <- indexed{index: i, target: t}
	}
	close(work)
	wg.Wait()
	return results
}

// printResults prints a single target's value as is, or every target's
// result when there are several. It returns an error if any target failed.
func printResults(out io.Writer, results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Error != "" {
			errs = append(errs, fmt.Errorf("%s: %s", r.Target, r.Error))
		}
	}
	var data any = results
	if len(results) == 1 {
		if results[0].Error != "" {
			return fmt.Errorf("%s", results[0].Error)
		}
		data = results[0].Value
	} else if outputFormat == format.FORMAT_LIST {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(out, "%s:\terror: %s\n", r.Target, r.Error)
				continue
			}
			if s, ok := r.Value.(string); ok {
				fmt.Fprintf(out, "%s:\t%s\n", r.Target, s)
				continue
			}
			fmt.Fprintf(out, "# %s\n", r.Target)
			if err := format.Write(out, r.Value, outputFormat); err != nil {
				return err
			}
		}
		return util.FormatErrorList(errs)
	}
	if err := format.Write(out, data, outputFormat); err != nil {
		return err
	}
	return util.FormatErrorList(errs)
}
