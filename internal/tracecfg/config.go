// Package tracecfg is the CLI configuration surface: archive path,
// time-range filter, which event kinds to print, and the decoder's
// id-remapping/clock-correction toggles, bound as persistent cobra flags
// shared by every subcommand.
package tracecfg

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Config is the resolved set of flags a subcommand reads before opening an
// archive.
type Config struct {
	ArchivePath string

	Since time.Time
	Until time.Time

	Kinds []string

	ApplyMappings bool
	ApplyClocks   bool

	Output string
}

// BindPersistent registers the shared flags on cmd, the same grouping the
// teacher's "config" command tree uses for --addr/--token/--output.
func BindPersistent(cmd *cobra.Command) {
	cmd.PersistentFlags().String("archive", "", "path to the trace archive directory (required)")
	cmd.PersistentFlags().String("since", "", "only show events at or after this RFC3339 timestamp")
	cmd.PersistentFlags().String("until", "", "only show events at or before this RFC3339 timestamp")
	cmd.PersistentFlags().StringSlice("kinds", nil, "comma-separated event kinds to print (default: all)")
	cmd.PersistentFlags().Bool("no-remap", false, "disable id remapping, print raw producer-local ids")
	cmd.PersistentFlags().Bool("no-clock-correct", false, "disable clock correction, print raw local timestamps")
	cmd.PersistentFlags().StringP("output", "o", "text", "output format (events are always printed as text)")
}

// FromCmd resolves a Config from cmd's bound flags.
func FromCmd(cmd *cobra.Command) (Config, error) {
	archivePath, _ := cmd.Flags().GetString("archive")
	if archivePath == "" {
		return Config{}, fmt.Errorf("--archive is required")
	}

	since, err := parseOptionalTime(cmd, "since")
	if err != nil {
		return Config{}, err
	}
	until, err := parseOptionalTime(cmd, "until")
	if err != nil {
		return Config{}, err
	}

	kinds, _ := cmd.Flags().GetStringSlice("kinds")
	noRemap, _ := cmd.Flags().GetBool("no-remap")
	noClockCorrect, _ := cmd.Flags().GetBool("no-clock-correct")
	output, _ := cmd.Flags().GetString("output")

	return Config{
		ArchivePath:   archivePath,
		Since:         since,
		Until:         until,
		Kinds:         kinds,
		ApplyMappings: !noRemap,
		ApplyClocks:   !noClockCorrect,
		Output:        output,
	}, nil
}

func parseOptionalTime(cmd *cobra.Command, flag string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(flag)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --%s: %w", flag, err)
	}
	return t, nil
}

// KindFilter reports whether kind should be printed, honoring an empty
// Kinds list as "print everything".
func (c Config) KindFilter(kind string) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// InRange reports whether ts (already clock-corrected, in the producer's
// time domain) falls within [Since, Until], treating a zero bound as
// unset.
func (c Config) InRange(ts time.Time) bool {
	if !c.Since.IsZero() && ts.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && ts.After(c.Until) {
		return false
	}
	return true
}
