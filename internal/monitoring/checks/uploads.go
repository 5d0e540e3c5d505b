package checks

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/hoaxify/hoaxify/internal/monitoring"
)

// Uploads verifies the upload folders exist on fs.
func Uploads(fs afero.Fs, dirs ...string) monitoring.Check {
	return monitoring.NewCheck("uploads", func(context.Context) monitoring.ProbeResult {
		var missing []string
		for _, dir := range dirs {
			ok, err := afero.DirExists(fs, dir)
			if err != nil || !ok {
				missing = append(missing, dir)
			}
		}
		if len(missing) > 0 {
			return monitoring.ProbeResult{
				Status:  monitoring.StatusDown,
				Details: "missing " + strings.Join(missing, ", "),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
